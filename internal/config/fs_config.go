package config

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
)

type FilesystemConfig struct {
	RootMode     string `yaml:"root_mode" env:"MEMFS_ROOT_MODE" env-default:"0755"`
	MaxFileSize  string `yaml:"max_file_size" env:"MEMFS_MAX_FILE_SIZE" env-default:"2GiB"`
	MaxOpenFiles uint64 `yaml:"max_open_files" env:"MEMFS_MAX_OPEN_FILES"`
	SeedSample   bool   `yaml:"seed_sample" env:"MEMFS_SEED_SAMPLE"`
}

// Mode parses RootMode as an octal permission value.
func (c FilesystemConfig) Mode() (uint32, error) {
	mode, err := strconv.ParseUint(c.RootMode, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("root_mode %q: %w", c.RootMode, err)
	}
	if mode&^0o7777 != 0 {
		return 0, fmt.Errorf("root_mode %q: not a permission value", c.RootMode)
	}
	return uint32(mode), nil
}

// FileSizeLimit parses MaxFileSize ("2GiB", "512 MB", "1048576").
func (c FilesystemConfig) FileSizeLimit() (uint64, error) {
	size, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("max_file_size %q: %w", c.MaxFileSize, err)
	}
	return size, nil
}
