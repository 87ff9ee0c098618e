package config

type FuseConfig struct {
	Enabled    bool   `yaml:"enabled" env:"MEMFS_FUSE_ENABLED"`
	Mountpoint string `yaml:"mountpoint" env:"MEMFS_MOUNTPOINT" env-default:"/tmp/memoryfs"`
	AllowOther bool   `yaml:"allow_other" env:"MEMFS_ALLOW_OTHER"`
	Debug      bool   `yaml:"debug" env:"MEMFS_FUSE_DEBUG"`
}
