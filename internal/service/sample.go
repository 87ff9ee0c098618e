package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
)

const (
	sampleDirMode  = 0o755 // rwxr-xr-x
	sampleFileMode = 0o444 // r--r--r--
)

// Seed populates a fresh filesystem with the sample tree:
//
//	/file1
//	/empty_dir/
//	/dir_with_files/file2
//	/dir_with_files/file3
//	/dir_with_files/nested_dir/file4
func Seed(ctx context.Context, fs FileSystemService) error {
	const op = "service.Seed"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	for _, dir := range []string{"/empty_dir", "/dir_with_files", "/dir_with_files/nested_dir"} {
		if err := fs.MkDir(ctx, dir, sampleDirMode); err != nil {
			return fmt.Errorf("%s: mkdir %s: %w", op, dir, err)
		}
	}

	files := []struct {
		path    string
		content string
	}{
		{"/file1", "Content of file1"},
		{"/dir_with_files/file2", "Content of file2"},
		{"/dir_with_files/file3", "Content of file3"},
		{"/dir_with_files/nested_dir/file4", "Content of file4"},
	}
	for _, f := range files {
		if err := seedFile(ctx, fs, f.path, []byte(f.content)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	logger.Info("Sample tree created", slog.Int("files", len(files)))
	return nil
}

func seedFile(ctx context.Context, fs FileSystemService, path string, content []byte) error {
	fd, err := fs.Create(ctx, path, sampleFileMode)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer fs.Release(ctx, fd)

	if _, err := fs.Write(ctx, fd, 0, content); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
