package service

import (
	"context"
	"log/slog"

	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging/slogext"
)

// UnsupportedOperations are part of the adaptor contract but not
// implemented by the in-memory engine. All of them fail with ENOSYS.
type UnsupportedOperations interface {
	Rename(ctx context.Context, fromPath string, toPath string) error
	Symlink(ctx context.Context, target string, path string) error
	Readlink(ctx context.Context, path string) (string, error)
	Access(ctx context.Context, path string, mask uint32) error
	StatFS(ctx context.Context, path string) error
	Flush(ctx context.Context, path string, fd uint64) error
	Fsync(ctx context.Context, path string, fd uint64, dataOnly bool) error
	GetXAttr(ctx context.Context, path string, name string) ([]byte, error)
	SetXAttr(ctx context.Context, path string, name string, value []byte, flags uint32) error
	ListXAttr(ctx context.Context, path string) ([]string, error)
	RemoveXAttr(ctx context.Context, path string, name string) error
}

func (s *fileSystemService) unsupported(ctx context.Context, op string, path string) error {
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Operation not supported", slogext.Path("path", path), slog.Int64("errno", errNotSupport.Code))
	return errNotSupport
}

func (s *fileSystemService) Rename(ctx context.Context, fromPath string, toPath string) error {
	return s.unsupported(ctx, "service.fileSystemService.Rename", fromPath)
}

func (s *fileSystemService) Symlink(ctx context.Context, target string, path string) error {
	return s.unsupported(ctx, "service.fileSystemService.Symlink", path)
}

func (s *fileSystemService) Readlink(ctx context.Context, path string) (string, error) {
	return "", s.unsupported(ctx, "service.fileSystemService.Readlink", path)
}

func (s *fileSystemService) Access(ctx context.Context, path string, mask uint32) error {
	return s.unsupported(ctx, "service.fileSystemService.Access", path)
}

func (s *fileSystemService) StatFS(ctx context.Context, path string) error {
	return s.unsupported(ctx, "service.fileSystemService.StatFS", path)
}

func (s *fileSystemService) Flush(ctx context.Context, path string, fd uint64) error {
	return s.unsupported(ctx, "service.fileSystemService.Flush", path)
}

func (s *fileSystemService) Fsync(ctx context.Context, path string, fd uint64, dataOnly bool) error {
	return s.unsupported(ctx, "service.fileSystemService.Fsync", path)
}

func (s *fileSystemService) GetXAttr(ctx context.Context, path string, name string) ([]byte, error) {
	return nil, s.unsupported(ctx, "service.fileSystemService.GetXAttr", path)
}

func (s *fileSystemService) SetXAttr(ctx context.Context, path string, name string, value []byte, flags uint32) error {
	return s.unsupported(ctx, "service.fileSystemService.SetXAttr", path)
}

func (s *fileSystemService) ListXAttr(ctx context.Context, path string) ([]string, error) {
	return nil, s.unsupported(ctx, "service.fileSystemService.ListXAttr", path)
}

func (s *fileSystemService) RemoveXAttr(ctx context.Context, path string, name string) error {
	return s.unsupported(ctx, "service.fileSystemService.RemoveXAttr", path)
}
