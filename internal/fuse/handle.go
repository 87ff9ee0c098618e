package fuse

import (
	"context"
	"syscall"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"
)

// handle is an engine descriptor opened through the mount.
type handle struct {
	mount *mount
	fd    uint64
}

var _ = (gofuse.FileReader)((*handle)(nil))
var _ = (gofuse.FileWriter)((*handle)(nil))
var _ = (gofuse.FileFlusher)((*handle)(nil))
var _ = (gofuse.FileFsyncer)((*handle)(nil))
var _ = (gofuse.FileReleaser)((*handle)(nil))

func (h *handle) Read(ctx context.Context, dest []byte, off int64) (fuse.ReadResult, syscall.Errno) {
	if off < 0 {
		return nil, syscall.EINVAL
	}
	n, err := h.mount.service.Read(h.mount.context(ctx), h.fd, uint64(off), dest)
	if err != nil {
		return nil, toErrno(err)
	}
	return fuse.ReadResultData(dest[:n]), gofuse.OK
}

func (h *handle) Write(ctx context.Context, data []byte, off int64) (uint32, syscall.Errno) {
	if off < 0 {
		return 0, syscall.EINVAL
	}
	n, err := h.mount.service.Write(h.mount.context(ctx), h.fd, uint64(off), data)
	if err != nil {
		return 0, toErrno(err)
	}
	return uint32(n), gofuse.OK
}

// Flush and Fsync have nothing to do for memory-backed content. The
// engine answers ENOSYS, which the mount reports as success.
func (h *handle) Flush(ctx context.Context) syscall.Errno {
	err := h.mount.service.Flush(h.mount.context(ctx), "", h.fd)
	if errno := toErrno(err); errno != syscall.ENOSYS {
		return errno
	}
	return gofuse.OK
}

func (h *handle) Fsync(ctx context.Context, flags uint32) syscall.Errno {
	err := h.mount.service.Fsync(h.mount.context(ctx), "", h.fd, flags&1 != 0)
	if errno := toErrno(err); errno != syscall.ENOSYS {
		return errno
	}
	return gofuse.OK
}

func (h *handle) Release(ctx context.Context) syscall.Errno {
	return toErrno(h.mount.service.Release(h.mount.context(ctx), h.fd))
}
