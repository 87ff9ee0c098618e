// Package fuse exposes the filesystem engine as a FUSE mount. Every
// kernel request is translated into a path-based engine call and the
// engine's status back into an errno.
package fuse

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/service"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
)

// Options configures the FUSE mount.
type Options struct {
	// Mountpoint is created if it does not exist.
	Mountpoint string

	Service service.FileSystemService

	// AllowOther requires user_allow_other in /etc/fuse.conf.
	AllowOther bool

	// Debug logs every FUSE request and reply.
	Debug bool

	// Logger is attached to the context of every engine call. Nil
	// means the logging package fallback.
	Logger *slog.Logger
}

// Mount mounts the engine at options.Mountpoint. The caller must call
// Unmount on the returned server.
func Mount(options Options) (*fuse.Server, error) {
	if options.Mountpoint == "" {
		return nil, fmt.Errorf("mountpoint is required")
	}
	if options.Service == nil {
		return nil, fmt.Errorf("service is required")
	}
	if options.Logger == nil {
		options.Logger = logging.GetLoggerFromContext(context.Background())
	}

	if err := os.MkdirAll(options.Mountpoint, 0o755); err != nil {
		return nil, fmt.Errorf("creating mountpoint %s: %w", options.Mountpoint, err)
	}

	root := &node{mount: &mount{service: options.Service, logger: options.Logger}}

	// The engine can change behind the kernel's back through the HTTP
	// adaptor, so attributes are not cached for long.
	entryTimeout := 100 * time.Millisecond
	attrTimeout := 100 * time.Millisecond
	negativeTimeout := time.Duration(0)

	server, err := gofuse.Mount(options.Mountpoint, root, &gofuse.Options{
		EntryTimeout:    &entryTimeout,
		AttrTimeout:     &attrTimeout,
		NegativeTimeout: &negativeTimeout,
		MountOptions: fuse.MountOptions{
			FsName:     "memfs",
			Name:       "memfs",
			AllowOther: options.AllowOther,
			Debug:      options.Debug,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mounting FUSE filesystem at %s: %w", options.Mountpoint, err)
	}

	options.Logger.Info("FUSE filesystem mounted", slog.String("mountpoint", options.Mountpoint))
	return server, nil
}

// mount is shared by every node of one mount.
type mount struct {
	service service.FileSystemService
	logger  *slog.Logger
}

func (m *mount) context(ctx context.Context) context.Context {
	return logging.MakeContextWithLogger(ctx, m.logger)
}

// toErrno converts an engine error into the errno the kernel expects.
func toErrno(err error) syscall.Errno {
	return syscall.Errno(-service.Status(err))
}

// fillAttr copies engine attributes into a FUSE attribute block.
func fillAttr(attr *models.Attr, out *fuse.Attr) {
	out.Ino = uint64(attr.Ino)
	out.Mode = attr.Mode
	out.Size = uint64(attr.Size)
	out.Nlink = attr.Nlink
	out.Blocks = (out.Size + 511) / 512
	out.SetTimes(&attr.Atime, &attr.Mtime, &attr.Mtime)
}
