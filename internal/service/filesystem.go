package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sys/unix"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/pkg/kerrors"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/repository"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging/slogext"
)

const (
	VTFS_ROOT_INO = repository.VTFS_ROOT_INO

	S_IFDIR = unix.S_IFDIR // Directory
	S_IFREG = unix.S_IFREG // Regular file

	S_IRWXUGO = 0o0777 // Read, write, execute for owner, group, others
	S_IALLUGO = unix.S_ISUID | unix.S_ISGID | unix.S_ISVTX | S_IRWXUGO
)

// FileSystemService is the filesystem engine. Paths are absolute and
// '/'-separated; a trailing NUL is ignored. Descriptor 0 means "no open
// file, use the path".
type FileSystemService interface {
	GetAttr(ctx context.Context, path string) (*models.Attr, error)
	Open(ctx context.Context, path string, flags uint32) (uint64, error)
	Create(ctx context.Context, path string, mode uint32) (uint64, error)
	Read(ctx context.Context, fd uint64, offset uint64, buffer []byte) (int, error)
	Write(ctx context.Context, fd uint64, offset uint64, data []byte) (int, error)
	Truncate(ctx context.Context, path string, fd uint64, size uint64) error
	MkDir(ctx context.Context, path string, mode uint32) error
	RmDir(ctx context.Context, path string) error
	Unlink(ctx context.Context, path string) error
	Link(ctx context.Context, fromPath string, toPath string) error
	ReadDir(ctx context.Context, path string) ([]models.Dirent, error)
	IterateDir(ctx context.Context, path string, offset uint64) (*models.Dirent, error)
	CountLinks(ctx context.Context, path string) (uint32, error)
	ChMod(ctx context.Context, path string, fd uint64, mode uint32) error
	UpdateTimestamps(ctx context.Context, path string, fd uint64, atime, mtime models.TimeSpec) error
	Release(ctx context.Context, fd uint64) error

	UnsupportedOperations

	Close(ctx context.Context) error
}

type fileSystemService struct {
	mu     sync.Mutex
	ns     *repository.Namespace
	files  *repository.OpenFileTable
	closed bool
}

func NewFileSystemService(ns *repository.Namespace, files *repository.OpenFileTable) FileSystemService {
	return &fileSystemService{
		ns:    ns,
		files: files,
	}
}

// do runs fn under the engine lock. A panic inside fn is an internal
// fault and is reported as EIO.
func (s *fileSystemService) do(ctx context.Context, op string, fn func() error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			logger := logging.GetLoggerFromContextWithOp(ctx, op)
			logger.Error("Internal fault", slog.Any("panic", r))
			err = &ServiceError{Code: kerrors.EIO, Message: fmt.Sprintf("internal fault: %v", r)}
		}
	}()

	if s.closed {
		return errClosed
	}
	return fn()
}

// parentError picks ENOTDIR or ENOENT for a parent that did not resolve.
func parentError(parentIsNotDir bool) error {
	if parentIsNotDir {
		return errParentNoDir
	}
	return errNotFound
}

func (s *fileSystemService) attr(entry repository.Entry) *models.Attr {
	node := entry.Node()
	attr := &models.Attr{
		Ino:   node.Ino,
		Type:  entry.Type(),
		Nlink: repository.Nlink(entry),
		Atime: node.Atime,
		Mtime: node.Mtime,
	}
	switch e := entry.(type) {
	case *repository.Directory:
		attr.Mode = S_IFDIR | (node.Mode & S_IALLUGO)
	case *repository.File:
		attr.Mode = S_IFREG | (node.Mode & S_IALLUGO)
		attr.Size = e.Size()
	}
	return attr
}

func (s *fileSystemService) GetAttr(ctx context.Context, path string) (*models.Attr, error) {
	const op = "service.fileSystemService.GetAttr"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("GetAttr", slogext.Path("path", path))

	var attr *models.Attr
	err := s.do(ctx, op, func() error {
		entry := s.ns.Find(path)
		if entry == nil {
			logger.Debug("Entry not found", slogext.Path("path", path))
			return errNotFound
		}
		attr = s.attr(entry)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Attributes retrieved",
		slog.Int64("ino", attr.Ino),
		slog.String("type", attr.Type.String()),
		slog.Int64("size", attr.Size),
		slog.Uint64("nlink", uint64(attr.Nlink)),
	)
	return attr, nil
}

func (s *fileSystemService) Open(ctx context.Context, path string, flags uint32) (uint64, error) {
	const op = "service.fileSystemService.Open"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Open", slogext.Path("path", path), slog.Uint64("flags", uint64(flags)))

	var fd uint64
	err := s.do(ctx, op, func() error {
		parent, parentIsNotDir, entry, _ := s.ns.FindParentAndName(path)
		if parent == nil {
			return parentError(parentIsNotDir)
		}

		var file *repository.File
		switch e := entry.(type) {
		case nil:
			logger.Debug("File not found", slogext.Path("path", path))
			return errNotFound
		case *repository.Directory:
			return errIsDir
		case *repository.File:
			file = e
		}

		if flags&unix.O_TRUNC != 0 {
			if err := file.Truncate(0); err != nil {
				return fromRepository(err)
			}
			file.Mtime = s.ns.Now()
		}

		var err error
		fd, err = s.files.Open(file)
		return fromRepository(err)
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("File opened", slogext.Path("path", path), slog.Uint64("fd", fd))
	return fd, nil
}

func (s *fileSystemService) Create(ctx context.Context, path string, mode uint32) (uint64, error) {
	const op = "service.fileSystemService.Create"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Create", slogext.Path("path", path), slog.Uint64("mode", uint64(mode)))

	var fd uint64
	err := s.do(ctx, op, func() error {
		parent, parentIsNotDir, entry, name := s.ns.FindParentAndName(path)
		if parent == nil {
			return parentError(parentIsNotDir)
		}
		if entry != nil {
			logger.Debug("File already exists", slogext.Path("path", path))
			return errExists
		}

		file, err := parent.AddFile(name, nil, mode&S_IALLUGO)
		if err != nil {
			return fromRepository(err)
		}

		fd, err = s.files.Open(file)
		if err != nil {
			// No descriptor for the new file: do not leave it behind.
			parent.Remove(name)
			return fromRepository(err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("File created", slogext.Path("path", path), slog.Uint64("fd", fd))
	return fd, nil
}

func (s *fileSystemService) Read(ctx context.Context, fd uint64, offset uint64, buffer []byte) (int, error) {
	const op = "service.fileSystemService.Read"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Read",
		slog.Uint64("fd", fd),
		slog.Uint64("offset", offset),
		slog.Int("len", len(buffer)),
	)

	var read int
	err := s.do(ctx, op, func() error {
		of, err := s.files.Get(fd)
		if err != nil {
			return fromRepository(err)
		}
		read = of.Read(offset, buffer)
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("Read completed", slog.Uint64("fd", fd), slog.Int("read", read))
	return read, nil
}

func (s *fileSystemService) Write(ctx context.Context, fd uint64, offset uint64, data []byte) (int, error) {
	const op = "service.fileSystemService.Write"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Write",
		slog.Uint64("fd", fd),
		slog.Uint64("offset", offset),
		slog.Int("len", len(data)),
	)

	var written int
	err := s.do(ctx, op, func() error {
		of, err := s.files.Get(fd)
		if err != nil {
			return fromRepository(err)
		}
		written, err = of.Write(offset, data)
		if err != nil {
			return fromRepository(err)
		}
		of.File().Mtime = s.ns.Now()
		return nil
	})
	if err != nil {
		return 0, err
	}

	logger.Debug("Write completed",
		slog.Uint64("fd", fd),
		slog.Int("written", written),
		slog.String("pool_in_use", humanize.IBytes(uint64(s.ns.Pool().InUse()))),
	)
	return written, nil
}

func (s *fileSystemService) Truncate(ctx context.Context, path string, fd uint64, size uint64) error {
	const op = "service.fileSystemService.Truncate"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Truncate", slogext.Path("path", path), slog.Uint64("fd", fd), slog.Uint64("size", size))

	return s.do(ctx, op, func() error {
		file, err := s.resolveFile(path, fd)
		if err != nil {
			return err
		}
		if err := file.Truncate(size); err != nil {
			logger.Debug("Truncate rejected", slogext.Err(err), slog.Uint64("size", size))
			return fromRepository(err)
		}
		file.Mtime = s.ns.Now()
		return nil
	})
}

// resolveFile finds the file behind fd, or behind path when fd is 0.
func (s *fileSystemService) resolveFile(path string, fd uint64) (*repository.File, error) {
	if fd != 0 {
		of, err := s.files.Get(fd)
		if err != nil {
			return nil, fromRepository(err)
		}
		return of.File(), nil
	}

	switch e := s.ns.Find(path).(type) {
	case *repository.File:
		return e, nil
	case *repository.Directory:
		return nil, errIsDir
	}
	return nil, errNotFound
}

// resolveEntry is resolveFile for operations that accept directories too.
func (s *fileSystemService) resolveEntry(path string, fd uint64) (repository.Entry, error) {
	if fd != 0 {
		of, err := s.files.Get(fd)
		if err != nil {
			return nil, fromRepository(err)
		}
		return of.File(), nil
	}

	entry := s.ns.Find(path)
	if entry == nil {
		return nil, errNotFound
	}
	return entry, nil
}

func (s *fileSystemService) MkDir(ctx context.Context, path string, mode uint32) error {
	const op = "service.fileSystemService.MkDir"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("MkDir", slogext.Path("path", path), slog.Uint64("mode", uint64(mode)))

	return s.do(ctx, op, func() error {
		parent, parentIsNotDir, entry, name := s.ns.FindParentAndName(path)
		if parent == nil {
			return parentError(parentIsNotDir)
		}
		if entry != nil {
			logger.Debug("Directory already exists", slogext.Path("path", path))
			return errExists
		}

		dir, err := parent.AddDirectory(name, mode&S_IALLUGO)
		if err != nil {
			return fromRepository(err)
		}

		logger.Debug("Directory created", slogext.Path("path", path), slog.Int64("ino", dir.Ino))
		return nil
	})
}

func (s *fileSystemService) RmDir(ctx context.Context, path string) error {
	const op = "service.fileSystemService.RmDir"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("RmDir", slogext.Path("path", path))

	return s.do(ctx, op, func() error {
		parent, parentIsNotDir, entry, name := s.ns.FindParentAndName(path)
		if parent == nil {
			return parentError(parentIsNotDir)
		}
		if name == "" {
			return errBusy
		}

		switch e := entry.(type) {
		case nil:
			return errNotFound
		case *repository.File:
			return errNotDir
		case *repository.Directory:
			if e.Len() > 0 {
				logger.Debug("Directory not empty", slogext.Path("path", path), slog.Int("entries", e.Len()))
				return errNotEmpty
			}
		}

		parent.Remove(name)
		logger.Debug("Directory removed", slogext.Path("path", path))
		return nil
	})
}

func (s *fileSystemService) Unlink(ctx context.Context, path string) error {
	const op = "service.fileSystemService.Unlink"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Unlink", slogext.Path("path", path))

	return s.do(ctx, op, func() error {
		parent, parentIsNotDir, entry, name := s.ns.FindParentAndName(path)
		if parent == nil {
			return parentError(parentIsNotDir)
		}
		if name == "" {
			return errBusy
		}

		switch e := entry.(type) {
		case nil:
			return errNotFound
		case *repository.Directory:
			return errIsDir
		case *repository.File:
			if e.RefCount() == 1 && s.files.IsOpen(e) {
				logger.Debug("Last link of an open file", slogext.Path("path", path), slog.Int64("ino", e.Ino))
				return errBusy
			}
			logger.Debug("Unlinking file", slog.Int64("ino", e.Ino), slog.Int("ref_count", e.RefCount()))
		}

		parent.Remove(name)
		return nil
	})
}

func (s *fileSystemService) Link(ctx context.Context, fromPath string, toPath string) error {
	const op = "service.fileSystemService.Link"

	fromPath = repository.TrimNul(fromPath)
	toPath = repository.TrimNul(toPath)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Link", slogext.Path("from", fromPath), slogext.Path("to", toPath))

	return s.do(ctx, op, func() error {
		if err := s.ns.Link(fromPath, toPath); err != nil {
			logger.Debug("Link failed", slogext.Err(err))
			return fromRepository(err)
		}
		return nil
	})
}

// listDir returns ".", ".." and the children of the directory at path,
// children sorted by name.
func (s *fileSystemService) listDir(path string) ([]models.Dirent, error) {
	var dir *repository.Directory
	switch e := s.ns.Find(path).(type) {
	case nil:
		return nil, errNotFound
	case *repository.File:
		return nil, errNotDir
	case *repository.Directory:
		dir = e
	}

	// path resolved to a directory, so its parent exists.
	parent, _, _, _ := s.ns.FindParentAndName(path)

	names := dir.Names()
	dirents := make([]models.Dirent, 0, len(names)+2)
	dirents = append(dirents,
		models.Dirent{Name: ".", Ino: dir.Ino, Type: models.NodeTypeDir},
		models.Dirent{Name: "..", Ino: parent.Ino, Type: models.NodeTypeDir},
	)
	for _, name := range names {
		child, _ := dir.Lookup(name)
		dirents = append(dirents, models.Dirent{
			Name: string(name),
			Ino:  child.Node().Ino,
			Type: child.Type(),
		})
	}
	return dirents, nil
}

func (s *fileSystemService) ReadDir(ctx context.Context, path string) ([]models.Dirent, error) {
	const op = "service.fileSystemService.ReadDir"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("ReadDir", slogext.Path("path", path))

	var dirents []models.Dirent
	err := s.do(ctx, op, func() error {
		var err error
		dirents, err = s.listDir(path)
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Directory listed", slogext.Path("path", path), slog.Int("entries", len(dirents)))
	return dirents, nil
}

func (s *fileSystemService) IterateDir(ctx context.Context, path string, offset uint64) (*models.Dirent, error) {
	const op = "service.fileSystemService.IterateDir"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("IterateDir", slogext.Path("path", path), slog.Uint64("offset", offset))

	var dirent *models.Dirent
	err := s.do(ctx, op, func() error {
		dirents, err := s.listDir(path)
		if err != nil {
			return err
		}
		if offset >= uint64(len(dirents)) {
			logger.Debug("No more entries", slog.Uint64("offset", offset))
			return &ServiceError{Code: kerrors.ENOENT, Message: "no more entries"}
		}
		dirent = &dirents[offset]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dirent, nil
}

func (s *fileSystemService) CountLinks(ctx context.Context, path string) (uint32, error) {
	const op = "service.fileSystemService.CountLinks"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("CountLinks", slogext.Path("path", path))

	var nlink uint32
	err := s.do(ctx, op, func() error {
		entry := s.ns.Find(path)
		if entry == nil {
			return errNotFound
		}
		nlink = repository.Nlink(entry)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return nlink, nil
}

func (s *fileSystemService) ChMod(ctx context.Context, path string, fd uint64, mode uint32) error {
	const op = "service.fileSystemService.ChMod"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("ChMod", slogext.Path("path", path), slog.Uint64("fd", fd), slog.String("mode", fmt.Sprintf("%#o", mode)))

	return s.do(ctx, op, func() error {
		if fd != 0 {
			of, err := s.files.Get(fd)
			if err != nil {
				return fromRepository(err)
			}
			of.SetMode(mode & S_IALLUGO)
			return nil
		}

		entry := s.ns.Find(path)
		if entry == nil {
			return errNotFound
		}
		entry.Node().Mode = mode & S_IALLUGO
		return nil
	})
}

func (s *fileSystemService) UpdateTimestamps(ctx context.Context, path string, fd uint64, atime, mtime models.TimeSpec) error {
	const op = "service.fileSystemService.UpdateTimestamps"

	path = repository.TrimNul(path)
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("UpdateTimestamps", slogext.Path("path", path), slog.Uint64("fd", fd))

	return s.do(ctx, op, func() error {
		entry, err := s.resolveEntry(path, fd)
		if err != nil {
			return err
		}

		node := entry.Node()
		now := s.ns.Now()
		node.Atime = applyTimeSpec(node.Atime, atime, now)
		node.Mtime = applyTimeSpec(node.Mtime, mtime, now)
		return nil
	})
}

func applyTimeSpec(current time.Time, spec models.TimeSpec, now time.Time) time.Time {
	switch spec.Kind {
	case models.TimeNow:
		return now
	case models.TimeOmit:
		return current
	}
	return spec.Time
}

func (s *fileSystemService) Release(ctx context.Context, fd uint64) error {
	const op = "service.fileSystemService.Release"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Release", slog.Uint64("fd", fd))

	return s.do(ctx, op, func() error {
		if !s.files.Release(fd) {
			logger.Debug("Descriptor was not open", slog.Uint64("fd", fd))
		}
		return nil
	})
}

// Close releases every descriptor and tears the tree down. The service
// rejects all calls afterwards.
func (s *fileSystemService) Close(ctx context.Context) error {
	const op = "service.fileSystemService.Close"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)

	return s.do(ctx, op, func() error {
		open := s.files.Len()
		s.files.Close()
		s.ns.Close()
		s.closed = true

		pool := s.ns.Pool()
		if pool.InUse() != 0 {
			logger.Error("Buffers still in use after teardown",
				slog.String("in_use", humanize.IBytes(uint64(pool.InUse()))),
				slog.Int64("buffers", pool.Buffers()),
			)
		}
		pool.Close()

		logger.Info("Filesystem closed", slog.Int("released_descriptors", open))
		return nil
	})
}
