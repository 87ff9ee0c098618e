package fuse

import (
	"context"
	"syscall"
	"time"

	gofuse "github.com/hanwen/go-fuse/v2/fs"
	"github.com/hanwen/go-fuse/v2/fuse"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
)

// node is a file or directory. It carries no state of its own: the
// engine is addressed by the node's current path.
type node struct {
	gofuse.Inode
	mount *mount
}

var _ = (gofuse.NodeGetattrer)((*node)(nil))
var _ = (gofuse.NodeSetattrer)((*node)(nil))
var _ = (gofuse.NodeLookuper)((*node)(nil))
var _ = (gofuse.NodeReaddirer)((*node)(nil))
var _ = (gofuse.NodeOpener)((*node)(nil))
var _ = (gofuse.NodeCreater)((*node)(nil))
var _ = (gofuse.NodeMkdirer)((*node)(nil))
var _ = (gofuse.NodeRmdirer)((*node)(nil))
var _ = (gofuse.NodeUnlinker)((*node)(nil))
var _ = (gofuse.NodeLinker)((*node)(nil))
var _ = (gofuse.NodeRenamer)((*node)(nil))
var _ = (gofuse.NodeStatfser)((*node)(nil))

// path is the engine path of n.
func (n *node) path() string {
	return "/" + n.Path(nil)
}

// childPath is the engine path of name inside n.
func (n *node) childPath(name string) string {
	return joinPath(&n.Inode, name)
}

func joinPath(dir *gofuse.Inode, name string) string {
	p := dir.Path(nil)
	if p == "" {
		return "/" + name
	}
	return "/" + p + "/" + name
}

// newChild builds the inode for an entry the engine just reported.
func (n *node) newChild(ctx context.Context, attr *models.Attr, out *fuse.EntryOut) *gofuse.Inode {
	fillAttr(attr, &out.Attr)
	child := &node{mount: n.mount}
	return n.NewInode(ctx, child, gofuse.StableAttr{
		Mode: attr.Mode & syscall.S_IFMT,
		Ino:  uint64(attr.Ino),
	})
}

// lookupChild fetches attributes of name and builds its inode.
func (n *node) lookupChild(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	attr, err := n.mount.service.GetAttr(n.mount.context(ctx), n.childPath(name))
	if err != nil {
		return nil, toErrno(err)
	}
	return n.newChild(ctx, attr, out), gofuse.OK
}

func (n *node) Getattr(ctx context.Context, fh gofuse.FileHandle, out *fuse.AttrOut) syscall.Errno {
	attr, err := n.mount.service.GetAttr(n.mount.context(ctx), n.path())
	if err != nil {
		return toErrno(err)
	}
	fillAttr(attr, &out.Attr)
	return gofuse.OK
}

// Setattr handles truncate, chmod and utimens. An open handle is used
// when the kernel passes one.
func (n *node) Setattr(ctx context.Context, fh gofuse.FileHandle, in *fuse.SetAttrIn, out *fuse.AttrOut) syscall.Errno {
	ctx = n.mount.context(ctx)
	svc := n.mount.service
	path := n.path()

	var fd uint64
	if h, ok := fh.(*handle); ok {
		fd = h.fd
	}

	if size, ok := in.GetSize(); ok {
		if err := svc.Truncate(ctx, path, fd, size); err != nil {
			return toErrno(err)
		}
	}

	if mode, ok := in.GetMode(); ok {
		if err := svc.ChMod(ctx, path, fd, mode); err != nil {
			return toErrno(err)
		}
	}

	atime := timeSpec(in, fuse.FATTR_ATIME, fuse.FATTR_ATIME_NOW, in.GetATime)
	mtime := timeSpec(in, fuse.FATTR_MTIME, fuse.FATTR_MTIME_NOW, in.GetMTime)
	if atime.Kind != models.TimeOmit || mtime.Kind != models.TimeOmit {
		if err := svc.UpdateTimestamps(ctx, path, fd, atime, mtime); err != nil {
			return toErrno(err)
		}
	}

	return n.Getattr(ctx, fh, out)
}

// timeSpec decodes one timestamp of a setattr request.
func timeSpec(in *fuse.SetAttrIn, setBit, nowBit uint32, get func() (time.Time, bool)) models.TimeSpec {
	if in.Valid&nowBit != 0 {
		return models.TimeNowSpec()
	}
	if in.Valid&setBit == 0 {
		return models.TimeOmitSpec()
	}
	t, _ := get()
	return models.TimeAt(t)
}

func (n *node) Lookup(ctx context.Context, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	return n.lookupChild(ctx, name, out)
}

func (n *node) Readdir(ctx context.Context) (gofuse.DirStream, syscall.Errno) {
	dirents, err := n.mount.service.ReadDir(n.mount.context(ctx), n.path())
	if err != nil {
		return nil, toErrno(err)
	}

	entries := make([]fuse.DirEntry, 0, len(dirents))
	for _, d := range dirents {
		if d.Name == "." || d.Name == ".." {
			continue
		}
		mode := uint32(syscall.S_IFREG)
		if d.Type == models.NodeTypeDir {
			mode = syscall.S_IFDIR
		}
		entries = append(entries, fuse.DirEntry{
			Name: d.Name,
			Ino:  uint64(d.Ino),
			Mode: mode,
		})
	}
	return gofuse.NewListDirStream(entries), gofuse.OK
}

func (n *node) Open(ctx context.Context, flags uint32) (gofuse.FileHandle, uint32, syscall.Errno) {
	fd, err := n.mount.service.Open(n.mount.context(ctx), n.path(), flags)
	if err != nil {
		return nil, 0, toErrno(err)
	}
	return &handle{mount: n.mount, fd: fd}, 0, gofuse.OK
}

func (n *node) Create(ctx context.Context, name string, flags uint32, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, gofuse.FileHandle, uint32, syscall.Errno) {
	svc := n.mount.service
	path := n.childPath(name)

	fd, err := svc.Create(n.mount.context(ctx), path, mode)
	if err != nil {
		return nil, nil, 0, toErrno(err)
	}
	fh := &handle{mount: n.mount, fd: fd}

	child, errno := n.lookupChild(ctx, name, out)
	if errno != gofuse.OK {
		fh.Release(ctx)
		return nil, nil, 0, errno
	}
	return child, fh, 0, gofuse.OK
}

func (n *node) Mkdir(ctx context.Context, name string, mode uint32, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	if err := n.mount.service.MkDir(n.mount.context(ctx), n.childPath(name), mode); err != nil {
		return nil, toErrno(err)
	}
	return n.lookupChild(ctx, name, out)
}

func (n *node) Rmdir(ctx context.Context, name string) syscall.Errno {
	return toErrno(n.mount.service.RmDir(n.mount.context(ctx), n.childPath(name)))
}

func (n *node) Unlink(ctx context.Context, name string) syscall.Errno {
	return toErrno(n.mount.service.Unlink(n.mount.context(ctx), n.childPath(name)))
}

func (n *node) Link(ctx context.Context, target gofuse.InodeEmbedder, name string, out *fuse.EntryOut) (*gofuse.Inode, syscall.Errno) {
	from := "/" + target.EmbeddedInode().Path(nil)
	if err := n.mount.service.Link(n.mount.context(ctx), from, n.childPath(name)); err != nil {
		return nil, toErrno(err)
	}
	return n.lookupChild(ctx, name, out)
}

func (n *node) Rename(ctx context.Context, name string, newParent gofuse.InodeEmbedder, newName string, flags uint32) syscall.Errno {
	to := joinPath(newParent.EmbeddedInode(), newName)
	return toErrno(n.mount.service.Rename(n.mount.context(ctx), n.childPath(name), to))
}

// Statfs reports an empty filesystem when the engine has nothing to
// say, so tools like df keep working.
func (n *node) Statfs(ctx context.Context, out *fuse.StatfsOut) syscall.Errno {
	err := n.mount.service.StatFS(n.mount.context(ctx), n.path())
	if errno := toErrno(err); errno != gofuse.OK && errno != syscall.ENOSYS {
		return errno
	}
	out.NameLen = 255
	out.Bsize = 4096
	return gofuse.OK
}
