package repository

import (
	"strings"
	"time"
)

// Namespace owns the root directory and everything reachable from it.
// It is not safe for concurrent use.
type Namespace struct {
	root        *Directory
	pool        *BufferPool
	nextIno     int64
	maxFileSize uint64
	clock       func() time.Time
}

type NamespaceOptions struct {
	RootMode uint32
	// MaxFileSize lowers the file size ceiling. Zero or anything above
	// MaxFileSize means MaxFileSize.
	MaxFileSize uint64
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func NewNamespace(pool *BufferPool, opts NamespaceOptions) *Namespace {
	ns := &Namespace{
		pool:        pool,
		nextIno:     VTFS_ROOT_INO + 1,
		maxFileSize: opts.MaxFileSize,
		clock:       opts.Clock,
	}
	if ns.maxFileSize == 0 || ns.maxFileSize > MaxFileSize {
		ns.maxFileSize = MaxFileSize
	}
	if ns.clock == nil {
		ns.clock = time.Now
	}

	mode := opts.RootMode
	if mode == 0 {
		mode = VTFS_ROOT_MODE
	}
	ns.root = newDirectory(ns, VTFS_ROOT_INO, mode, ns.Now())
	return ns
}

func (ns *Namespace) Root() *Directory {
	return ns.root
}

func (ns *Namespace) Pool() *BufferPool {
	return ns.pool
}

func (ns *Namespace) MaxFileSize() uint64 {
	return ns.maxFileSize
}

// Now reads the namespace clock.
func (ns *Namespace) Now() time.Time {
	return ns.clock()
}

func (ns *Namespace) allocIno() int64 {
	ino := ns.nextIno
	ns.nextIno++
	return ino
}

// Find resolves an absolute path. It returns nil when any component is
// missing or an intermediate component is not a directory.
func (ns *Namespace) Find(path string) Entry {
	return ns.root.FindEntry(path)
}

// FindParentAndName resolves the directory that contains the last
// component of path. parent is nil when it is missing; parentIsNotDir
// tells the two failure cases apart. entry is nil when name is unused.
// A trailing slash only resolves to a directory, as in Find: "/f/" on a
// file reports a missing parent.
func (ns *Namespace) FindParentAndName(path string) (parent *Directory, parentIsNotDir bool, entry Entry, name EntryName) {
	parentPath, childName := SplitPath(path)
	name = EntryName(childName)

	switch p := ns.root.FindEntry(parentPath).(type) {
	case *Directory:
		if childName == "" {
			return p, false, p, name
		}
		e, ok := p.entries[name]
		if !ok {
			return p, false, nil, name
		}
		if _, isFile := e.(*File); isFile && strings.HasSuffix(path, "/") {
			return nil, false, nil, name
		}
		return p, false, e, name
	case *File:
		parentIsNotDir = true
	}
	return parent, parentIsNotDir, entry, name
}

// Link adds toPath as another name for the file at fromPath.
func (ns *Namespace) Link(fromPath, toPath string) error {
	from := ns.Find(fromPath)
	if from == nil {
		return ErrNotFound
	}

	parent, parentIsNotDir, to, name := ns.FindParentAndName(toPath)
	if parent == nil {
		if parentIsNotDir {
			return ErrNotDir
		}
		return ErrNotFound
	}
	if to != nil {
		return ErrExists
	}
	if _, isDir := from.(*Directory); isDir {
		return ErrLinkDir
	}

	return parent.AddEntry(name, from)
}

// Close removes every entry below the root, returning all file content
// to the pool.
func (ns *Namespace) Close() {
	ns.root.removeAll()
}

// SplitPath splits path into its directory part and last component.
// Trailing slashes are ignored.
func SplitPath(path string) (dir string, name string) {
	path = strings.TrimRight(path, "/")
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

// TrimNul cuts path at the first NUL byte, if any.
func TrimNul(path string) string {
	if i := strings.IndexByte(path, 0); i >= 0 {
		return path[:i]
	}
	return path
}
