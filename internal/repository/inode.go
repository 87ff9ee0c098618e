package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
)

const (
	VTFS_ROOT_INO  = 1000
	VTFS_ROOT_MODE = 0o755

	// NameMax is the longest entry name in bytes.
	NameMax = 255
)

var (
	ErrNotFound      = errors.New("entry not found")
	ErrNotDir        = errors.New("not a directory")
	ErrIsDir         = errors.New("is a directory")
	ErrExists        = errors.New("entry already exists")
	ErrNameTooLong   = errors.New("name too long")
	ErrLinkDir       = errors.New("hard links to directories are not allowed")
	ErrFileTooLarge  = errors.New("file too large")
	ErrInvalidLength = errors.New("invalid length")
	ErrNoDescriptor  = errors.New("no free file descriptor")
	ErrBadDescriptor = errors.New("bad file descriptor")
)

// EntryName keys a directory's children. Comparison is byte-exact,
// names are not required to be valid UTF-8.
type EntryName string

// Entry is either a *File or a *Directory.
type Entry interface {
	Node() *Inode
	Type() models.NodeType
	disposeEntry()
}

// Inode holds what every entry has in common.
type Inode struct {
	Ino   int64
	Mode  uint32
	Atime time.Time
	Mtime time.Time

	refCount int
}

func newInode(ino int64, mode uint32, now time.Time) Inode {
	return Inode{
		Ino:      ino,
		Mode:     mode,
		Atime:    now,
		Mtime:    now,
		refCount: 1,
	}
}

func (n *Inode) Node() *Inode {
	return n
}

func (n *Inode) RefCount() int {
	return n.refCount
}

func refInc(e Entry) {
	n := e.Node()
	if n.refCount == 0 {
		panic(fmt.Sprintf("repository: ref count increment on released inode %d", n.Ino))
	}
	n.refCount++
}

// refDec drops one reference and tears the entry down when none remain.
func refDec(e Entry) {
	n := e.Node()
	if n.refCount == 0 {
		panic(fmt.Sprintf("repository: ref count underflow on inode %d", n.Ino))
	}
	n.refCount--
	if n.refCount == 0 {
		e.disposeEntry()
	}
}

// Nlink is the link count POSIX expects: directories count their own ".".
func Nlink(e Entry) uint32 {
	nlink := uint32(e.Node().refCount)
	if _, ok := e.(*Directory); ok {
		nlink++
	}
	return nlink
}
