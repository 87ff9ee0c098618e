package repository

import (
	"math"
	"time"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
)

// MaxFileSize is the largest size a file may reach.
const MaxFileSize = math.MaxInt32

type File struct {
	Inode

	content  []byte
	pool     *BufferPool
	limit    uint64
	released bool
}

func newFile(ino int64, mode uint32, now time.Time, pool *BufferPool, limit uint64) *File {
	return &File{
		Inode: newInode(ino, mode, now),
		pool:  pool,
		limit: limit,
	}
}

func (f *File) Type() models.NodeType {
	return models.NodeTypeFile
}

func (f *File) Size() int64 {
	return int64(len(f.content))
}

// Released reports whether the content has been handed back to the pool.
func (f *File) Released() bool {
	return f.released
}

// Read copies bytes starting at offset into buffer. Reading at or past
// the end of the file returns 0.
func (f *File) Read(offset uint64, buffer []byte) int {
	if offset >= uint64(len(f.content)) {
		return 0
	}
	return copy(buffer, f.content[offset:])
}

// Write stores data at offset, growing the file if needed. A gap between
// the old end of file and offset reads back as zeros.
func (f *File) Write(offset uint64, data []byte) (int, error) {
	newLength := offset + uint64(len(data))
	if newLength > f.limit || offset > f.limit {
		return 0, ErrFileTooLarge
	}

	if newLength > uint64(len(f.content)) {
		f.resize(int(newLength))
	}
	copy(f.content[offset:], data)
	return len(data), nil
}

// Truncate sets the size to exactly length.
func (f *File) Truncate(length uint64) error {
	if length > f.limit {
		return ErrInvalidLength
	}
	f.resize(int(length))
	return nil
}

func (f *File) resize(length int) {
	old := len(f.content)
	switch {
	case length <= old:
		f.content = f.content[:length]
	case length <= cap(f.content):
		f.content = f.content[:length]
		clear(f.content[old:])
	default:
		grown := f.pool.Get(length)
		copy(grown, f.content)
		f.pool.Put(f.content)
		f.content = grown
	}
}

func (f *File) disposeEntry() {
	f.pool.Put(f.content)
	f.content = nil
	f.released = true
}
