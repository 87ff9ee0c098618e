package repository

import "math"

// MaxDescriptor is the highest descriptor the table hands out.
const MaxDescriptor = math.MaxUint32 - 1

// OpenFile is a handle bound to one file. Opening does not take a
// namespace reference.
type OpenFile struct {
	file *File
}

func (o *OpenFile) File() *File {
	return o.file
}

func (o *OpenFile) Mode() uint32 {
	return o.file.Mode
}

func (o *OpenFile) SetMode(mode uint32) {
	o.file.Mode = mode
}

func (o *OpenFile) Read(offset uint64, buffer []byte) int {
	return o.file.Read(offset, buffer)
}

func (o *OpenFile) Write(offset uint64, data []byte) (int, error) {
	return o.file.Write(offset, data)
}

func (o *OpenFile) Truncate(length uint64) error {
	return o.file.Truncate(length)
}

// OpenFileTable maps descriptors to open files. Descriptor 0 is never
// handed out. It is not safe for concurrent use.
type OpenFileTable struct {
	files map[uint64]*OpenFile
	opens map[*File]int
	max   uint64
}

// NewOpenFileTable creates a table handing out descriptors 1..max.
// Zero means MaxDescriptor.
func NewOpenFileTable(max uint64) *OpenFileTable {
	if max == 0 || max > MaxDescriptor {
		max = MaxDescriptor
	}
	return &OpenFileTable{
		files: make(map[uint64]*OpenFile),
		opens: make(map[*File]int),
		max:   max,
	}
}

// Open binds the lowest free descriptor to file.
func (t *OpenFileTable) Open(file *File) (uint64, error) {
	for fd := uint64(1); fd <= t.max; fd++ {
		if _, used := t.files[fd]; used {
			continue
		}
		t.files[fd] = &OpenFile{file: file}
		t.opens[file]++
		return fd, nil
	}
	return 0, ErrNoDescriptor
}

func (t *OpenFileTable) Get(fd uint64) (*OpenFile, error) {
	of, ok := t.files[fd]
	if !ok {
		return nil, ErrBadDescriptor
	}
	return of, nil
}

// Release drops the binding for fd. Releasing an unknown descriptor is a
// no-op and reports false.
func (t *OpenFileTable) Release(fd uint64) bool {
	of, ok := t.files[fd]
	if !ok {
		return false
	}
	delete(t.files, fd)
	if t.opens[of.file]--; t.opens[of.file] == 0 {
		delete(t.opens, of.file)
	}
	return true
}

// IsOpen reports whether any descriptor is bound to file.
func (t *OpenFileTable) IsOpen(file *File) bool {
	return t.opens[file] > 0
}

func (t *OpenFileTable) Len() int {
	return len(t.files)
}

// Close releases every descriptor.
func (t *OpenFileTable) Close() {
	clear(t.files)
	clear(t.opens)
}
