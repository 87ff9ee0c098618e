package repository

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
)

type Directory struct {
	Inode

	ns      *Namespace
	entries map[EntryName]Entry
}

func newDirectory(ns *Namespace, ino int64, mode uint32, now time.Time) *Directory {
	return &Directory{
		Inode:   newInode(ino, mode, now),
		ns:      ns,
		entries: make(map[EntryName]Entry),
	}
}

func (d *Directory) Type() models.NodeType {
	return models.NodeTypeDir
}

func (d *Directory) Len() int {
	return len(d.entries)
}

func (d *Directory) Lookup(name EntryName) (Entry, bool) {
	e, ok := d.entries[name]
	return e, ok
}

// Names returns the children sorted by name.
func (d *Directory) Names() []EntryName {
	names := make([]EntryName, 0, len(d.entries))
	for name := range d.entries {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// FindEntry walks path relative to d. Leading slashes are skipped and an
// empty path resolves to d itself. Walking through a file yields nil.
func (d *Directory) FindEntry(path string) Entry {
	dir := d
	for {
		path = strings.TrimLeft(path, "/")
		if path == "" {
			return dir
		}

		name, rest, nested := strings.Cut(path, "/")
		entry, ok := dir.entries[EntryName(name)]
		if !ok {
			return nil
		}
		if !nested {
			return entry
		}

		sub, ok := entry.(*Directory)
		if !ok {
			return nil
		}
		dir, path = sub, rest
	}
}

// AddEntry links entry under name and takes a reference on it.
func (d *Directory) AddEntry(name EntryName, entry Entry) error {
	if len(name) > NameMax {
		return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(name))
	}
	if _, ok := d.entries[name]; ok {
		return ErrExists
	}
	d.entries[name] = entry
	refInc(entry)
	return nil
}

// AddFile creates a file holding a copy of content. After the call the
// file's ref count equals its number of links, i.e. 1.
func (d *Directory) AddFile(name EntryName, content []byte, mode uint32) (*File, error) {
	file := newFile(d.ns.allocIno(), mode, d.ns.Now(), d.ns.pool, d.ns.maxFileSize)
	defer refDec(file)

	if _, err := file.Write(0, content); err != nil {
		return nil, err
	}
	if err := d.AddEntry(name, file); err != nil {
		return nil, err
	}
	return file, nil
}

// AddDirectory creates an empty subdirectory. The parent takes an extra
// reference for the subdirectory's ".." link.
func (d *Directory) AddDirectory(name EntryName, mode uint32) (*Directory, error) {
	dir := newDirectory(d.ns, d.ns.allocIno(), mode, d.ns.Now())
	defer refDec(dir)

	if err := d.AddEntry(name, dir); err != nil {
		return nil, err
	}
	refInc(d)
	return dir, nil
}

// Remove unlinks name and drops the reference it held. Removing a
// subdirectory also drops the reference its ".." held on d.
func (d *Directory) Remove(name EntryName) {
	entry, ok := d.entries[name]
	if !ok {
		return
	}
	delete(d.entries, name)
	refDec(entry)
	if _, isDir := entry.(*Directory); isDir {
		refDec(d)
	}
}

// removeAll empties the subtree below d, depth first.
func (d *Directory) removeAll() {
	for _, name := range d.Names() {
		if sub, ok := d.entries[name].(*Directory); ok {
			sub.removeAll()
		}
		d.Remove(name)
	}
}

func (d *Directory) disposeEntry() {
	d.entries = nil
}
