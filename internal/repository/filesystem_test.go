package repository

import (
	"strings"
	"testing"
	"time"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestNamespace() *Namespace {
	fixed := time.Unix(1735689600, 0)
	return NewNamespace(NewBufferPool(), NamespaceOptions{
		Clock: func() time.Time { return fixed },
	})
}

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path, dir, name string
	}{
		{"/a/b.txt", "/a", "b.txt"},
		{"/a", "", "a"},
		{"a", "", "a"},
		{"/a/b/", "/a", "b"},
		{"/", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		dir, name := SplitPath(tt.path)
		assert.Equal(t, tt.dir, dir, tt.path)
		assert.Equal(t, tt.name, name, tt.path)
	}
}

func TestTrimNul(t *testing.T) {
	assert.Equal(t, "/a", TrimNul("/a\x00garbage"))
	assert.Equal(t, "/a", TrimNul("/a"))
}

func TestRootDirectory(t *testing.T) {
	ns := newTestNamespace()
	root := ns.Root()

	assert.Equal(t, int64(VTFS_ROOT_INO), root.Ino)
	assert.Equal(t, uint32(VTFS_ROOT_MODE), root.Mode)
	assert.Equal(t, 1, root.RefCount())
	assert.Equal(t, uint32(2), Nlink(root))

	assert.Same(t, root, ns.Find(""))
	assert.Same(t, root, ns.Find("/"))
	assert.Same(t, root, ns.Find("//"))
}

func TestFindAfterAdd(t *testing.T) {
	ns := newTestNamespace()

	dir, err := ns.Root().AddDirectory("a", 0o755)
	require.NoError(t, err)
	file, err := dir.AddFile("b.txt", []byte("hi"), 0o644)
	require.NoError(t, err)

	assert.Same(t, dir, ns.Find("/a"))
	assert.Same(t, dir, ns.Find("/a/"))
	assert.Same(t, file, ns.Find("/a/b.txt"))
	assert.Same(t, file, ns.Find("a//b.txt"))
	assert.Equal(t, 1, dir.Len())
	assert.Equal(t, models.NodeTypeFile, file.Type())
	assert.Equal(t, int64(VTFS_ROOT_INO+2), file.Ino)

	assert.Nil(t, ns.Find("/a/missing"))
	assert.Nil(t, ns.Find("/a/b.txt/c"), "walking through a file")
}

func TestAddEntryRejectsDuplicate(t *testing.T) {
	ns := newTestNamespace()

	_, err := ns.Root().AddFile("x", nil, 0o644)
	require.NoError(t, err)
	_, err = ns.Root().AddFile("x", nil, 0o644)
	assert.ErrorIs(t, err, ErrExists)
	_, err = ns.Root().AddDirectory("x", 0o755)
	assert.ErrorIs(t, err, ErrExists)

	assert.Equal(t, 1, ns.Root().RefCount(), "failed mkdir must not leak a parent reference")
	assert.Zero(t, ns.Pool().Buffers())
}

func TestAddEntryRejectsLongName(t *testing.T) {
	ns := newTestNamespace()

	_, err := ns.Root().AddFile(EntryName(strings.Repeat("a", NameMax+1)), []byte("data"), 0o644)
	assert.ErrorIs(t, err, ErrNameTooLong)
	_, err = ns.Root().AddDirectory(EntryName(strings.Repeat("a", NameMax+1)), 0o755)
	assert.ErrorIs(t, err, ErrNameTooLong)

	assert.Zero(t, ns.Root().Len())
	assert.Equal(t, 1, ns.Root().RefCount())
	assert.Zero(t, ns.Pool().Buffers(), "rejected file must return its content")

	_, err = ns.Root().AddFile(EntryName(strings.Repeat("a", NameMax)), nil, 0o644)
	assert.NoError(t, err)
}

func TestNamesAreRawBytes(t *testing.T) {
	ns := newTestNamespace()

	name := EntryName([]byte{0xff, 0xfe, 'x'})
	_, err := ns.Root().AddFile(name, nil, 0o644)
	require.NoError(t, err)

	assert.NotNil(t, ns.Find("/\xff\xfex"))
	assert.Nil(t, ns.Find("/\xff\xfeX"))
}

func TestFindParentAndName(t *testing.T) {
	ns := newTestNamespace()
	dir, err := ns.Root().AddDirectory("a", 0o755)
	require.NoError(t, err)
	file, err := dir.AddFile("f", nil, 0o644)
	require.NoError(t, err)

	parent, notDir, entry, name := ns.FindParentAndName("/a/f")
	assert.Same(t, dir, parent)
	assert.False(t, notDir)
	assert.Same(t, file, entry)
	assert.Equal(t, EntryName("f"), name)

	parent, notDir, entry, name = ns.FindParentAndName("/a/new")
	assert.Same(t, dir, parent)
	assert.False(t, notDir)
	assert.Nil(t, entry)
	assert.Equal(t, EntryName("new"), name)

	parent, notDir, entry, _ = ns.FindParentAndName("/missing/new")
	assert.Nil(t, parent)
	assert.False(t, notDir)
	assert.Nil(t, entry)

	parent, notDir, entry, _ = ns.FindParentAndName("/a/f/new")
	assert.Nil(t, parent)
	assert.True(t, notDir)
	assert.Nil(t, entry)

	parent, notDir, entry, _ = ns.FindParentAndName("/a/f/")
	assert.Nil(t, parent, "trailing slash on a file")
	assert.False(t, notDir)
	assert.Nil(t, entry)
	assert.Nil(t, ns.Find("/a/f/"))

	parent, _, entry, name = ns.FindParentAndName("/a/")
	assert.Same(t, ns.Root(), parent)
	assert.Same(t, dir, entry)
	assert.Equal(t, EntryName("a"), name)
}

func TestDirectoryRefCounts(t *testing.T) {
	ns := newTestNamespace()
	root := ns.Root()

	a, err := root.AddDirectory("a", 0o755)
	require.NoError(t, err)
	assert.Equal(t, 1, a.RefCount())
	assert.Equal(t, 2, root.RefCount())
	assert.Equal(t, uint32(2), Nlink(a))
	assert.Equal(t, uint32(3), Nlink(root))

	_, err = a.AddDirectory("b", 0o755)
	require.NoError(t, err)
	assert.Equal(t, 2, a.RefCount())

	_, err = a.AddFile("f", nil, 0o644)
	require.NoError(t, err)
	assert.Equal(t, 2, a.RefCount(), "files do not reference their parent")

	a.Remove("b")
	assert.Equal(t, 1, a.RefCount())
	assert.Equal(t, 1, a.Len())

	a.Remove("f")
	root.Remove("a")
	assert.Equal(t, 1, root.RefCount())
	assert.Zero(t, a.RefCount())
}

func TestRemoveMissingIsNoop(t *testing.T) {
	ns := newTestNamespace()
	ns.Root().Remove("nothing")
	assert.Equal(t, 1, ns.Root().RefCount())
}

func TestLinkSharesEntry(t *testing.T) {
	ns := newTestNamespace()
	dir, err := ns.Root().AddDirectory("a", 0o755)
	require.NoError(t, err)
	file, err := dir.AddFile("b.txt", []byte("hi"), 0o644)
	require.NoError(t, err)

	require.NoError(t, ns.Link("/a/b.txt", "/a/c.txt"))
	assert.Same(t, file, ns.Find("/a/c.txt"))
	assert.Equal(t, 2, file.RefCount())

	_, err = file.Write(0, []byte("HI"))
	require.NoError(t, err)
	buf := make([]byte, 2)
	ns.Find("/a/c.txt").(*File).Read(0, buf)
	assert.Equal(t, "HI", string(buf))
}

func TestLinkErrors(t *testing.T) {
	ns := newTestNamespace()
	dir, err := ns.Root().AddDirectory("a", 0o755)
	require.NoError(t, err)
	_, err = dir.AddFile("f", nil, 0o644)
	require.NoError(t, err)

	assert.ErrorIs(t, ns.Link("/missing", "/x"), ErrNotFound)
	assert.ErrorIs(t, ns.Link("/a/f", "/nodir/x"), ErrNotFound)
	assert.ErrorIs(t, ns.Link("/a/f", "/a/f/x"), ErrNotDir)
	assert.ErrorIs(t, ns.Link("/a/f", "/a"), ErrExists)
	assert.ErrorIs(t, ns.Link("/a", "/b"), ErrLinkDir)
	assert.Equal(t, 1, ns.Find("/a/f").Node().RefCount())
}

func TestRefCountTracksLinks(t *testing.T) {
	ns := newTestNamespace()
	root := ns.Root()
	file, err := root.AddFile("f0", []byte("content"), 0o644)
	require.NoError(t, err)

	names := []EntryName{"f1", "f2", "f3"}
	for i, name := range names {
		require.NoError(t, ns.Link("/f0", "/"+string(name)))
		assert.Equal(t, i+2, file.RefCount())
	}

	for i, name := range append([]EntryName{"f0"}, names[:2]...) {
		root.Remove(name)
		assert.Equal(t, 3-i, file.RefCount())
		assert.False(t, file.Released())
		assert.Equal(t, "content", string(readAll(ns.Find("/f3").(*File))))
	}

	root.Remove("f3")
	assert.Zero(t, file.RefCount())
	assert.True(t, file.Released())
	assert.Zero(t, ns.Pool().Buffers())
}

func TestRefCountUnderflowPanics(t *testing.T) {
	ns := newTestNamespace()
	file, err := ns.Root().AddFile("f", nil, 0o644)
	require.NoError(t, err)
	ns.Root().Remove("f")

	assert.Panics(t, func() { refDec(file) })
	assert.Panics(t, func() { refInc(file) })
}

func TestNamespaceClose(t *testing.T) {
	ns := newTestNamespace()
	root := ns.Root()

	_, err := root.AddFile("file1", []byte("Content of file1"), 0o444)
	require.NoError(t, err)
	dir, err := root.AddDirectory("dir", 0o755)
	require.NoError(t, err)
	nested, err := dir.AddDirectory("nested", 0o755)
	require.NoError(t, err)
	deep, err := nested.AddFile("deep", []byte("deep content"), 0o444)
	require.NoError(t, err)
	require.NoError(t, ns.Link("/dir/nested/deep", "/deep-link"))
	require.Equal(t, int64(2), ns.Pool().Buffers())

	ns.Close()

	assert.Zero(t, root.Len())
	assert.Equal(t, 1, root.RefCount())
	assert.True(t, deep.Released())
	assert.Zero(t, ns.Pool().Buffers())
	assert.Zero(t, ns.Pool().InUse())
}
