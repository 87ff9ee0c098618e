package fuse

import (
	"errors"
	"os"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/repository"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/service"
)

// fuseAvailable skips tests that need a real mount when /dev/fuse is
// absent.
func fuseAvailable(t *testing.T) {
	t.Helper()
	if _, err := os.Stat("/dev/fuse"); err != nil {
		t.Skip("skipping: /dev/fuse not available")
	}
}

func testMount(t *testing.T) string {
	t.Helper()
	fuseAvailable(t)

	ns := repository.NewNamespace(repository.NewBufferPool(), repository.NamespaceOptions{})
	svc := service.NewFileSystemService(ns, repository.NewOpenFileTable(0))

	mountpoint := filepath.Join(t.TempDir(), "mount")
	server, err := Mount(Options{Mountpoint: mountpoint, Service: svc})
	if err != nil {
		t.Skipf("skipping: cannot mount: %v", err)
	}
	t.Cleanup(func() {
		assert.NoError(t, server.Unmount())
	})
	return mountpoint
}

func TestToErrno(t *testing.T) {
	assert.Equal(t, syscall.Errno(0), toErrno(nil))
	assert.Equal(t, syscall.EIO, toErrno(errors.New("boom")))
	assert.Equal(t, syscall.ENOENT, toErrno(&service.ServiceError{Code: int64(syscall.ENOENT)}))
}

func TestMountOptionsValidation(t *testing.T) {
	_, err := Mount(Options{})
	assert.Error(t, err)

	_, err = Mount(Options{Mountpoint: t.TempDir()})
	assert.Error(t, err)
}

func TestMountReadWrite(t *testing.T) {
	mnt := testMount(t)

	require.NoError(t, os.Mkdir(filepath.Join(mnt, "a"), 0o755))
	path := filepath.Join(mnt, "a", "b.txt")
	require.NoError(t, os.WriteFile(path, []byte("hi"), 0o644))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	require.NoError(t, os.Link(path, filepath.Join(mnt, "a", "c.txt")))
	info, err := os.Stat(path)
	require.NoError(t, err)
	st, ok := info.Sys().(*syscall.Stat_t)
	require.True(t, ok)
	assert.Equal(t, uint64(2), uint64(st.Nlink))

	entries, err := os.ReadDir(filepath.Join(mnt, "a"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "b.txt", entries[0].Name())

	err = os.Remove(filepath.Join(mnt, "a"))
	assert.Error(t, err)

	require.NoError(t, os.Remove(path))
	data, err = os.ReadFile(filepath.Join(mnt, "a", "c.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))
}

func TestMountTruncateAndChmod(t *testing.T) {
	mnt := testMount(t)

	path := filepath.Join(mnt, "f")
	require.NoError(t, os.WriteFile(path, []byte("0123456789"), 0o644))
	require.NoError(t, os.Truncate(path, 4))
	require.NoError(t, os.Chmod(path, 0o600))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), info.Size())
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}
