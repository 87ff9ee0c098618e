package handler

import (
	"encoding/base64"
	"encoding/binary"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/pkg/kerrors"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/repository"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ns := repository.NewNamespace(repository.NewBufferPool(), repository.NamespaceOptions{})
	svc := service.NewFileSystemService(ns, repository.NewOpenFileTable(0))

	mux := http.NewServeMux()
	NewHandler(svc).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// call performs a request and splits the response into status code and
// payload.
func call(t *testing.T, srv *httptest.Server, endpoint string, query url.Values) (int64, []byte) {
	t.Helper()
	resp, err := http.Get(srv.URL + endpoint + "?" + query.Encode())
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	buf, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(buf), 8)
	return int64(binary.LittleEndian.Uint64(buf)), buf[8:]
}

func TestWriteAndReadOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	code, _ := call(t, srv, "/api/mkdir", url.Values{"path": {"/a"}, "mode": {"0755"}})
	require.Zero(t, code)

	code, payload := call(t, srv, "/api/create", url.Values{"path": {"/a/b.txt\x00"}, "mode": {"0644"}})
	require.Zero(t, code)
	fd := binary.LittleEndian.Uint64(payload)
	assert.Equal(t, uint64(1), fd)

	code, payload = call(t, srv, "/api/write", url.Values{
		"fd":     {"1"},
		"offset": {"0"},
		"data":   {base64.StdEncoding.EncodeToString([]byte("hi"))},
	})
	require.Zero(t, code)
	assert.Equal(t, int64(2), int64(binary.LittleEndian.Uint64(payload)))

	code, payload = call(t, srv, "/api/read", url.Values{"fd": {"1"}, "offset": {"0"}, "len": {"10"}})
	require.Zero(t, code)
	assert.Equal(t, "hi", string(payload))

	code, payload = call(t, srv, "/api/getattr", url.Values{"path": {"/a/b.txt"}})
	require.Zero(t, code)
	assert.Equal(t, uint64(2), binary.LittleEndian.Uint64(payload[14:]))

	code, payload = call(t, srv, "/api/count_links", url.Values{"path": {"/a"}})
	require.Zero(t, code)
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(payload))

	code, payload = call(t, srv, "/api/readdir", url.Values{"path": {"/a"}})
	require.Zero(t, code)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(payload))

	code, _ = call(t, srv, "/api/release", url.Values{"fd": {"1"}})
	require.Zero(t, code)
}

func TestErrorCodesOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	code, _ := call(t, srv, "/api/getattr", url.Values{"path": {"/missing"}})
	assert.Equal(t, -kerrors.ENOENT, code)

	code, _ = call(t, srv, "/api/mkdir", url.Values{"path": {"/"}, "mode": {"0755"}})
	assert.Equal(t, -kerrors.EEXIST, code)

	code, _ = call(t, srv, "/api/read", url.Values{"fd": {"9"}, "offset": {"0"}, "len": {"1"}})
	assert.Equal(t, -kerrors.EBADF, code)

	code, _ = call(t, srv, "/api/getattr", url.Values{})
	assert.Equal(t, kerrors.EINVAL_NEG, code)

	code, _ = call(t, srv, "/api/read", url.Values{"fd": {"x"}, "offset": {"0"}, "len": {"1"}})
	assert.Equal(t, kerrors.EINVAL_NEG, code)

	code, _ = call(t, srv, "/api/rename", url.Values{"path": {"/a"}, "to": {"/b"}})
	assert.Equal(t, kerrors.ENOSYS_NEG, code)

	code, _ = call(t, srv, "/api/listxattr", url.Values{"path": {"/"}})
	assert.Equal(t, kerrors.ENOSYS_NEG, code)

	code, _ = call(t, srv, "/api/no_such_op", url.Values{"path": {"/"}})
	assert.Equal(t, kerrors.ENOSYS_NEG, code)
}

func TestTargetRequiresPathOrFd(t *testing.T) {
	srv := newTestServer(t)

	code, _ := call(t, srv, "/api/chmod", url.Values{"mode": {"0"}})
	assert.Equal(t, kerrors.EINVAL_NEG, code)
	code, _ = call(t, srv, "/api/chmod", url.Values{"path": {""}, "mode": {"0"}})
	assert.Equal(t, kerrors.EINVAL_NEG, code)
	code, _ = call(t, srv, "/api/truncate", url.Values{"size": {"0"}})
	assert.Equal(t, kerrors.EINVAL_NEG, code)
	code, _ = call(t, srv, "/api/utimens", url.Values{"mtime": {"now"}})
	assert.Equal(t, kerrors.EINVAL_NEG, code)

	code, payload := call(t, srv, "/api/getattr", url.Values{"path": {"/"}})
	require.Zero(t, code)
	assert.Equal(t, uint32(0o040755), binary.LittleEndian.Uint32(payload[10:]))

	code, _ = call(t, srv, "/api/chmod", url.Values{"path": {"/"}, "mode": {"0700"}})
	require.Zero(t, code)
	code, payload = call(t, srv, "/api/getattr", url.Values{"path": {"/"}})
	require.Zero(t, code)
	assert.Equal(t, uint32(0o040700), binary.LittleEndian.Uint32(payload[10:]))
}

func TestLongNameKeepsDirectoryListable(t *testing.T) {
	srv := newTestServer(t)

	code, _ := call(t, srv, "/api/mkdir", url.Values{"path": {"/a"}, "mode": {"0755"}})
	require.Zero(t, code)
	code, _ = call(t, srv, "/api/mkdir", url.Values{"path": {"/" + strings.Repeat("x", 300)}, "mode": {"0755"}})
	assert.Equal(t, -kerrors.ENAMETOOLONG, code)

	code, payload := call(t, srv, "/api/readdir", url.Values{"path": {"/"}})
	require.Zero(t, code)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(payload))
}

func TestIterateDirAndUtimensOverHTTP(t *testing.T) {
	srv := newTestServer(t)

	code, _ := call(t, srv, "/api/create", url.Values{"path": {"/f"}, "mode": {"420"}})
	require.Zero(t, code)

	code, payload := call(t, srv, "/api/iterate_dir", url.Values{"path": {"/"}, "offset": {"2"}})
	require.Zero(t, code)
	assert.Equal(t, "f", strings.TrimRight(string(payload[:256]), "\x00"))

	code, _ = call(t, srv, "/api/iterate_dir", url.Values{"path": {"/"}, "offset": {"3"}})
	assert.Equal(t, -kerrors.ENOENT, code)

	code, _ = call(t, srv, "/api/utimens", url.Values{"path": {"/f"}, "atime": {"now"}, "mtime": {"1000000000"}})
	require.Zero(t, code)
	code, payload = call(t, srv, "/api/getattr", url.Values{"path": {"/f"}})
	require.Zero(t, code)
	assert.Equal(t, uint64(1000000000), binary.LittleEndian.Uint64(payload[34:]))

	code, _ = call(t, srv, "/api/utimens", url.Values{"path": {"/f"}, "atime": {"yesterday"}})
	assert.Equal(t, kerrors.EINVAL_NEG, code)

	code, _ = call(t, srv, "/api/chmod", url.Values{"fd": {"1"}, "mode": {"0600"}})
	require.Zero(t, code)

	code, _ = call(t, srv, "/api/truncate", url.Values{"path": {"/f"}, "size": {"3"}})
	require.Zero(t, code)

	code, _ = call(t, srv, "/api/unlink", url.Values{"path": {"/f"}})
	assert.Equal(t, -kerrors.EBUSY, code)
}

func TestHealthAndMethods(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/api/getattr?path=/", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
