package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	h := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetRequestIDFromCtx(r.Context())
	}))

	const id = "6ba7b810-9dad-11d1-80b4-00c04fd430c8"
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, seen)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "bogus")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "bogus", seen)
	assert.True(t, logging.ValidRequestID(seen))
}
