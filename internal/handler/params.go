package handler

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/models"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/binary"
)

// params reads query parameters and remembers the first failure, so a
// handler can read everything and check once.
type params struct {
	values url.Values
	err    error
}

func newParams(r *http.Request) *params {
	return &params{values: r.URL.Query()}
}

func (p *params) fail(key string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("parameter %q: %w", key, err)
	}
}

func (p *params) raw(key string, required bool) (string, bool) {
	if !p.values.Has(key) {
		if required {
			p.fail(key, fmt.Errorf("missing"))
		}
		return "", false
	}
	return p.values.Get(key), true
}

// Path reads a required path. A trailing NUL and anything after it is
// dropped.
func (p *params) Path(key string) string {
	s, _ := p.raw(key, true)
	return binary.DecodePath(s)
}

// OptionalPath is Path for operations that may work by descriptor.
func (p *params) OptionalPath(key string) string {
	s, _ := p.raw(key, false)
	return binary.DecodePath(s)
}

// Target reads "path" and "fd" for operations that work on an open
// descriptor or a path. Without a descriptor the path is required.
func (p *params) Target() (string, uint64) {
	path := p.OptionalPath("path")
	fd := p.Uint64("fd", false)
	if fd == 0 && path == "" {
		p.fail("path", fmt.Errorf("missing and no fd given"))
	}
	return path, fd
}

func (p *params) Uint64(key string, required bool) uint64 {
	s, ok := p.raw(key, required)
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		p.fail(key, err)
	}
	return v
}

// Uint32 accepts decimal, 0o/0-prefixed octal and 0x hex, so modes can be
// sent as "0755".
func (p *params) Uint32(key string, required bool) uint32 {
	s, ok := p.raw(key, required)
	if !ok {
		return 0
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		p.fail(key, err)
	}
	return uint32(v)
}

// Data reads base64-encoded bytes.
func (p *params) Data(key string) []byte {
	s, ok := p.raw(key, true)
	if !ok {
		return nil
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		p.fail(key, err)
	}
	return data
}

// TimeSpec reads "now", "omit" (or nothing) or unix nanoseconds.
func (p *params) TimeSpec(key string) models.TimeSpec {
	s, ok := p.raw(key, false)
	if !ok {
		return models.TimeOmitSpec()
	}
	switch s {
	case "now":
		return models.TimeNowSpec()
	case "omit", "":
		return models.TimeOmitSpec()
	}
	nanos, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		p.fail(key, err)
		return models.TimeOmitSpec()
	}
	return models.TimeAt(time.Unix(0, nanos))
}

func (p *params) Err() error {
	return p.err
}
