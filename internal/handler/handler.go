package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/S1riyS/os-course-lab-4/memfs/internal/pkg/kerrors"
	"github.com/S1riyS/os-course-lab-4/memfs/internal/service"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/binary"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging"
	"github.com/S1riyS/os-course-lab-4/memfs/pkg/logging/slogext"
)

// MaxReadSize caps the buffer a single read request may ask for.
const MaxReadSize = 16 << 20

type Handler struct {
	service service.FileSystemService
}

func NewHandler(service service.FileSystemService) *Handler {
	return &Handler{service: service}
}

// badRequest answers -EINVAL for unparsable parameters.
func badRequest(ctx context.Context, op string, w http.ResponseWriter, err error) {
	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Warn("Invalid request parameters", slogext.Err(err))
	binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
}

func (h *Handler) HandleGetAttr(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleGetAttr"

	p := newParams(r)
	path := p.Path("path")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	attr, err := h.service.GetAttr(ctx, path)
	if err != nil {
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	data, err := binary.EncodeAttr(attr)
	if err != nil {
		binary.WriteResponse(w, kerrors.ENOMEM_NEG, nil)
		return
	}

	binary.WriteResponse(w, 0, data)
}

func (h *Handler) HandleOpen(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleOpen"

	p := newParams(r)
	path := p.Path("path")
	flags := p.Uint32("flags", false)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	fd, err := h.service.Open(ctx, path, flags)
	if err != nil {
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteUint64Response(w, 0, fd)
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleCreate"

	p := newParams(r)
	path := p.Path("path")
	mode := p.Uint32("mode", true)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	fd, err := h.service.Create(ctx, path, mode)
	if err != nil {
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteUint64Response(w, 0, fd)
}

func (h *Handler) HandleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleRead"

	p := newParams(r)
	fd := p.Uint64("fd", true)
	offset := p.Uint64("offset", true)
	length := p.Uint64("len", true)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}
	if length > MaxReadSize {
		logger := logging.GetLoggerFromContextWithOp(ctx, op)
		logger.Warn("Read length too large", slog.Uint64("len", length))
		binary.WriteResponse(w, kerrors.EINVAL_NEG, nil)
		return
	}

	buffer := make([]byte, length)
	read, err := h.service.Read(ctx, fd, offset, buffer)
	if err != nil {
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	// Возвращаем только прочитанные байты
	binary.WriteResponse(w, 0, buffer[:read])
}

func (h *Handler) HandleWrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleWrite"

	logger := logging.GetLoggerFromContextWithOp(ctx, op)
	logger.Debug("Write request received",
		slog.String("remote_addr", r.RemoteAddr),
		slog.Int("query_len", len(r.URL.RawQuery)),
	)

	p := newParams(r)
	fd := p.Uint64("fd", true)
	offset := p.Uint64("offset", true)
	data := p.Data("data")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	written, err := h.service.Write(ctx, fd, offset, data)
	if err != nil {
		logger.Debug("Write failed", slogext.Err(err), slog.Uint64("fd", fd))
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteInt64Response(w, 0, int64(written))
}

func (h *Handler) HandleTruncate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleTruncate"

	p := newParams(r)
	path, fd := p.Target()
	size := p.Uint64("size", true)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.Truncate(ctx, path, fd, size)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleMkdir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleMkdir"

	p := newParams(r)
	path := p.Path("path")
	mode := p.Uint32("mode", true)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.MkDir(ctx, path, mode)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleRmdir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleRmdir"

	p := newParams(r)
	path := p.Path("path")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.RmDir(ctx, path)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleUnlink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleUnlink"

	p := newParams(r)
	path := p.Path("path")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.Unlink(ctx, path)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleLink"

	p := newParams(r)
	from := p.Path("from")
	to := p.Path("to")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.Link(ctx, from, to)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleReadDir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleReadDir"

	p := newParams(r)
	path := p.Path("path")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	dirents, err := h.service.ReadDir(ctx, path)
	if err != nil {
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	data, err := binary.EncodeDirents(dirents)
	if err != nil {
		logger := logging.GetLoggerFromContextWithOp(ctx, op)
		logger.Error("Failed to encode dirents", slogext.Err(err))
		binary.WriteResponse(w, kerrors.ENOMEM_NEG, nil)
		return
	}

	binary.WriteResponse(w, 0, data)
}

func (h *Handler) HandleIterateDir(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleIterateDir"

	p := newParams(r)
	path := p.Path("path")
	offset := p.Uint64("offset", true)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	dirent, err := h.service.IterateDir(ctx, path, offset)
	if err != nil {
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	data, err := binary.EncodeDirent(dirent)
	if err != nil {
		binary.WriteResponse(w, kerrors.ENOMEM_NEG, nil)
		return
	}

	binary.WriteResponse(w, 0, data)
}

func (h *Handler) HandleCountLinks(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleCountLinks"

	p := newParams(r)
	path := p.Path("path")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	nlink, err := h.service.CountLinks(ctx, path)
	if err != nil {
		binary.WriteResponse(w, mapErrorToCode(err), nil)
		return
	}

	binary.WriteUint32Response(w, 0, nlink)
}

func (h *Handler) HandleChmod(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleChmod"

	p := newParams(r)
	path, fd := p.Target()
	mode := p.Uint32("mode", true)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.ChMod(ctx, path, fd, mode)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleUtimens(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleUtimens"

	p := newParams(r)
	path, fd := p.Target()
	atime := p.TimeSpec("atime")
	mtime := p.TimeSpec("mtime")
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.UpdateTimestamps(ctx, path, fd, atime, mtime)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleRelease"

	p := newParams(r)
	fd := p.Uint64("fd", true)
	if err := p.Err(); err != nil {
		badRequest(ctx, op, w, err)
		return
	}

	err := h.service.Release(ctx, fd)
	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

// HandleUnsupported answers every operation the engine does not
// implement, known or not, with -ENOSYS. Known ones still reach the
// service so they are logged there.
func (h *Handler) HandleUnsupported(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	const op = "handler.HandleUnsupported"

	p := newParams(r)
	path := p.OptionalPath("path")

	var err error
	switch r.PathValue("op") {
	case "rename":
		err = h.service.Rename(ctx, path, p.OptionalPath("to"))
	case "symlink":
		err = h.service.Symlink(ctx, p.OptionalPath("target"), path)
	case "readlink":
		_, err = h.service.Readlink(ctx, path)
	case "access":
		err = h.service.Access(ctx, path, p.Uint32("mask", false))
	case "statfs":
		err = h.service.StatFS(ctx, path)
	case "flush":
		err = h.service.Flush(ctx, path, p.Uint64("fd", false))
	case "fsync":
		err = h.service.Fsync(ctx, path, p.Uint64("fd", false), p.values.Get("datasync") == "1")
	case "getxattr":
		_, err = h.service.GetXAttr(ctx, path, p.values.Get("name"))
	case "setxattr":
		err = h.service.SetXAttr(ctx, path, p.values.Get("name"), nil, 0)
	case "listxattr":
		_, err = h.service.ListXAttr(ctx, path)
	case "removexattr":
		err = h.service.RemoveXAttr(ctx, path, p.values.Get("name"))
	default:
		logger := logging.GetLoggerFromContextWithOp(ctx, op)
		logger.Debug("Unknown operation", slog.String("name", r.PathValue("op")))
		binary.WriteResponse(w, kerrors.ENOSYS_NEG, nil)
		return
	}

	binary.WriteResponse(w, mapErrorToCode(err), nil)
}

func (h *Handler) HandleHealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok","service":"memfs"}`))
}

// mapErrorToCode turns a service error into the negated errno written in
// the response header.
func mapErrorToCode(err error) int64 {
	return int64(service.Status(err))
}
