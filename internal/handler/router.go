package handler

import (
	"net/http"
)

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// System endpoints
	mux.HandleFunc("GET /health", h.HandleHealthCheck)

	// API endpoints
	mux.HandleFunc("GET /api/getattr", h.HandleGetAttr)
	mux.HandleFunc("GET /api/open", h.HandleOpen)
	mux.HandleFunc("GET /api/create", h.HandleCreate)
	mux.HandleFunc("GET /api/read", h.HandleRead)
	mux.HandleFunc("GET /api/write", h.HandleWrite)
	mux.HandleFunc("GET /api/truncate", h.HandleTruncate)
	mux.HandleFunc("GET /api/mkdir", h.HandleMkdir)
	mux.HandleFunc("GET /api/rmdir", h.HandleRmdir)
	mux.HandleFunc("GET /api/unlink", h.HandleUnlink)
	mux.HandleFunc("GET /api/link", h.HandleLink)
	mux.HandleFunc("GET /api/readdir", h.HandleReadDir)
	mux.HandleFunc("GET /api/iterate_dir", h.HandleIterateDir)
	mux.HandleFunc("GET /api/count_links", h.HandleCountLinks)
	mux.HandleFunc("GET /api/chmod", h.HandleChmod)
	mux.HandleFunc("GET /api/utimens", h.HandleUtimens)
	mux.HandleFunc("GET /api/release", h.HandleRelease)

	// Everything else the adaptor may forward
	mux.HandleFunc("GET /api/{op}", h.HandleUnsupported)
}
