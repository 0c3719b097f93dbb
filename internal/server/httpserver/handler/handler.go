package handler

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
)

// Status reports the state of the frame server.
type Status interface {
	ID() string
	Addr() net.Addr
	ActiveConns() int64
}

// Handler routes operational requests.
type Handler struct {
	status Status
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a Handler reporting on status.
func New(status Status, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		status: status,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /health", h.handleHealth)
	h.mux.HandleFunc("GET /ready", h.handleReady)
}

// writeJSON wraps data in the OK envelope.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	h.write(w, status, NewResponse(requestID(r), data))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	h.write(w, status, NewErrorResponse(requestID(r), code, message))
}

func (h *Handler) write(w http.ResponseWriter, status int, resp *Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// requestID reads the id the RequestID middleware wrote onto the request.
func requestID(r *http.Request) string {
	return r.Header.Get("X-Request-ID")
}
