package handler

import (
	"net/http"
	"time"

	"github.com/yndnr/framekv-go/internal/infra/buildinfo"
)

// handleHealth handles GET /health.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	bi := buildinfo.Get()
	resp := HealthResponse{
		Status:      "healthy",
		ServerID:    h.status.ID(),
		Version:     bi.Version,
		Commit:      bi.Commit,
		Connections: h.status.ActiveConns(),
		Time:        time.Now().UTC().Format(time.RFC3339),
	}
	if addr := h.status.Addr(); addr != nil {
		resp.Address = addr.String()
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

// handleReady handles GET /ready. The server is ready once the frame
// listener is bound.
func (h *Handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.status.Addr() == nil {
		h.writeError(w, r, http.StatusServiceUnavailable, "NOT_READY", "frame listener not bound")
		return
	}
	h.writeJSON(w, r, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
