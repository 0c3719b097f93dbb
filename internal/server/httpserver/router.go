package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/yndnr/framekv-go/internal/server/httpserver/handler"
	"github.com/yndnr/framekv-go/internal/telemetry/metric"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Status reports on the frame server for /health and /ready.
	Status handler.Status

	// Metrics is exposed on /metrics. Nil leaves the route unregistered.
	Metrics *metric.Registry

	// Logger for request logging.
	Logger *slog.Logger
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	h := handler.New(cfg.Status, logger)
	mux.Handle("GET /health", h)
	mux.Handle("GET /ready", h)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	return Chain(mux, Recover(logger), RequestID(), AccessLog(logger))
}
