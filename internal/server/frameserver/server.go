package frameserver

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/yndnr/framekv-go/internal/storage"
	"github.com/yndnr/framekv-go/internal/telemetry/logger"
	"github.com/yndnr/framekv-go/internal/telemetry/metric"
	"github.com/yndnr/framekv-go/pkg/frame"
)

const maxAcceptDelay = time.Second

// Config holds the frame server configuration.
type Config struct {
	// Network is "tcp" (the default) or "unix".
	Network string
	// Addr is the listen address, a socket path for "unix".
	Addr string
	// ReadTimeout bounds the wait for the rest of a partially received
	// request. Zero disables it.
	ReadTimeout time.Duration
	// WriteTimeout bounds each response flush. Zero disables it.
	WriteTimeout time.Duration
	// IdleTimeout bounds the wait for the next request. Zero disables it.
	IdleTimeout time.Duration
	// RateLimit is the sustained commands per second allowed on one
	// connection. Zero disables rate limiting.
	RateLimit float64
	// RateBurst is the limiter bucket size (default: RateLimit rounded up).
	RateBurst int
	// Limits bounds decoded frames.
	Limits frame.Limits
	// TLS, when set, serves every connection over TLS.
	TLS *tls.Config
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Addr:   "127.0.0.1:7379",
		Limits: frame.DefaultLimits(),
	}
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records connection and command metrics into r.
func WithMetrics(r *metric.Registry) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// WithID overrides the generated server instance id.
func WithID(id string) Option {
	return func(s *Server) {
		s.id = id
	}
}

// Server accepts connections and serves requests against a shared store.
type Server struct {
	cfg     Config
	kv      storage.KV
	logger  *slog.Logger
	metrics *metric.Registry
	id      string

	running atomic.Bool
	active  atomic.Int64
	wg      sync.WaitGroup

	mu    sync.Mutex
	ln    net.Listener
	conns map[*Conn]struct{}
}

// New creates a frame server. kv is shared by every connection.
func New(cfg Config, kv storage.KV, logger *slog.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		cfg:    cfg,
		kv:     kv,
		logger: logger,
		id:     uuid.NewString(),
		conns:  make(map[*Conn]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the server instance id.
func (s *Server) ID() string {
	return s.id
}

// ActiveConns returns the number of open client connections.
func (s *Server) ActiveConns() int64 {
	return s.active.Load()
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Start binds the listen address and serves connections in the
// background. A bind failure is returned. Cancelling ctx stops accepting.
func (s *Server) Start(ctx context.Context) error {
	network := s.cfg.Network
	if network == "" {
		network = "tcp"
	}
	if network == "unix" {
		if err := removeStaleSocket(s.cfg.Addr); err != nil {
			return fmt.Errorf("frameserver: %w", err)
		}
	}

	ln, err := net.Listen(network, s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("frameserver: listen %s: %w", s.cfg.Addr, err)
	}
	if s.cfg.TLS != nil {
		ln = tls.NewListener(ln, s.cfg.TLS)
	}

	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.running.Store(true)

	s.logger.Info("frame server listening", "address", ln.Addr().String(), "server_id", s.id, "tls", s.cfg.TLS != nil)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.acceptLoop(ctx, ln)
	}()
	return nil
}

// removeStaleSocket deletes a socket file left behind by a previous
// process. Any other kind of file at path is left alone.
func removeStaleSocket(path string) error {
	info, err := os.Lstat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.Mode()&os.ModeSocket == 0 {
		return fmt.Errorf("%s exists and is not a socket", path)
	}
	return os.Remove(path)
}

// Shutdown stops accepting, closes live connections and waits for their
// handlers to return or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.running.Store(false)

	var firstErr error

	s.mu.Lock()
	if s.ln != nil {
		if err := s.ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			firstErr = err
		}
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	s.logger.Info("frame server stopped")
	return firstErr
}

func (s *Server) acceptLoop(ctx context.Context, ln net.Listener) {
	stop := context.AfterFunc(ctx, func() { _ = ln.Close() })
	defer stop()

	var delay time.Duration
	for {
		nc, err := ln.Accept()
		if err != nil {
			if !s.running.Load() || errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return
			}
			s.metrics.AcceptFailed()

			if delay == 0 {
				delay = 5 * time.Millisecond
			} else {
				delay *= 2
			}
			if delay > maxAcceptDelay {
				delay = maxAcceptDelay
			}
			s.logger.Warn("accept failed, retrying", "error", err, "delay", delay)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return
			}
			continue
		}
		delay = 0

		c := newConn(nc, s.cfg)
		if !s.track(c) {
			_ = c.Close()
			continue
		}

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			s.handle(ctx, c)
		}()
	}
}

// track registers c unless the server is shutting down.
func (s *Server) track(c *Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running.Load() {
		return false
	}
	s.conns[c] = struct{}{}
	return true
}

func (s *Server) untrack(c *Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

// handle serves c to completion and records the outcome.
func (s *Server) handle(ctx context.Context, c *Conn) {
	ctx = logger.WithConnID(ctx, c.ID())
	remote := c.RemoteAddr().String()

	s.active.Add(1)
	s.metrics.ConnOpened()
	s.logger.DebugContext(ctx, "connection opened", "remote", remote)

	err := s.serveConn(ctx, c)

	s.active.Add(-1)
	var ce *ConnError
	switch {
	case err == nil:
		s.metrics.ConnClosed("")
		s.logger.DebugContext(ctx, "connection closed", "remote", remote)
	case errors.As(err, &ce) && ce.Timeout():
		s.metrics.ConnClosed(ce.Op)
		s.logger.DebugContext(ctx, "connection timed out", "remote", remote, "op", ce.Op)
	case errors.As(err, &ce):
		s.metrics.ConnClosed(ce.Op)
		s.logger.WarnContext(ctx, "connection failed", "remote", remote, "error", err)
	default:
		s.metrics.ConnClosed("unknown")
		s.logger.WarnContext(ctx, "connection failed", "remote", remote, "error", err)
	}
}
