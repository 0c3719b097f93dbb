package frameserver

import (
	"context"
	"errors"
	"time"

	"github.com/yndnr/framekv-go/internal/core/command"
	"github.com/yndnr/framekv-go/internal/telemetry/metric"
	"github.com/yndnr/framekv-go/pkg/frame"
)

// ErrRateLimited is answered when a connection exceeds its command rate.
var ErrRateLimited = errors.New("rate limit exceeded")

// Metric label for requests that never resolved to a known command.
const (
	labelInvalid = "invalid"
	labelUnknown = "unknown"
)

// dispatch turns one request frame into its response frame.
func (s *Server) dispatch(ctx context.Context, c *Conn, f frame.Frame) frame.Frame {
	cmd, err := command.Parse(f)
	if err != nil {
		label, status := labelInvalid, metric.StatusError
		var pe *command.ParseError
		switch {
		case command.IsUnsupported(err):
			label, status = labelUnknown, metric.StatusUnsupported
		case errors.As(err, &pe) && pe.Command != "":
			label = pe.Command
		}
		s.metrics.CommandDone(label, status, 0)
		s.logger.DebugContext(ctx, "request rejected", "error", err)
		return command.ErrorFrame(err)
	}

	if !c.allow() {
		s.metrics.CommandDone(cmd.Name(), metric.StatusRateLimited, 0)
		return command.ErrorFrame(ErrRateLimited)
	}

	start := time.Now()
	resp := cmd.Apply(s.kv)
	s.metrics.CommandDone(cmd.Name(), metric.StatusOK, time.Since(start))
	return resp
}
