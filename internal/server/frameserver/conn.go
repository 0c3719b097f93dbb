package frameserver

import (
	"context"
	"errors"
	"io"
	"math"
	"net"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/yndnr/framekv-go/pkg/frame"
)

// ConnError reports the failure that closed a connection.
type ConnError struct {
	// Op is "read", "write" or "decode".
	Op  string
	Err error
}

func (e *ConnError) Error() string {
	return "frameserver: " + e.Op + ": " + e.Err.Error()
}

func (e *ConnError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the connection was closed by a deadline.
func (e *ConnError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// Conn is a single client connection.
type Conn struct {
	id      string
	netConn net.Conn
	dec     *frame.Decoder
	enc     *frame.Encoder
	limiter *rate.Limiter

	closed atomic.Bool
}

func newConn(nc net.Conn, cfg Config) *Conn {
	c := &Conn{
		id:      ulid.Make().String(),
		netConn: nc,
		dec:     frame.NewDecoder(cfg.Limits),
		enc:     frame.NewEncoder(nc),
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(math.Ceil(cfg.RateLimit))
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// ID returns the connection id.
func (c *Conn) ID() string {
	return c.id
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.netConn.RemoteAddr()
}

// Close closes the underlying connection. It is safe to call more than once.
func (c *Conn) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.netConn.Close()
}

// allow reports whether the rate limiter admits one more command.
func (c *Conn) allow() bool {
	return c.limiter == nil || c.limiter.Allow()
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

// serveConn runs the read, dispatch, write cycle until the peer hangs up
// or a fatal error occurs. A clean close returns nil.
func (s *Server) serveConn(ctx context.Context, c *Conn) error {
	defer c.Close()

	var readErr error
	for {
		// One write deadline covers the responses of a whole batch,
		// including any flush the encoder performs while buffering them.
		if s.cfg.WriteTimeout > 0 && c.dec.Buffered() > 0 {
			if err := c.netConn.SetWriteDeadline(deadline(s.cfg.WriteTimeout)); err != nil {
				return &ConnError{Op: "write", Err: err}
			}
		}

		// Dispatch every complete request already buffered.
		for {
			f, err := c.dec.Next()
			if errors.Is(err, frame.ErrIncomplete) {
				break
			}
			if err != nil {
				// Requests ahead of the bad frame have run; their responses
				// still go out before the connection closes.
				if c.enc.Buffered() > 0 {
					_ = c.enc.Flush()
				}
				return &ConnError{Op: "decode", Err: err}
			}
			if err := c.enc.Encode(s.dispatch(ctx, c, f)); err != nil {
				return &ConnError{Op: "write", Err: err}
			}
		}

		if c.enc.Buffered() > 0 {
			if err := c.enc.Flush(); err != nil {
				return &ConnError{Op: "write", Err: err}
			}
		}

		if readErr != nil {
			return c.readFailure(readErr)
		}

		timeout := s.cfg.IdleTimeout
		if c.dec.Buffered() > 0 {
			timeout = s.cfg.ReadTimeout
		}
		if err := c.netConn.SetReadDeadline(deadline(timeout)); err != nil {
			return c.readFailure(err)
		}

		// Bytes returned together with an error are dispatched before the
		// error is acted on.
		_, readErr = c.dec.Fill(c.netConn)
	}
}

// readFailure classifies the error that ended reading.
func (c *Conn) readFailure(err error) error {
	if errors.Is(err, io.EOF) {
		if c.dec.Buffered() > 0 {
			return &ConnError{Op: "decode", Err: frame.ErrTruncated}
		}
		return nil
	}
	if c.closed.Load() {
		return nil
	}
	return &ConnError{Op: "read", Err: err}
}
