package client

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/yndnr/framekv-go/pkg/frame"
)

// DefaultTimeout bounds a request when the context carries no deadline.
const DefaultTimeout = 5 * time.Second

var (
	// ErrClosed is returned by calls on a closed client.
	ErrClosed = errors.New("client: closed")

	// ErrBroken is returned once a request has failed mid-exchange; the
	// connection must be closed.
	ErrBroken = errors.New("client: connection unusable after earlier failure")

	// ErrUnexpectedResponse is returned when the server answers with a
	// frame the command cannot produce.
	ErrUnexpectedResponse = errors.New("client: unexpected response")
)

// ServerError is an Error frame returned by the server.
type ServerError struct {
	Message string
}

func (e *ServerError) Error() string {
	return e.Message
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout used when the context has no
// deadline. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithLimits sets the limits applied to decoded responses.
func WithLimits(l frame.Limits) Option {
	return func(c *Client) {
		c.limits = l
	}
}

// WithTLS dials with TLS using cfg.
func WithTLS(cfg *tls.Config) Option {
	return func(c *Client) {
		c.tlsConfig = cfg
	}
}

// Client is a connection to a framekv server. It is safe for concurrent
// use; requests are serialized.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	dec     *frame.Decoder
	enc     *frame.Encoder
	timeout time.Duration
	limits  frame.Limits
	broken  bool
	closed  bool

	tlsConfig *tls.Config
}

// Dial connects to the server at addr, a host:port or "unix:" followed
// by a socket path.
func Dial(ctx context.Context, addr string, opts ...Option) (*Client, error) {
	c := configure(opts)

	network, address := "tcp", addr
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		network, address = "unix", path
	}

	var (
		conn net.Conn
		err  error
	)
	if c.tlsConfig != nil {
		d := tls.Dialer{Config: c.tlsConfig}
		conn, err = d.DialContext(ctx, network, address)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, network, address)
	}
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}

	c.attach(conn)
	return c, nil
}

func newClient(conn net.Conn, opts ...Option) *Client {
	c := configure(opts)
	c.attach(conn)
	return c
}

func configure(opts []Option) *Client {
	c := &Client{
		timeout: DefaultTimeout,
		limits:  frame.DefaultLimits(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) attach(conn net.Conn) {
	c.conn = conn
	c.dec = frame.NewDecoder(c.limits)
	c.enc = frame.NewEncoder(conn)
}

// Do sends req and waits for its response frame. An Error frame is
// returned as a frame, not as an error.
func (c *Client) Do(ctx context.Context, req frame.Frame) (frame.Frame, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return frame.Frame{}, ErrClosed
	}
	if c.broken {
		return frame.Frame{}, ErrBroken
	}

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		// The stream position is unknown; later requests could read a
		// stale response.
		c.broken = true
	}
	return resp, err
}

func (c *Client) roundTrip(ctx context.Context, req frame.Frame) (frame.Frame, error) {
	dl, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		dl = time.Now().Add(c.timeout)
	}
	if err := c.conn.SetDeadline(dl); err != nil {
		return frame.Frame{}, fmt.Errorf("client: set deadline: %w", err)
	}

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Unix(1, 0))
	})
	defer stop()

	if err := c.enc.Encode(req); err != nil {
		return frame.Frame{}, wrapErr(ctx, "write", err)
	}
	if err := c.enc.Flush(); err != nil {
		return frame.Frame{}, wrapErr(ctx, "write", err)
	}

	for {
		f, err := c.dec.Next()
		if err == nil {
			return f, nil
		}
		if !errors.Is(err, frame.ErrIncomplete) {
			return frame.Frame{}, fmt.Errorf("client: decode response: %w", err)
		}
		if _, err := c.dec.Fill(c.conn); err != nil {
			if errors.Is(err, io.EOF) && c.dec.Buffered() > 0 {
				err = frame.ErrTruncated
			}
			return frame.Frame{}, wrapErr(ctx, "read", err)
		}
	}
}

func wrapErr(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("client: %s: %w", op, ctxErr)
	}
	// The connection deadline can fire before the context timer does.
	if dl, ok := ctx.Deadline(); ok && errors.Is(err, os.ErrDeadlineExceeded) && !time.Now().Before(dl) {
		return fmt.Errorf("client: %s: %w", op, context.DeadlineExceeded)
	}
	return fmt.Errorf("client: %s: %w", op, err)
}

// Get returns the value stored under key. ok is false for a missing key.
func (c *Client) Get(ctx context.Context, key string) (value []byte, ok bool, err error) {
	resp, err := c.Do(ctx, frame.Request("GET", []byte(key)))
	if err != nil {
		return nil, false, err
	}
	switch resp.Kind {
	case frame.KindBulk:
		return resp.Data, true, nil
	case frame.KindNull:
		return nil, false, nil
	default:
		return nil, false, responseError(resp)
	}
}

// Set stores value under key.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	resp, err := c.Do(ctx, frame.Request("SET", []byte(key), value))
	if err != nil {
		return err
	}
	if resp.Kind == frame.KindSimple && resp.Text == "OK" {
		return nil
	}
	return responseError(resp)
}

// Ping checks the server is alive. With a nil message the server answers
// PONG; otherwise it echoes msg.
func (c *Client) Ping(ctx context.Context, msg []byte) ([]byte, error) {
	req := frame.Request("PING")
	if msg != nil {
		req = frame.Request("PING", msg)
	}
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	switch {
	case resp.Kind == frame.KindSimple && msg == nil:
		return []byte(resp.Text), nil
	case resp.Kind == frame.KindBulk && msg != nil:
		return resp.Data, nil
	default:
		return nil, responseError(resp)
	}
}

// Close closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// usable reports whether the client can serve further requests.
func (c *Client) usable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed && !c.broken
}

func responseError(resp frame.Frame) error {
	if resp.Kind == frame.KindError {
		return &ServerError{Message: resp.Text}
	}
	return fmt.Errorf("%w: %s", ErrUnexpectedResponse, resp)
}
