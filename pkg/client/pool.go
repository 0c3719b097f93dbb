package client

import (
	"context"
	"errors"
	"fmt"

	pool "github.com/jolestar/go-commons-pool/v2"
)

var errTypeMismatch = errors.New("client: pooled object is not a *Client")

// PoolConfig configures a Pool.
type PoolConfig struct {
	// Addr is the server address.
	Addr string
	// MaxTotal caps the number of open connections (default: 8).
	MaxTotal int
	// Options are applied to every dialed client.
	Options []Option
}

// Pool is a bounded set of reusable clients.
type Pool struct {
	p *pool.ObjectPool
}

// NewPool creates a pool. Connections are dialed lazily on borrow.
func NewPool(ctx context.Context, cfg PoolConfig) *Pool {
	maxTotal := cfg.MaxTotal
	if maxTotal <= 0 {
		maxTotal = 8
	}

	pc := pool.NewDefaultPoolConfig()
	pc.MaxTotal = maxTotal
	pc.MaxIdle = maxTotal
	pc.TestOnBorrow = true

	return &Pool{
		p: pool.NewObjectPool(ctx, &clientFactory{addr: cfg.Addr, opts: cfg.Options}, pc),
	}
}

// Get borrows a client, dialing a new one when none is idle. It blocks
// while MaxTotal clients are in use.
func (p *Pool) Get(ctx context.Context) (*Client, error) {
	obj, err := p.p.BorrowObject(ctx)
	if err != nil {
		return nil, fmt.Errorf("client: borrow: %w", err)
	}
	c, ok := obj.(*Client)
	if !ok {
		return nil, errTypeMismatch
	}
	return c, nil
}

// Put returns c to the pool. A client that failed a request is closed
// instead of reused.
func (p *Pool) Put(ctx context.Context, c *Client) error {
	if !c.usable() {
		return p.p.InvalidateObject(ctx, c)
	}
	return p.p.ReturnObject(ctx, c)
}

// Do borrows a client, runs fn with it and returns it.
func (p *Pool) Do(ctx context.Context, fn func(*Client) error) error {
	c, err := p.Get(ctx)
	if err != nil {
		return err
	}
	fnErr := fn(c)
	if err := p.Put(ctx, c); err != nil && fnErr == nil {
		return err
	}
	return fnErr
}

// Active returns the number of borrowed clients.
func (p *Pool) Active() int {
	return p.p.GetNumActive()
}

// Idle returns the number of idle clients.
func (p *Pool) Idle() int {
	return p.p.GetNumIdle()
}

// Close closes every idle client and rejects further borrows.
func (p *Pool) Close(ctx context.Context) {
	p.p.Close(ctx)
}

type clientFactory struct {
	addr string
	opts []Option
}

func (f *clientFactory) MakeObject(ctx context.Context) (*pool.PooledObject, error) {
	c, err := Dial(ctx, f.addr, f.opts...)
	if err != nil {
		return nil, err
	}
	return pool.NewPooledObject(c), nil
}

func (f *clientFactory) DestroyObject(ctx context.Context, object *pool.PooledObject) error {
	c, ok := object.Object.(*Client)
	if !ok {
		return errTypeMismatch
	}
	return c.Close()
}

func (f *clientFactory) ValidateObject(ctx context.Context, object *pool.PooledObject) bool {
	c, ok := object.Object.(*Client)
	return ok && c.usable()
}

func (f *clientFactory) ActivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}

func (f *clientFactory) PassivateObject(ctx context.Context, object *pool.PooledObject) error {
	return nil
}
