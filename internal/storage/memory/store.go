package memory

import (
	"github.com/yndnr/framekv-go/internal/storage"
	"github.com/yndnr/framekv-go/pkg/cmap"
)

// DefaultShards is the shard count used when none is configured.
const DefaultShards = 1

var (
	_ storage.KV      = (*Store)(nil)
	_ storage.Counter = (*Store)(nil)
)

// Store is a concurrent in-memory key-value store.
type Store struct {
	items *cmap.Map[string, []byte]
}

type options struct {
	shards int
}

// Option configures the Store.
type Option func(*options)

// WithShards sets the number of lock shards. It must be a power of two.
func WithShards(n int) Option {
	return func(o *options) {
		o.shards = n
	}
}

// New creates a new in-memory store.
func New(opts ...Option) *Store {
	o := options{shards: DefaultShards}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store{
		items: cmap.NewWithShards[string, []byte](o.shards),
	}
}

// Get returns a copy of the value stored under key.
func (s *Store) Get(key string) ([]byte, bool) {
	v, ok := s.items.Get(key)
	if !ok {
		return nil, false
	}
	return clone(v), true
}

// Set stores a copy of value under key.
func (s *Store) Set(key string, value []byte) {
	s.items.Set(key, clone(value))
}

// Len returns the number of keys.
func (s *Store) Len() int {
	return s.items.Count()
}

// Shards returns the number of lock shards.
func (s *Store) Shards() int {
	return s.items.ShardCount()
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
