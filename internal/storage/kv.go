package storage

// KV is the store contract used by the command layer.
//
// Implementations must be safe for concurrent use. A Get that starts after
// a Set on the same key has returned observes that Set or a later one.
// Neither method may block on I/O.
type KV interface {
	// Get returns a copy of the value stored under key, and whether it exists.
	Get(key string) ([]byte, bool)

	// Set stores value under key, replacing any previous value.
	Set(key string, value []byte)
}

// Counter is implemented by stores that can report their size.
type Counter interface {
	Len() int
}
