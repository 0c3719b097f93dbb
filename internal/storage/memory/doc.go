// Package memory provides the in-memory key-value store for framekv.
//
// Store wraps a cmap.Map. By default it uses a single shard, so one mutex
// guards the whole map and at most one mutation is in flight at a time.
// WithShards spreads keys over more mutexes so writes to keys on different
// shards do not wait on each other.
//
// Values are copied on the way in and on the way out; callers may reuse
// their buffers and cannot alias stored data.
package memory
