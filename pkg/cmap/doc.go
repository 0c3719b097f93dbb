// Package cmap provides a concurrent map keyed by strings.
//
// The map is split into a power-of-two number of shards. Each shard is a
// plain Go map guarded by one sync.Mutex that readers and writers share, so
// a read never observes a half-applied write. Keys are assigned to shards
// with a seeded murmur3 hash.
//
// With a single shard the whole map sits behind one lock. More shards let
// operations on keys in different shards proceed in parallel.
//
// Usage:
//
//	m := cmap.NewWithShards[string, []byte](16)
//	m.Set("key", value)
//	val, ok := m.Get("key")
//
// Critical sections only touch the underlying map; callbacks and I/O never
// run under a shard lock.
package cmap
