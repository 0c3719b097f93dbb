// Package storage defines the key-value contract served by framekv.
//
// The store maps string keys to byte values. It is created once at server
// start and shared by every connection for the life of the process.
// Entries are created or overwritten by Set and read by Get; nothing
// expires or is removed.
//
// Implementations live in sub-packages:
//
//   - memory: mutex-guarded in-process map (optionally sharded)
package storage
