// Package frame implements the framekv wire codec.
//
// Every frame starts with a one-byte type tag followed by its payload.
// Multi-byte integers are big-endian.
//
//	Simple    '+' <u32 len> <text>
//	Error     '-' <u32 len> <text>
//	Bulk      '$' <u32 len> <bytes>
//	Null      '_'
//	Integer   ':' <i64>
//	Array     '*' <u32 count> <frames>
//
// Text and binary payloads always carry an explicit length, so the decoder
// never scans for a terminator and Bulk values may hold arbitrary bytes.
// A client request is an Array of Bulk frames: the command name followed by
// its arguments.
//
// Decode extracts a single frame from the front of a buffer and reports
// ErrIncomplete when the buffer holds only a prefix of one. Decoder wraps
// Decode for streaming use over a connection.
package frame
