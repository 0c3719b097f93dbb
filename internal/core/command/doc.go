// Package command maps request frames to executable commands.
//
// A request is an Array of Bulk frames whose first element names the
// command. Names are matched case-insensitively against a registry, so
// adding a command means registering it; the decode path does not change.
//
// Parse distinguishes two failure kinds. A *ParseError means the request
// was malformed (wrong shape or argument count). An *UnsupportedError
// means the request was well formed but names no registered command. Both
// are reported to the client as Error frames and leave the connection open.
//
// Commands execute against a storage.KV and produce the response frame
// themselves, which keeps the store unaware of the wire protocol.
package command
