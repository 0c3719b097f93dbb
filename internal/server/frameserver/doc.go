// Package frameserver serves the framed key-value protocol over TCP.
//
// Each accepted connection runs in its own goroutine. A connection reads
// bytes into its decoder, dispatches every complete request already
// buffered, flushes the responses in request order, and reads again.
// Decode and transport failures close the connection; malformed or
// unknown commands are answered with an Error frame and the connection
// stays open.
package frameserver
