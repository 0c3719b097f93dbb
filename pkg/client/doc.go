// Package client is a Go client for framekv servers.
//
// A Client owns one TCP connection and issues one request at a time. Pool
// hands out clients to concurrent callers.
package client
