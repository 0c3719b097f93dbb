// Package main provides the entry point for framekv-server.
//
// framekv-server serves an in-memory key/value store over a length
// prefixed frame protocol on TCP, with an optional HTTP side listener for
// /metrics, /health and /ready.
//
// Usage:
//
//	framekv-server [--config path] [--addr host:port] [--log-level lvl]
package main
