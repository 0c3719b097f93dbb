// Package main provides the entry point for framekv-cli.
//
// Usage:
//
//	framekv-cli [--server host:port] [-o table|json|yaml] COMMAND [args]
//	framekv-cli set greeting hello
//	framekv-cli get greeting
//	framekv-cli bench -c 16 -n 100000
package main
