// Package repl provides the interactive mode of framekv-cli.
//
// Each input line is split into words, sent to the server as one request
// array of Bulk frames, and the reply is printed:
//
//	framekv> set greeting "hello world"
//	OK
//	framekv> get greeting
//	"hello world"
//	framekv> get missing
//	(nil)
//
// Local commands: help [prefix], history, exit, quit.
package repl
