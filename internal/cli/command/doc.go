// Package command defines the framekv-cli commands using urfave/cli/v2:
//
//   - root.go: application, global flags and shared helpers
//   - kv.go: get, set and ping
//   - bench.go: concurrent load generator
//   - repl.go: interactive shell
//   - config.go: CLI configuration file and server profiles
//   - version.go: build information
package command
