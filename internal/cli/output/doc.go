// Package output formats framekv-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables for terminals
//   - json.go, yaml.go: machine-readable output
//   - progress.go: progress bar for long benchmarks
package output
