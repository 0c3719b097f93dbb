// Package logger provides structured logging for framekv.
//
// It wraps log/slog:
//
//   - logger.go: Logger interface, construction, global level
//   - context.go: connection ids carried on context.Context
//   - redact.go: keeps stored values out of log output
//
// The level is held in a shared slog.LevelVar so it can be changed at
// runtime, for example when the config file is reloaded.
package logger
