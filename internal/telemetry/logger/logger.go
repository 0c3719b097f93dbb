package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the logging surface handed to framekv components.
//
// Components that want context-aware logging (conn_id propagation) take
// the *slog.Logger returned by Slog and call the *Context variants.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Slog() *slog.Logger
}

// Output formats accepted by Config.Format.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config holds logger configuration.
type Config struct {
	// Level is the minimum level: debug, info, warn or error.
	Level string
	// Format is json or text ("console" is accepted for text).
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
	// AddSource records the calling file and line.
	AddSource bool
}

// DefaultConfig returns info-level JSON logging to stderr.
func DefaultConfig() Config {
	return Config{Level: "info", Format: FormatJSON, Output: os.Stderr}
}

var levels = []struct {
	name    string
	aliases []string
	level   slog.Level
}{
	{"debug", nil, slog.LevelDebug},
	{"info", []string{""}, slog.LevelInfo},
	{"warn", []string{"warning"}, slog.LevelWarn},
	{"error", nil, slog.LevelError},
}

// level is shared by every logger built with New, so SetLevel takes
// effect everywhere at once.
var level = new(slog.LevelVar)

// ParseLevel converts a level name to slog.Level. The empty string is info.
func ParseLevel(name string) (slog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, l := range levels {
		if l.name == name {
			return l.level, nil
		}
		for _, a := range l.aliases {
			if a == name {
				return l.level, nil
			}
		}
	}
	return slog.LevelInfo, fmt.Errorf("logger: unknown level %q", name)
}

// SetLevel changes the level of every logger built with New.
func SetLevel(name string) error {
	l, err := ParseLevel(name)
	if err != nil {
		return err
	}
	level.Set(l)
	return nil
}

// GetLevel returns the current level name.
func GetLevel() string {
	cur := level.Level()
	for _, l := range levels {
		if l.level == cur {
			return l.name
		}
	}
	return cur.String()
}

// New builds a Logger from cfg and makes cfg.Level the shared level.
func New(cfg Config) (Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	h, err := newHandler(cfg)
	if err != nil {
		return nil, err
	}
	level.Set(lvl)
	return &slogLogger{l: slog.New(&contextHandler{Handler: h})}, nil
}

func newHandler(cfg Config) (slog.Handler, error) {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.AddSource,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			return redactStoredData(a)
		},
	}

	switch strings.ToLower(cfg.Format) {
	case "", FormatJSON:
		return slog.NewJSONHandler(out, opts), nil
	case FormatText, "console":
		return slog.NewTextHandler(out, opts), nil
	}
	return nil, fmt.Errorf("logger: unknown format %q", cfg.Format)
}

// Discard returns a Logger that drops every record.
func Discard() Logger {
	return &slogLogger{l: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// SetDefault installs l as slog's process-wide default.
func SetDefault(l Logger) {
	slog.SetDefault(l.Slog())
}

// Default wraps slog's current default logger.
func Default() Logger {
	return &slogLogger{l: slog.Default()}
}

type slogLogger struct {
	l *slog.Logger
}

func (s *slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s *slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s *slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s *slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

func (s *slogLogger) With(args ...any) Logger {
	return &slogLogger{l: s.l.With(args...)}
}

func (s *slogLogger) Slog() *slog.Logger {
	return s.l
}
