package logger

import (
	"fmt"
	"log/slog"
	"strings"
)

// storedDataKeys name attributes that may carry client payloads.
var storedDataKeys = map[string]struct{}{
	"value":   {},
	"payload": {},
	"data":    {},
}

// redactStoredData replaces client payloads with their size so stored
// values never reach log output.
func redactStoredData(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		attrs := a.Value.Group()
		out := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			out[i] = redactStoredData(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(out...)}
	}

	if _, ok := storedDataKeys[strings.ToLower(a.Key)]; !ok {
		return a
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, sizeLabel(len(a.Value.String())))
	case slog.KindAny:
		if b, ok := a.Value.Any().([]byte); ok {
			return slog.String(a.Key, sizeLabel(len(b)))
		}
	}
	return a
}

func sizeLabel(n int) string {
	return fmt.Sprintf("<%d bytes>", n)
}
