// Package obslog wires structured logging for replayspine components,
// mirroring the teacher's use of log/slog in cmd/helm/main.go alongside
// the audit package's JSON-line pattern.
package obslog

import (
	"io"
	"log/slog"
	"strings"
)

// New builds a slog.Logger writing JSON lines to w at the given level
// ("DEBUG", "INFO", "WARN", "ERROR"; defaults to INFO on an unknown
// value).
func New(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: parseLevel(level)})
	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
