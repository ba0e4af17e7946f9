package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the process-wide logger. Output goes to stderr so that
// tables and exports on stdout stay machine-readable.
func Init(level string, json bool) *slog.Logger {
	return InitWriter(os.Stderr, level, json)
}

func InitWriter(w io.Writer, level string, json bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(level)}

	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	l := slog.New(handler)
	slog.SetDefault(l)

	l.With("component", "logger").Debug("logger initialized",
		"level", level,
		"json", json,
	)
	return l
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
