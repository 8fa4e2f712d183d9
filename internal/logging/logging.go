// Package logging configures structured process logging with log/slog.
// Store-persisted activity entries are a separate concern; this covers what
// the process writes to stderr.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// New builds a logger at the given level ("debug", "info", "warn", "error");
// json selects the JSON handler for non-interactive runs.
func New(level string, json bool, out io.Writer) *slog.Logger {
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	var h slog.Handler
	if json {
		h = slog.NewJSONHandler(out, opts)
	} else {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(h)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
