package app

import (
	"io"
	"log/slog"
	"strings"
)

// defaultLogLevel is used when the configured level does not parse.
const defaultLogLevel = slog.LevelWarn

// newLogger creates a slog.Logger writing text or JSON to w. It does not set
// the global logger, so each App logs in isolation.
func newLogger(levelStr, formatStr string, w io.Writer) *slog.Logger {
	level := defaultLogLevel
	if levelStr != "" {
		if err := level.UnmarshalText([]byte(levelStr)); err != nil {
			level = defaultLogLevel
		}
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(formatStr, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler).With("app", "knitgrid")
}
