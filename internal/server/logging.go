package server

import (
	"io"
	"log/slog"
)

// NewLogger builds a text logger writing to w at the named level
// (debug, info, warn or error). Unknown levels fall back to info.
func NewLogger(level string, w io.Writer) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}
