// ABOUTME: Structured logger setup
// ABOUTME: Builds a slog logger with a tint text handler or a JSON handler
package logging

import (
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps a level name to a slog level, defaulting to info
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates a logger writing to w. format "json" selects the JSON
// handler; anything else selects tint.
func New(w io.Writer, level, format string, color bool) *slog.Logger {
	lvl := ParseLevel(level)

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: lvl,
		})
	} else {
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.TimeOnly,
			NoColor:    !color,
		})
	}
	return slog.New(handler)
}

// Setup creates a logger and installs it as the slog default
func Setup(w io.Writer, level, format string, color bool) *slog.Logger {
	logger := New(w, level, format, color)
	slog.SetDefault(logger)
	return logger
}
