// Package logging configures structured JSON logging for paragraf.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup creates a JSON slog logger writing to w at the given level.
func Setup(level string, w io.Writer) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: parseLevel(level),
	})
	return slog.New(handler)
}

// SetupDefault configures the process-wide default logger on stderr.
func SetupDefault(level string) *slog.Logger {
	logger := Setup(level, os.Stderr)
	slog.SetDefault(logger)
	return logger
}

// parseLevel converts string level to slog.Level.
func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
