package main

import (
	"log/slog"
	"os"
)

// parseLogLevel converts a string log level name to a slog.Level.
// Unrecognized values fall back to slog.LevelWarn.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warning", "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		slog.Warn("unknown log level, defaulting to warn", "level", level)
		return slog.LevelWarn
	}
}

func setupLogger(level string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(level)})))
}
