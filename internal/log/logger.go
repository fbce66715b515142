// Package log wires slog with a component attribute so log lines from the
// web server and the worker are distinguishable in shared output.
package log

import (
	"log/slog"
	"os"
	"strings"
)

// Setup installs a text handler as the default slog logger, tagged with the
// component name. LOG_LEVEL selects the level (debug, info, warn, error).
func Setup(component string) *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	logger := slog.New(handler).With("component", component)
	slog.SetDefault(logger)
	return logger
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
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
