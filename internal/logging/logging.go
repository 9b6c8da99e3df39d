package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Init installs the default slog logger for a CLI, which only shows errors
// unless LOG_LEVEL says otherwise.
func Init() {
	slog.SetDefault(New(os.Stderr, slog.LevelError))
}

// InitServer installs the default slog logger for a long-running server,
// which logs at info unless LOG_LEVEL says otherwise.
func InitServer() *slog.Logger {
	logger := New(os.Stderr, slog.LevelInfo)
	slog.SetDefault(logger)
	return logger
}

// New builds a logger writing to out. LOG_LEVEL overrides def and
// LOG_FORMAT selects text (default), json or pretty output.
func New(out io.Writer, def slog.Level) *slog.Logger {
	level := ParseLevel(os.Getenv("LOG_LEVEL"), def)
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(os.Getenv("LOG_FORMAT")) {
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	case "pretty":
		handler = NewPrettyHandler(out, level)
	default:
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// ParseLevel maps a LOG_LEVEL value to a level, falling back to def.
func ParseLevel(s string, def slog.Level) slog.Level {
	switch strings.ToLower(s) {
	case "dev", "development", "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "production", "prod":
		return slog.LevelError
	default:
		return def
	}
}
