package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ernestobalbinse/HurriAid/internal/config"
)

// NewLogger builds the process logger from LOG_LEVEL and LOG_FORMAT and sets it as the slog default.
func NewLogger(cfg *config.Config) *slog.Logger {
	logger := NewLoggerTo(os.Stdout, cfg)
	slog.SetDefault(logger)
	return logger
}

// NewLoggerTo builds a logger writing to w. Commands that print results on
// stdout log to stderr instead.
func NewLoggerTo(w io.Writer, cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "text") {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler).With("service", "hurriaid")
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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
