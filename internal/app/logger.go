package app

import (
	"log/slog"
	"os"
	"strings"

	"dispatchsvc/internal/config"
	"dispatchsvc/internal/logx"
)

// NewLogger builds the process-wide logger from cfg.LogLevel.
func NewLogger(cfg *config.Config) logx.Logger {
	base := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	return logx.NewSlogAdapter(base)
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
