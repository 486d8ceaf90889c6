// internal/util/logger.go
package util

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

var logger *slog.Logger

// LoggerOptions controls the handler built by InitLogger.
type LoggerOptions struct {
	Level  string // debug, info, warn, error
	Format string // json or text
	Output io.Writer
}

// InitLogger initializes the global structured logger.
// JSON is the default format; "text" switches to a human readable handler.
func InitLogger(opts LoggerOptions) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{
		AddSource: true,
		Level:     ParseLogLevel(opts.Level),
	}

	var handler slog.Handler
	if strings.EqualFold(opts.Format, "text") {
		handler = slog.NewTextHandler(out, handlerOpts)
	} else {
		handler = slog.NewJSONHandler(out, handlerOpts)
	}
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// GetLogger returns the initialized global logger.
func GetLogger() *slog.Logger {
	if logger == nil {
		InitLogger(LoggerOptions{}) // should be called explicitly at app start
	}
	return logger
}

// ParseLogLevel maps a level name to a slog.Level, defaulting to Info.
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
