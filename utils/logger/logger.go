package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures Init.
type Options struct {
	// Format is "json" or "text".
	Format string
	Level  string
	// EnableOTel also emits records through the OTel log bridge.
	EnableOTel bool
	// Writer defaults to stderr so command output on stdout stays clean.
	Writer io.Writer
}

// Init builds the process logger and installs it as the slog default.
func Init(opts Options) *slog.Logger {
	level := ParseLevel(opts.Level)
	w := opts.Writer
	if w == nil {
		w = os.Stderr
	}

	var base slog.Handler
	if strings.EqualFold(opts.Format, "json") {
		base = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	} else {
		base = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	var handler slog.Handler = NewTraceContextHandler(base)
	if opts.EnableOTel {
		handler = NewMultiHandler(handler, NewOTelHandler(level))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	GlobalContext = NewContextLogger(logger)
	return logger
}

// ParseLevel maps a level name to slog.Level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
