// Package logger builds the structured slog.Logger every component in this
// repo logs through, with optional rotating file output. Adapted from the
// teacher's pkg/logger/logger.go.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Config controls the logger's level, format and destination.
type Config struct {
	Level      string // debug, info, warn, error
	Format     string // json, text
	Output     string // stdout, stderr, file
	Filename   string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

func DefaultConfig() Config {
	return Config{
		Level:      "info",
		Format:     "json",
		Output:     "stdout",
		MaxSizeMB:  100,
		MaxBackups: 5,
		MaxAgeDays: 28,
		Compress:   true,
	}
}

// ParseLevel maps a config string onto slog.Level, defaulting to Info for
// an unrecognized value.
func ParseLevel(s string) slog.Level {
	switch s {
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

// SetupWriter resolves Config.Output to an io.Writer, returning a
// lumberjack rotating writer for "file" output.
func SetupWriter(cfg Config) io.Writer {
	switch cfg.Output {
	case "stderr":
		return os.Stderr
	case "file":
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
	default:
		return os.Stdout
	}
}

// New builds a slog.Logger per cfg, JSON or text formatted.
func New(cfg Config) *slog.Logger {
	w := SetupWriter(cfg)
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

type contextKey string

const componentIDKey contextKey = "component_id"

// WithComponentID attaches a component id to ctx for later retrieval by
// FromContext, the way the teacher's WithRequestID/GetRequestID pair
// threads a request id through a handler chain.
func WithComponentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, componentIDKey, id)
}

// ComponentID retrieves the id set by WithComponentID, if any.
func ComponentID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(componentIDKey).(string)
	return id, ok
}

// FromContext returns a logger carrying the context's component_id field,
// if one was attached; otherwise base is returned unchanged.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id, ok := ComponentID(ctx); ok {
		return base.With("component_id", id)
	}
	return base
}
