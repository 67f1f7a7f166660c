// Package logging defines the structured-logging interface used across
// GophDrive and its slog and zerolog implementations.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "entry moved", "entry_id", id, "parent_id", parentID)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Supported backends.
const (
	BackendSlog    = "slog"
	BackendZerolog = "zerolog"
)

// New builds a Logger writing JSON lines to w using the named backend and
// minimum level ("debug", "info", "warn", "error").
func New(backend, level string, w io.Writer) (Logger, error) {
	switch strings.ToLower(backend) {
	case "", BackendSlog:
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(orDefault(level))); err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
		return NewSlogLogger(slog.New(h)), nil
	case BackendZerolog:
		lvl, err := zerolog.ParseLevel(strings.ToLower(orDefault(level)))
		if err != nil {
			return nil, fmt.Errorf("log level: %w", err)
		}
		return NewZerologLogger(zerolog.New(w).Level(lvl).With().Timestamp().Logger()), nil
	default:
		return nil, fmt.Errorf("unknown log backend %q", backend)
	}
}

func orDefault(level string) string {
	if level == "" {
		return "info"
	}
	return level
}
