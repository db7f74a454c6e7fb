package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
)

// LevelTrace is below Debug and covers per-entry detail such as every
// skipped name during a prune.
const LevelTrace = slog.LevelDebug - 4

// Format is the record encoding of a handler.
type Format string

const (
	// FormatText is the colored one-line-per-record format of [Handler].
	FormatText Format = "text"
	// FormatJSON is slog's JSON encoding.
	FormatJSON Format = "json"
)

// Config describes a logger built by [New].
type Config struct {
	Level  slog.Level
	Format Format
	// Output defaults to os.Stderr.
	Output io.Writer
}

// NewFormatHandler returns a JSON handler for FormatJSON and a [Handler]
// for anything else.
func NewFormatHandler(format Format, out io.Writer, opts *slog.HandlerOptions) slog.Handler {
	if format == FormatJSON {
		return slog.NewJSONHandler(out, opts)
	}
	return NewHandler(out, opts)
}

// New creates a logger from cfg.
func New(cfg Config) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	return slog.New(NewFormatHandler(cfg.Format, out, &slog.HandlerOptions{Level: cfg.Level}))
}

// LevelFromVerbosity maps a -v count to a level: 0 is Warn, 1 Info,
// 2 Debug and 3 or more Trace.
func LevelFromVerbosity(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelWarn
	case v == 1:
		return slog.LevelInfo
	case v == 2:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying logger.
func NewContext(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// ForTest returns a logger writing every level to the test's output, shown
// when the test fails or runs with -v.
func ForTest(tb testing.TB) *slog.Logger {
	tb.Helper()
	return New(Config{
		Level:  LevelTrace,
		Format: FormatText,
		Output: tb.Output(),
	})
}
