package logging

import (
	"context"
	"log/slog"
	"strings"
)

// FilterHandler drops records whose message or path attribute contains any of
// a set of substrings, and passes everything else to the next handler.
type FilterHandler struct {
	next     slog.Handler
	excludes []string
}

// NewFilterHandler wraps next. Empty substrings are ignored; with none left
// next is returned unwrapped.
func NewFilterHandler(next slog.Handler, excludes ...string) slog.Handler {
	var kept []string
	for _, e := range excludes {
		if e != "" {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return next
	}
	return &FilterHandler{next: next, excludes: kept}
}

// Enabled defers to the wrapped handler.
func (h *FilterHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle forwards r unless it matches an excluded substring.
func (h *FilterHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.excluded(r.Message) {
		return nil
	}

	drop := false
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "path" && h.excluded(a.Value.String()) {
			drop = true
			return false
		}
		return true
	})
	if drop {
		return nil
	}

	return h.next.Handle(ctx, r)
}

func (h *FilterHandler) excluded(s string) bool {
	for _, e := range h.excludes {
		if strings.Contains(s, e) {
			return true
		}
	}
	return false
}

// WithAttrs returns a FilterHandler wrapping next.WithAttrs(attrs).
func (h *FilterHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &FilterHandler{next: h.next.WithAttrs(attrs), excludes: h.excludes}
}

// WithGroup returns a FilterHandler wrapping next.WithGroup(name).
func (h *FilterHandler) WithGroup(name string) slog.Handler {
	return &FilterHandler{next: h.next.WithGroup(name), excludes: h.excludes}
}
