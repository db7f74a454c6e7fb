package event

import (
	"context"
	"log/slog"
	"sync"
)

// LogSink writes every event to a structured logger.
// Successful entries log at Info, skipped entries at Warn and failures at Error.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink logging to logger, or slog.Default() when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

// Emit implements Sink.
func (s *LogSink) Emit(ev Event) {
	level := slog.LevelInfo
	switch ev.Outcome {
	case OutcomeError:
		level = slog.LevelError
	case OutcomeSkipped:
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("op", string(ev.Op)),
		slog.String("path", ev.Path),
		slog.String("outcome", string(ev.Outcome)),
	}
	if ev.Detail != "" && ev.Err == nil {
		attrs = append(attrs, slog.String("detail", ev.Detail))
	}
	if ev.Err != nil {
		attrs = append(attrs, slog.Any("error", ev.Err))
	}

	s.logger.LogAttrs(context.Background(), level, string(ev.Op), attrs...)
}

// Recorder keeps every event in memory. It is safe for concurrent use.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements Sink.
func (r *Recorder) Emit(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many recorded events match op and outcome.
func (r *Recorder) Count(op Op, outcome Outcome) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Op == op && ev.Outcome == outcome {
			n++
		}
	}
	return n
}
