// Package event defines the reporting sink contract shared by the snapshot,
// retention and mirror engines.
//
// Engines never present anything themselves. Every filesystem entry they
// process produces exactly one [Event] handed to a [Sink]; logging, metrics
// and progress displays subscribe by implementing Sink.
package event

import (
	"time"
)

// Op is the filesystem operation an event reports on.
type Op string

const (
	OpSnapshot Op = "snapshot"
	OpPrune    Op = "prune"
	OpDelete   Op = "delete"
	OpCopy     Op = "copy"
	OpMkdir    Op = "mkdir"
	OpRestore  Op = "restore"
)

// Outcome is the result of one operation.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// Event is a single reported outcome of one filesystem operation.
type Event struct {
	Op      Op
	Path    string
	Outcome Outcome
	Detail  string
	Err     error
	Time    time.Time
}

// OK builds a successful event.
func OK(op Op, path, detail string) Event {
	return Event{Op: op, Path: path, Outcome: OutcomeOK, Detail: detail, Time: time.Now()}
}

// Failed builds an error event.
func Failed(op Op, path string, err error) Event {
	ev := Event{Op: op, Path: path, Outcome: OutcomeError, Err: err, Time: time.Now()}
	if err != nil {
		ev.Detail = err.Error()
	}
	return ev
}

// Skipped builds an event for an entry that was deliberately left alone.
func Skipped(op Op, path, reason string) Event {
	return Event{Op: op, Path: path, Outcome: OutcomeSkipped, Detail: reason, Time: time.Now()}
}

// Sink receives events. Implementations must be safe for use by one job at a time;
// sinks shared between goroutines must synchronize themselves.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(ev).
func (f SinkFunc) Emit(ev Event) { f(ev) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

type multi []Sink

func (m multi) Emit(ev Event) {
	for _, s := range m {
		s.Emit(ev)
	}
}

// Multi fans events out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

// OrDiscard returns s, or Discard when s is nil.
func OrDiscard(s Sink) Sink {
	if s == nil {
		return Discard
	}
	return s
}
