package mirror

import (
	"time"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
)

// Failure is one entry the sync could not process.
type Failure struct {
	Op     event.Op `json:"op" yaml:"op"`
	Path   string   `json:"path" yaml:"path"`
	Reason string   `json:"error" yaml:"error"`
	Err    error    `json:"-" yaml:"-"`
}

// Report summarizes one sync run.
type Report struct {
	Source   string    `json:"source" yaml:"source"`
	Dest     string    `json:"dest" yaml:"dest"`
	DryRun   bool      `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Deleted  int       `json:"deleted" yaml:"deleted"`
	Copied   int       `json:"copied" yaml:"copied"`
	Dirs     int       `json:"dirs" yaml:"dirs"`
	Skipped  int       `json:"skipped" yaml:"skipped"`
	Bytes    int64     `json:"bytes" yaml:"bytes"`
	Failures []Failure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Started  time.Time `json:"started" yaml:"started"`
	Finished time.Time `json:"finished" yaml:"finished"`
}

// Status reports success unless an entry failed.
func (r *Report) Status() event.Status {
	if len(r.Failures) > 0 {
		return event.StatusCompletedWithErrors
	}
	return event.StatusSuccess
}

// Err joins every entry failure, or returns nil after a clean run.
func (r *Report) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failures))
	for _, f := range r.Failures {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Duration is how long the run took.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

func (r *Report) fail(op event.Op, path string, err error) {
	r.Failures = append(r.Failures, Failure{Op: op, Path: path, Reason: err.Error(), Err: err})
}
