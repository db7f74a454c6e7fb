package retention

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

// DefaultDays is the retention window used when none is configured.
const DefaultDays = 10

// Failure is a snapshot that could not be deleted.
type Failure struct {
	Path   string `json:"path" yaml:"path"`
	Reason string `json:"error" yaml:"error"`
	Err    error  `json:"-" yaml:"-"`
}

// Result lists what one prune pass did.
type Result struct {
	Deleted []string  `json:"deleted" yaml:"deleted"`
	Failed  []Failure `json:"failed,omitempty" yaml:"failed,omitempty"`
	// Skipped holds entries matching the snapshot prefix whose names did not parse.
	Skipped []string `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	Kept    int      `json:"kept" yaml:"kept"`
}

// Status reports success unless a delete failed.
func (r *Result) Status() event.Status {
	if len(r.Failed) > 0 {
		return event.StatusCompletedWithErrors
	}
	return event.StatusSuccess
}

// Err joins every failed delete, or returns nil.
func (r *Result) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Pruner removes expired snapshots from a directory.
type Pruner struct {
	fs     afero.Fs
	sink   event.Sink
	dryRun bool
}

// Option configures a Pruner.
type Option func(*Pruner)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(p *Pruner) {
		p.fs = fsys
	}
}

// WithSink sets the event sink.
func WithSink(s event.Sink) Option {
	return func(p *Pruner) {
		p.sink = event.OrDiscard(s)
	}
}

// WithDryRun reports expired snapshots without deleting them.
func WithDryRun(dryRun bool) Option {
	return func(p *Pruner) {
		p.dryRun = dryRun
	}
}

// NewPruner creates a Pruner with the given options.
func NewPruner(opts ...Option) *Pruner {
	p := &Pruner{
		fs:   afero.NewOsFs(),
		sink: event.Discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Prune deletes every snapshot in dir older than retentionDays as of now.
//
// The returned error is reserved for problems that prevent the pass from
// starting: a negative window or an unreadable directory. Per-file delete
// failures are collected in Result.Failed. A missing directory holds no
// snapshots and yields an empty result. Cancelling ctx stops the pass between
// entries; the partial result is returned along with ctx's error.
func (p *Pruner) Prune(ctx context.Context, dir string, retentionDays int, now time.Time) (*Result, error) {
	if retentionDays < 0 {
		return nil, errors.Wrapf(errors.ErrConfig, "retention days must not be negative, got %d", retentionDays)
	}

	res := &Result{}

	// ReadDir returns entries sorted by name, which is oldest first.
	entries, err := afero.ReadDir(p.fs, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return res, nil
		}
		return nil, errors.NewIOError("readdir", dir, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		name := entry.Name()
		if !strings.HasPrefix(name, snapshot.Prefix) {
			continue
		}
		path := filepath.Join(dir, name)

		if entry.IsDir() {
			res.Skipped = append(res.Skipped, path)
			p.sink.Emit(event.Skipped(event.OpPrune, path, "directory"))
			continue
		}

		created, ok := snapshot.ParseName(name)
		if !ok {
			res.Skipped = append(res.Skipped, path)
			p.sink.Emit(event.Skipped(event.OpPrune, path, "unrecognized snapshot name"))
			continue
		}

		if !Expired(created, now, retentionDays) {
			res.Kept++
			continue
		}

		if p.dryRun {
			res.Deleted = append(res.Deleted, path)
			p.sink.Emit(event.Skipped(event.OpPrune, path, "dry-run"))
			continue
		}

		if err := p.fs.Remove(path); err != nil {
			err = errors.NewIOError("remove", path, err)
			res.Failed = append(res.Failed, Failure{Path: path, Reason: err.Error(), Err: err})
			p.sink.Emit(event.Failed(event.OpPrune, path, err))
			continue
		}

		res.Deleted = append(res.Deleted, path)
		p.sink.Emit(event.OK(event.OpPrune, path, created.Format(time.DateOnly)))
	}

	return res, nil
}
