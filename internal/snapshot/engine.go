package snapshot

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// maxNameAttempts bounds the search for a free name when snapshots are taken
// within the same second.
const maxNameAttempts = 60

// Verifier checks a finished copy before it becomes visible as a snapshot.
type Verifier func(ctx context.Context, path string) error

// Engine creates snapshots of a data file.
type Engine struct {
	fs     afero.Fs
	sink   event.Sink
	now    func() time.Time
	verify Verifier
	dryRun bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(e *Engine) {
		e.fs = fsys
	}
}

// WithSink sets the event sink.
func WithSink(s event.Sink) Option {
	return func(e *Engine) {
		e.sink = event.OrDiscard(s)
	}
}

// WithClock sets the source of the snapshot timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithVerifier runs v on every copy before it is renamed into place.
func WithVerifier(v Verifier) Option {
	return func(e *Engine) {
		e.verify = v
	}
}

// WithDryRun makes Create validate its inputs and report the name it would
// use without writing anything.
func WithDryRun(dryRun bool) Option {
	return func(e *Engine) {
		e.dryRun = dryRun
	}
}

// NewEngine creates a snapshot Engine with the given options.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		fs:   afero.NewOsFs(),
		sink: event.Discard,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create copies source into a new snapshot file inside backupDir and returns
// the snapshot's absolute path.
//
// backupDir is created when missing. A missing source yields an error matching
// [errors.ErrSourceNotFound]; every other failure matches [errors.ErrIO]. Both
// name the offending path.
func (e *Engine) Create(ctx context.Context, source, backupDir string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path, err := e.create(ctx, source, backupDir)
	if err != nil {
		e.sink.Emit(event.Failed(event.OpSnapshot, source, err))
		return "", err
	}
	return path, nil
}

func (e *Engine) create(ctx context.Context, source, backupDir string) (string, error) {
	info, err := e.fs.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errors.NewSourceNotFound(source, err)
		}
		return "", errors.NewIOError("stat", source, err)
	}
	if info.IsDir() {
		return "", errors.NewIOError("snapshot", source, errors.New("source is a directory"))
	}

	if e.dryRun {
		dst := filepath.Join(backupDir, Name(e.now(), filepath.Ext(source)))
		e.sink.Emit(event.Skipped(event.OpSnapshot, dst, "dry-run"))
		return absPath(dst), nil
	}

	if err := e.fs.MkdirAll(backupDir, 0o755); err != nil {
		return "", errors.NewIOError("mkdir", backupDir, err)
	}

	dst, err := e.freeName(source, backupDir)
	if err != nil {
		return "", err
	}

	var verify fileutil.Verifier
	if e.verify != nil {
		verify = func(tmp string) error {
			return e.verify(ctx, tmp)
		}
	}

	if err := fileutil.AtomicCopyFile(e.fs, source, dst, verify); err != nil {
		return "", err
	}

	dst = absPath(dst)
	e.sink.Emit(event.OK(event.OpSnapshot, dst, source))
	return dst, nil
}

// freeName picks the snapshot path for the current instant. When a snapshot
// already exists for that second, the next free second is used so an earlier
// snapshot is never overwritten and names stay in creation order.
func (e *Engine) freeName(source, backupDir string) (string, error) {
	ext := filepath.Ext(source)
	ts := e.now().Truncate(time.Second)

	for range maxNameAttempts {
		dst := filepath.Join(backupDir, Name(ts, ext))
		exists, err := afero.Exists(e.fs, dst)
		if err != nil {
			return "", errors.NewIOError("stat", dst, err)
		}
		if !exists {
			return dst, nil
		}
		ts = ts.Add(time.Second)
	}

	return "", errors.NewIOError("snapshot", backupDir, errors.Newf("no free snapshot name after %d attempts", maxNameAttempts))
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}
