package mirror

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// Syncer mirrors one directory tree onto another.
type Syncer struct {
	fs     afero.Fs
	sink   event.Sink
	retry  fileutil.RetryPolicy
	now    func() time.Time
	dryRun bool
}

// Option configures a Syncer.
type Option func(*Syncer)

// WithFs sets the filesystem. Defaults to the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(s *Syncer) {
		s.fs = fsys
	}
}

// WithSink sets the event sink.
func WithSink(sink event.Sink) Option {
	return func(s *Syncer) {
		s.sink = event.OrDiscard(sink)
	}
}

// WithRetry sets the retry policy for individual deletes and copies.
func WithRetry(p fileutil.RetryPolicy) Option {
	return func(s *Syncer) {
		s.retry = p
	}
}

// WithDryRun reports what a sync would delete and copy without touching the
// destination.
func WithDryRun(dryRun bool) Option {
	return func(s *Syncer) {
		s.dryRun = dryRun
	}
}

// New creates a Syncer with the given options.
func New(opts ...Option) *Syncer {
	s := &Syncer{
		fs:    afero.NewOsFs(),
		sink:  event.Discard,
		retry: fileutil.DefaultRetry,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Sync empties dst and copies the contents of src into it.
//
// The returned error is reserved for conditions detected before anything is
// modified: src and dst that are equal or nested (ErrConfig), a missing
// source (ErrSourceNotFound), or a destination that cannot be prepared
// (ErrIO). Once the walk begins, entry failures are collected in the report
// and Sync returns a nil error; check [Report.Status]. A cancelled ctx stops
// the walk between entries and is returned with the partial report.
func (s *Syncer) Sync(ctx context.Context, src, dst string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	src, dst, err := s.checkPaths(src, dst)
	if err != nil {
		return nil, err
	}

	srcInfo, err := s.fs.Stat(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.NewSourceNotFound(src, err)
		}
		return nil, errors.NewIOError("stat", src, err)
	}
	if !srcInfo.IsDir() {
		return nil, errors.NewPathError(errors.ErrSourceNotFound, "stat", src, errors.New("not a directory"))
	}

	report := &Report{Source: src, Dest: dst, DryRun: s.dryRun, Started: s.now()}
	defer func() { report.Finished = s.now() }()

	existed, err := s.prepareDest(dst)
	if err != nil {
		return nil, err
	}

	if existed && !s.clear(ctx, dst, report) {
		return report, ctx.Err()
	}
	if !s.copyDir(ctx, src, dst, report) {
		return report, ctx.Err()
	}

	// The root mirrors the source root's mode and mtime like every other directory.
	if !s.dryRun {
		if err := applyDirMetadata(s.fs, dst, srcInfo); err != nil {
			report.fail(event.OpMkdir, dst, err)
			s.sink.Emit(event.Failed(event.OpMkdir, dst, err))
		}
	}

	return report, nil
}

// checkPaths makes both roots absolute and rejects pairs where one contains
// the other once symlinks are followed, since clearing the destination would
// then destroy the source.
func (s *Syncer) checkPaths(src, dst string) (string, string, error) {
	if src == "" || dst == "" {
		return "", "", errors.Wrap(errors.ErrConfig, "source and destination directories are required")
	}

	absSrc, err := filepath.Abs(src)
	if err != nil {
		return "", "", errors.NewIOError("abs", src, err)
	}
	absDst, err := filepath.Abs(dst)
	if err != nil {
		return "", "", errors.NewIOError("abs", dst, err)
	}

	realSrc, err := resolveLinks(s.fs, absSrc)
	if err != nil {
		return "", "", err
	}
	realDst, err := resolveLinks(s.fs, absDst)
	if err != nil {
		return "", "", err
	}

	if overlap(absSrc, absDst) || overlap(realSrc, realDst) {
		return "", "", errors.Wrapf(errors.ErrConfig, "source %s and destination %s overlap", absSrc, absDst)
	}
	return absSrc, absDst, nil
}

func overlap(a, b string) bool {
	return a == b || within(a, b) || within(b, a)
}

// within reports whether path lies strictly below dir.
func within(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// prepareDest creates dst when it is missing. It reports whether dst already
// existed and so needs clearing.
func (s *Syncer) prepareDest(dst string) (bool, error) {
	info, err := s.fs.Stat(dst)
	switch {
	case err == nil && info.IsDir():
		return true, nil
	case err == nil:
		return false, errors.NewIOError("stat", dst, errors.New("destination is not a directory"))
	case !errors.Is(err, fs.ErrNotExist):
		return false, errors.NewIOError("stat", dst, err)
	}

	if s.dryRun {
		s.sink.Emit(event.Skipped(event.OpMkdir, dst, "dry-run"))
		return false, nil
	}
	if err := s.fs.MkdirAll(dst, 0o755); err != nil {
		return false, errors.NewIOError("mkdir", dst, err)
	}
	s.sink.Emit(event.OK(event.OpMkdir, dst, "created destination"))
	return false, nil
}

// lstat stats path without following a final symlink when the filesystem
// supports it.
func lstat(fsys afero.Fs, path string) (fs.FileInfo, error) {
	if l, ok := fsys.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)
		return info, err
	}
	return fsys.Stat(path)
}

func isSymlink(info fs.FileInfo) bool {
	return info.Mode()&fs.ModeSymlink != 0
}

// ownerWritable gives the owner full access to dir so entries can be listed,
// created and removed in it. The source mode is put back by
// applyDirMetadata once the copy phase is done with the directory.
func ownerWritable(fsys afero.Fs, dir string) error {
	info, err := fsys.Stat(dir)
	if err != nil {
		return errors.NewIOError("stat", dir, err)
	}
	perm := info.Mode().Perm()
	if perm&0o700 == 0o700 {
		return nil
	}
	if err := fsys.Chmod(dir, perm|0o700); err != nil {
		return errors.NewIOError("chmod", dir, err)
	}
	return nil
}

func applyDirMetadata(fsys afero.Fs, path string, info fs.FileInfo) error {
	if err := fsys.Chmod(path, info.Mode().Perm()); err != nil {
		return errors.NewIOError("chmod", path, err)
	}
	if err := fsys.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		return errors.NewIOError("chtimes", path, err)
	}
	return nil
}
