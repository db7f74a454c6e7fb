package logging

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// DefaultLogName is the base name of the rotating log file.
const DefaultLogName = "file_operations.log"

const rotateSuffixLayout = "20060102"

// RotatingFile is an io.WriteCloser that starts a new file at local midnight.
// The finished day's file is renamed to <name>.YYYYMMDD and only the newest
// Keep rotated files are retained. It is safe for concurrent use.
type RotatingFile struct {
	// Keep is the number of rotated files retained; 0 keeps all of them.
	Keep int

	fs   afero.Fs
	path string
	now  func() time.Time

	mu      sync.Mutex
	file    afero.File
	day     string
	started bool
	closed  bool
}

// RotateOption configures a RotatingFile.
type RotateOption func(*RotatingFile)

// WithRotateFs sets the filesystem. Defaults to the OS filesystem.
func WithRotateFs(fsys afero.Fs) RotateOption {
	return func(r *RotatingFile) {
		r.fs = fsys
	}
}

// WithRotateClock sets the clock that decides when a day ends.
func WithRotateClock(now func() time.Time) RotateOption {
	return func(r *RotatingFile) {
		r.now = now
	}
}

// NewRotatingFile returns a RotatingFile for dir/name that touches the
// filesystem only when the first record is written: dir is created then, and
// an existing file last written on an earlier day is rotated.
func NewRotatingFile(dir, name string, keep int, opts ...RotateOption) *RotatingFile {
	if name == "" {
		name = DefaultLogName
	}
	r := &RotatingFile{
		Keep: keep,
		fs:   afero.NewOsFs(),
		path: filepath.Join(dir, name),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenRotatingFile is NewRotatingFile followed by opening the file right away.
func OpenRotatingFile(dir, name string, keep int, opts ...RotateOption) (*RotatingFile, error) {
	r := NewRotatingFile(dir, name, keep, opts...)

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.startLocked(); err != nil {
		if r.file != nil {
			_ = r.file.Close()
		}
		return nil, err
	}
	return r, nil
}

// startLocked creates the log directory and opens the active file, rotating
// a non-empty one left over from an earlier day.
func (r *RotatingFile) startLocked() error {
	dir := filepath.Dir(r.path)
	if err := r.fs.MkdirAll(dir, 0o755); err != nil {
		return errors.NewIOError("mkdir", dir, err)
	}
	r.started = true

	today := r.now().Format(rotateSuffixLayout)
	r.day = today
	if info, err := r.fs.Stat(r.path); err == nil && info.Size() > 0 {
		r.day = info.ModTime().Format(rotateSuffixLayout)
	}
	return r.rollLocked(today)
}

// Path returns the path of the active log file.
func (r *RotatingFile) Path() string {
	return r.path
}

// Write appends p to the active file, rotating first when the day changed.
// A failed rotation does not lose the record: the active file is reopened
// unrotated and the rotation is retried on the next write.
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, errors.NewIOError("write", r.path, os.ErrClosed)
	}
	if !r.started {
		if err := r.startLocked(); err != nil && r.file == nil {
			return 0, err
		}
	}

	if today := r.now().Format(rotateSuffixLayout); today != r.day || r.file == nil {
		if err := r.rollLocked(today); err != nil && r.file == nil {
			return 0, err
		}
	}

	return r.file.Write(p)
}

// Close closes the active file. Later writes fail.
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

// rollLocked closes the active file, moves it aside when it belongs to an
// earlier day and opens r.path again. r.day only advances once the move has
// succeeded. Errors are returned even when a file was reopened.
func (r *RotatingFile) rollLocked(today string) error {
	var errs []error
	if r.file != nil {
		if err := r.file.Close(); err != nil {
			errs = append(errs, errors.NewIOError("close", r.path, err))
		}
		r.file = nil
	}

	if r.day != today {
		if err := r.rotateLocked(r.day); err != nil {
			errs = append(errs, err)
		} else {
			r.day = today
			if err := r.pruneLocked(); err != nil {
				errs = append(errs, err)
			}
		}
	}

	f, err := r.fs.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		errs = append(errs, errors.NewIOError("open", r.path, err))
	} else {
		r.file = f
	}
	return errors.Join(errs...)
}

// rotateLocked renames the active file to carry day's suffix. With no active
// file on disk there is nothing to move.
func (r *RotatingFile) rotateLocked(day string) error {
	if _, err := r.fs.Stat(r.path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	target := r.path + "." + day
	// A leftover file for the same day is replaced.
	if err := r.fs.Remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.NewIOError("remove", target, err)
	}
	if err := r.fs.Rename(r.path, target); err != nil {
		return errors.NewIOError("rename", r.path, err)
	}
	return nil
}

func (r *RotatingFile) pruneLocked() error {
	if r.Keep <= 0 {
		return nil
	}

	rotated, err := r.rotatedFiles()
	if err != nil {
		return err
	}
	if len(rotated) <= r.Keep {
		return nil
	}

	for _, old := range rotated[:len(rotated)-r.Keep] {
		if err := r.fs.Remove(old); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return errors.NewIOError("remove", old, err)
		}
	}
	return nil
}

// rotatedFiles lists rotated siblings of the active file, oldest first.
func (r *RotatingFile) rotatedFiles() ([]string, error) {
	dir, base := filepath.Split(r.path)
	entries, err := afero.ReadDir(r.fs, dir)
	if err != nil {
		return nil, errors.NewIOError("readdir", dir, err)
	}

	var out []string
	for _, e := range entries {
		suffix, ok := strings.CutPrefix(e.Name(), base+".")
		if !ok || e.IsDir() {
			continue
		}
		if _, err := time.Parse(rotateSuffixLayout, suffix); err != nil {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	// The suffix sorts chronologically.
	slices.Sort(out)
	return out, nil
}
