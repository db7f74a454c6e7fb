package snapshot

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// Info describes one snapshot found on disk.
type Info struct {
	Name      string    `json:"name" yaml:"name"`
	Path      string    `json:"path" yaml:"path"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Size      int64     `json:"size" yaml:"size"`
}

// List returns the snapshots in dir, newest first.
// Entries whose names do not parse are ignored. A missing directory yields no snapshots.
func List(fsys afero.Fs, dir string) ([]Info, error) {
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.NewIOError("readdir", dir, err)
	}

	var out []Info
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		created, ok := ParseName(entry.Name())
		if !ok {
			continue
		}
		out = append(out, Info{
			Name:      entry.Name(),
			Path:      filepath.Join(dir, entry.Name()),
			CreatedAt: created,
			Size:      entry.Size(),
		})
	}

	// Names sort chronologically.
	slices.SortFunc(out, func(a, b Info) int {
		return strings.Compare(b.Name, a.Name)
	})

	return out, nil
}

// Resolve finds a snapshot in dir by file name or by its timestamp
// (20240315_093000). An empty ref selects the newest snapshot.
func Resolve(fsys afero.Fs, dir, ref string) (Info, error) {
	snaps, err := List(fsys, dir)
	if err != nil {
		return Info{}, err
	}
	if len(snaps) == 0 {
		return Info{}, errors.NewPathError(errors.ErrSourceNotFound, "resolve", dir, errors.New("no snapshots found"))
	}
	if ref == "" {
		return snaps[0], nil
	}

	for _, s := range snaps {
		if s.Name == ref || s.CreatedAt.Format(timestampLayout) == ref {
			return s, nil
		}
	}
	return Info{}, errors.NewPathError(errors.ErrSourceNotFound, "resolve", filepath.Join(dir, ref), errors.New("snapshot not found"))
}

// Restore copies the snapshot at snapshotPath over target atomically.
// The configured verifier checks the snapshot before the copy and the
// restored bytes before they replace target.
func (e *Engine) Restore(ctx context.Context, snapshotPath, target string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if e.verify != nil {
		if err := e.verify(ctx, snapshotPath); err != nil {
			err = errors.NewIOError("verify", snapshotPath, err)
			e.sink.Emit(event.Failed(event.OpRestore, target, err))
			return err
		}
	}

	if e.dryRun {
		e.sink.Emit(event.Skipped(event.OpRestore, target, "dry-run"))
		return nil
	}

	if err := e.fs.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		err = errors.NewIOError("mkdir", filepath.Dir(target), err)
		e.sink.Emit(event.Failed(event.OpRestore, target, err))
		return err
	}

	var verify fileutil.Verifier
	if e.verify != nil {
		verify = func(tmp string) error {
			return e.verify(ctx, tmp)
		}
	}

	if err := fileutil.AtomicCopyFile(e.fs, snapshotPath, target, verify); err != nil {
		e.sink.Emit(event.Failed(event.OpRestore, target, err))
		return err
	}

	e.sink.Emit(event.OK(event.OpRestore, target, snapshotPath))
	return nil
}
