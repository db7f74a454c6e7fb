package mirror

import (
	"context"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
)

// clear removes everything beneath dir, children before parents. It reports
// false when ctx was cancelled.
func (s *Syncer) clear(ctx context.Context, dir string, report *Report) bool {
	_, ok := s.clearDir(ctx, dir, report)
	return ok
}

// clearDir empties dir. The first result is true when dir ended up empty.
func (s *Syncer) clearDir(ctx context.Context, dir string, report *Report) (bool, bool) {
	if !s.dryRun {
		if err := ownerWritable(s.fs, dir); err != nil {
			report.fail(event.OpDelete, dir, err)
			s.sink.Emit(event.Failed(event.OpDelete, dir, err))
			return false, true
		}
	}

	entries, err := afero.ReadDir(s.fs, dir)
	if err != nil {
		err = errors.NewIOError("readdir", dir, err)
		report.fail(event.OpDelete, dir, err)
		s.sink.Emit(event.Failed(event.OpDelete, dir, err))
		return false, true
	}

	empty := true
	for _, entry := range entries {
		if ctx.Err() != nil {
			return false, false
		}

		path := filepath.Join(dir, entry.Name())

		// ReadDir reports symlinks unresolved, so a link to a directory is
		// removed as a link and its target is left alone.
		if entry.IsDir() {
			childEmpty, ok := s.clearDir(ctx, path, report)
			if !ok {
				return false, false
			}
			if !childEmpty {
				// The failure inside was already reported once.
				empty = false
				report.Skipped++
				s.sink.Emit(event.Skipped(event.OpDelete, path, "directory not empty"))
				continue
			}
		}

		if !s.remove(ctx, path, report) {
			empty = false
		}
	}

	return empty, true
}

func (s *Syncer) remove(ctx context.Context, path string, report *Report) bool {
	if s.dryRun {
		report.Deleted++
		s.sink.Emit(event.Skipped(event.OpDelete, path, "dry-run"))
		return true
	}

	err := s.retry.Do(ctx, func() error {
		return s.fs.Remove(path)
	})
	if err != nil {
		err = errors.NewIOError("remove", path, err)
		report.fail(event.OpDelete, path, err)
		s.sink.Emit(event.Failed(event.OpDelete, path, err))
		return false
	}

	report.Deleted++
	s.sink.Emit(event.OK(event.OpDelete, path, ""))
	return true
}
