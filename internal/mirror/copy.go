package mirror

import (
	"context"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// copyDir copies the contents of src into the existing directory dst. It
// reports false when ctx was cancelled.
func (s *Syncer) copyDir(ctx context.Context, src, dst string, report *Report) bool {
	entries, err := afero.ReadDir(s.fs, src)
	if err != nil {
		err = errors.NewIOError("readdir", src, err)
		report.fail(event.OpCopy, src, err)
		s.sink.Emit(event.Failed(event.OpCopy, src, err))
		return true
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return false
		}

		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())

		info := entry
		if isSymlink(entry) {
			target, err := s.fs.Stat(srcPath)
			if err != nil {
				err = errors.NewIOError("stat", srcPath, err)
				report.fail(event.OpCopy, srcPath, err)
				s.sink.Emit(event.Failed(event.OpCopy, srcPath, err))
				continue
			}
			if target.IsDir() {
				report.Skipped++
				s.sink.Emit(event.Skipped(event.OpCopy, srcPath, "symlink to directory"))
				continue
			}
			info = target
		}

		switch {
		case info.IsDir():
			if !s.copySubdir(ctx, srcPath, dstPath, info, report) {
				return false
			}
		case info.Mode().IsRegular():
			s.copyFile(ctx, srcPath, dstPath, info, report)
		default:
			report.Skipped++
			s.sink.Emit(event.Skipped(event.OpCopy, srcPath, "unsupported file type "+info.Mode().Type().String()))
		}
	}

	return true
}

func (s *Syncer) copySubdir(ctx context.Context, src, dst string, info fs.FileInfo, report *Report) bool {
	if s.dryRun {
		report.Dirs++
		s.sink.Emit(event.Skipped(event.OpMkdir, dst, "dry-run"))
		return s.copyDir(ctx, src, dst, report)
	}

	if err := s.ensureDir(dst); err != nil {
		report.fail(event.OpMkdir, dst, err)
		s.sink.Emit(event.Failed(event.OpMkdir, dst, err))
		return true
	}
	report.Dirs++
	s.sink.Emit(event.OK(event.OpMkdir, dst, ""))

	if !s.copyDir(ctx, src, dst, report) {
		return false
	}

	// Mode and mtime go on last: writing children would bump the mtime and a
	// read-only mode would block them.
	if err := applyDirMetadata(s.fs, dst, info); err != nil {
		report.fail(event.OpMkdir, dst, err)
		s.sink.Emit(event.Failed(event.OpMkdir, dst, err))
	}
	return true
}

// ensureDir makes dst a directory, replacing a file left at that path.
func (s *Syncer) ensureDir(dst string) error {
	if existing, err := lstat(s.fs, dst); err == nil && !existing.IsDir() {
		if err := s.fs.Remove(dst); err != nil {
			return errors.NewIOError("remove", dst, err)
		}
	}
	if err := s.fs.MkdirAll(dst, 0o755); err != nil {
		return errors.NewIOError("mkdir", dst, err)
	}
	// A directory kept from an earlier run may carry a read-only source mode.
	return ownerWritable(s.fs, dst)
}

func (s *Syncer) copyFile(ctx context.Context, src, dst string, info fs.FileInfo, report *Report) {
	if s.dryRun {
		report.Copied++
		report.Bytes += info.Size()
		s.sink.Emit(event.Skipped(event.OpCopy, dst, "dry-run"))
		return
	}

	// A directory left at the file's path by an earlier run is replaced.
	if existing, err := lstat(s.fs, dst); err == nil && existing.IsDir() {
		if err := s.fs.RemoveAll(dst); err != nil {
			err = errors.NewIOError("remove", dst, err)
			report.fail(event.OpCopy, dst, err)
			s.sink.Emit(event.Failed(event.OpCopy, dst, err))
			return
		}
	}

	err := s.retry.Do(ctx, func() error {
		return fileutil.AtomicCopyFile(s.fs, src, dst, nil)
	})
	if err != nil {
		report.fail(event.OpCopy, dst, err)
		s.sink.Emit(event.Failed(event.OpCopy, dst, err))
		return
	}

	report.Copied++
	report.Bytes += info.Size()
	s.sink.Emit(event.OK(event.OpCopy, dst, src))
}
