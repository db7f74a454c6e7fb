package mirror

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// faultFs injects failures for selected paths on top of another filesystem.
type faultFs struct {
	afero.Fs
	failRemove map[string]error
	failMkdir  map[string]error
}

func (f *faultFs) Remove(name string) error {
	if err, ok := f.failRemove[name]; ok {
		return err
	}
	return f.Fs.Remove(name)
}

func (f *faultFs) MkdirAll(path string, perm os.FileMode) error {
	if err, ok := f.failMkdir[path]; ok {
		return err
	}
	return f.Fs.MkdirAll(path, perm)
}

// tree maps slash-separated relative paths to file contents; directories map
// to "/".
type tree map[string]string

func build(t *testing.T, root string, tr tree) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0o755))
	for rel, content := range tr {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if content == "/" {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func snapshotTree(t *testing.T, root string) tree {
	t.Helper()
	out := tree{}
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			out[rel] = "/"
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		out[rel] = string(data)
		return nil
	})
	require.NoError(t, err)
	return out
}

func newSyncer(opts ...Option) *Syncer {
	return New(append([]Option{WithRetry(fileutil.NoRetry)}, opts...)...)
}

func TestSync_ScenarioC(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	build(t, src, tree{"a.txt": "alpha", "sub/b.txt": "beta"})
	build(t, dst, tree{"old.txt": "stale"})

	report, err := newSyncer().Sync(context.Background(), src, dst)
	require.NoError(t, err)

	assert.Equal(t, tree{"a.txt": "alpha", "sub": "/", "sub/b.txt": "beta"}, snapshotTree(t, dst))
	assert.Equal(t, event.StatusSuccess, report.Status())
	assert.NoError(t, report.Err())
	assert.Equal(t, 1, report.Deleted)
	assert.Equal(t, 2, report.Copied)
	assert.Equal(t, 1, report.Dirs)
	assert.Equal(t, int64(len("alpha")+len("beta")), report.Bytes)
	assert.False(t, report.Finished.Before(report.Started))
}

func TestSync_Converges(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	srcTree := tree{
		"README":            "top",
		"docs":              "/",
		"docs/guide.md":     "guide",
		"docs/img":          "/",
		"docs/img/logo.svg": "<svg/>",
		"empty":             "/",
		"conflict":          "now a file",
		"swap":              "/",
		"swap/inner.txt":    "inner",
		"same.txt":          "new contents",
	}
	build(t, src, srcTree)
	build(t, dst, tree{
		"conflict/deep/x.txt": "was a dir",
		"swap":                "/",
		"swap/gone.txt":       "old",
		"same.txt":            "old contents that are longer",
		"extra/nested/y.txt":  "extra",
		".hidden":             "hidden",
	})

	report, err := newSyncer().Sync(context.Background(), src, dst)
	require.NoError(t, err)
	require.Empty(t, report.Failures)

	assert.Equal(t, srcTree, snapshotTree(t, dst))

	// A second run over an identical tree converges to the same state.
	report, err = newSyncer().Sync(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, srcTree, snapshotTree(t, dst))
}

func TestSync_PreservesMetadata(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	build(t, src, tree{"sub/file.sh": "#!/bin/sh\n"})

	fileTime := time.Date(2022, 5, 6, 7, 8, 9, 0, time.UTC)
	dirTime := time.Date(2021, 1, 2, 3, 4, 5, 0, time.UTC)
	file := filepath.Join(src, "sub", "file.sh")
	require.NoError(t, os.Chmod(file, 0o750))
	require.NoError(t, os.Chtimes(file, fileTime, fileTime))
	require.NoError(t, os.Chmod(filepath.Join(src, "sub"), 0o700))
	require.NoError(t, os.Chtimes(filepath.Join(src, "sub"), dirTime, dirTime))

	_, err := newSyncer().Sync(context.Background(), src, dst)
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dst, "sub", "file.sh"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o750), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(fileTime), "file mtime = %v", info.ModTime())

	info, err = os.Stat(filepath.Join(dst, "sub"))
	require.NoError(t, err)
	assert.Equal(t, fs.FileMode(0o700), info.Mode().Perm())
	assert.True(t, info.ModTime().Equal(dirTime), "dir mtime = %v", info.ModTime())
}

func TestSync_DeleteFailureIsolated(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	build(t, src, tree{"a.txt": "a", "sub/b.txt": "b"})
	build(t, dst, tree{"1.txt": "1", "2.txt": "2", "3.txt": "3", "4.txt": "4", "5.txt": "5"})

	locked := filepath.Join(dst, "3.txt")
	fsys := &faultFs{Fs: afero.NewOsFs(), failRemove: map[string]error{locked: os.ErrPermission}}
	rec := &event.Recorder{}

	report, err := newSyncer(WithFs(fsys), WithSink(rec)).Sync(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, locked, report.Failures[0].Path)
	assert.Equal(t, event.OpDelete, report.Failures[0].Op)
	assert.True(t, errors.Is(report.Failures[0].Err, apperrors.ErrIO))
	assert.Contains(t, report.Failures[0].Reason, locked)
	assert.Equal(t, 4, report.Deleted)
	assert.Equal(t, 2, report.Copied, "the copy phase runs in full")
	assert.Equal(t, event.StatusCompletedWithErrors, report.Status())
	assert.Equal(t, 1, rec.Count(event.OpDelete, event.OutcomeError))

	assert.Equal(t, tree{"3.txt": "3", "a.txt": "a", "sub": "/", "sub/b.txt": "b"}, snapshotTree(t, dst))
}

func TestSync_NestedDeleteFailureReportedOnce(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	build(t, src, tree{"a.txt": "a"})
	build(t, dst, tree{"keep/locked.txt": "x", "keep/other.txt": "y", "z.txt": "z"})

	locked := filepath.Join(dst, "keep", "locked.txt")
	fsys := &faultFs{Fs: afero.NewOsFs(), failRemove: map[string]error{locked: os.ErrPermission}}

	report, err := newSyncer(WithFs(fsys)).Sync(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1, "the parent directory must not be reported as a second failure")
	assert.Equal(t, locked, report.Failures[0].Path)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, 1, report.Skipped)
}

func TestSync_MkdirFailureSkipsSubtree(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	build(t, src, tree{"bad/x.txt": "x", "bad/y.txt": "y", "good/z.txt": "z", "top.txt": "t"})
	require.NoError(t, os.MkdirAll(dst, 0o755))

	badDir := filepath.Join(dst, "bad")
	fsys := &faultFs{Fs: afero.NewOsFs(), failMkdir: map[string]error{badDir: os.ErrPermission}}

	report, err := newSyncer(WithFs(fsys)).Sync(context.Background(), src, dst)
	require.NoError(t, err)

	require.Len(t, report.Failures, 1)
	assert.Equal(t, event.OpMkdir, report.Failures[0].Op)
	assert.Equal(t, badDir, report.Failures[0].Path)
	assert.Equal(t, 2, report.Copied)
	assert.Equal(t, tree{"good": "/", "good/z.txt": "z", "top.txt": "t"}, snapshotTree(t, dst))
}

func TestSync_MissingSource(t *testing.T) {
	root := t.TempDir()
	dst := filepath.Join(root, "dst")
	build(t, dst, tree{"precious.txt": "keep me"})

	_, err := newSyncer().Sync(context.Background(), filepath.Join(root, "missing"), dst)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSourceNotFound))
	assert.Contains(t, err.Error(), "missing")

	assert.Equal(t, tree{"precious.txt": "keep me"}, snapshotTree(t, dst), "nothing is touched before the source is validated")
}

func TestSync_OverlappingPaths(t *testing.T) {
	root := t.TempDir()
	build(t, filepath.Join(root, "a", "b"), tree{"f.txt": "f"})

	tests := []struct {
		name     string
		src, dst string
	}{
		{"same", filepath.Join(root, "a"), filepath.Join(root, "a")},
		{"dst inside src", filepath.Join(root, "a"), filepath.Join(root, "a", "b")},
		{"src inside dst", filepath.Join(root, "a", "b"), filepath.Join(root, "a")},
		{"empty", "", filepath.Join(root, "a")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newSyncer().Sync(context.Background(), tt.src, tt.dst)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConfig))
		})
	}

	assert.FileExists(t, filepath.Join(root, "a", "b", "f.txt"))
}

func TestSync_SymlinkedOverlap(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	srcTree := tree{"a.txt": "a", "sub": "/", "sub/b.txt": "b"}
	build(t, src, srcTree)

	if err := os.Symlink(src, filepath.Join(root, "dst")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(src, "sub"), filepath.Join(root, "into-src")))
	require.NoError(t, os.Symlink("src", filepath.Join(root, "rel")))

	tests := []struct {
		name     string
		src, dst string
	}{
		{"dst links to src", src, filepath.Join(root, "dst")},
		{"dst links inside src", src, filepath.Join(root, "into-src")},
		{"missing dst below a link to src", src, filepath.Join(root, "rel", "new", "mirror")},
		{"src reached through dst link", filepath.Join(root, "dst", "sub"), src},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report, err := newSyncer().Sync(context.Background(), tt.src, tt.dst)
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrConfig), "got %v", err)
			assert.Nil(t, report)
		})
	}

	assert.Equal(t, srcTree, snapshotTree(t, src), "source must be untouched")
}

func TestResolveLinks(t *testing.T) {
	root := t.TempDir()
	build(t, filepath.Join(root, "real", "dir"), tree{})
	if err := os.Symlink(filepath.Join("..", "real"), filepath.Join(root, "real", "up")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "real", "up"), filepath.Join(root, "chain")))
	require.NoError(t, os.Symlink("loop", filepath.Join(root, "loop")))

	want, err := filepath.EvalSymlinks(filepath.Join(root, "real"))
	require.NoError(t, err)

	fsys := afero.NewOsFs()
	got, err := resolveLinks(fsys, filepath.Join(root, "chain", "dir"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(want, "dir"), got)

	got, err = resolveLinks(fsys, filepath.Join(root, "chain", "missing", "deeper"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(want, "missing", "deeper"), got)

	_, err = resolveLinks(fsys, filepath.Join(root, "loop"))
	assert.Error(t, err)

	mem := afero.NewMemMapFs()
	got, err = resolveLinks(mem, "/a/b")
	require.NoError(t, err)
	assert.Equal(t, "/a/b", got)
}

func TestSync_ReadOnlyDirectoryConverges(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	srcTree := tree{"ro": "/", "ro/a.txt": "a", "ro/inner": "/", "ro/inner/b.txt": "b"}
	build(t, src, srcTree)

	ro := filepath.Join(src, "ro")
	require.NoError(t, os.Chmod(filepath.Join(ro, "inner"), 0o555))
	require.NoError(t, os.Chmod(ro, 0o555))
	t.Cleanup(func() {
		for _, dir := range []string{ro, filepath.Join(ro, "inner"), filepath.Join(dst, "ro"), filepath.Join(dst, "ro", "inner")} {
			_ = os.Chmod(dir, 0o755)
		}
	})

	for run := 1; run <= 2; run++ {
		report, err := newSyncer().Sync(context.Background(), src, dst)
		require.NoError(t, err, "run %d", run)
		assert.Empty(t, report.Failures, "run %d", run)
		assert.Equal(t, event.StatusSuccess, report.Status(), "run %d", run)
		assert.Equal(t, srcTree, snapshotTree(t, dst), "run %d", run)

		info, err := os.Stat(filepath.Join(dst, "ro"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o555), info.Mode().Perm(), "run %d", run)
	}
}

func TestOwnerWritable(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll("/d", 0o755))
	require.NoError(t, fsys.Chmod("/d", 0o555))

	require.NoError(t, ownerWritable(fsys, "/d"))
	info, err := fsys.Stat("/d")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	assert.Error(t, ownerWritable(fsys, "/missing"))
}

func TestWithin(t *testing.T) {
	assert.True(t, within("/a", "/a/b"))
	assert.False(t, within("/a", "/a"))
	assert.False(t, within("/a", "/ab"))
	assert.False(t, within("/a/b", "/a"))
	assert.True(t, within("/a", "/a/..b"))
}

func TestSync_CreatesMissingDestination(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "new", "dst")
	build(t, src, tree{"a.txt": "a"})

	report, err := newSyncer().Sync(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, tree{"a.txt": "a"}, snapshotTree(t, dst))
}

func TestSync_DryRun(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	build(t, src, tree{"a.txt": "a", "sub/b.txt": "b"})
	build(t, dst, tree{"old.txt": "old", "olddir/x.txt": "x"})
	rec := &event.Recorder{}

	report, err := newSyncer(WithDryRun(true), WithSink(rec)).Sync(context.Background(), src, dst)
	require.NoError(t, err)

	assert.True(t, report.DryRun)
	assert.Equal(t, 3, report.Deleted)
	assert.Equal(t, 2, report.Copied)
	assert.Equal(t, 1, report.Dirs)
	for _, ev := range rec.Events() {
		assert.Equal(t, event.OutcomeSkipped, ev.Outcome, "%s %s", ev.Op, ev.Path)
	}
	assert.Equal(t, tree{"old.txt": "old", "olddir": "/", "olddir/x.txt": "x"}, snapshotTree(t, dst))
}

func TestSync_Symlinks(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	outside := filepath.Join(root, "outside")
	build(t, src, tree{"real.txt": "real", "dir/inner.txt": "inner"})
	build(t, outside, tree{"victim.txt": "do not delete"})
	build(t, dst, tree{})

	if err := os.Symlink(filepath.Join(src, "real.txt"), filepath.Join(src, "link.txt")); err != nil {
		t.Skipf("symlinks unsupported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(src, "dir"), filepath.Join(src, "dirlink")))
	require.NoError(t, os.Symlink(outside, filepath.Join(dst, "outside-link")))

	report, err := newSyncer().Sync(context.Background(), src, dst)
	require.NoError(t, err)
	assert.Empty(t, report.Failures)
	assert.Equal(t, 1, report.Skipped)

	info, err := os.Lstat(filepath.Join(dst, "link.txt"))
	require.NoError(t, err)
	assert.True(t, info.Mode().IsRegular(), "file symlinks are copied as regular files")

	_, err = os.Lstat(filepath.Join(dst, "dirlink"))
	assert.True(t, os.IsNotExist(err), "directory symlinks are skipped")

	_, err = os.Lstat(filepath.Join(dst, "outside-link"))
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, filepath.Join(outside, "victim.txt"), "clearing must not follow links")
}

func TestSync_CanceledContext(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	dst := filepath.Join(root, "dst")
	build(t, src, tree{"a.txt": "a"})
	build(t, dst, tree{"old.txt": "old"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newSyncer().Sync(ctx, src, dst)
	assert.ErrorIs(t, err, context.Canceled)
	assert.FileExists(t, filepath.Join(dst, "old.txt"))
}
