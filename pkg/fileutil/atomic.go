// Package fileutil provides file system utilities for snapkeep: atomic writes,
// metadata-preserving copies and retry of transient filesystem errors.
package fileutil

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// tempPattern names every in-flight temp file so interrupted runs are recognizable.
const tempPattern = ".snapkeep-*.tmp"

// Verifier inspects a fully written temp file before it is renamed into place.
type Verifier func(tmpPath string) error

// replace writes dst through a temp file in its directory: fill receives the
// open temp file, which is then synced and closed, handed to finish and
// renamed onto dst. The temp file never outlives a failure.
func replace(fsys afero.Fs, dst string, fill func(io.Writer) error, finish func(tmp string) error) error {
	dir := filepath.Dir(dst)
	tmp, err := afero.TempFile(fsys, dir, tempPattern)
	if err != nil {
		return errors.NewIOError("create", dir, err)
	}

	tmpName := tmp.Name()
	renamed := false
	defer func() {
		if !renamed {
			_ = fsys.Remove(tmpName)
		}
	}()

	if err := fill(tmp); err != nil {
		tmp.Close()
		return errors.NewIOError("write", dst, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return errors.NewIOError("sync", dst, err)
	}
	if err := tmp.Close(); err != nil {
		return errors.NewIOError("close", dst, err)
	}

	if finish != nil {
		if err := finish(tmpName); err != nil {
			return err
		}
	}

	if err := fsys.Rename(tmpName, dst); err != nil {
		return errors.NewIOError("rename", dst, err)
	}
	renamed = true
	return nil
}

// AtomicWriteFile replaces path with data. Readers see either the old file or
// the complete new one. The parent directory must exist.
func AtomicWriteFile(fsys afero.Fs, path string, data []byte, perm os.FileMode) error {
	return replace(fsys, path,
		func(w io.Writer) error {
			_, err := io.Copy(w, bytes.NewReader(data))
			return err
		},
		func(tmp string) error {
			if err := fsys.Chmod(tmp, perm); err != nil {
				return errors.NewIOError("chmod", path, err)
			}
			return nil
		})
}

// AtomicWriteJSON writes v as indented JSON with a trailing newline.
func AtomicWriteJSON(fsys afero.Fs, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling JSON")
	}
	return AtomicWriteFile(fsys, path, append(data, '\n'), 0o644)
}

// AtomicWriteYAML writes v as YAML.
func AtomicWriteYAML(fsys afero.Fs, path string, v any) (err error) {
	// yaml.Marshal panics on funcs and channels.
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}
	return AtomicWriteFile(fsys, path, data, 0o644)
}
