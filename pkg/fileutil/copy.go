package fileutil

import (
	"io"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// AtomicCopyFile copies src to dst through a temp file in dst's directory.
// The temp file receives the bytes, permission bits and modification time of src,
// is synced, optionally verified, and finally renamed onto dst. On any failure the
// temp file is removed and dst is left untouched.
func AtomicCopyFile(fsys afero.Fs, src, dst string, verify Verifier) error {
	in, info, err := openRegular(fsys, src)
	if err != nil {
		return err
	}
	defer in.Close()

	return replace(fsys, dst,
		func(w io.Writer) error {
			_, err := io.Copy(w, in)
			return err
		},
		func(tmp string) error {
			if err := applyMetadata(fsys, tmp, info); err != nil {
				return err
			}
			if verify == nil {
				return nil
			}
			if err := verify(tmp); err != nil {
				return errors.NewIOError("verify", dst, err)
			}
			return nil
		})
}

// IsTempFile reports whether name was produced by an interrupted atomic write.
func IsTempFile(name string) bool {
	ok, _ := filepath.Match(tempPattern, name)
	return ok
}

func openRegular(fsys afero.Fs, src string) (afero.File, fs.FileInfo, error) {
	in, err := fsys.Open(src)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, errors.NewSourceNotFound(src, err)
		}
		return nil, nil, errors.NewIOError("open", src, err)
	}

	info, err := in.Stat()
	if err != nil {
		in.Close()
		return nil, nil, errors.NewIOError("stat", src, err)
	}
	if !info.Mode().IsRegular() {
		in.Close()
		return nil, nil, errors.NewIOError("open", src, errors.Newf("not a regular file (%s)", info.Mode().Type()))
	}

	return in, info, nil
}

func applyMetadata(fsys afero.Fs, path string, info fs.FileInfo) error {
	if err := fsys.Chmod(path, info.Mode().Perm()); err != nil {
		return errors.NewIOError("chmod", path, err)
	}
	if err := fsys.Chtimes(path, info.ModTime(), info.ModTime()); err != nil {
		return errors.NewIOError("chtimes", path, err)
	}
	return nil
}
