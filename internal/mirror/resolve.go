package mirror

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

const maxLinkHops = 255

// resolveLinks follows every symlink in the absolute path through fsys. The
// part of the path that does not exist yet is appended unchanged to its
// nearest existing ancestor. Filesystems without symlink support return path
// as is.
func resolveLinks(fsys afero.Fs, path string) (string, error) {
	lst, ok := fsys.(afero.Lstater)
	if !ok {
		return path, nil
	}
	reader, ok := fsys.(afero.LinkReader)
	if !ok {
		return path, nil
	}

	root := filepath.VolumeName(path) + string(filepath.Separator)
	resolved := root
	pending := splitPath(path)
	hops := 0

	for len(pending) > 0 {
		name := pending[0]
		pending = pending[1:]

		if name == ".." {
			resolved = filepath.Dir(resolved)
			continue
		}

		next := filepath.Join(resolved, name)
		info, _, err := lst.LstatIfPossible(next)
		if errors.Is(err, fs.ErrNotExist) {
			return filepath.Join(append([]string{next}, pending...)...), nil
		}
		if err != nil {
			return "", errors.NewIOError("lstat", next, err)
		}
		if !isSymlink(info) {
			resolved = next
			continue
		}

		if hops++; hops > maxLinkHops {
			return "", errors.NewIOError("readlink", path, errors.New("too many levels of symbolic links"))
		}
		target, err := reader.ReadlinkIfPossible(next)
		if err != nil {
			return "", errors.NewIOError("readlink", next, err)
		}
		if filepath.IsAbs(target) {
			resolved = filepath.VolumeName(target) + string(filepath.Separator)
		}
		pending = append(splitPath(target), pending...)
	}

	return resolved, nil
}

// splitPath returns the non-empty elements of path, dropping "." elements.
func splitPath(path string) []string {
	path = strings.TrimPrefix(path, filepath.VolumeName(path))
	var out []string
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part != "" && part != "." {
			out = append(out, part)
		}
	}
	return out
}
