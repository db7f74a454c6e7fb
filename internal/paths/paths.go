package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName names the per-user config and state directories.
const AppName = "snapkeep"

// ConfigNames are the config file names searched for, in order.
var ConfigNames = []string{"config.ini", "config.yaml", "config.yml", "config.toml"}

var (
	ErrHomeDirNotFound = errors.New("home directory not found")
	ErrInvalidPath     = errors.New("invalid path")
)

// HomeDir is os.UserHomeDir with its failure marked ErrHomeDirNotFound.
func HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "resolving ~"), ErrHomeDirNotFound)
	}
	return home, nil
}

// ConfigDir is the per-user snapkeep directory under the XDG config home
// (~/.config/snapkeep on Linux, ~/Library/Application Support/snapkeep on
// macOS).
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// ConfigSearchDirs returns the directories searched for a config file, in
// order: the working directory, then the per-user config directory.
func ConfigSearchDirs() []string {
	return []string{".", ConfigDir()}
}

// FindConfig returns the first config file found in dirs, trying each of
// ConfigNames in every directory before moving on. It returns "" when none
// exists.
func FindConfig(dirs ...string) string {
	for _, dir := range dirs {
		for _, name := range ConfigNames {
			path := filepath.Join(dir, name)
			if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
				return path
			}
		}
	}
	return ""
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := HomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, path[1:]), nil
}

// Resolve turns path into a clean absolute path. A leading ~ is expanded and
// relative paths are taken relative to base, or the working directory when
// base is empty.
func Resolve(path, base string) (string, error) {
	if path == "" {
		return "", errors.Wrap(ErrInvalidPath, "empty path")
	}
	if strings.ContainsRune(path, '\x00') {
		return "", errors.Wrapf(ErrInvalidPath, "%q contains a NUL byte", path)
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(expanded) && base != "" {
		expanded = filepath.Join(base, expanded)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrapf(ErrInvalidPath, "%s: %v", path, err)
	}
	return abs, nil
}
