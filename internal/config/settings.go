package config

import (
	"net/url"
	"path/filepath"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/paths"
)

// Settings is the resolved, read-only input of one job. Every path is
// absolute. Engines receive it by value and never consult the Config.
type Settings struct {
	SourceDataPath  string `json:"source_data_path,omitempty" yaml:"source_data_path,omitempty" toml:"source_data_path,omitempty"`
	BackupDirectory string `json:"backup_directory,omitempty" yaml:"backup_directory,omitempty" toml:"backup_directory,omitempty"`
	RetentionDays   int    `json:"retention_days" yaml:"retention_days" toml:"retention_days"`
	VerifySQLite    bool   `json:"verify_sqlite,omitempty" yaml:"verify_sqlite,omitempty" toml:"verify_sqlite,omitempty"`
	MirrorSourceDir string `json:"mirror_source_dir,omitempty" yaml:"mirror_source_dir,omitempty" toml:"mirror_source_dir,omitempty"`
	MirrorDestDir   string `json:"mirror_dest_dir,omitempty" yaml:"mirror_dest_dir,omitempty" toml:"mirror_dest_dir,omitempty"`
}

// BaseDir is the directory relative paths are resolved against: the config
// file's directory, or the working directory when no file was read.
func (c *Config) BaseDir() string {
	if c.File == "" {
		return ""
	}
	return filepath.Dir(c.File)
}

// BackupSettings resolves the settings of the backup job. Every missing or
// malformed key is reported in one [ValidationError].
func (c *Config) BackupSettings() (Settings, error) {
	var verr ValidationError
	base := c.BaseDir()

	appDir := c.resolve(&verr, KeyAppDir, c.Paths.AppDir, base)
	backupDir := c.resolve(&verr, KeyBackupDir, c.Paths.BackupDir, base)

	var source string
	if c.Database.DBURL == "" {
		verr.add(KeyDBURL, nil, "is required")
	} else if appDir != "" {
		var err error
		source, err = ResolveDataPath(c.Database.DBURL, appDir)
		if err != nil {
			verr.add(KeyDBURL, c.Database.DBURL, err.Error())
		}
	}

	if c.Backup.RetentionDays < 0 {
		verr.add(KeyRetentionDays, c.Backup.RetentionDays, "must not be negative")
	}

	if err := verr.errOrNil(); err != nil {
		return Settings{}, err
	}

	return Settings{
		SourceDataPath:  source,
		BackupDirectory: backupDir,
		RetentionDays:   c.Backup.RetentionDays,
		VerifySQLite:    c.Backup.VerifySQLite,
	}, nil
}

// MirrorSettings resolves the settings of the mirror job.
func (c *Config) MirrorSettings() (Settings, error) {
	var verr ValidationError
	base := c.BaseDir()

	src := c.resolve(&verr, KeySourceDir, c.Directories.SourceDirectory, base)
	dst := c.resolve(&verr, KeyDestDir, c.Directories.DestinationDirectory, base)

	if err := verr.errOrNil(); err != nil {
		return Settings{}, err
	}

	return Settings{
		MirrorSourceDir: src,
		MirrorDestDir:   dst,
	}, nil
}

func (c *Config) resolve(verr *ValidationError, key, value, base string) string {
	if strings.TrimSpace(value) == "" {
		verr.add(key, nil, "is required")
		return ""
	}
	abs, err := paths.Resolve(value, base)
	if err != nil {
		verr.add(key, value, err.Error())
		return ""
	}
	return abs
}

// ResolveDataPath derives the data file from a locator such as
// sqlite:///data/app.db: the locator's path component, stripped of its
// surrounding separators, is joined to appDir.
func ResolveDataPath(dbURL, appDir string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", errors.Wrap(err, "unparsable locator")
	}

	rel := strings.Trim(u.Path, "/")
	if rel == "" {
		// sqlite://app.db puts the file name in the host position.
		rel = strings.Trim(u.Host, "/")
	}
	if rel == "" {
		return "", errors.New("locator has no path")
	}

	return filepath.Join(appDir, filepath.FromSlash(rel)), nil
}
