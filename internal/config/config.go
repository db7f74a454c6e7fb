// Package config loads snapkeep's configuration using Viper.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/paths"
)

// EnvPrefix prefixes environment overrides, e.g. SNAPKEEP_BACKUP_RETENTION_DAYS.
const EnvPrefix = "SNAPKEEP"

// Configuration keys.
const (
	KeyDBURL            = "database.db_url"
	KeyAppDir           = "paths.app_dir"
	KeyBackupDir        = "paths.backup_dir"
	KeyRetentionDays    = "backup.retention_days"
	KeyVerifySQLite     = "backup.verify_sqlite"
	KeySourceDir        = "directories.source_directory"
	KeyDestDir          = "directories.destination_directory"
	KeyLogDir           = "logging.dir"
	KeyLogRetentionDays = "logging.log_retention_days"
	KeyLogExclude       = "logging.exclude"
	KeyScheduleBackup   = "schedule.backup"
	KeyScheduleMirror   = "schedule.mirror"
	KeyMetricsTextfile  = "metrics.textfile"

	// Names used by older update configs for the mirror directories.
	keyLegacySourceDir = "directories.copysrcdir"
	keyLegacyDestDir   = "directories.copydestdir"
)

// Defaults.
const (
	DefaultRetentionDays    = 10
	DefaultLogRetentionDays = 7
)

// DefaultLogExclude hides entries for internal files from the logs.
var DefaultLogExclude = []string{"_internal"}

var allKeys = []string{
	KeyDBURL, KeyAppDir, KeyBackupDir,
	KeyRetentionDays, KeyVerifySQLite,
	KeySourceDir, KeyDestDir,
	KeyLogDir, KeyLogRetentionDays, KeyLogExclude,
	KeyScheduleBackup, KeyScheduleMirror,
	KeyMetricsTextfile,
}

// Config is the loaded configuration. Paths are kept as written; use
// [Config.BackupSettings] and [Config.MirrorSettings] for resolved values.
type Config struct {
	Database    DatabaseConfig    `mapstructure:"database" yaml:"database" json:"database" toml:"database"`
	Paths       PathsConfig       `mapstructure:"paths" yaml:"paths" json:"paths" toml:"paths"`
	Backup      BackupConfig      `mapstructure:"backup" yaml:"backup" json:"backup" toml:"backup"`
	Directories DirectoriesConfig `mapstructure:"directories" yaml:"directories" json:"directories" toml:"directories"`
	Logging     LoggingConfig     `mapstructure:"logging" yaml:"logging" json:"logging" toml:"logging"`
	Schedule    ScheduleConfig    `mapstructure:"schedule" yaml:"schedule" json:"schedule" toml:"schedule"`
	Metrics     MetricsConfig     `mapstructure:"metrics" yaml:"metrics" json:"metrics" toml:"metrics"`

	// File is the config file that was read, or empty when none was found.
	File string `mapstructure:"-" yaml:"-" json:"-" toml:"-"`
}

// DatabaseConfig locates the data file to snapshot.
type DatabaseConfig struct {
	DBURL string `mapstructure:"db_url" yaml:"db_url" json:"db_url" toml:"db_url"`
}

// PathsConfig holds the application and backup directories.
type PathsConfig struct {
	AppDir    string `mapstructure:"app_dir" yaml:"app_dir" json:"app_dir" toml:"app_dir"`
	BackupDir string `mapstructure:"backup_dir" yaml:"backup_dir" json:"backup_dir" toml:"backup_dir"`
}

// BackupConfig controls snapshot retention and verification.
type BackupConfig struct {
	RetentionDays int  `mapstructure:"retention_days" yaml:"retention_days" json:"retention_days" toml:"retention_days"`
	VerifySQLite  bool `mapstructure:"verify_sqlite" yaml:"verify_sqlite" json:"verify_sqlite" toml:"verify_sqlite"`
}

// DirectoriesConfig names the mirror source and destination.
type DirectoriesConfig struct {
	SourceDirectory      string `mapstructure:"source_directory" yaml:"source_directory" json:"source_directory" toml:"source_directory"`
	DestinationDirectory string `mapstructure:"destination_directory" yaml:"destination_directory" json:"destination_directory" toml:"destination_directory"`
}

// LoggingConfig controls the rotating log file.
type LoggingConfig struct {
	Dir              string   `mapstructure:"dir" yaml:"dir" json:"dir" toml:"dir"`
	LogRetentionDays int      `mapstructure:"log_retention_days" yaml:"log_retention_days" json:"log_retention_days" toml:"log_retention_days"`
	Exclude          []string `mapstructure:"exclude" yaml:"exclude" json:"exclude" toml:"exclude"`
}

// ScheduleConfig holds cron specs for daemon mode. Empty disables a job.
type ScheduleConfig struct {
	Backup string `mapstructure:"backup" yaml:"backup" json:"backup" toml:"backup"`
	Mirror string `mapstructure:"mirror" yaml:"mirror" json:"mirror" toml:"mirror"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile" yaml:"textfile" json:"textfile" toml:"textfile"`
}

// New returns a Viper instance with snapkeep's defaults and environment
// bindings. No file is read.
func New() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range allKeys {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key)
	}

	v.SetDefault(KeyRetentionDays, DefaultRetentionDays)
	v.SetDefault(KeyVerifySQLite, false)
	v.SetDefault(KeyLogRetentionDays, DefaultLogRetentionDays)
	v.SetDefault(KeyLogExclude, DefaultLogExclude)

	return v
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches the default locations and falls back to
// defaults and environment when no file is found.
func Load(path string) (*Config, error) {
	file := path
	if file == "" {
		file = paths.FindConfig(paths.ConfigSearchDirs()...)
	}
	return LoadFile(New(), file, path != "")
}

// LoadFile reads file into v and decodes the result. An empty file name reads
// nothing. When required is set a missing file is an error.
func LoadFile(v *viper.Viper, file string, required bool) (*Config, error) {
	if file != "" {
		if _, err := os.Stat(file); err != nil {
			if !os.IsNotExist(err) || required {
				return nil, errors.Mark(errors.Wrapf(err, "config file not found at %s", file), errors.ErrConfig)
			}
			file = ""
		}
	}
	if file != "" {
		if err := readFile(v, file); err != nil {
			return nil, err
		}
	}

	if err := validateScalars(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.Mark(err, errors.ErrConfig), "decoding config")
	}

	cfg.Logging.Exclude = stringList(v.Get(KeyLogExclude))
	if cfg.Directories.SourceDirectory == "" {
		cfg.Directories.SourceDirectory = v.GetString(keyLegacySourceDir)
	}
	if cfg.Directories.DestinationDirectory == "" {
		cfg.Directories.DestinationDirectory = v.GetString(keyLegacyDestDir)
	}

	if file != "" {
		abs, err := filepath.Abs(file)
		if err == nil {
			file = abs
		}
	}
	cfg.File = file

	return &cfg, nil
}

func readFile(v *viper.Viper, file string) error {
	if strings.EqualFold(filepath.Ext(file), ".ini") {
		values, err := readINI(file)
		if err != nil {
			return errors.Wrapf(errors.Mark(err, errors.ErrConfig), "reading config file %s", file)
		}
		if err := v.MergeConfigMap(values); err != nil {
			return errors.Wrapf(errors.Mark(err, errors.ErrConfig), "reading config file %s", file)
		}
		return nil
	}

	v.SetConfigFile(file)
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrapf(errors.Mark(err, errors.ErrConfig), "reading config file %s", file)
	}
	return nil
}

// validateScalars checks the numeric and boolean keys before decoding so a
// bad value is reported by key name rather than by the decoder.
func validateScalars(v *viper.Viper) error {
	var verr ValidationError

	for _, key := range []string{KeyRetentionDays, KeyLogRetentionDays} {
		n, err := parseInt(v.Get(key))
		switch {
		case err != nil:
			verr.add(key, v.Get(key), "must be a whole number of days")
		case n < 0:
			verr.add(key, n, "must not be negative")
		default:
			v.Set(key, n)
		}
	}

	if b, err := cast.ToBoolE(v.Get(KeyVerifySQLite)); err != nil {
		verr.add(KeyVerifySQLite, v.Get(KeyVerifySQLite), "must be true or false")
	} else {
		v.Set(KeyVerifySQLite, b)
	}

	return verr.errOrNil()
}

// parseInt accepts integers and decimal strings. Strings are parsed as
// base 10 so a zero-padded "08" means eight.
func parseInt(raw any) (int, error) {
	if s, ok := raw.(string); ok {
		return strconv.Atoi(strings.TrimSpace(s))
	}
	return cast.ToIntE(raw)
}

// stringList accepts a list or a comma separated string.
func stringList(raw any) []string {
	var items []string
	if s, ok := raw.(string); ok {
		items = strings.Split(s, ",")
	} else {
		items = cast.ToStringSlice(raw)
	}

	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
