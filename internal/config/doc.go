// Package config loads snapkeep's configuration.
//
// Configuration is read with Viper from an INI, YAML or TOML file and can be
// overridden by environment variables prefixed SNAPKEEP_, with dots replaced
// by underscores (SNAPKEEP_BACKUP_RETENTION_DAYS). Without an explicit path
// the first of config.ini, config.yaml, config.yml and config.toml found in
// the working directory or ~/.config/snapkeep is used.
//
// An INI file uses the section layout of the original deployment:
//
//	[Database]
//	db_url = sqlite:///data/app.db
//
//	[Paths]
//	app_dir = /srv/app
//	backup_dir = backups
//
//	[Backup]
//	retention_days = 10
//
//	[Directories]
//	source_directory = /srv/release
//	destination_directory = /srv/app/current
//
//	[Logging]
//	dir = logs
//	log_retention_days = 7
//
// # Settings
//
// A loaded [Config] keeps values as written. Jobs take a [Settings] value
// from [Config.BackupSettings] or [Config.MirrorSettings], which check the
// keys the job needs, report every problem at once in a [ValidationError],
// and resolve relative paths against the config file's directory:
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	settings, err := cfg.BackupSettings()
//	if err != nil {
//	    return err // errors.Is(err, errors.ErrConfig)
//	}
package config
