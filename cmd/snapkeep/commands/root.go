// Package commands implements the CLI commands for snapkeep.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/cmd"
	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/paths"
)

// configPath holds the value of the --config flag.
var configPath string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// dryRun holds the value of the --dry-run flag.
var dryRun bool

// reportPath holds the value of the --report flag.
var reportPath string

// logClosers are the log files opened for this invocation.
var logClosers []io.Closer

// rootCommand aliases rootCmd so needsConfig can reference it without an
// initialization cycle.
var rootCommand *cobra.Command

func init() {
	rootCommand = rootCmd
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "",
		"config file (default: ./config.ini or $XDG_CONFIG_HOME/snapkeep/config.*)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&dryRun, "dry-run", "n", false,
		"report what would change without touching the filesystem")
	rootCmd.PersistentFlags().StringVar(&reportPath, "report", "",
		"write the job report to this file (.json, .yaml or .yml)")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("snapkeep version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return errors.NewUserError(err, "Run 'snapkeep --help' for usage")
	})
}

var rootCmd = &cobra.Command{
	Use:   "snapkeep",
	Short: "Timestamped snapshots, retention and directory mirroring",
	Long: `snapkeep keeps timestamped snapshots of an application's data file,
prunes the ones older than the retention window, and mirrors a directory
tree onto a destination so the destination ends up an exact copy.

Settings are read from an INI, YAML or TOML file and can be overridden
with SNAPKEEP_* environment variables (e.g. SNAPKEEP_BACKUP_RETENTION_DAYS).`,
	Example: `  # Snapshot the data file and prune expired snapshots
  snapkeep backup

  # Mirror the source directory onto the destination
  snapkeep mirror

  # Preview a mirror without changing anything
  snapkeep mirror --dry-run

  # Run the configured schedules until interrupted
  snapkeep daemon

  See Also: snapkeep snapshot, snapkeep config show`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if quiet && verbosity > 0 {
			return errors.NewUserError(errors.New("--quiet and --verbose are mutually exclusive"),
				"Use either --quiet or --verbose, not both")
		}

		flags.SetDryRun(dryRun)
		flags.SetReportPath(reportPath)

		var cfg *config.Config
		if needsConfig(cmd) {
			var err error
			cfg, err = cli.LoadConfig(configPath)
			if err != nil {
				return err
			}
		}

		logger, err := setupLogging(cmd, cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = logging.NewContext(ctx, logger)
		if cfg != nil {
			ctx = cli.NewContext(ctx, cfg)
		}
		cmd.SetContext(ctx)
		return nil
	},
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// needsConfig reports whether cmd reads the configuration.
func needsConfig(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "version", "completion", cobra.ShellCompRequestCmd, cobra.ShellCompNoDescRequestCmd:
		return false
	}
	return cmd != rootCommand
}

// setupLogging configures the default logger based on verbosity flags and the
// logging section of cfg, which may be nil.
func setupLogging(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("SNAPKEEP_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	primaryHandler := logging.NewFormatHandler(logging.Format(logFormat), cmd.ErrOrStderr(), opts)

	handlers := []slog.Handler{primaryHandler}

	// Files record every operation even when the terminal is kept quiet.
	fileOpts := &slog.HandlerOptions{Level: min(level, slog.LevelInfo)}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, errors.NewUserError(err, "failed to open log file")
		}
		logClosers = append(logClosers, f)
		handlers = append(handlers, slog.NewJSONHandler(f, fileOpts))
	}

	var excludes []string
	if cfg != nil {
		excludes = cfg.Logging.Exclude

		if cfg.Logging.Dir != "" {
			dir, err := paths.Resolve(cfg.Logging.Dir, cfg.BaseDir())
			if err != nil {
				return nil, errors.NewConfigError(errors.Mark(errors.Wrap(err, config.KeyLogDir), errors.ErrConfig))
			}
			// Opened on the first record, so a run rejected by settings
			// validation leaves logging.dir alone.
			rf := logging.NewRotatingFile(dir, logging.DefaultLogName, cfg.Logging.LogRetentionDays)
			logClosers = append(logClosers, rf)
			handlers = append(handlers, slog.NewJSONHandler(rf, fileOpts))
		}
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}
	if len(excludes) > 0 {
		handler = logging.NewFilterHandler(handler, excludes...)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger, nil
}

func closeLogs() {
	for _, c := range logClosers {
		_ = c.Close()
	}
	logClosers = nil
}

// Execute runs the root command.
func Execute() error {
	defer closeLogs()
	return rootCmd.Execute()
}
