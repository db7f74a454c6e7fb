package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/job"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

func init() {
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the configured schedules until interrupted",
	Long: `Run the backup and mirror jobs on the cron schedules configured in
schedule.backup and schedule.mirror until SIGINT or SIGTERM. An empty
schedule disables its job; at least one must be set.

Schedules use the standard five cron fields or descriptors such as @daily
and @every 6h. Jobs never overlap: a job due while another is still running
is skipped until its next activation. A running job is allowed to finish
before the daemon exits.`,
	Example: `  # config.ini
  [schedule]
  backup = 0 3 * * *
  mirror = @every 1h

  snapkeep daemon

  See Also: snapkeep backup, snapkeep mirror`,
	Args: cobra.NoArgs,
	RunE: runDaemon,
}

func runDaemon(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, runner, err := cli.Runtime(ctx, flags.DryRun())
	if err != nil {
		return err
	}

	sched, err := newDaemonScheduler(ctx, cfg, runner)
	if err != nil {
		return err
	}

	if err := sched.Run(ctx); err != nil {
		if errors.Is(err, errors.ErrConfig) {
			return errors.NewConfigError(errors.WithHint(err, "set schedule.backup or schedule.mirror"))
		}
		return errors.NewSystemError(err, "")
	}
	return nil
}

// newDaemonScheduler registers the jobs whose schedule is set. Settings are
// resolved once, so a broken configuration fails at startup.
func newDaemonScheduler(ctx context.Context, cfg *config.Config, runner *job.Runner) (*job.Scheduler, error) {
	logger := logging.FromContext(ctx)
	sched := job.NewScheduler(logger)
	report := flags.ReportPath()

	if cfg.Schedule.Backup != "" {
		settings, err := cfg.BackupSettings()
		if err != nil {
			return nil, cli.SettingsError(err)
		}
		err = sched.Add(job.NameBackup, cfg.Schedule.Backup, func(ctx context.Context) error {
			rep, err := runner.Backup(ctx, settings)
			cli.WriteReport(logger, report, rep)
			return err
		})
		if err != nil {
			return nil, errors.NewConfigError(err)
		}
	}

	if cfg.Schedule.Mirror != "" {
		settings, err := cfg.MirrorSettings()
		if err != nil {
			return nil, cli.SettingsError(err)
		}
		err = sched.Add(job.NameMirror, cfg.Schedule.Mirror, func(ctx context.Context) error {
			rep, err := runner.Mirror(ctx, settings)
			cli.WriteReport(logger, report, rep)
			return err
		})
		if err != nil {
			return nil, errors.NewConfigError(err)
		}
	}

	return sched, nil
}
