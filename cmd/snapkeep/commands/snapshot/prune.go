package snapshot

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/job"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

var (
	pruneDays int
	pruneJSON bool
)

func init() {
	pruneCmd.Flags().IntVar(&pruneDays, "days", -1,
		"Retention window in days (default: backup.retention_days)")
	pruneCmd.Flags().BoolVar(&pruneJSON, "json", false, "Output the report in JSON format")
	Cmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete snapshots older than the retention window",
	Long: `Delete every snapshot whose age in calendar days is strictly greater
than the retention window. With a window of 10, a snapshot taken 10 days ago
is kept and one taken 11 days ago is deleted; --days 0 keeps only today's.

Files in the backup directory that are not snapshots are never touched.`,
	Example: `  # Prune with the configured window
  snapkeep snapshot prune

  # Keep only the last three days
  snapkeep snapshot prune --days 3

  # Show what would be deleted
  snapkeep snapshot prune --dry-run

  See Also:
    snapkeep snapshot list - List snapshots`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func runPrune(cmd *cobra.Command, _ []string) error {
	days := -1
	if cmd.Flags().Changed("days") {
		days = pruneDays
		if days < 0 {
			return errors.NewUserError(errors.New("--days must be non-negative"), "")
		}
	}
	return runPruneWithWriter(cmd.Context(), cmd.OutOrStdout(), days)
}

// runPruneWithWriter prunes with days, or the configured window when days
// is negative.
func runPruneWithWriter(ctx context.Context, w io.Writer, days int) error {
	cfg, runner, err := cli.Runtime(ctx, flags.DryRun())
	if err != nil {
		return err
	}

	settings, err := cfg.BackupSettings()
	if err != nil {
		return cli.SettingsError(err)
	}
	if days >= 0 {
		settings.RetentionDays = days
	}

	rep, err := runner.Prune(ctx, settings)
	cli.WriteReport(logging.FromContext(ctx), flags.ReportPath(), rep)
	if perr := cli.NewReporter(w, format(pruneJSON)).Backup(rep); perr != nil && err == nil {
		return perr
	}

	failed := 0
	if rep.Prune != nil {
		failed = len(rep.Prune.Failed)
	}
	return cli.JobError(job.NamePrune, rep.Status, failed, err)
}
