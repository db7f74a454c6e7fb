package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/snapshot"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/job"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

var backupJSON bool

func init() {
	backupCmd.Flags().BoolVar(&backupJSON, "json", false, "Output the report in JSON format")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(snapshot.Cmd)
}

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot the data file and prune expired snapshots",
	Long: `Copy the data file named by database.db_url into paths.backup_dir as
backup_<YYYYMMDD_HHMMSS>.<ext>, then delete every snapshot whose calendar-day
age is greater than backup.retention_days (default 10).

A failed snapshot aborts the run before anything is deleted. A snapshot that
cannot be deleted is reported and the remaining ones are still processed;
the command then exits with code 3.`,
	Example: `  # Take a snapshot and prune
  snapkeep backup

  # Show what would be pruned
  snapkeep backup --dry-run

  # Keep a machine-readable record of the run
  snapkeep backup --report /var/log/snapkeep/backup.json

  See Also:
    snapkeep snapshot list  - List snapshots
    snapkeep snapshot prune - Prune with a different window`,
	Args: cobra.NoArgs,
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, _ []string) error {
	return runBackupWithWriter(cmd.Context(), cmd.OutOrStdout())
}

func runBackupWithWriter(ctx context.Context, w io.Writer) error {
	cfg, runner, err := cli.Runtime(ctx, flags.DryRun())
	if err != nil {
		return err
	}

	settings, err := cfg.BackupSettings()
	if err != nil {
		return cli.SettingsError(err)
	}

	rep, err := runner.Backup(ctx, settings)
	cli.WriteReport(logging.FromContext(ctx), flags.ReportPath(), rep)
	if perr := cli.NewReporter(w, outputFormat(backupJSON)).Backup(rep); perr != nil && err == nil {
		return perr
	}

	failed := 0
	if rep.Prune != nil {
		failed = len(rep.Prune.Failed)
	}
	return cli.JobError(job.NameBackup, rep.Status, failed, err)
}
