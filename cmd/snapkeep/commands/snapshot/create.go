package snapshot

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/job"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

var createJSON bool

func init() {
	createCmd.Flags().BoolVar(&createJSON, "json", false, "Output the report in JSON format")
	Cmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Take a snapshot without pruning",
	Long: `Copy the data file into the backup directory under a new timestamped
name. Existing snapshots are left alone; an earlier snapshot taken in the
same second is never overwritten.`,
	Example: `  snapkeep snapshot create

  See Also:
    snapkeep snapshot list - List snapshots`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, _ []string) error {
	return runCreateWithWriter(cmd.Context(), cmd.OutOrStdout())
}

func runCreateWithWriter(ctx context.Context, w io.Writer) error {
	cfg, runner, err := cli.Runtime(ctx, flags.DryRun())
	if err != nil {
		return err
	}

	settings, err := cfg.BackupSettings()
	if err != nil {
		return cli.SettingsError(err)
	}

	rep, err := runner.Snapshot(ctx, settings)
	cli.WriteReport(logging.FromContext(ctx), flags.ReportPath(), rep)
	if perr := cli.NewReporter(w, format(createJSON)).Backup(rep); perr != nil && err == nil {
		return perr
	}
	return cli.JobError(job.NameSnapshot, rep.Status, 0, err)
}

func format(asJSON bool) cli.Format {
	if asJSON {
		return cli.FormatJSON
	}
	return cli.FormatText
}
