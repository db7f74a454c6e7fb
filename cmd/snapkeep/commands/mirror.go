package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/job"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

var mirrorJSON bool

func init() {
	mirrorCmd.Flags().BoolVar(&mirrorJSON, "json", false, "Output the report in JSON format")
	rootCmd.AddCommand(mirrorCmd)
}

var mirrorCmd = &cobra.Command{
	Use:   "mirror",
	Short: "Make the destination directory an exact copy of the source",
	Long: `Empty directories.destination_directory, then copy
directories.source_directory into it recursively, preserving file modes and
modification times. The destination is created when missing.

Entries that cannot be deleted or copied are reported and the rest of the
tree is still processed; the command then exits with code 3. Source and
destination must not be the same directory or nested inside each other.

Symbolic links in the destination are removed, never followed. In the
source, links to files are copied as regular files and links to directories
are skipped.`,
	Example: `  # Mirror the configured directories
  snapkeep mirror

  # Preview the deletions and copies
  snapkeep mirror --dry-run -v

  See Also: snapkeep daemon`,
	Args: cobra.NoArgs,
	RunE: runMirror,
}

func runMirror(cmd *cobra.Command, _ []string) error {
	return runMirrorWithWriter(cmd.Context(), cmd.OutOrStdout())
}

func runMirrorWithWriter(ctx context.Context, w io.Writer) error {
	cfg, runner, err := cli.Runtime(ctx, flags.DryRun())
	if err != nil {
		return err
	}

	settings, err := cfg.MirrorSettings()
	if err != nil {
		return cli.SettingsError(err)
	}

	rep, err := runner.Mirror(ctx, settings)
	cli.WriteReport(logging.FromContext(ctx), flags.ReportPath(), rep)
	if perr := cli.NewReporter(w, outputFormat(mirrorJSON)).Mirror(rep); perr != nil && err == nil {
		return perr
	}

	failed := 0
	if rep.Sync != nil {
		failed = len(rep.Sync.Failures)
	}
	return cli.JobError(job.NameMirror, rep.Status, failed, err)
}
