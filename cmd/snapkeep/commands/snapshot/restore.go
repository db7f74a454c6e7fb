package snapshot

import (
	"context"
	"io"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands/flags"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/cli/prompt"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/job"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

var (
	restoreYes  bool
	restoreJSON bool
)

func init() {
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "Skip the confirmation prompt")
	restoreCmd.Flags().BoolVar(&restoreJSON, "json", false, "Output the report in JSON format")
	Cmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [name|timestamp|latest]",
	Short: "Restore a snapshot over the data file",
	Long: `Copy a snapshot back over the data file named by database.db_url.

The snapshot is given by file name, by its timestamp (20240315_093000) or
as "latest". Without an argument the snapshot is picked interactively: with
a fuzzy finder on a terminal, otherwise from a numbered list read on stdin.

Before the data file is replaced it is itself snapshotted, so a restore can
be undone. With backup.verify_sqlite set, the snapshot is integrity-checked
first and a corrupt snapshot is never restored.`,
	Example: `  # Pick a snapshot interactively
  snapkeep snapshot restore

  # Restore the newest snapshot without asking
  snapkeep snapshot restore latest --yes

  # Restore by timestamp
  snapkeep snapshot restore 20240315_093000

  See Also:
    snapkeep snapshot list - List snapshots`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	ref := ""
	if len(args) > 0 {
		ref = args[0]
	}

	var pick picker
	if ref == "" && logging.IsTTY(os.Stdin) && logging.IsTTY(os.Stdout) {
		pick = pickSnapshot
	}
	return runRestoreWithIO(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), ref, pick)
}

// picker chooses one of the listed snapshots.
type picker func([]snapshot.Info) (*snapshot.Info, error)

// runRestoreWithIO restores ref. An empty ref is resolved with pick, or with
// a numbered prompt on in when pick is nil.
func runRestoreWithIO(ctx context.Context, in io.Reader, w io.Writer, ref string, pick picker) error {
	cfg, runner, err := cli.Runtime(ctx, flags.DryRun())
	if err != nil {
		return err
	}

	settings, err := cfg.BackupSettings()
	if err != nil {
		return cli.SettingsError(err)
	}

	selector := prompt.NewSelector(in, w)

	switch ref {
	case "latest":
		ref = ""
	case "":
		snaps, err := snapshot.List(afero.NewOsFs(), settings.BackupDirectory)
		if err != nil {
			return errors.NewSystemError(err, "check that paths.backup_dir is readable")
		}
		if pick == nil {
			pick = selector.SelectSnapshot
		}
		chosen, err := pick(snaps)
		if err != nil {
			return selectionError(err)
		}
		ref = chosen.Name
	}

	if !restoreYes && !flags.DryRun() {
		target := ref
		if target == "" {
			target = "the newest snapshot"
		}
		ok, err := selector.Confirm("Replace " + settings.SourceDataPath + " with " + target + "?")
		if err != nil {
			return selectionError(err)
		}
		if !ok {
			return errors.NewUserError(errors.New("restore aborted"), "Pass --yes to skip the confirmation")
		}
	}

	rep, err := runner.Restore(ctx, settings, ref)
	cli.WriteReport(logging.FromContext(ctx), flags.ReportPath(), rep)
	if perr := cli.NewReporter(w, format(restoreJSON)).Restore(rep); perr != nil && err == nil {
		return perr
	}
	if errors.Is(err, errors.ErrSourceNotFound) {
		return errors.NewUserError(err, "Run: snapkeep snapshot list")
	}
	return cli.JobError(job.NameRestore, rep.Status, 0, err)
}

func selectionError(err error) error {
	switch {
	case errors.Is(err, prompt.ErrNoSnapshots):
		return errors.NewUserError(err, "Create one with: snapkeep snapshot create")
	case errors.Is(err, prompt.ErrSelectionCancelled), errors.Is(err, prompt.ErrInvalidSelection):
		return errors.NewUserError(err, "Name the snapshot: snapkeep snapshot restore <name>")
	default:
		return errors.NewSystemError(err, "")
	}
}
