package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/retention"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	Cmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List snapshots, newest first",
	Long: `List the snapshots in the backup directory with their creation time,
size and age in calendar days. Snapshots the next prune would delete are
marked expired.`,
	Example: `  # List snapshots
  snapkeep snapshot list

  # Output as JSON
  snapkeep snapshot list --json

  See Also:
    snapkeep snapshot restore - Restore a snapshot
    snapkeep snapshot prune   - Delete expired snapshots`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// listEntry is one snapshot in JSON output.
type listEntry struct {
	snapshot.Info
	AgeDays int  `json:"age_days"`
	Expired bool `json:"expired"`
}

func runList(cmd *cobra.Command, _ []string) error {
	return runListWithWriter(cmd.Context(), cmd.OutOrStdout(), afero.NewOsFs(), time.Now())
}

func runListWithWriter(ctx context.Context, w io.Writer, fsys afero.Fs, now time.Time) error {
	cfg := cli.ConfigFromContext(ctx)
	if cfg == nil {
		return errors.NewConfigError(errors.Wrap(errors.ErrConfig, "configuration not loaded"))
	}
	settings, err := cfg.BackupSettings()
	if err != nil {
		return cli.SettingsError(err)
	}

	snaps, err := snapshot.List(fsys, settings.BackupDirectory)
	if err != nil {
		return errors.NewSystemError(err, "check that paths.backup_dir is readable")
	}

	entries := make([]listEntry, len(snaps))
	for i, s := range snaps {
		entries[i] = listEntry{
			Info:    s,
			AgeDays: retention.AgeInDays(s.CreatedAt, now),
			Expired: retention.Expired(s.CreatedAt, now, settings.RetentionDays),
		}
	}

	if listJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(entries), "encoding JSON")
	}
	return outputListTabular(w, settings.BackupDirectory, settings.RetentionDays, entries)
}

func outputListTabular(w io.Writer, dir string, days int, entries []listEntry) error {
	fmt.Fprintf(w, "%sSnapshots in %s%s (retention: %d days)\n", colorBold, dir, colorReset, days)

	if len(entries) == 0 {
		fmt.Fprintf(w, "  %s(no snapshots)%s\n", colorGray, colorReset)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Create one with: snapkeep snapshot create")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "  %sNAME%s\t%sCREATED%s\t%sSIZE%s\t%sAGE%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	for _, e := range entries {
		nameColor := colorGreen
		age := fmt.Sprintf("%dd", e.AgeDays)
		if e.Expired {
			nameColor = colorYellow
			age += " (expired)"
		}
		fmt.Fprintf(tw, "  %s%s%s\t%s\t%d\t%s\n",
			nameColor, e.Name, colorReset,
			e.CreatedAt.Format("2006-01-02 15:04:05"),
			e.Size,
			age)
	}
	return errors.Wrap(tw.Flush(), "writing snapshot list")
}
