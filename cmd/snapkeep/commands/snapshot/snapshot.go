// Package snapshot provides CLI commands for working with individual snapshots.
package snapshot

import "github.com/spf13/cobra"

// Color constants for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// Cmd is the root snapshot command.
var Cmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Create, list, prune and restore snapshots",
	Long: `Work with the snapshots in paths.backup_dir one step at a time.

snapkeep backup runs create and prune together; these subcommands run them
separately and add list and restore.`,
	Example: `  # List snapshots, newest first
  snapkeep snapshot list

  # Take a snapshot without pruning
  snapkeep snapshot create

  # Prune with a shorter window than configured
  snapkeep snapshot prune --days 3

  # Restore a snapshot, picking it interactively
  snapkeep snapshot restore

  See Also:
    snapkeep backup - Create and prune in one run`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}
