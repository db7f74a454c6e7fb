package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
)

var configFormat string

func init() {
	configShowCmd.Flags().StringVarP(&configFormat, "format", "f", "yaml", "output format: yaml, json, toml")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect snapkeep configuration",
	Long: `Inspect the configuration snapkeep would use.

Without a subcommand, shows the loaded and resolved configuration.`,
	Example: `  # Show configuration as YAML
  snapkeep config

  # Show configuration as TOML
  snapkeep config show --format toml

See Also: snapkeep config path`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the loaded and resolved configuration",
	Long: `Show the configuration after defaults, the config file and SNAPKEEP_*
environment variables are merged, followed by the absolute paths each job
would use. Jobs whose settings are incomplete are listed under problems.`,
	Example: `  snapkeep config show
  snapkeep config show --format json
  SNAPKEEP_BACKUP_RETENTION_DAYS=30 snapkeep config show

See Also: snapkeep config path`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file in use",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := cli.ConfigFromContext(cmd.Context())
		if cfg == nil || cfg.File == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "(no config file found; using defaults and environment)")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.File)
		return nil
	},
}

// configView is what config show prints.
type configView struct {
	File     string           `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
	Config   *config.Config   `json:"config" yaml:"config" toml:"config"`
	Backup   *config.Settings `json:"backup,omitempty" yaml:"backup,omitempty" toml:"backup,omitempty"`
	Mirror   *config.Settings `json:"mirror,omitempty" yaml:"mirror,omitempty" toml:"mirror,omitempty"`
	Problems []string         `json:"problems,omitempty" yaml:"problems,omitempty" toml:"problems,omitempty"`
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	return runConfigShowWithWriter(cmd.Context(), cmd.OutOrStdout(), configFormat)
}

func runConfigShowWithWriter(ctx context.Context, w io.Writer, format string) error {
	cfg := cli.ConfigFromContext(ctx)
	if cfg == nil {
		return errors.NewConfigError(errors.Wrap(errors.ErrConfig, "configuration not loaded"))
	}

	view := configView{File: cfg.File, Config: cfg}
	if s, err := cfg.BackupSettings(); err == nil {
		view.Backup = &s
	} else {
		view.Problems = append(view.Problems, "backup: "+err.Error())
	}
	if s, err := cfg.MirrorSettings(); err == nil {
		view.Mirror = &s
	} else {
		view.Problems = append(view.Problems, "mirror: "+err.Error())
	}

	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(view), "encoding JSON")
	case "toml":
		enc := toml.NewEncoder(w)
		return errors.Wrap(enc.Encode(view), "encoding TOML")
	case "yaml", "":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(view); err != nil {
			return errors.Wrap(err, "encoding YAML")
		}
		return errors.Wrap(enc.Close(), "encoding YAML")
	default:
		return errors.NewUserError(errors.Newf("unknown format %q", format), "Use --format yaml, json or toml")
	}
}
