package commands

import (
	"github.com/thoreinstein/snapkeep/internal/cli"
)

// outputFormat maps a --json flag to a report format.
func outputFormat(asJSON bool) cli.Format {
	if asJSON {
		return cli.FormatJSON
	}
	return cli.FormatText
}
