// Package main is the entry point for the snapkeep CLI.
package main

import (
	"os"

	"github.com/thoreinstein/snapkeep/cmd/snapkeep/commands"
	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/errors"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError(os.Stderr, err)
		os.Exit(errors.ExitCode(err))
	}
}
