// Package cli holds the glue shared by the snapkeep commands: loading the
// configuration, building a job runner from it, mapping job outcomes to exit
// codes and printing reports on the terminal.
package cli
