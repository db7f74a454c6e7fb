package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether v is an open terminal. Only values with an Fd method
// such as *os.File can be; buffers and pipes in tests never are.
func IsTTY(v any) bool {
	f, ok := v.(interface{ Fd() uintptr })
	return ok && term.IsTerminal(int(f.Fd()))
}

// SupportsColor reports whether ANSI colors may be written to w: w must be a
// terminal, NO_COLOR (https://no-color.org) unset and TERM not "dumb".
func SupportsColor(w io.Writer) bool {
	return colorAllowed(os.LookupEnv) && IsTTY(w)
}

func colorAllowed(lookup func(string) (string, bool)) bool {
	if _, set := lookup("NO_COLOR"); set {
		return false
	}
	if v, _ := lookup("TERM"); v == "dumb" {
		return false
	}
	return true
}
