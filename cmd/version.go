// Package cmd holds the release identity of the snapkeep binary.
package cmd

import "runtime/debug"

// Set with -ldflags "-X github.com/thoreinstein/snapkeep/cmd.Version=...".
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

// Revision returns Commit, or the VCS revision recorded by the go tool when
// the binary was built without ldflags. A "-dirty" suffix marks a build from
// a modified tree.
func Revision() string {
	if Commit != "none" && Commit != "" {
		return Commit
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return Commit
	}
	return revisionFrom(info.Settings, Commit)
}

func revisionFrom(settings []debug.BuildSetting, fallback string) string {
	var rev string
	var dirty bool
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return fallback
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
