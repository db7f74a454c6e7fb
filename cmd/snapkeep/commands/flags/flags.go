// Package flags provides shared flag accessors for CLI commands.
// This package exists to avoid import cycles between the root command
// and noun subpackages (snapshot).
package flags

var (
	dryRun     bool
	reportPath string
)

// DryRun reports whether --dry-run was given.
func DryRun() bool {
	return dryRun
}

// SetDryRun sets the dry-run flag value.
// This is used by the root command to set the flag value after parsing.
func SetDryRun(v bool) {
	dryRun = v
}

// ReportPath returns the value of the --report flag.
func ReportPath() string {
	return reportPath
}

// SetReportPath sets the report flag value.
func SetReportPath(path string) {
	reportPath = path
}
