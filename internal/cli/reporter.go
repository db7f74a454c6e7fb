package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/internal/job"
)

// Format specifies the output format for job reports.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// Reporter writes job summaries to the terminal.
type Reporter struct {
	out    io.Writer
	format Format
}

// NewReporter creates a new Reporter.
func NewReporter(out io.Writer, format Format) *Reporter {
	return &Reporter{
		out:    out,
		format: format,
	}
}

// Backup writes the summary of a backup run.
func (r *Reporter) Backup(rep *job.BackupReport) error {
	if rep == nil {
		return nil
	}
	if r.format == FormatJSON {
		return r.json(rep)
	}

	r.header(rep.Header)
	if rep.Snapshot != "" {
		r.line("snapshot", rep.Snapshot)
	}
	if rep.Prune != nil {
		r.line("pruned", fmt.Sprintf("%d", len(rep.Prune.Deleted)))
		r.line("kept", fmt.Sprintf("%d", rep.Prune.Kept))
		for _, s := range rep.Prune.Skipped {
			r.issue(color.FgYellow, s, "skipped")
		}
		for _, f := range rep.Prune.Failed {
			r.issue(color.FgRed, f.Path, f.Reason)
		}
	}
	return nil
}

// Mirror writes the summary of a mirror run.
func (r *Reporter) Mirror(rep *job.MirrorReport) error {
	if rep == nil {
		return nil
	}
	if r.format == FormatJSON {
		return r.json(rep)
	}

	r.header(rep.Header)
	if s := rep.Sync; s != nil {
		r.line("deleted", fmt.Sprintf("%d", s.Deleted))
		r.line("copied", fmt.Sprintf("%d files, %d dirs, %d bytes", s.Copied, s.Dirs, s.Bytes))
		if s.Skipped > 0 {
			r.line("skipped", fmt.Sprintf("%d", s.Skipped))
		}
		for _, f := range s.Failures {
			r.issue(color.FgRed, f.Path, string(f.Op)+": "+f.Reason)
		}
	}
	return nil
}

// Restore writes the summary of a restore.
func (r *Reporter) Restore(rep *job.RestoreReport) error {
	if rep == nil {
		return nil
	}
	if r.format == FormatJSON {
		return r.json(rep)
	}

	r.header(rep.Header)
	if rep.Snapshot != "" {
		r.line("restored", rep.Snapshot)
	}
	r.line("target", rep.Target)
	if rep.SafetySnapshot != "" {
		r.line("safety copy", rep.SafetySnapshot)
	}
	return nil
}

func (r *Reporter) json(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return errors.Wrap(encoder.Encode(v), "encoding JSON report")
}

func (r *Reporter) header(h job.Header) {
	var mark string
	switch h.Status {
	case event.StatusSuccess:
		mark = color.GreenString("✓ %s succeeded", h.Job)
	case event.StatusCompletedWithErrors:
		mark = color.YellowString("! %s completed with errors", h.Job)
	default:
		mark = color.RedString("✗ %s failed", h.Job)
	}
	if h.DryRun {
		mark += color.New(color.FgHiBlack).Sprint(" (dry run)")
	}
	fmt.Fprintln(r.out, mark)
}

func (r *Reporter) line(label, value string) {
	fmt.Fprintf(r.out, "  %-12s %s\n", label+":", value)
}

func (r *Reporter) issue(c color.Attribute, path, reason string) {
	printer := color.New(c).SprintFunc()
	fmt.Fprintf(r.out, "  • %s %s\n", printer(path), color.New(color.FgHiBlack).Sprintf("(%s)", reason))
}

// PrintError writes err for a human, listing every invalid configuration key
// and the suggestion attached to an exit error.
func PrintError(w io.Writer, err error) {
	if err == nil {
		return
	}

	var verr *config.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(w, color.RedString("Error: invalid configuration"))
		for _, f := range verr.Fields {
			fmt.Fprintf(w, "  • %s: %s", color.New(color.FgRed).Sprint(f.Key), f.Reason)
			if f.Value != nil && f.Value != "" {
				val := fmt.Sprintf("%v", f.Value)
				if len(val) > 50 {
					val = val[:47] + "..."
				}
				fmt.Fprint(w, color.New(color.FgHiBlack).Sprintf(" [%s]", val))
			}
			fmt.Fprintln(w)
		}
	} else {
		fmt.Fprintf(w, "%s %s\n", color.RedString("Error:"), err.Error())
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) && exitErr.Suggestion != "" {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgHiBlack).Sprint("Hint:"), exitErr.Suggestion)
	} else if hint := strings.TrimSpace(errors.FlattenHints(err)); hint != "" {
		fmt.Fprintf(w, "%s %s\n", color.New(color.FgHiBlack).Sprint("Hint:"), hint)
	}
}
