package job

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/internal/mirror"
	"github.com/thoreinstein/snapkeep/internal/retention"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// Header is shared by every job report.
type Header struct {
	RunID    string       `json:"run_id" yaml:"run_id"`
	Job      string       `json:"job" yaml:"job"`
	DryRun   bool         `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	Status   event.Status `json:"status" yaml:"status"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
	Started  time.Time    `json:"started" yaml:"started"`
	Finished time.Time    `json:"finished" yaml:"finished"`
}

func (h *Header) fatal(err error) {
	h.Status = event.StatusFailed
	h.Error = err.Error()
}

// BackupReport is the outcome of one backup run.
type BackupReport struct {
	Header `yaml:",inline"`

	Source        string            `json:"source" yaml:"source"`
	BackupDir     string            `json:"backup_dir" yaml:"backup_dir"`
	RetentionDays int               `json:"retention_days" yaml:"retention_days"`
	Snapshot      string            `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Prune         *retention.Result `json:"prune,omitempty" yaml:"prune,omitempty"`
}

// Err returns the joined prune failures, or nil.
func (r *BackupReport) Err() error {
	if r.Prune == nil {
		return nil
	}
	return r.Prune.Err()
}

// MirrorReport is the outcome of one mirror run.
type MirrorReport struct {
	Header `yaml:",inline"`

	Sync *mirror.Report `json:"sync,omitempty" yaml:"sync,omitempty"`
}

// Err returns the joined entry failures, or nil.
func (r *MirrorReport) Err() error {
	if r.Sync == nil {
		return nil
	}
	return r.Sync.Err()
}

// RestoreReport is the outcome of one restore.
type RestoreReport struct {
	Header `yaml:",inline"`

	Snapshot       string `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
	Target         string `json:"target" yaml:"target"`
	SafetySnapshot string `json:"safety_snapshot,omitempty" yaml:"safety_snapshot,omitempty"`
}

// WriteReport writes v to path on fsys as JSON or YAML depending on the
// extension. The file is replaced atomically.
func WriteReport(fsys afero.Fs, path string, v any) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return fileutil.AtomicWriteJSON(fsys, path, v)
	case ".yaml", ".yml":
		return fileutil.AtomicWriteYAML(fsys, path, v)
	default:
		return errors.Wrapf(errors.ErrConfig, "report %s: unsupported extension (want .json, .yaml or .yml)", path)
	}
}
