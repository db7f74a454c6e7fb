package job

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/internal/metrics"
	"github.com/thoreinstein/snapkeep/internal/mirror"
	"github.com/thoreinstein/snapkeep/internal/retention"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
	"github.com/thoreinstein/snapkeep/internal/sqlitecheck"
)

// Job names used in logs, reports and metric labels.
const (
	NameBackup   = "backup"
	NameSnapshot = "snapshot"
	NamePrune    = "prune"
	NameMirror   = "mirror"
	NameRestore  = "restore"
)

// Runner wires the engines to logging, metrics and the clock.
type Runner struct {
	logger   *slog.Logger
	fs       afero.Fs
	sink     event.Sink
	metrics  *metrics.Collector
	textfile string
	now      func() time.Time
	newID    func() string
	dryRun   bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger events and summaries are written to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithFs sets the filesystem the engines operate on.
func WithFs(fsys afero.Fs) Option {
	return func(r *Runner) {
		r.fs = fsys
	}
}

// WithSink adds a sink receiving every event alongside the log.
func WithSink(s event.Sink) Option {
	return func(r *Runner) {
		r.sink = s
	}
}

// WithMetrics records job outcomes in c. When textfile is set the registry is
// written there after every job.
func WithMetrics(c *metrics.Collector, textfile string) Option {
	return func(r *Runner) {
		r.metrics = c
		r.textfile = textfile
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		r.now = now
	}
}

// WithDryRun reports what every job would do without touching the filesystem.
func WithDryRun(dryRun bool) Option {
	return func(r *Runner) {
		r.dryRun = dryRun
	}
}

// NewRunner creates a Runner on the OS filesystem.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		logger: slog.Default(),
		fs:     afero.NewOsFs(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// Backup takes a snapshot of the data file and prunes expired snapshots.
// A snapshot failure aborts the job before anything is deleted; prune failures
// leave the job completed with errors and are listed in the report.
func (r *Runner) Backup(ctx context.Context, s config.Settings) (*BackupReport, error) {
	return r.backup(ctx, s, NameBackup, true, true)
}

// Snapshot takes a snapshot without pruning.
func (r *Runner) Snapshot(ctx context.Context, s config.Settings) (*BackupReport, error) {
	return r.backup(ctx, s, NameSnapshot, true, false)
}

// Prune deletes the snapshots older than s.RetentionDays without taking a
// new one.
func (r *Runner) Prune(ctx context.Context, s config.Settings) (*BackupReport, error) {
	return r.backup(ctx, s, NamePrune, false, true)
}

func (r *Runner) backup(ctx context.Context, s config.Settings, name string, create, prune bool) (*BackupReport, error) {
	rep := &BackupReport{
		Header: Header{
			RunID:   r.newID(),
			Job:     name,
			DryRun:  r.dryRun,
			Started: r.now(),
		},
		Source:        s.SourceDataPath,
		BackupDir:     s.BackupDirectory,
		RetentionDays: s.RetentionDays,
	}
	logger := r.logger.With("job", name, "run_id", rep.RunID)
	sink := r.eventSink(logger)

	logger.Info(name+" started", "source", s.SourceDataPath, "backup_dir", s.BackupDirectory, "retention_days", s.RetentionDays)

	if create {
		engine := snapshot.NewEngine(
			snapshot.WithFs(r.fs),
			snapshot.WithSink(sink),
			snapshot.WithClock(r.now),
			snapshot.WithVerifier(r.verifier(s)),
			snapshot.WithDryRun(r.dryRun),
		)
		path, err := engine.Create(ctx, s.SourceDataPath, s.BackupDirectory)
		if err != nil {
			rep.fatal(err)
			r.finish(logger, &rep.Header)
			return rep, err
		}
		rep.Snapshot = path
	}

	attrs := []any{"snapshot", rep.Snapshot}
	if prune {
		pruner := retention.NewPruner(
			retention.WithFs(r.fs),
			retention.WithSink(sink),
			retention.WithDryRun(r.dryRun),
		)
		res, err := pruner.Prune(ctx, s.BackupDirectory, s.RetentionDays, r.now())
		if err != nil {
			rep.fatal(err)
			r.finish(logger, &rep.Header)
			return rep, err
		}
		rep.Prune = res
		rep.Status = res.Status()
		attrs = append(attrs,
			"pruned", len(res.Deleted),
			"kept", res.Kept,
			"failed", len(res.Failed),
		)
	}

	r.finish(logger, &rep.Header, attrs...)
	return rep, nil
}

// Mirror makes the destination directory an exact copy of the source.
// Only configuration and missing-source errors are returned; per-entry
// failures are in the report.
func (r *Runner) Mirror(ctx context.Context, s config.Settings) (*MirrorReport, error) {
	rep := &MirrorReport{
		Header: Header{
			RunID:   r.newID(),
			Job:     NameMirror,
			DryRun:  r.dryRun,
			Started: r.now(),
		},
	}
	logger := r.logger.With("job", NameMirror, "run_id", rep.RunID)
	sink := r.eventSink(logger)

	logger.Info("mirror started", "source", s.MirrorSourceDir, "dest", s.MirrorDestDir)

	syncer := mirror.New(
		mirror.WithFs(r.fs),
		mirror.WithSink(sink),
		mirror.WithDryRun(r.dryRun),
	)
	res, err := syncer.Sync(ctx, s.MirrorSourceDir, s.MirrorDestDir)
	rep.Sync = res
	if err != nil {
		rep.fatal(err)
		r.finish(logger, &rep.Header)
		return rep, err
	}
	rep.Status = res.Status()

	r.finish(logger, &rep.Header,
		"deleted", res.Deleted,
		"copied", res.Copied,
		"dirs", res.Dirs,
		"skipped", res.Skipped,
		"bytes", res.Bytes,
		"failed", len(res.Failures),
	)
	return rep, nil
}

// Restore copies the snapshot matching ref back over the data file. An empty
// ref selects the newest snapshot. The current data file, when present, is
// snapshotted first so a restore can itself be undone.
func (r *Runner) Restore(ctx context.Context, s config.Settings, ref string) (*RestoreReport, error) {
	rep := &RestoreReport{
		Header: Header{
			RunID:   r.newID(),
			Job:     NameRestore,
			DryRun:  r.dryRun,
			Started: r.now(),
		},
		Target: s.SourceDataPath,
	}
	logger := r.logger.With("job", NameRestore, "run_id", rep.RunID)
	sink := r.eventSink(logger)

	err := r.restore(ctx, s, ref, sink, rep)
	if err != nil {
		rep.fatal(err)
		r.finish(logger, &rep.Header)
		return rep, err
	}

	r.finish(logger, &rep.Header,
		"snapshot", rep.Snapshot,
		"safety_snapshot", rep.SafetySnapshot,
	)
	return rep, nil
}

func (r *Runner) restore(ctx context.Context, s config.Settings, ref string, sink event.Sink, rep *RestoreReport) error {
	info, err := snapshot.Resolve(r.fs, s.BackupDirectory, ref)
	if err != nil {
		return err
	}
	rep.Snapshot = info.Path

	engine := snapshot.NewEngine(
		snapshot.WithFs(r.fs),
		snapshot.WithSink(sink),
		snapshot.WithClock(r.now),
		snapshot.WithVerifier(r.verifier(s)),
		snapshot.WithDryRun(r.dryRun),
	)

	exists, err := afero.Exists(r.fs, s.SourceDataPath)
	if err != nil {
		return errors.NewIOError("stat", s.SourceDataPath, err)
	}
	if exists {
		// The safety copy is not verified: the file being replaced may be the
		// reason for the restore.
		safety := snapshot.NewEngine(
			snapshot.WithFs(r.fs),
			snapshot.WithSink(sink),
			snapshot.WithClock(r.now),
			snapshot.WithDryRun(r.dryRun),
		)
		path, err := safety.Create(ctx, s.SourceDataPath, s.BackupDirectory)
		if err != nil {
			return errors.Wrap(err, "safety snapshot")
		}
		rep.SafetySnapshot = path
	}

	return engine.Restore(ctx, info.Path, s.SourceDataPath)
}

func (r *Runner) eventSink(logger *slog.Logger) event.Sink {
	var counter event.Sink
	if r.metrics != nil {
		counter = r.metrics.Sink()
	}
	return event.Multi(event.NewLogSink(logger), r.sink, counter)
}

func (r *Runner) verifier(s config.Settings) snapshot.Verifier {
	if !s.VerifySQLite {
		return nil
	}
	return sqlitecheck.QuickCheck
}

// finish stamps the end time, logs the summary and publishes metrics. A
// textfile write failure is logged and does not change the job status.
func (r *Runner) finish(logger *slog.Logger, h *Header, attrs ...any) {
	h.Finished = r.now()

	attrs = append(attrs, "status", h.Status.String(), "duration", h.Finished.Sub(h.Started))
	switch h.Status {
	case event.StatusSuccess:
		logger.Info(h.Job+" finished", attrs...)
	case event.StatusCompletedWithErrors:
		logger.Warn(h.Job+" finished with errors", attrs...)
	default:
		logger.Error(h.Job+" failed", append(attrs, "error", h.Error)...)
	}

	if r.metrics == nil {
		return
	}
	r.metrics.ObserveJob(h.Job, h.Status, h.Started, h.Finished)
	if r.textfile == "" || r.dryRun {
		return
	}
	if err := r.metrics.WriteTextfile(r.textfile); err != nil {
		logger.Warn("failed to write metrics textfile", "path", r.textfile, "error", err)
	}
}
