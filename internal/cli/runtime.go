package cli

import (
	"context"
	"log/slog"

	"github.com/spf13/afero"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/event"
	"github.com/thoreinstein/snapkeep/internal/job"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/metrics"
	"github.com/thoreinstein/snapkeep/internal/paths"
)

type configKey struct{}

// NewContext returns a copy of ctx carrying cfg.
func NewContext(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// ConfigFromContext returns the configuration stored in ctx, or nil.
func ConfigFromContext(ctx context.Context) *config.Config {
	if ctx == nil {
		return nil
	}
	cfg, _ := ctx.Value(configKey{}).(*config.Config)
	return cfg
}

// LoadConfig loads the configuration at path, or searches the default
// locations when path is empty. Failures exit with the user error code.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	return cfg, nil
}

// NewRunner builds a job runner for cfg. Metrics are collected only when a
// textfile is configured.
func NewRunner(cfg *config.Config, logger *slog.Logger, dryRun bool) (*job.Runner, error) {
	opts := []job.Option{
		job.WithLogger(logger),
		job.WithDryRun(dryRun),
	}

	if cfg.Metrics.Textfile != "" {
		path, err := paths.Resolve(cfg.Metrics.Textfile, cfg.BaseDir())
		if err != nil {
			return nil, errors.NewConfigError(errors.Mark(errors.Wrap(err, config.KeyMetricsTextfile), errors.ErrConfig))
		}
		opts = append(opts, job.WithMetrics(metrics.NewCollector(nil), path))
	}

	return job.NewRunner(opts...), nil
}

// Runtime returns the configuration stored in ctx and a runner logging to the
// context's logger.
func Runtime(ctx context.Context, dryRun bool) (*config.Config, *job.Runner, error) {
	cfg := ConfigFromContext(ctx)
	if cfg == nil {
		return nil, nil, errors.NewConfigError(errors.Wrap(errors.ErrConfig, "configuration not loaded"))
	}
	runner, err := NewRunner(cfg, logging.FromContext(ctx), dryRun)
	if err != nil {
		return nil, nil, err
	}
	return cfg, runner, nil
}

// SettingsError wraps a settings resolution failure for the exit code mapping.
func SettingsError(err error) error {
	if err == nil {
		return nil
	}
	return errors.NewConfigError(err)
}

// JobError maps the outcome of a job to the error the command returns.
// failed is the number of entries that could not be processed.
func JobError(name string, status event.Status, failed int, err error) error {
	if err != nil {
		if errors.Is(err, errors.ErrConfig) {
			return errors.NewConfigError(err)
		}
		return errors.NewSystemError(err, "")
	}
	if status == event.StatusCompletedWithErrors {
		return errors.NewPartialError(errors.Wrapf(errors.ErrCompletedWithErrors, "%s: %d entries failed", name, failed))
	}
	return nil
}

// WriteReport writes the job report when path is set. A report that cannot
// be written is logged; it never changes the job's exit code.
func WriteReport(logger *slog.Logger, path string, v any) {
	if path == "" {
		return
	}
	if err := job.WriteReport(afero.NewOsFs(), path, v); err != nil {
		logger.Error("failed to write report", "path", path, "error", err)
		return
	}
	logger.Debug("report written", "path", path)
}
