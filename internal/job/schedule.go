package job

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// Scheduler runs jobs on cron schedules. Jobs never overlap: a job whose
// turn comes while another is still running is skipped for that tick.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger

	// run is held while a job executes.
	run sync.Mutex

	mu      sync.Mutex
	ctx     context.Context
	entries map[string]cron.EntryID
}

// NewScheduler creates a Scheduler logging to logger.
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "scheduler")

	cl := cronLogger{logger: logger}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl)),
		),
		logger:  logger,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
	}
}

// Add schedules fn under name using a standard five-field cron spec or a
// descriptor such as @daily. An empty spec is ignored.
func (s *Scheduler) Add(name, spec string, fn func(context.Context) error) error {
	if spec == "" {
		return nil
	}
	if _, err := cron.ParseStandard(spec); err != nil {
		return errors.Wrapf(errors.ErrConfig, "schedule.%s: invalid cron spec %q: %v", name, spec, err)
	}

	id, err := s.cron.AddFunc(spec, func() { s.runJob(name, fn) })
	if err != nil {
		return errors.Wrapf(err, "scheduling %s", name)
	}

	s.mu.Lock()
	s.entries[name] = id
	s.mu.Unlock()

	s.logger.Info("job scheduled", "job", name, "schedule", spec)
	return nil
}

// Len returns the number of scheduled jobs.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Next returns the next activation of the named job, or the zero time when
// it is not scheduled or the scheduler is not running.
func (s *Scheduler) Next(name string) time.Time {
	s.mu.Lock()
	id, ok := s.entries[name]
	s.mu.Unlock()
	if !ok {
		return time.Time{}
	}
	return s.cron.Entry(id).Next
}

// Run starts the scheduler and blocks until ctx is done. It then waits for a
// running job to finish before returning.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.Len() == 0 {
		return errors.Wrap(errors.ErrConfig, "no schedules configured")
	}

	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", s.Len())

	<-ctx.Done()

	s.logger.Info("scheduler stopping")
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

func (s *Scheduler) runJob(name string, fn func(context.Context) error) {
	if !s.run.TryLock() {
		s.logger.Warn("skipping run, another job is still running", "job", name)
		return
	}
	defer s.run.Unlock()

	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	if err := fn(ctx); err != nil {
		s.logger.Error("scheduled job failed", "job", name, "error", err)
	}
}

// cronLogger adapts slog to cron.Logger. Cron's Info messages are
// per-tick chatter and go to Debug.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
