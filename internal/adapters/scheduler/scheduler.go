// Package scheduler runs the periodic jobs: weekly event materialization and
// reaping of abandoned dialogue sessions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type weekMaterializer interface {
	EnsureCurrentWeek(ctx context.Context) error
}

type sessionReaper interface {
	Reap(maxIdle time.Duration) int
}

// Options configures the schedules. Specs use the standard five-field cron
// syntax and are evaluated in Location.
type Options struct {
	MaterializeSpec string
	ReaperSpec      string
	SessionIdle     time.Duration
	Location        *time.Location
	JobTimeout      time.Duration
}

type Scheduler struct {
	cron     *cron.Cron
	catalog  weekMaterializer
	sessions sessionReaper
	opts     Options
	logger   *slog.Logger

	baseCtx context.Context
}

func New(opts Options, catalog weekMaterializer, sessions sessionReaper, logger *slog.Logger) (*Scheduler, error) {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.JobTimeout <= 0 {
		opts.JobTimeout = time.Minute
	}
	s := &Scheduler{
		catalog:  catalog,
		sessions: sessions,
		opts:     opts,
		logger:   logger,
		baseCtx:  context.Background(),
	}
	s.cron = cron.New(
		cron.WithLocation(opts.Location),
		cron.WithLogger(cronLogger{logger}),
		cron.WithChain(cron.Recover(cronLogger{logger}), cron.SkipIfStillRunning(cronLogger{logger})),
	)
	if _, err := s.cron.AddFunc(opts.MaterializeSpec, s.materialize); err != nil {
		return nil, fmt.Errorf("scheduler: materialize spec %q: %w", opts.MaterializeSpec, err)
	}
	if _, err := s.cron.AddFunc(opts.ReaperSpec, s.reap); err != nil {
		return nil, fmt.Errorf("scheduler: reaper spec %q: %w", opts.ReaperSpec, err)
	}
	return s, nil
}

// Run starts the jobs and blocks until ctx is cancelled and running jobs end.
func (s *Scheduler) Run(ctx context.Context) error {
	s.baseCtx = ctx
	s.cron.Start()
	s.logger.Info("⏰ scheduler started", "jobs", len(s.cron.Entries()))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return nil
}

func (s *Scheduler) materialize() {
	ctx, cancel := context.WithTimeout(s.baseCtx, s.opts.JobTimeout)
	defer cancel()
	if err := s.catalog.EnsureCurrentWeek(ctx); err != nil {
		s.logger.Error("❌ weekly materialization failed", "error", err)
	}
}

func (s *Scheduler) reap() {
	if n := s.sessions.Reap(s.opts.SessionIdle); n > 0 {
		s.logger.Info("idle sessions reaped", "count", n)
	}
}

// cronLogger routes cron's own messages to slog.
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
