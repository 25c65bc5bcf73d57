// Package scheduler triggers the sprint sweeps on a cron cadence. It holds no
// business logic: each tick calls one of the service's sweep entry points.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"sprint-tracker/internal/service"
)

type Config struct {
	DailySweepSpec string `env:"SCHEDULER_DAILY_SWEEP_SPEC" env-default:"0 6 * * *"`
	ReminderSpec   string `env:"SCHEDULER_REMINDER_SPEC" env-default:"0 9 * * *"`
	Timezone       string `env:"TRACKER_TIMEZONE" env-default:"UTC"`
	RunOnStart     bool   `env:"SCHEDULER_RUN_ON_START" env-default:"true"`
}

type Sweeper interface {
	RunDailySweep(ctx context.Context) service.SweepResult
	RunReminderSweep(ctx context.Context) service.SweepResult
}

type Scheduler struct {
	cron       *cron.Cron
	sweeper    Sweeper
	logger     *zap.Logger
	runOnStart bool

	// mu keeps the two sweeps from overlapping each other.
	mu  sync.Mutex
	ctx context.Context
}

func New(config *Config, sweeper Sweeper, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", config.Timezone, err)
	}

	cl := cronLogger{logger: logger.Sugar()}
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		sweeper:    sweeper,
		logger:     logger,
		runOnStart: config.RunOnStart,
		ctx:        context.Background(),
	}

	_, err = s.cron.AddFunc(config.DailySweepSpec, s.runDailySweep)
	if err != nil {
		return nil, fmt.Errorf("invalid daily sweep spec %q: %w", config.DailySweepSpec, err)
	}

	_, err = s.cron.AddFunc(config.ReminderSpec, s.runReminderSweep)
	if err != nil {
		return nil, fmt.Errorf("invalid reminder spec %q: %w", config.ReminderSpec, err)
	}

	return s, nil
}

// Start schedules the sweeps. Jobs run with ctx until Stop is called. When
// RunOnStart is set, a daily sweep runs once before Start returns so a
// restarted process catches up on missed transitions.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	if s.runOnStart {
		s.runDailySweep()
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.cron.Entries())))
}

// Stop prevents new runs and waits for a running sweep to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.logger.Info("scheduler stopped")
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out", zap.Error(ctx.Err()))
	}
}

func (s *Scheduler) runDailySweep() {
	s.run("daily sweep", s.sweeper.RunDailySweep)
}

func (s *Scheduler) runReminderSweep() {
	s.run("reminder sweep", s.sweeper.RunReminderSweep)
}

func (s *Scheduler) run(job string, sweep func(context.Context) service.SweepResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	started := time.Now()
	result := sweep(s.ctx)

	fields := []zap.Field{
		zap.String("job", job),
		zap.Int("processed", result.Processed),
		zap.Int("changed", result.Changed),
		zap.Int("failed", len(result.Failures)),
		zap.Duration("duration", time.Since(started)),
	}
	if len(result.Failures) > 0 {
		s.logger.Warn("sweep finished with failures", append(fields, zap.Error(result.Err()))...)
		return
	}
	s.logger.Info("sweep finished", fields...)
}

// cronLogger routes cron's own messages into zap.
type cronLogger struct {
	logger *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Errorw(msg, append(keysAndValues, "error", err)...)
}
