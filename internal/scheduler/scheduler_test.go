package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"sprint-tracker/internal/service"
)

type fakeSweeper struct {
	mu       sync.Mutex
	daily    int
	reminder int
	result   service.SweepResult
	ctx      context.Context
}

func (f *fakeSweeper) RunDailySweep(ctx context.Context) service.SweepResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.daily++
	f.ctx = ctx
	return f.result
}

func (f *fakeSweeper) RunReminderSweep(ctx context.Context) service.SweepResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reminder++
	f.ctx = ctx
	return f.result
}

func validConfig() *Config {
	return &Config{DailySweepSpec: "0 6 * * *", ReminderSpec: "0 9 * * *", Timezone: "UTC"}
}

func TestNewValidatesConfig(t *testing.T) {
	cfg := validConfig()
	cfg.DailySweepSpec = "every morning"
	_, err := New(cfg, &fakeSweeper{}, zap.NewNop())
	assert.Error(t, err)

	cfg = validConfig()
	cfg.ReminderSpec = "* *"
	_, err = New(cfg, &fakeSweeper{}, zap.NewNop())
	assert.Error(t, err)

	cfg = validConfig()
	cfg.Timezone = "Nowhere/Special"
	_, err = New(cfg, &fakeSweeper{}, zap.NewNop())
	assert.Error(t, err)

	s, err := New(validConfig(), &fakeSweeper{}, zap.NewNop())
	require.NoError(t, err)
	assert.Len(t, s.cron.Entries(), 2)
}

func TestJobsCallSweeper(t *testing.T) {
	sweeper := &fakeSweeper{}
	s, err := New(validConfig(), sweeper, zap.NewNop())
	require.NoError(t, err)

	s.runDailySweep()
	s.runReminderSweep()
	s.runReminderSweep()

	assert.Equal(t, 1, sweeper.daily)
	assert.Equal(t, 2, sweeper.reminder)
}

func TestStartRunsCatchUpSweep(t *testing.T) {
	sweeper := &fakeSweeper{}
	cfg := validConfig()
	cfg.RunOnStart = true
	s, err := New(cfg, sweeper, zap.NewNop())
	require.NoError(t, err)

	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "run")
	s.Start(ctx)
	s.Stop(context.Background())

	assert.Equal(t, 1, sweeper.daily)
	assert.Equal(t, "run", sweeper.ctx.Value(key{}))
}

func TestRunLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sweeper := &fakeSweeper{}
	s, err := New(validConfig(), sweeper, zap.New(core))
	require.NoError(t, err)

	s.runDailySweep()
	assert.Equal(t, 1, logs.FilterMessage("sweep finished").Len())

	sweeper.result = service.SweepResult{
		Processed: 2,
		Changed:   1,
		Failures:  []service.SweepFailure{{SprintID: "s1", Reason: "boom"}},
	}
	s.runReminderSweep()

	failed := logs.FilterMessage("sweep finished with failures").All()
	require.Len(t, failed, 1)
	assert.Equal(t, "reminder sweep", failed[0].ContextMap()["job"])
	assert.Equal(t, int64(1), failed[0].ContextMap()["failed"])
}
