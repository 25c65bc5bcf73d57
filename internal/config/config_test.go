package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sprint-tracker/internal/domain"
)

// writeEnv stores body as a .env file. Reading it exports its variables, so
// they are removed again when the test ends.
func writeEnv(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "local.env")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	for _, line := range strings.Split(body, "\n") {
		key, _, ok := strings.Cut(strings.TrimSpace(line), "=")
		if ok {
			t.Cleanup(func() { _ = os.Unsetenv(key) })
		}
	}
	return path
}

func TestNew(t *testing.T) {
	path := writeEnv(t, `
STORAGE_DRIVER=memory
HTTP_HOST=0.0.0.0
HTTP_PORT=8080
HTTP_TIMEOUT=3s
SCHEDULER_DAILY_SWEEP_SPEC=30 5 * * *
TRACKER_TIMEZONE=Europe/Berlin
NOTIFY_SINK=webhook
NOTIFY_WEBHOOK_URL=http://hooks.local/tracker
DEFAULT_COMPLETION_POLICY=UNASSIGN
`)

	cfg, err := New(path)
	require.NoError(t, err)

	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, 10*time.Second, cfg.HTTP.ShutdownTimeout)
	assert.Equal(t, "30 5 * * *", cfg.Scheduler.DailySweepSpec)
	assert.Equal(t, "0 9 * * *", cfg.Scheduler.ReminderSpec)
	assert.Equal(t, "Europe/Berlin", cfg.Scheduler.Timezone)
	assert.Equal(t, "Europe/Berlin", cfg.Service.Timezone)
	assert.Equal(t, "webhook", cfg.Notify.Sink)
	assert.Equal(t, domain.PolicyUnassign, cfg.Service.DefaultCompletionPolicy)
	assert.Equal(t, 2, cfg.Service.ReminderLookAheadDays)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestNewRejectsUnknownStorage(t *testing.T) {
	path := writeEnv(t, "STORAGE_DRIVER=sqlite\nHTTP_HOST=localhost\nHTTP_PORT=8080\nHTTP_TIMEOUT=1s\n")

	_, err := New(path)
	assert.Error(t, err)
}

func TestNewPostgresRequiresConnection(t *testing.T) {
	path := writeEnv(t, "POSTGRES_HOST=db\n")

	_, err := NewPostgres(path)
	assert.Error(t, err)

	path = writeEnv(t, `
POSTGRES_HOST=db
POSTGRES_PORT=5432
POSTGRES_USER=tracker
POSTGRES_PASSWORD=secret
POSTGRES_DATABASE=tracker
`)
	cfg, err := NewPostgres(path)
	require.NoError(t, err)
	assert.Equal(t, "db", cfg.Host)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, 10, cfg.MaxConns)
}
