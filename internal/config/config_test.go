package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"TASKMANAGER_CONFIG", "TELEGRAM_TOKEN", "TELEGRAM_OWNER_ID", "DATABASE_URL",
	"REPORT_INTERVAL_HOURS", "REPORT_TIME", "AUTOSAVE_INTERVAL", "REFRESH_INTERVAL", "SEED_EXAMPLES",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Defaults(), cfg)
	assert.ErrorIs(t, cfg.RequireTelegram(), ErrMissingToken)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_TOKEN", " secret ")
	t.Setenv("TELEGRAM_OWNER_ID", "42")
	t.Setenv("DATABASE_URL", "data/tasks.db")
	t.Setenv("REPORT_INTERVAL_HOURS", "6")
	t.Setenv("REPORT_TIME", "07:45")
	t.Setenv("AUTOSAVE_INTERVAL", "30s")
	t.Setenv("REFRESH_INTERVAL", "2m")
	t.Setenv("SEED_EXAMPLES", "false")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "secret", cfg.TelegramToken)
	assert.Equal(t, int64(42), cfg.OwnerID)
	assert.Equal(t, "data/tasks.db", cfg.DatabaseURL)
	assert.Equal(t, 6*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "07:45", cfg.ReportTime)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, 2*time.Minute, cfg.RefreshInterval)
	assert.False(t, cfg.SeedExamples)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.NoError(t, cfg.RequireTelegram())
}

func TestLoadRejectsMalformedEnv(t *testing.T) {
	for key, value := range map[string]string{
		"TELEGRAM_OWNER_ID": "me",
		"REPORT_TIME":       "noon",
		"AUTOSAVE_INTERVAL": "often",
		"REFRESH_INTERVAL":  "-1s",
		"SEED_EXAMPLES":     "maybe",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.ErrorContains(t, err, key)
		})
	}
}

func TestLoadIgnoresBadReportInterval(t *testing.T) {
	clearEnv(t)
	t.Setenv("REPORT_INTERVAL_HOURS", "zero")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, cfg.ReportInterval)
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "taskmanager.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
seed-examples = false

[telegram]
token = "from-file"
owner-id = 7

[database]
url = "file.db"

[schedule]
report-interval-hours = 12
report-time = "21:00"
autosave = "15s"

[log]
format = "json"
`), 0o644))
	t.Setenv("TASKMANAGER_CONFIG", path)
	t.Setenv("DATABASE_URL", "env.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.TelegramToken)
	assert.Equal(t, int64(7), cfg.OwnerID)
	assert.Equal(t, "env.db", cfg.DatabaseURL)
	assert.Equal(t, 12*time.Hour, cfg.ReportInterval)
	assert.Equal(t, "21:00", cfg.ReportTime)
	assert.Equal(t, 15*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, time.Minute, cfg.RefreshInterval)
	assert.False(t, cfg.SeedExamples)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoadFileErrors(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[schedule\n"), 0o644))
	t.Setenv("TASKMANAGER_CONFIG", path)

	_, err := Load()
	assert.ErrorContains(t, err, "parse config file")
}
