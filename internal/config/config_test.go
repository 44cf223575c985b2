package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("BOT_TOKEN", "123:abc")
	t.Setenv("CWA_API_KEY", "CWA-TEST")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.BotToken)
	assert.Equal(t, "CWA-TEST", cfg.CWAAPIKey)
	assert.Equal(t, "https://opendata.cwa.gov.tw/api/v1/rest/datastore", cfg.CWABaseURL)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "sqlite", cfg.StorageBackend)
	assert.Equal(t, "./data/settings.db", cfg.DBPath)
	assert.Equal(t, "Local", cfg.Timezone)
	assert.Equal(t, "臺北市", cfg.DefaultRegion)
	assert.Equal(t, "gocron", cfg.SchedulerBackend)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoad_CustomEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://bot@localhost/digest")
	t.Setenv("TIMEZONE", "Asia/Taipei")
	t.Setenv("DEFAULT_REGION", "高雄市")
	t.Setenv("SCHEDULER_BACKEND", "clock")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.StorageBackend)
	assert.Equal(t, "postgres://bot@localhost/digest", cfg.PostgresDSN)
	assert.Equal(t, "高雄市", cfg.DefaultRegion)
	assert.Equal(t, "clock", cfg.SchedulerBackend)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "Asia/Taipei", cfg.Location().String())
}

func TestLoad_MissingToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	require.NoError(t, os.Unsetenv("BOT_TOKEN"))
	t.Setenv("CWA_API_KEY", "CWA-TEST")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BOT_TOKEN")
}

func TestLoad_PostgresWithoutDSN(t *testing.T) {
	setRequired(t)
	t.Setenv("STORAGE_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_DSN")
}

func TestLoad_UnknownRegion(t *testing.T) {
	setRequired(t)
	t.Setenv("DEFAULT_REGION", "Springfield")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFAULT_REGION")
}

func TestLoad_InvalidTimezone(t *testing.T) {
	setRequired(t)
	t.Setenv("TIMEZONE", "Mars/Olympus")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TIMEZONE")
}

func TestLoad_InvalidSchedulerBackend(t *testing.T) {
	setRequired(t)
	t.Setenv("SCHEDULER_BACKEND", "cron")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SCHEDULER_BACKEND")
}

func TestLoad_InvalidDuration(t *testing.T) {
	setRequired(t)
	t.Setenv("HTTP_TIMEOUT", "soon")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_TIMEOUT")
}
