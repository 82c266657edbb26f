package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"NUDGEKIT_STORAGE", "NUDGEKIT_DB", "NUDGEKIT_REDIS_ADDR", "NUDGEKIT_REDIS_DB", "NUDGEKIT_LOG_LEVEL", "NUDGEKIT_CONFIG"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	d, err := cfg.Scheduler.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, 300*time.Millisecond, d)
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
storage:
  driver: redis
  redis_addr: cache:6379
  redis_db: 2
scheduler:
  debounce: 1s
  exit_delay: 150ms
  history_cap: 50
  timezone: America/New_York
logging:
  level: debug
  format: json
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, "cache:6379", cfg.Storage.RedisAddr)
	assert.Equal(t, 2, cfg.Storage.RedisDB)
	assert.Equal(t, "nudgekit:", cfg.Storage.KeyPrefix, "unset fields keep defaults")
	assert.Equal(t, 50, cfg.Scheduler.HistoryCap)
	assert.Equal(t, "json", cfg.Logging.Format)

	exit, err := cfg.Scheduler.ExitDelayDuration()
	require.NoError(t, err)
	assert.Equal(t, 150*time.Millisecond, exit)

	loc, err := cfg.Scheduler.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "storage:\n  driver: sqlite\n")
	t.Setenv("NUDGEKIT_STORAGE", "memory")
	t.Setenv("NUDGEKIT_DB", "/tmp/x.db")
	t.Setenv("NUDGEKIT_REDIS_DB", "5")
	t.Setenv("NUDGEKIT_LOG_LEVEL", "error")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
	assert.Equal(t, "/tmp/x.db", cfg.Storage.Path)
	assert.Equal(t, 5, cfg.Storage.RedisDB)
	assert.Equal(t, "error", cfg.Logging.Level)

	t.Setenv("NUDGEKIT_REDIS_DB", "five")
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"redis without addr", func(c *Config) { c.Storage.Driver = "redis"; c.Storage.RedisAddr = "" }},
		{"bad debounce", func(c *Config) { c.Scheduler.Debounce = "fast" }},
		{"negative exit delay", func(c *Config) { c.Scheduler.ExitDelay = "-1s" }},
		{"negative cap", func(c *Config) { c.Scheduler.HistoryCap = -1 }},
		{"bad timezone", func(c *Config) { c.Scheduler.Timezone = "Mars/Olympus" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "storage: [unclosed\n")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaultPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	t.Setenv("XDG_CONFIG_HOME", dir)
	got, err := DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "nudgekit", "config.yaml"), got)

	t.Setenv("NUDGEKIT_CONFIG", "/etc/nudgekit.yaml")
	got, err = DefaultPath()
	require.NoError(t, err)
	assert.Equal(t, "/etc/nudgekit.yaml", got)
}
