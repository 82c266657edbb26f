package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all nudgekit configuration.
type Config struct {
	Storage   StorageConfig   `yaml:"storage"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// StorageConfig selects where nudge history is persisted.
type StorageConfig struct {
	// Driver: sqlite, redis or memory.
	Driver    string `yaml:"driver"`
	Path      string `yaml:"path"` // sqlite file; empty = default data dir
	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
	KeyPrefix string `yaml:"key_prefix"`
}

// SchedulerConfig tunes the nudge scheduler.
type SchedulerConfig struct {
	Debounce    string `yaml:"debounce"`
	ExitDelay   string `yaml:"exit_delay"`
	HistoryCap  int    `yaml:"history_cap"`
	Timezone    string `yaml:"timezone"` // IANA name; empty = local
	CatalogFile string `yaml:"catalog_file"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"` // console or json
	Output      string `yaml:"output"` // stderr, stdout or a file path
	Development bool   `yaml:"development"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Storage: StorageConfig{
			Driver:    "sqlite",
			RedisAddr: "localhost:6379",
			KeyPrefix: "nudgekit:",
		},
		Scheduler: SchedulerConfig{
			Debounce:   "300ms",
			ExitDelay:  "300ms",
			HistoryCap: 100,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("NUDGEKIT_STORAGE"); v != "" {
		c.Storage.Driver = v
	}
	if v := os.Getenv("NUDGEKIT_DB"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("NUDGEKIT_REDIS_ADDR"); v != "" {
		c.Storage.RedisAddr = v
	}
	if v := os.Getenv("NUDGEKIT_REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("NUDGEKIT_REDIS_DB: %w", err)
		}
		c.Storage.RedisDB = n
	}
	if v := os.Getenv("NUDGEKIT_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration for values that cannot work.
func (c Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("storage.driver %q: must be sqlite, redis or memory", c.Storage.Driver)
	}
	if c.Storage.Driver == "redis" && c.Storage.RedisAddr == "" {
		return fmt.Errorf("storage.redis_addr is required for the redis driver")
	}
	if _, err := c.Scheduler.DebounceDuration(); err != nil {
		return err
	}
	if _, err := c.Scheduler.ExitDelayDuration(); err != nil {
		return err
	}
	if c.Scheduler.HistoryCap < 0 {
		return fmt.Errorf("scheduler.history_cap must not be negative")
	}
	if _, err := c.Scheduler.Location(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q: must be console or json", c.Logging.Format)
	}
	return nil
}

// DebounceDuration parses Debounce. Empty means zero (scheduler default).
func (s SchedulerConfig) DebounceDuration() (time.Duration, error) {
	return parseDuration("scheduler.debounce", s.Debounce)
}

// ExitDelayDuration parses ExitDelay. Empty means zero (scheduler default).
func (s SchedulerConfig) ExitDelayDuration() (time.Duration, error) {
	return parseDuration("scheduler.exit_delay", s.ExitDelay)
}

// Location resolves Timezone; empty selects time.Local.
func (s SchedulerConfig) Location() (*time.Location, error) {
	if s.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("scheduler.timezone: %w", err)
	}
	return loc, nil
}

func parseDuration(field, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("%s must not be negative", field)
	}
	return d, nil
}

// DefaultPath returns $XDG_CONFIG_HOME/nudgekit/config.yaml, falling back
// to ~/.config when XDG_CONFIG_HOME is unset.
func DefaultPath() (string, error) {
	if p := os.Getenv("NUDGEKIT_CONFIG"); p != "" {
		return p, nil
	}
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "nudgekit", "config.yaml"), nil
}
