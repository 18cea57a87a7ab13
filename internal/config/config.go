// Package config loads masterybox settings from defaults, an optional YAML
// file, an optional .env file and MASTERYBOX_ environment variables, in
// that order of precedence (last wins).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"masterybox/internal/cdragon"
	"masterybox/internal/logging"
	"masterybox/internal/procwatch"
)

const (
	EnvPrefix = "MASTERYBOX_"

	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

type Config struct {
	LogLevel            string        `yaml:"log_level" env:"LOG_LEVEL"`
	ProcessName         string        `yaml:"process_name" env:"PROCESS_NAME"`
	ProcessPollInterval time.Duration `yaml:"process_poll_interval" env:"PROCESS_POLL_INTERVAL"`
	ServerRetryInterval time.Duration `yaml:"server_retry_interval" env:"SERVER_RETRY_INTERVAL"`
	AuthPollInterval    time.Duration `yaml:"auth_poll_interval" env:"AUTH_POLL_INTERVAL"`
	CacheDir            string        `yaml:"cache_dir" env:"CACHE_DIR"`
	CacheBackend        string        `yaml:"cache_backend" env:"CACHE_BACKEND"`
	CDragonBaseURL      string        `yaml:"cdragon_base_url" env:"CDRAGON_BASE_URL"`
	CDragonVersion      string        `yaml:"cdragon_version" env:"CDRAGON_VERSION"`
	HTTPTimeout         time.Duration `yaml:"http_timeout" env:"HTTP_TIMEOUT"`
}

func Default() Config {
	return Config{
		LogLevel:            logging.LevelInfo,
		ProcessName:         procwatch.DefaultExecutable,
		ProcessPollInterval: time.Second,
		ServerRetryInterval: time.Second,
		AuthPollInterval:    100 * time.Millisecond,
		CacheDir:            "cache",
		CacheBackend:        BackendJSON,
		CDragonBaseURL:      cdragon.DefaultBaseURL,
		CDragonVersion:      cdragon.DefaultVersion,
		HTTPTimeout:         10 * time.Second,
	}
}

// Load reads path (may be empty or missing) and ./.env, then applies
// environment overrides and validates the result.
func Load(path string) (Config, error) {
	return load(path, ".env")
}

func load(path, dotenv string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load %s: %w", dotenv, err)
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	intervals := map[string]time.Duration{
		"process_poll_interval": c.ProcessPollInterval,
		"server_retry_interval": c.ServerRetryInterval,
		"auth_poll_interval":    c.AuthPollInterval,
		"http_timeout":          c.HTTPTimeout,
	}
	for name, d := range intervals {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}
	switch c.CacheBackend {
	case BackendJSON, BackendSQLite:
	default:
		return fmt.Errorf("unknown cache_backend %q", c.CacheBackend)
	}
	if c.ProcessName == "" {
		return fmt.Errorf("process_name is required")
	}
	return nil
}

// SQLitePath is where the sqlite cache backend keeps its database.
func (c Config) SQLitePath() string {
	return filepath.Join(c.CacheDir, "masterybox.db")
}
