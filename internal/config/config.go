// Package config loads server configuration from an optional YAML file
// with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the server configuration.
type Config struct {
	Listen     string
	RedisAddr  string
	DBPath     string
	StaticDir  string
	SessionTTL time.Duration
}

// fileConfig mirrors Config in the YAML file, with durations as strings.
type fileConfig struct {
	Listen     string `yaml:"listen"`
	RedisAddr  string `yaml:"redis_addr"`
	DBPath     string `yaml:"db_path"`
	StaticDir  string `yaml:"static_dir"`
	SessionTTL string `yaml:"session_ttl"`
}

// Default returns the configuration used when nothing is specified.
func Default() Config {
	return Config{
		Listen:     ":4000",
		DBPath:     "letzchat.db",
		StaticDir:  "web",
		SessionTTL: 24 * time.Hour,
	}
}

// Load builds the configuration: defaults, then the YAML file at path
// (skipped if path is empty or the file does not exist), then environment
// variables LISTEN_ADDR, REDIS_ADDR, DB_PATH and STATIC_DIR.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			var fc fileConfig
			if err := yaml.Unmarshal(data, &fc); err != nil {
				return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
			}
			if err := fc.apply(&cfg); err != nil {
				return Config{}, err
			}
		}
	}

	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("STATIC_DIR"); v != "" {
		cfg.StaticDir = v
	}

	return cfg, nil
}

func (fc *fileConfig) apply(cfg *Config) error {
	if fc.Listen != "" {
		cfg.Listen = fc.Listen
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	if fc.DBPath != "" {
		cfg.DBPath = fc.DBPath
	}
	if fc.StaticDir != "" {
		cfg.StaticDir = fc.StaticDir
	}
	if fc.SessionTTL != "" {
		ttl, err := time.ParseDuration(fc.SessionTTL)
		if err != nil {
			return fmt.Errorf("config: parse session_ttl: %w", err)
		}
		cfg.SessionTTL = ttl
	}
	return nil
}
