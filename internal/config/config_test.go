package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Listen != ":4000" {
		t.Errorf("expected default listen :4000, got %q", cfg.Listen)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %v", cfg.SessionTTL)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Listen != ":4000" {
		t.Errorf("expected defaults for a missing file, got %q", cfg.Listen)
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("listen: \":9000\"\nredis_addr: \"localhost:6379\"\nsession_ttl: \"1h\"\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Listen != ":9000" {
		t.Errorf("expected listen :9000, got %q", cfg.Listen)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("expected redis addr, got %q", cfg.RedisAddr)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected TTL 1h, got %v", cfg.SessionTTL)
	}
	// Unset fields keep their defaults.
	if cfg.DBPath != "letzchat.db" {
		t.Errorf("expected default db path, got %q", cfg.DBPath)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: \":9000\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("LISTEN_ADDR", ":7777")
	t.Setenv("DB_PATH", "/tmp/test.db")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	if cfg.Listen != ":7777" {
		t.Errorf("expected env to win, got %q", cfg.Listen)
	}
	if cfg.DBPath != "/tmp/test.db" {
		t.Errorf("expected env db path, got %q", cfg.DBPath)
	}
}

func TestLoadBadTTL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("session_ttl: \"soon\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected an error for an unparseable TTL")
	}
}
