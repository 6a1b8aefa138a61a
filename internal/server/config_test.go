package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "taskhubd.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfigFile(t, "jwt_secret: s3cret\n")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8787" || cfg.Database != "taskhub.db" {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.TokenTTL != 24*time.Hour {
		t.Errorf("TokenTTL = %v, want 24h", cfg.TokenTTL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfigFile(t, `
addr: ":9999"
database: /tmp/other.db
jwt_secret: s3cret
token_ttl: 30m
log_level: debug
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9999" || cfg.Database != "/tmp/other.db" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v", cfg.TokenTTL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	path := writeConfigFile(t, "addr: \":9999\"\njwt_secret: from-file\n")
	t.Setenv("TASKHUBD_ADDR", ":7777")
	t.Setenv("TASKHUBD_JWT_SECRET", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":7777" {
		t.Errorf("Addr = %q, env should win", cfg.Addr)
	}
	if cfg.JWTSecret != "from-env" {
		t.Errorf("JWTSecret = %q, env should win", cfg.JWTSecret)
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("TASKHUBD_JWT_SECRET", "")
	if _, err := LoadConfig(""); err == nil {
		t.Error("missing jwt_secret should be an error")
	}

	path := writeConfigFile(t, "token_ttl: bogus\njwt_secret: s3cret\n")
	if _, err := LoadConfig(path); err == nil {
		t.Error("invalid token_ttl should be an error")
	}
}
