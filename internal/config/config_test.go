package config_test

import (
	"path/filepath"
	"testing"

	"golang.org/x/oauth2"

	"taskhub/internal/config"
	"taskhub/internal/service"
)

func TestDefaultConfigDirUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	got := config.DefaultConfigDir()
	want := filepath.Join("/tmp/xdg", config.AppName)
	if got != want {
		t.Errorf("DefaultConfigDir = %q, want %q", got, want)
	}
}

func TestServerURLResolution(t *testing.T) {
	t.Setenv(config.ServerEnv, "")
	cfg, err := config.New(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ServerURL != config.DefaultServerURL {
		t.Errorf("ServerURL = %q, want default", cfg.ServerURL)
	}

	t.Setenv(config.ServerEnv, "http://example.test:9000")
	cfg, _ = config.New(t.TempDir(), "")
	if cfg.ServerURL != "http://example.test:9000" {
		t.Errorf("ServerURL = %q, want env value", cfg.ServerURL)
	}

	cfg, _ = config.New(t.TempDir(), "http://flag.test")
	if cfg.ServerURL != "http://flag.test" {
		t.Errorf("ServerURL = %q, flag should win over env", cfg.ServerURL)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}

	if cfg.HasToken() {
		t.Fatal("HasToken true before save")
	}

	tok := &oauth2.Token{AccessToken: "abc123", TokenType: "Bearer"}
	if err := cfg.SaveToken(tok); err != nil {
		t.Fatalf("SaveToken: %v", err)
	}
	if !cfg.HasToken() {
		t.Fatal("HasToken false after save")
	}

	got, err := cfg.LoadToken()
	if err != nil {
		t.Fatalf("LoadToken: %v", err)
	}
	if got.AccessToken != "abc123" {
		t.Errorf("AccessToken = %q, want abc123", got.AccessToken)
	}
}

func TestSessionRoundTripAndClear(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}

	sess, err := cfg.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession on empty dir: %v", err)
	}
	if sess != nil {
		t.Fatal("expected nil session before save")
	}

	want := service.Session{UserID: "u1", Email: "a@b.c", DisplayName: "Alice"}
	if err := cfg.SaveSession(want); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	got, err := cfg.LoadSession()
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if got == nil || *got != want {
		t.Errorf("LoadSession = %+v, want %+v", got, want)
	}

	if err := cfg.SaveToken(&oauth2.Token{AccessToken: "x"}); err != nil {
		t.Fatal(err)
	}
	if err := cfg.ClearCredentials(); err != nil {
		t.Fatalf("ClearCredentials: %v", err)
	}
	if cfg.HasToken() {
		t.Error("token still present after clear")
	}
	// Clearing twice is fine.
	if err := cfg.ClearCredentials(); err != nil {
		t.Errorf("second ClearCredentials: %v", err)
	}
}
