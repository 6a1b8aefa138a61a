// Package config handles the XDG configuration directory and the stored
// credential files for the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/oauth2"

	"taskhub/internal/service"
)

const (
	// AppName is the application directory name.
	AppName = "taskhub"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// SessionFile is the cached session filename.
	SessionFile = "session.json"

	// DefaultServerURL is used when no server is configured.
	DefaultServerURL = "http://localhost:8787"

	// ServerEnv overrides the server URL when set.
	ServerEnv = "TASKHUB_SERVER"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// ServerURL is the base URL of the taskhubd server.
	ServerURL string

	// Quiet suppresses informational output.
	Quiet bool

	// Debug enables debug logging to stderr.
	Debug bool
}

// New creates a Config with the default or specified config directory.
// The server URL resolves flag > environment > default.
func New(configDir, serverURL string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	if serverURL == "" {
		serverURL = os.Getenv(ServerEnv)
	}
	if serverURL == "" {
		serverURL = DefaultServerURL
	}
	return &Config{Dir: dir, ServerURL: serverURL}, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// SessionPath returns the path to the cached session file.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// EnsureDir creates the config directory with mode 0700 if needed.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if a stored token exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// SaveToken writes the bearer token with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// LoadToken reads the stored bearer token.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}
	return &token, nil
}

// SaveSession caches the session info alongside the token.
func (c *Config) SaveSession(sess service.Session) error {
	if err := c.EnsureDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.SessionPath(), data, 0600)
}

// LoadSession reads the cached session, or nil when absent.
func (c *Config) LoadSession() (*service.Session, error) {
	data, err := os.ReadFile(c.SessionPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var sess service.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("invalid session file: %w", err)
	}
	return &sess, nil
}

// ClearCredentials removes the stored token and cached session.
// Missing files are not an error.
func (c *Config) ClearCredentials() error {
	if err := os.Remove(c.TokenPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := os.Remove(c.SessionPath()); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
