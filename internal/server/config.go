package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds taskhubd settings.
type Config struct {
	// Addr is the listen address.
	Addr string

	// Database is the SQLite database path.
	Database string

	// JWTSecret signs session tokens.
	JWTSecret string

	// TokenTTL is the session token lifetime.
	TokenTTL time.Duration

	// LogLevel is the minimum log level (debug, info, warn, error).
	LogLevel string
}

type configFile struct {
	Addr      string `yaml:"addr"`
	Database  string `yaml:"database"`
	JWTSecret string `yaml:"jwt_secret"`
	TokenTTL  string `yaml:"token_ttl"`
	LogLevel  string `yaml:"log_level"`
}

// LoadConfig reads the YAML config file at path (optional, "" skips it)
// and applies environment overrides: TASKHUBD_ADDR, TASKHUBD_DATABASE,
// TASKHUBD_JWT_SECRET.
func LoadConfig(path string) (Config, error) {
	cfg := Config{
		Addr:     ":8787",
		Database: "taskhub.db",
		TokenTTL: 24 * time.Hour,
		LogLevel: "info",
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		var f configFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return Config{}, fmt.Errorf("invalid config file: %w", err)
		}
		if f.Addr != "" {
			cfg.Addr = f.Addr
		}
		if f.Database != "" {
			cfg.Database = f.Database
		}
		if f.JWTSecret != "" {
			cfg.JWTSecret = f.JWTSecret
		}
		if f.LogLevel != "" {
			cfg.LogLevel = f.LogLevel
		}
		if f.TokenTTL != "" {
			ttl, err := time.ParseDuration(f.TokenTTL)
			if err != nil {
				return Config{}, fmt.Errorf("invalid token_ttl: %w", err)
			}
			cfg.TokenTTL = ttl
		}
	}

	if v := os.Getenv("TASKHUBD_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("TASKHUBD_DATABASE"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("TASKHUBD_JWT_SECRET"); v != "" {
		cfg.JWTSecret = v
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt_secret is required (config file or TASKHUBD_JWT_SECRET)")
	}
	return cfg, nil
}
