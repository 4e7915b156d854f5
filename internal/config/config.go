package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/example/pnp/internal/db"
)

// CurrentVersion is written into new config files.
const CurrentVersion = "1"

// Config represents the .pnp/config.yaml of a working directory
type Config struct {
	Version  string `yaml:"version"`
	Database string `yaml:"database,omitempty"`  // sqlite site path
	Web      string `yaml:"web,omitempty"`       // server-relative target web
	LogLevel string `yaml:"log_level,omitempty"` // debug, info, warning, error
	Verbose  bool   `yaml:"verbose,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Version:  CurrentVersion,
		Web:      "/",
		LogLevel: "info",
	}
}

// LoadConfig reads .pnp/config.yaml from the specified directory.
// A missing file yields Default(); unset keys fall back to their defaults.
func LoadConfig(dir string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(dir, ".pnp", "config.yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Web == "" {
		cfg.Web = "/"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return cfg, nil
}

// SaveConfig writes config.yaml to directory
func SaveConfig(dir string, cfg *Config) error {
	pnpDir := filepath.Join(dir, ".pnp")
	if err := os.MkdirAll(pnpDir, 0755); err != nil {
		return fmt.Errorf("failed to create .pnp dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(pnpDir, "config.yaml")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DatabasePath returns the configured database path, or the default one.
func (c *Config) DatabasePath() (string, error) {
	if c.Database != "" {
		return c.Database, nil
	}
	return DefaultDatabasePath()
}

// DefaultDatabasePath returns the default sqlite site location.
func DefaultDatabasePath() (string, error) {
	return db.DefaultPath()
}
