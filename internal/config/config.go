// Package config handles configuration parsing for termhost.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/acolita/termhost/internal/ports"
)

// DefaultConfigPath returns the default config file path:
// $XDG_CONFIG_HOME/termhost/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "termhost", "config.yaml")
}

// DefaultDataDir returns the application-private data directory:
// $XDG_DATA_HOME/termhost.
func DefaultDataDir() string {
	return filepath.Join(xdg.DataHome, "termhost")
}

// Config represents the top-level configuration.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	Shell   ShellConfig   `yaml:"shell"`
	History HistoryConfig `yaml:"history"`
	Cwd     CwdConfig     `yaml:"cwd"`
	Logging LoggingConfig `yaml:"logging"`
}

// ShellConfig defines shell behavior settings.
type ShellConfig struct {
	Path string `yaml:"path"` // custom shell path (overrides $SHELL detection)
}

// HistoryConfig defines command history settings.
type HistoryConfig struct {
	MaxEntries int    `yaml:"max_entries"` // merged history bound
	File       string `yaml:"file"`        // shell history file override
}

// CwdConfig defines working-directory resolution settings.
type CwdConfig struct {
	CacheTTL time.Duration `yaml:"cache_ttl"` // per-session cwd cache TTL
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level     string `yaml:"level"`       // "debug", "info", "warn", "error"
	Sanitize  bool   `yaml:"sanitize"`    // sanitize sensitive data from logs
	File      string `yaml:"file"`        // optional rotating log file path
	MaxSizeMB int    `yaml:"max_size_mb"` // rotate threshold for the log file
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		History: HistoryConfig{
			MaxEntries: 5000,
		},
		Cwd: CwdConfig{
			CacheTTL: 500 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Sanitize:  true,
			MaxSizeMB: 20,
		},
	}
}

// Load loads configuration from a YAML file.
// An optional FileSystem can be passed for testing; if omitted, the real OS is used.
func Load(path string, fsys ...ports.FileSystem) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	var data []byte
	var err error
	if len(fsys) > 0 && fsys[0] != nil {
		data, err = fsys[0].ReadFile(path)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			// No config file yet — run on defaults.
			return cfg, nil
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return cfg, nil
}

// Validate normalizes out-of-range settings.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir()
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = 5000
	}
	if c.Cwd.CacheTTL <= 0 {
		c.Cwd.CacheTTL = 500 * time.Millisecond
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = 20
	}
	return nil
}
