// Package config loads tabdeck's TOML configuration.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all user-tunable settings.
type Config struct {
	Store     StoreConfig     `toml:"store"`
	Session   SessionConfig   `toml:"session"`
	Readiness ReadinessConfig `toml:"readiness"`
	Log       LogConfig       `toml:"log"`
}

// StoreConfig selects and locates the bookmark store backend.
type StoreConfig struct {
	// Backend is "json" or "sqlite". Empty picks sqlite if the database
	// file already exists, json otherwise.
	Backend string `toml:"backend"`

	// Path overrides the default store file location.
	Path string `toml:"path"`
}

// SessionConfig tunes the gesture session.
type SessionConfig struct {
	// IdleCeilingSeconds bounds how long a pick-up may stay uncommitted.
	IdleCeilingSeconds int `toml:"idle_ceiling_seconds"`
}

// ReadinessConfig tunes the view readiness retry budget.
type ReadinessConfig struct {
	BaseDelayMS int `toml:"base_delay_ms"`
	MaxDelayMS  int `toml:"max_delay_ms"`
	MaxAttempts int `toml:"max_attempts"`
	DebounceMS  int `toml:"debounce_ms"`
}

// LogConfig locates the log file. TUIs cannot log to stdout.
type LogConfig struct {
	Path string `toml:"path"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Session: SessionConfig{
			IdleCeilingSeconds: 30,
		},
		Readiness: ReadinessConfig{
			BaseDelayMS: 20,
			MaxDelayMS:  250,
			MaxAttempts: 5,
			DebounceMS:  10,
		},
	}
}

// Load reads the config file at path, layered over Default. A missing
// file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// IdleCeiling returns the session idle ceiling as a duration.
func (c Config) IdleCeiling() time.Duration {
	return time.Duration(c.Session.IdleCeilingSeconds) * time.Second
}

// DefaultConfigDir returns ~/.config/tabdeck.
func DefaultConfigDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "tabdeck"), nil
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}
