// Package config loads the checkmate config.toml file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied to keys the file leaves out.
const (
	DefaultLogLevel   = "warn"
	DefaultCapacity   = 10
	DefaultShowUpNext = 5
)

// Config represents config.toml.
type Config struct {
	// DBPath is the SQLite database file. Empty means the default location.
	DBPath string `toml:"db_path"`
	// Timezone is an IANA name such as "Europe/Lisbon". Empty means local time.
	Timezone string `toml:"timezone"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
	// DefaultCapacity is the weekly capacity given to new tags.
	DefaultCapacity int   `toml:"default_capacity"`
	Focus           Focus `toml:"focus"`
}

// Focus configures the focus views.
type Focus struct {
	// ShowUpNext caps how many up-next tasks are listed. Zero lists them all.
	ShowUpNext int `toml:"show_up_next"`
}

// DefaultPath returns ~/.config/checkmate/config.toml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "checkmate", "config.toml"), nil
}

// Load reads the config at path, or at DefaultPath when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := &Config{}
	var meta toml.MetaData
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	default:
		if meta, err = toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyDefaults(meta)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyDefaults(meta toml.MetaData) {
	c.DBPath = strings.TrimSpace(c.DBPath)
	c.Timezone = strings.TrimSpace(c.Timezone)
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.DefaultCapacity == 0 {
		c.DefaultCapacity = DefaultCapacity
	}
	if !meta.IsDefined("focus", "show_up_next") {
		c.Focus.ShowUpNext = DefaultShowUpNext
	}
}

// Validate checks values that cannot be fixed by defaults.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if c.DefaultCapacity < 0 {
		return fmt.Errorf("default_capacity must be positive, got %d", c.DefaultCapacity)
	}
	if c.Focus.ShowUpNext < 0 {
		return fmt.Errorf("focus.show_up_next must not be negative, got %d", c.Focus.ShowUpNext)
	}
	return nil
}

// Location returns the configured time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Level returns the slog level for LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}
