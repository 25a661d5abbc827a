// Package config loads itrack settings from the config file, a .env file
// and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/evcraddock/issue-tracker/internal/db"
)

// DefaultPort is the API server port when nothing else is configured.
const DefaultPort = 8080

// Config holds itrack configuration persisted to disk.
type Config struct {
	Database db.Config    `yaml:"database,omitempty" json:"database,omitempty"`
	Log      LogConfig    `yaml:"log,omitempty" json:"log,omitempty"`
	Server   ServerConfig `yaml:"server,omitempty" json:"server,omitempty"`
}

// LogConfig selects the log format, level and destination.
type LogConfig struct {
	Level      string `yaml:"level,omitempty" json:"level,omitempty"`
	File       string `yaml:"file,omitempty" json:"file,omitempty"`
	Dev        bool   `yaml:"dev,omitempty" json:"dev,omitempty"`
	MaxSizeMB  int    `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`
	MaxBackups int    `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`
}

// ServerConfig configures the JSON API server. When URL is set, CLI
// commands talk to that server instead of opening the database.
type ServerConfig struct {
	Port int    `yaml:"port,omitempty" json:"port,omitempty"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
}

// Path returns the path to the config file.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "itrack", "config.yaml"), nil
}

// Load reads the config file at path (the default path when empty), then
// applies a .env file in the working directory and ITRACK_* environment
// variables. A missing file yields defaults.
func Load(path string) (Config, error) {
	cfg, err := ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	if err := loadDotEnv(".env"); err != nil {
		return Config{}, err
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.applyDefaults(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// ReadFile returns only what the config file at path (the default path when
// empty) holds, without environment overrides or defaults. A missing file
// yields the zero Config.
func ReadFile(path string) (Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg to path (the default path when empty).
func Save(path string, cfg Config) error {
	path, err := resolvePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return Path()
}

// loadDotEnv exports variables from a .env file without overriding the
// real environment.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("ITRACK_DB_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("ITRACK_DB_DSN"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("ITRACK_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("ITRACK_LOG_FILE"); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv("ITRACK_DEV"); v != "" {
		dev, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("ITRACK_DEV: %w", err)
		}
		c.Log.Dev = dev
	}
	if v := os.Getenv("ITRACK_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("ITRACK_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("ITRACK_SERVER_URL"); v != "" {
		c.Server.URL = v
	}
	return nil
}

func (c *Config) applyDefaults() error {
	if c.Database.Driver == "" {
		c.Database.Driver = db.DriverSQLite3
	}
	if c.Database.DSN == "" && c.Database.Driver != db.DriverPostgres {
		p, err := db.DefaultPath()
		if err != nil {
			return err
		}
		c.Database.DSN = p
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	return nil
}
