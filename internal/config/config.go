package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/cleared-gl/internal/accounts"
)

// FileName is the project config file at the root of a ledger directory.
const FileName = "gl.yaml"

// Store drivers.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Environment overrides applied by ApplyEnv.
const (
	EnvDatabaseURL = "GL_DATABASE_URL"
	EnvLogLevel    = "GL_LOG_LEVEL"
	EnvStore       = "GL_STORE"
)

// Config represents the top-level gl.yaml configuration.
type Config struct {
	Business BusinessConfig `yaml:"business"`
	Currency string         `yaml:"currency"`
	Store    StoreConfig    `yaml:"store"`
	Log      LogConfig      `yaml:"log"`
	Git      GitConfig      `yaml:"git"`
}

// BusinessConfig identifies the business entity and its default chart.
type BusinessConfig struct {
	Name  string `yaml:"name"`
	Chart string `yaml:"chart"`
}

// StoreConfig selects where the ledger lives. Path is relative to the
// project directory for the file driver.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// LogConfig controls the logger built by the logging package.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// GitConfig controls git integration.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a gl.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// LoadDir loads dir/gl.yaml, then applies dir/.env and the process
// environment on top.
func LoadDir(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project.
func Default(businessName, chart string) *Config {
	if chart == "" {
		chart = accounts.ChartFreightForwarder
	}
	return &Config{
		Business: BusinessConfig{
			Name:  businessName,
			Chart: chart,
		},
		Currency: "USD",
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   ".",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Cleared GL",
			AuthorEmail: "gl@cleared.dev",
		},
	}
}

// ApplyEnv loads envFile if it exists, without overriding variables already
// set, then overlays the GL_* variables onto cfg.
func (c *Config) ApplyEnv(envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if v := os.Getenv(EnvStore); v != "" {
		c.Store.Driver = v
	}
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Store.DSN = v
		if os.Getenv(EnvStore) == "" {
			c.Store.Driver = DriverPostgres
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	return c.Validate()
}

// Validate checks the fields the engine depends on.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverFile, DriverMemory, "":
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store driver %q requires a dsn", c.Store.Driver)
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	return nil
}
