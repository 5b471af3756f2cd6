// Package config loads stint settings: defaults < YAML file < environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "stint"
	configFile = "config.yaml"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// MaxTickInterval bounds ticker.interval so running timers redraw at least
// once a second.
const MaxTickInterval = time.Second

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// Config is the root configuration.
type Config struct {
	Storage Storage `yaml:"storage"`
	Ticker  Ticker  `yaml:"ticker"`
	Logging Logging `yaml:"logging"`
}

// Storage selects where the task list lives.
type Storage struct {
	Backend string `yaml:"backend"`
	// Path is a directory for the file backend and a database file for
	// sqlite. Empty means ~/.stint (or its project-scoped subdirectory).
	Path          string `yaml:"path"`
	Key           string `yaml:"key"`
	ProjectScoped bool   `yaml:"project_scoped"`
}

// Ticker controls live refresh while a task runs.
type Ticker struct {
	Interval time.Duration `yaml:"interval"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Storage: Storage{
			Backend: BackendFile,
			Key:     "tasks",
		},
		Ticker: Ticker{Interval: time.Second},
		Logging: Logging{
			Level:  "warn",
			Format: "text",
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/stint/config.yaml, falling back to
// ~/.config/stint/config.yaml.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, configFile), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName, configFile), nil
}

// Load reads the config from DefaultPath.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from yamlPath. A missing file is not an error.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user's own flag or home dir
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// loadEnv overlays non-empty environment variables onto cfg.
func loadEnv(cfg *Config) {
	setString(&cfg.Storage.Backend, "STINT_STORAGE_BACKEND")
	setString(&cfg.Storage.Path, "STINT_STORAGE_PATH")
	setString(&cfg.Storage.Key, "STINT_STORAGE_KEY")
	setBool(&cfg.Storage.ProjectScoped, "STINT_PROJECT_SCOPED")
	setDuration(&cfg.Ticker.Interval, "STINT_TICK_INTERVAL")
	setString(&cfg.Logging.Level, "STINT_LOG_LEVEL")
	setString(&cfg.Logging.Format, "STINT_LOG_FORMAT")
}

func validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case BackendFile, BackendSQLite:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendFile, BackendSQLite, cfg.Storage.Backend)
	}
	if !validKey.MatchString(cfg.Storage.Key) {
		return fmt.Errorf("storage.key %q may only contain letters, digits, '.', '_' and '-'", cfg.Storage.Key)
	}
	if cfg.Ticker.Interval <= 0 || cfg.Ticker.Interval > MaxTickInterval {
		return fmt.Errorf("ticker.interval must be positive and at most %s, got %s", MaxTickInterval, cfg.Ticker.Interval)
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", cfg.Logging.Format)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
