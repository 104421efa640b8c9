/*
Package config handles loading and saving recordbook configuration.

Configuration is stored in ~/.recordbook.json using camelCase keys. Every field
is optional; missing values fall back to NewConfig defaults and environment
variables override what the file says.

Schema:

	{
	  "storage": {
	    "backend": "sqlite",
	    "path": "~/.recordbook/records.db",
	    "redisAddr": "localhost:6379",
	    "redisPrefix": "recordbook:"
	  },
	  "settings": {
	    "idScheme": "time",
	    "logMode": "dev",
	    "listenAddr": "127.0.0.1:8080",
	    "paceMillis": 0
	  },
	  "seedRoster": [
	    {"classId": "1-1", "number": 1, "name": "김민준"}
	  ]
	}
*/
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/khanglvm/recordbook/internal/storage"
	"github.com/khanglvm/recordbook/internal/store"
)

// Environment variables that override the file.
const (
	EnvBackend = "RECORDBOOK_BACKEND"
	EnvDB      = "RECORDBOOK_DB"
	EnvRedis   = "REDIS_ADDR"
	EnvListen  = "RECORDBOOK_LISTEN"
	EnvLogMode = "RECORDBOOK_LOG"
)

// Config represents the root configuration structure.
type Config struct {
	Storage  *StorageConfig `json:"storage,omitempty"`
	Settings *Settings      `json:"settings,omitempty"`

	// SeedRoster replaces the built-in students installed on first use.
	SeedRoster []store.StudentInput `json:"seedRoster,omitempty"`
}

// StorageConfig selects and locates the key-value backend.
type StorageConfig struct {
	Backend     string `json:"backend,omitempty"`
	Path        string `json:"path,omitempty"`
	RedisAddr   string `json:"redisAddr,omitempty"`
	RedisPrefix string `json:"redisPrefix,omitempty"`
}

// Settings contains global configuration options.
type Settings struct {
	// IDScheme is "time" (millisecond timestamps) or "uuid".
	IDScheme string `json:"idScheme,omitempty"`

	// LogMode is "dev" or "prod".
	LogMode string `json:"logMode,omitempty"`

	// ListenAddr is where serve binds the HTTP API.
	ListenAddr string `json:"listenAddr,omitempty"`

	// PaceMillis is the artificial delay per student during generation.
	PaceMillis int `json:"paceMillis,omitempty"`
}

// NewConfig creates a configuration with default values.
func NewConfig() *Config {
	return &Config{
		Storage: &StorageConfig{
			Backend:     storage.BackendSQLite,
			RedisPrefix: storage.DefaultRedisPrefix,
		},
		Settings: &Settings{
			IDScheme:   "time",
			LogMode:    "dev",
			ListenAddr: "127.0.0.1:8080",
		},
	}
}

// GetDefaultConfigPath returns the path to ~/.recordbook.json
func GetDefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".recordbook.json"), nil
}

// Load reads the configuration from the default path.
func Load() (*Config, error) {
	configPath, err := GetDefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadOrDefault reads path, or the default path when empty. A missing file
// yields the defaults. Environment overrides are applied in both cases.
func LoadOrDefault(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = GetDefaultConfigPath(); err != nil {
			return nil, err
		}
	}

	cfg, err := LoadFrom(path)
	var notFound *ConfigNotFoundError
	if errors.As(err, &notFound) {
		cfg, err = NewConfig(), nil
	}
	if err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	if err := Validate(cfg); err != nil {
		return nil, &InvalidConfigError{Path: path, Message: err.Error(), Hint: "Fix the value or unset the overriding environment variable"}
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if backend := os.Getenv(EnvBackend); backend != "" {
		c.Storage.Backend = backend
	}
	if path := os.Getenv(EnvDB); path != "" {
		c.Storage.Path = path
	}
	if addr := os.Getenv(EnvRedis); addr != "" {
		c.Storage.RedisAddr = addr
	}
	if addr := os.Getenv(EnvListen); addr != "" {
		c.Settings.ListenAddr = addr
	}
	if mode := os.Getenv(EnvLogMode); mode != "" {
		c.Settings.LogMode = mode
	}
}

// fillDefaults sets every unset field from NewConfig.
func (c *Config) fillDefaults() {
	def := NewConfig()
	if c.Storage == nil {
		c.Storage = def.Storage
	}
	if c.Settings == nil {
		c.Settings = def.Settings
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = def.Storage.Backend
	}
	if c.Storage.RedisPrefix == "" {
		c.Storage.RedisPrefix = def.Storage.RedisPrefix
	}
	if c.Settings.IDScheme == "" {
		c.Settings.IDScheme = def.Settings.IDScheme
	}
	if c.Settings.LogMode == "" {
		c.Settings.LogMode = def.Settings.LogMode
	}
	if c.Settings.ListenAddr == "" {
		c.Settings.ListenAddr = def.Settings.ListenAddr
	}
}

// StorageOptions converts the storage section for storage.Open.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		Backend:     c.Storage.Backend,
		Path:        c.Storage.Path,
		RedisAddr:   c.Storage.RedisAddr,
		RedisPrefix: c.Storage.RedisPrefix,
	}
}

// Pace returns the generation delay per student.
func (c *Config) Pace() time.Duration {
	return time.Duration(c.Settings.PaceMillis) * time.Millisecond
}

// Seed returns the configured seed roster, or nil for the built-in one.
func (c *Config) Seed() []store.Student {
	if len(c.SeedRoster) == 0 {
		return nil
	}
	return store.SeedFrom(c.SeedRoster)
}
