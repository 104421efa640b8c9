package config

import (
	"fmt"
	"net"
	"strings"

	"github.com/khanglvm/recordbook/internal/storage"
)

// Validate checks a configuration before it is used or saved.
func Validate(cfg *Config) error {
	if cfg.Storage == nil || cfg.Settings == nil {
		return fmt.Errorf("missing 'storage' or 'settings' section")
	}

	switch cfg.Storage.Backend {
	case storage.BackendSQLite, storage.BackendBolt, storage.BackendMemory:
	case storage.BackendRedis:
		if cfg.Storage.RedisAddr == "" {
			return fmt.Errorf("storage: backend %q requires redisAddr", cfg.Storage.Backend)
		}
	default:
		return fmt.Errorf("storage: unknown backend %q (want sqlite, bolt, redis or memory)", cfg.Storage.Backend)
	}

	switch cfg.Settings.IDScheme {
	case "", "time", "uuid":
	default:
		return fmt.Errorf("settings: unknown idScheme %q", cfg.Settings.IDScheme)
	}

	switch cfg.Settings.LogMode {
	case "", "dev", "prod":
	default:
		return fmt.Errorf("settings: unknown logMode %q", cfg.Settings.LogMode)
	}

	if cfg.Settings.ListenAddr != "" {
		if _, _, err := net.SplitHostPort(cfg.Settings.ListenAddr); err != nil {
			return fmt.Errorf("settings: listenAddr: %w", err)
		}
	}

	if cfg.Settings.PaceMillis < 0 {
		return fmt.Errorf("settings: paceMillis must not be negative")
	}

	for i, s := range cfg.SeedRoster {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("seedRoster[%d]: empty name", i)
		}
	}
	return nil
}
