/*
Package storage implements the key-value backends that hold recordbook's slots.

Each slot is one named key whose value is a whole JSON collection. The record
store reads a slot, changes it in memory and writes the full value back, so a
backend only needs Get/Set/Delete with whole-value semantics.

Backends:
  - sqlite: default, ~/.recordbook/records.db via modernc.org/sqlite (CGo-free)
  - bolt:   single-file bbolt database
  - redis:  shared Redis instance, keys prefixed per installation
  - memory: process-local map with an optional byte quota
*/
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

var (
	// ErrUnavailable is wrapped by every error caused by the backend itself
	// (closed handle, I/O failure, lost connection).
	ErrUnavailable = errors.New("storage unavailable")

	// ErrQuotaExceeded is returned by a write that would grow the store past its quota.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// KV defines the interface for slot persistence.
type KV interface {
	// Get returns the value stored under key. found is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, found bool, err error)

	// Set replaces the value stored under key in a single write.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// Options selects and configures a backend for Open.
type Options struct {
	// Backend is one of the Backend* names. Empty means sqlite.
	Backend string

	// Path is the database file for sqlite and bolt. Empty means the default
	// location under ~/.recordbook.
	Path string

	// RedisAddr is host:port of the Redis server.
	RedisAddr string

	// RedisPrefix is prepended to every slot key in Redis.
	RedisPrefix string

	// Quota caps the memory backend in bytes; zero means unlimited.
	Quota int
}

// Open creates and initializes the backend described by opts.
func Open(ctx context.Context, opts Options) (KV, error) {
	backend := strings.ToLower(strings.TrimSpace(opts.Backend))
	if backend == "" {
		backend = BackendSQLite
	}

	switch backend {
	case BackendSQLite:
		path := opts.Path
		if path == "" {
			p, err := DefaultPath("records.db")
			if err != nil {
				return nil, err
			}
			path = p
		}
		s := NewSQLite(path)
		if err := s.Init(); err != nil {
			return nil, err
		}
		return s, nil

	case BackendBolt:
		path := opts.Path
		if path == "" {
			p, err := DefaultPath("records.bolt")
			if err != nil {
				return nil, err
			}
			path = p
		}
		return OpenBolt(path)

	case BackendRedis:
		return OpenRedis(ctx, opts.RedisAddr, opts.RedisPrefix)

	case BackendMemory:
		return NewMemoryWithQuota(opts.Quota), nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q (want sqlite, bolt, redis or memory)", opts.Backend)
	}
}

// DefaultPath returns ~/.recordbook/<name>.
func DefaultPath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".recordbook", name), nil
}

// unavailable wraps a backend failure so callers can match ErrUnavailable.
func unavailable(op, key string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, op, key, err)
}
