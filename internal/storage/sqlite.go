package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite implements KV on a single SQLite table.
type SQLite struct {
	db       *sql.DB
	dbPath   string
	mu       sync.Mutex
	initOnce sync.Once
	initErr  error
}

// NewSQLite creates a SQLite store for the database file at dbPath.
// Nothing touches the disk until Init.
func NewSQLite(dbPath string) *SQLite {
	return &SQLite{dbPath: dbPath}
}

// Path returns the database file location.
func (s *SQLite) Path() string {
	return s.dbPath
}

// Init creates the database directory, opens the file and runs migrations.
// It runs once; later calls return the first result.
func (s *SQLite) Init() error {
	s.initOnce.Do(func() {
		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			s.initErr = unavailable("create directory", dbDir, err)
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			s.initErr = unavailable("open", s.dbPath, err)
			return
		}
		// one connection keeps the busy_timeout pragma in effect for every statement
		db.SetMaxOpenConns(1)

		if err := db.Ping(); err != nil {
			db.Close()
			s.initErr = unavailable("ping", s.dbPath, err)
			return
		}

		if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			s.initErr = unavailable("configure", s.dbPath, err)
			return
		}

		s.db = db
		if err := s.runMigrations(); err != nil {
			db.Close()
			s.db = nil
			s.initErr = fmt.Errorf("failed to run migrations: %w", err)
		}
	})

	return s.initErr
}

// Get returns the value stored for key.
func (s *SQLite) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil, false, unavailable("read", key, errors.New("database not initialized"))
	}

	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM slots WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, unavailable("read", key, err)
	}

	return []byte(value), true, nil
}

// Set upserts the value for key.
func (s *SQLite) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return unavailable("write", key, errors.New("database not initialized"))
	}

	query := `
		INSERT INTO slots (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC().Format(time.RFC3339)); err != nil {
		return unavailable("write", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLite) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return unavailable("delete", key, errors.New("database not initialized"))
	}

	if _, err := s.db.ExecContext(ctx, "DELETE FROM slots WHERE key = ?", key); err != nil {
		return unavailable("delete", key, err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// runMigrations executes database schema migrations.
func (s *SQLite) runMigrations() error {
	if err := s.createMigrationsTable(); err != nil {
		return err
	}

	version, err := s.getCurrentMigrationVersion()
	if err != nil {
		return err
	}

	migrations := []migration{
		{version: 1, name: "slots", up: s.migration001Slots},
	}

	for _, m := range migrations {
		if version < m.version {
			if err := m.up(); err != nil {
				return fmt.Errorf("migration %d failed: %w", m.version, err)
			}
			if err := s.setMigrationVersion(m); err != nil {
				return err
			}
		}
	}

	return nil
}

// migration represents a single database migration.
type migration struct {
	version int
	name    string
	up      func() error
}

func (s *SQLite) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`
	_, err := s.db.Exec(query)
	return err
}

// getCurrentMigrationVersion returns the highest applied migration version.
func (s *SQLite) getCurrentMigrationVersion() (int, error) {
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")

	var version int
	if err := row.Scan(&version); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SQLite) setMigrationVersion(m migration) error {
	_, err := s.db.Exec("INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name)
	return err
}

// migration001Slots creates the slot table.
func (s *SQLite) migration001Slots() error {
	if _, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS slots (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)
	`); err != nil {
		return fmt.Errorf("failed to create slots table: %w", err)
	}
	return nil
}
