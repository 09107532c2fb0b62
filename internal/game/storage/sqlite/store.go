// Package sqlite provides the SQLite-backed implementation of the game
// storage interfaces.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/battledinghy/battledinghy/internal/game/domain"
	"github.com/battledinghy/battledinghy/internal/game/storage"
	"github.com/battledinghy/battledinghy/internal/game/storage/sqlite/migrations"
	"github.com/battledinghy/battledinghy/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed session and command persistence.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a game SQLite store and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close releases the SQLite connection.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping verifies the underlying database is reachable. Used by diagnostics.
func (s *Store) Ping() error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return s.sqlDB.Ping()
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func encodeCells(cells []int) (string, error) {
	raw, err := json.Marshal(cells)
	if err != nil {
		return "", fmt.Errorf("encode board cells: %w", err)
	}
	return string(raw), nil
}

func decodeCells(raw string) ([]int, error) {
	var cells []int
	if err := json.Unmarshal([]byte(raw), &cells); err != nil {
		return nil, fmt.Errorf("decode board cells: %w", err)
	}
	return cells, nil
}

func encodeFleet(fleet domain.FleetConfig) (string, error) {
	raw, err := json.Marshal(fleet)
	if err != nil {
		return "", fmt.Errorf("encode fleet: %w", err)
	}
	return string(raw), nil
}

func decodeFleet(raw string) (domain.FleetConfig, error) {
	var fleet domain.FleetConfig
	if err := json.Unmarshal([]byte(raw), &fleet); err != nil {
		return domain.FleetConfig{}, fmt.Errorf("decode fleet: %w", err)
	}
	return fleet, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

var _ storage.SessionStore = (*Store)(nil)
var _ storage.CommandStore = (*Store)(nil)
