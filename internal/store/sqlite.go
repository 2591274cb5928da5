// Package store provides storage backends for Serene.
//
// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/InnerCurrent/serene/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the SQLite database file; the parent directory is
// created if it does not exist.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) LastFreeAccessDate() (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, FreeAccessKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("SQLiteStore LastFreeAccessDate failed", "error", err)
		return "", fmt.Errorf("failed to read free access date: %w", err)
	}
	return value, nil
}

func (s *SQLiteStore) SetLastFreeAccessDate(date string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		FreeAccessKey, date,
	)
	if err != nil {
		slog.Error("SQLiteStore SetLastFreeAccessDate failed", "error", err, "date", date)
		return fmt.Errorf("failed to save free access date: %w", err)
	}
	slog.Debug("SQLiteStore SetLastFreeAccessDate succeeded", "date", date)
	return nil
}

func (s *SQLiteStore) AddSessionRecord(rec models.SessionRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO session_records (id, script_id, access, started_at, duration_seconds) VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.ScriptID, string(rec.Access), rec.StartedAt, int64(rec.Duration.Seconds()),
	)
	if err != nil {
		slog.Error("SQLiteStore AddSessionRecord failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to insert session record %s: %w", rec.ID, err)
	}
	slog.Debug("SQLiteStore AddSessionRecord succeeded", "id", rec.ID, "script", rec.ScriptID)
	return nil
}

func (s *SQLiteStore) SessionRecords() ([]models.SessionRecord, error) {
	rows, err := s.db.Query(`SELECT id, script_id, access, started_at, duration_seconds FROM session_records ORDER BY started_at`)
	if err != nil {
		slog.Error("SQLiteStore SessionRecords query failed", "error", err)
		return nil, fmt.Errorf("failed to query session records: %w", err)
	}
	defer rows.Close()
	return scanSessionRecords(rows)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
