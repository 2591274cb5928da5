// Package store provides storage backends for Serene.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"database/sql"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/InnerCurrent/serene/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL store using the given connection string.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) LastFreeAccessDate() (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM app_state WHERE key = $1`, FreeAccessKey).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		slog.Error("PostgresStore LastFreeAccessDate failed", "error", err)
		return "", fmt.Errorf("failed to read free access date: %w", err)
	}
	return value, nil
}

func (s *PostgresStore) SetLastFreeAccessDate(date string) error {
	_, err := s.db.Exec(
		`INSERT INTO app_state (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		FreeAccessKey, date,
	)
	if err != nil {
		slog.Error("PostgresStore SetLastFreeAccessDate failed", "error", err, "date", date)
		return fmt.Errorf("failed to save free access date: %w", err)
	}
	slog.Debug("PostgresStore SetLastFreeAccessDate succeeded", "date", date)
	return nil
}

func (s *PostgresStore) AddSessionRecord(rec models.SessionRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO session_records (id, script_id, access, started_at, duration_seconds) VALUES ($1, $2, $3, $4, $5)`,
		rec.ID, rec.ScriptID, string(rec.Access), rec.StartedAt, int64(rec.Duration.Seconds()),
	)
	if err != nil {
		slog.Error("PostgresStore AddSessionRecord failed", "error", err, "id", rec.ID)
		return fmt.Errorf("failed to insert session record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *PostgresStore) SessionRecords() ([]models.SessionRecord, error) {
	rows, err := s.db.Query(`SELECT id, script_id, access, started_at, duration_seconds FROM session_records ORDER BY started_at`)
	if err != nil {
		slog.Error("PostgresStore SessionRecords query failed", "error", err)
		return nil, fmt.Errorf("failed to query session records: %w", err)
	}
	defer rows.Close()
	return scanSessionRecords(rows)
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
