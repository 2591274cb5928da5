// Package store provides storage backends for Serene.
//
// The engine persists exactly two things: the date the free daily session was
// last consumed, and the completed-session history used for dashboard stats.
// Backends are in-memory (tests), SQLite (default), and PostgreSQL.
package store

import (
	"sort"
	"sync"

	"github.com/InnerCurrent/serene/internal/models"
)

// FreeAccessKey is the app_state key holding the last free-session date.
const FreeAccessKey = "last_free_access_date"

// Store is the persistence interface injected into the engine.
type Store interface {
	// LastFreeAccessDate returns the ISO date ("YYYY-MM-DD") the free session
	// was last consumed, or "" if it never was.
	LastFreeAccessDate() (string, error)

	// SetLastFreeAccessDate records the ISO date of a free-session consumption.
	SetLastFreeAccessDate(date string) error

	// AddSessionRecord appends one completed meditation session.
	AddSessionRecord(rec models.SessionRecord) error

	// SessionRecords returns all stored sessions, oldest first.
	SessionRecords() ([]models.SessionRecord, error)

	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration options for persistent store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the SQLite database file path.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// WithPostgresDSN sets the PostgreSQL connection string.
func WithPostgresDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore is a simple in-memory store used in tests and for ephemeral runs.
type InMemoryStore struct {
	mu           sync.RWMutex
	lastFreeDate string
	sessions     []models.SessionRecord
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) LastFreeAccessDate() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastFreeDate, nil
}

func (s *InMemoryStore) SetLastFreeAccessDate(date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFreeDate = date
	return nil
}

func (s *InMemoryStore) AddSessionRecord(rec models.SessionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, rec)
	return nil
}

func (s *InMemoryStore) SessionRecords() ([]models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.SessionRecord, len(s.sessions))
	copy(out, s.sessions)
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *InMemoryStore) Close() error { return nil }
