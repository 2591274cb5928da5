package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/InnerCurrent/serene/internal/models"
)

func TestInMemoryStoreFreeAccessDate(t *testing.T) {
	s := NewInMemoryStore()
	date, err := s.LastFreeAccessDate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if date != "" {
		t.Errorf("expected empty date on fresh store, got %q", date)
	}
	if err := s.SetLastFreeAccessDate("2026-09-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	date, err = s.LastFreeAccessDate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if date != "2026-09-01" {
		t.Errorf("expected stored date, got %q", date)
	}
}

func TestInMemoryStoreSessionRecords(t *testing.T) {
	s := NewInMemoryStore()
	rec := models.SessionRecord{
		ID:        "rec-1",
		ScriptID:  "calm-1",
		Access:    models.AccessFree,
		StartedAt: time.Now(),
		Duration:  11 * time.Minute,
	}
	if err := s.AddSessionRecord(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := s.SessionRecords()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].ID != "rec-1" {
		t.Error("session record not stored or retrieved correctly")
	}
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewSQLiteStore(WithDSN(filepath.Join(dir, "serene.db")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	if err := s.SetLastFreeAccessDate("2026-09-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Overwrite must win.
	if err := s.SetLastFreeAccessDate("2026-09-02"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	date, err := s.LastFreeAccessDate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if date != "2026-09-02" {
		t.Errorf("expected overwritten date, got %q", date)
	}

	rec := models.SessionRecord{
		ID:        "rec-1",
		ScriptID:  "focus-1",
		Access:    models.AccessPremium,
		StartedAt: time.Now().UTC().Truncate(time.Second),
		Duration:  15 * time.Minute,
	}
	if err := s.AddSessionRecord(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := s.SessionRecords()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].ScriptID != "focus-1" || records[0].Access != models.AccessPremium {
		t.Errorf("record fields not preserved: %+v", records[0])
	}
	if records[0].Duration != 15*time.Minute {
		t.Errorf("duration not preserved: %v", records[0].Duration)
	}
}

func TestPostgresStore(t *testing.T) {
	// Requires a running PostgreSQL instance; set DATABASE_URL to enable.
	connStr := getenvOrSkip(t, "DATABASE_URL")
	pg, err := NewPostgresStore(WithPostgresDSN(connStr))
	if err != nil {
		t.Skipf("Postgres not available: %v", err)
	}
	defer pg.Close()
	pg.db.Exec("DELETE FROM app_state")

	if err := pg.SetLastFreeAccessDate("2026-09-01"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	date, err := pg.LastFreeAccessDate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if date != "2026-09-01" {
		t.Errorf("expected stored date, got %q", date)
	}
}

func TestComputeSessionStats(t *testing.T) {
	now := time.Date(2026, 9, 1, 15, 0, 0, 0, time.UTC)
	day := func(offset int, hour int) time.Time {
		return now.AddDate(0, 0, offset).Truncate(24 * time.Hour).Add(time.Duration(hour) * time.Hour)
	}
	records := []models.SessionRecord{
		{ID: "a", StartedAt: day(-2, 9), Duration: 10 * time.Minute},
		{ID: "b", StartedAt: day(-1, 9), Duration: 10 * time.Minute},
		{ID: "c", StartedAt: day(0, 9), Duration: 11 * time.Minute},
		{ID: "d", StartedAt: day(0, 12), Duration: 11 * time.Minute},
	}
	stats := ComputeSessionStats(records, now)
	if stats.SessionsToday != 2 {
		t.Errorf("expected 2 sessions today, got %d", stats.SessionsToday)
	}
	if stats.TotalTime != 42*time.Minute {
		t.Errorf("expected 42m total, got %v", stats.TotalTime)
	}
	if stats.StreakDays != 3 {
		t.Errorf("expected 3-day streak, got %d", stats.StreakDays)
	}
}

func TestComputeSessionStatsStreakSurvivesUntilFirstSessionToday(t *testing.T) {
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	records := []models.SessionRecord{
		{ID: "a", StartedAt: now.AddDate(0, 0, -1), Duration: 10 * time.Minute},
		{ID: "b", StartedAt: now.AddDate(0, 0, -2), Duration: 10 * time.Minute},
	}
	stats := ComputeSessionStats(records, now)
	if stats.SessionsToday != 0 {
		t.Errorf("expected no sessions today, got %d", stats.SessionsToday)
	}
	if stats.StreakDays != 2 {
		t.Errorf("expected 2-day streak, got %d", stats.StreakDays)
	}
}

func getenvOrSkip(t *testing.T, key string) string {
	t.Helper()
	val := os.Getenv(key)
	if val == "" {
		t.Skipf("%s not set", key)
	}
	return val
}
