package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/InnerCurrent/serene/internal/models"
)

// scanSessionRecords reads session rows shared by the SQLite and Postgres backends.
func scanSessionRecords(rows *sql.Rows) ([]models.SessionRecord, error) {
	var records []models.SessionRecord
	for rows.Next() {
		var rec models.SessionRecord
		var access string
		var seconds int64
		if err := rows.Scan(&rec.ID, &rec.ScriptID, &access, &rec.StartedAt, &seconds); err != nil {
			return nil, fmt.Errorf("failed to scan session record row: %w", err)
		}
		rec.Access = models.AccessKind(access)
		rec.Duration = time.Duration(seconds) * time.Second
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session record rows: %w", err)
	}
	return records, nil
}

// ComputeSessionStats derives dashboard statistics from stored session history.
// Streak counts consecutive calendar days with at least one session, ending
// today or yesterday (a streak is not broken until a full day is missed).
func ComputeSessionStats(records []models.SessionRecord, now time.Time) models.SessionStats {
	var stats models.SessionStats
	days := make(map[string]bool, len(records))
	today := now.Format("2006-01-02")
	for _, rec := range records {
		local := rec.StartedAt.In(now.Location())
		day := local.Format("2006-01-02")
		days[day] = true
		if day == today {
			stats.SessionsToday++
		}
		stats.TotalTime += rec.Duration
	}

	cursor := now
	if !days[today] {
		// Allow the streak to survive until today's first session.
		cursor = cursor.AddDate(0, 0, -1)
	}
	for days[cursor.Format("2006-01-02")] {
		stats.StreakDays++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return stats
}
