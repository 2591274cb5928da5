// Package timer provides cancellable one-shot timers for scheduled actions.
//
// The free-session playback window is the only timeout in the engine, but the
// interface is generic so tests can substitute a manual implementation.
package timer

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Timer defines the interface for scheduling delayed actions.
type Timer interface {
	// ScheduleAfter schedules fn to run once after delay and returns an ID
	// usable with Cancel.
	ScheduleAfter(delay time.Duration, fn func()) (string, error)

	// Cancel cancels a scheduled function. Cancelling an unknown or already
	// fired timer is a no-op.
	Cancel(id string) error

	// Stop cancels all scheduled timers.
	Stop()
}

// timerEntry tracks information about a scheduled timer.
type timerEntry struct {
	timer       *time.Timer
	scheduledAt time.Time
	expiresAt   time.Time
}

// SimpleTimer implements Timer using the standard time package.
type SimpleTimer struct {
	timers map[string]*timerEntry
	mu     sync.Mutex
	nextID int64
}

// NewSimpleTimer creates a new SimpleTimer.
func NewSimpleTimer() *SimpleTimer {
	slog.Debug("Creating SimpleTimer")
	return &SimpleTimer{
		timers: make(map[string]*timerEntry),
	}
}

// ScheduleAfter schedules a function to run after a delay.
func (t *SimpleTimer) ScheduleAfter(delay time.Duration, fn func()) (string, error) {
	t.mu.Lock()
	t.nextID++
	id := fmt.Sprintf("timer_%d", t.nextID)
	t.mu.Unlock()

	slog.Debug("SimpleTimer ScheduleAfter", "id", id, "delay", delay)

	now := time.Now()
	tm := time.AfterFunc(delay, func() {
		slog.Debug("SimpleTimer executing scheduled function", "id", id)
		fn()
		t.mu.Lock()
		delete(t.timers, id)
		t.mu.Unlock()
	})

	t.mu.Lock()
	t.timers[id] = &timerEntry{
		timer:       tm,
		scheduledAt: now,
		expiresAt:   now.Add(delay),
	}
	t.mu.Unlock()

	return id, nil
}

// Cancel cancels a scheduled function by ID.
func (t *SimpleTimer) Cancel(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if entry, exists := t.timers[id]; exists {
		entry.timer.Stop()
		delete(t.timers, id)
		slog.Debug("SimpleTimer Cancel succeeded", "id", id)
		return nil
	}

	slog.Debug("SimpleTimer Cancel: timer not found", "id", id)
	return nil
}

// Stop cancels all scheduled timers.
func (t *SimpleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	slog.Debug("SimpleTimer stopping all timers", "count", len(t.timers))
	for _, entry := range t.timers {
		entry.timer.Stop()
	}
	t.timers = make(map[string]*timerEntry)
}
