// Package gate implements the once-per-day free session rate limit and the
// self-expiring free playback window.
package gate

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/InnerCurrent/serene/internal/models"
	"github.com/InnerCurrent/serene/internal/store"
	"github.com/InnerCurrent/serene/internal/timer"
)

// FreeWindowDuration is how long the free playback window stays open before
// it is forced closed (11 minutes).
const FreeWindowDuration = 660 * time.Second

// DateLayout is the ISO calendar date layout used for the free-access marker.
const DateLayout = "2006-01-02"

// Opts holds configuration options for the gate.
type Opts struct {
	Clock func() time.Time
	Timer timer.Timer
}

// Option defines a configuration option for the gate.
type Option func(*Opts)

// WithClock substitutes the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// WithTimer substitutes the timer used for the free playback window.
func WithTimer(t timer.Timer) Option {
	return func(o *Opts) { o.Timer = t }
}

// Gate tracks whether the free daily session is available and owns the free
// playback window. Dates are compared as local-timezone ISO date strings.
type Gate struct {
	store store.Store
	clock func() time.Time
	timer timer.Timer
}

// NewGate creates a gate backed by the given store.
func NewGate(st store.Store, opts ...Option) *Gate {
	cfg := Opts{
		Clock: time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Timer == nil {
		cfg.Timer = timer.NewSimpleTimer()
	}
	slog.Debug("Creating free-session gate")
	return &Gate{store: st, clock: cfg.Clock, timer: cfg.Timer}
}

// today returns the current calendar date in the user's local timezone.
func (g *Gate) today() string {
	return g.clock().Format(DateLayout)
}

// AvailableToday reports whether the free session can still be consumed today.
func (g *Gate) AvailableToday() bool {
	last, err := g.store.LastFreeAccessDate()
	if err != nil {
		slog.Error("Gate AvailableToday read failed", "error", err)
		// Storage trouble should not silently hand out extra free sessions.
		return false
	}
	return last != g.today()
}

// Consume records today's free-session use. It returns
// models.ErrAlreadyUsedToday, with no side effect, if the free session was
// already consumed today. A second call on the same date is always safe.
func (g *Gate) Consume() error {
	today := g.today()
	last, err := g.store.LastFreeAccessDate()
	if err != nil {
		return fmt.Errorf("failed to read free access marker: %w", err)
	}
	if last == today {
		slog.Debug("Gate Consume rejected", "date", today)
		return models.ErrAlreadyUsedToday
	}
	if err := g.store.SetLastFreeAccessDate(today); err != nil {
		return fmt.Errorf("failed to record free access marker: %w", err)
	}
	slog.Info("Free session consumed", "date", today)
	return nil
}

// FreeWindow is an open free playback window. It closes itself after
// FreeWindowDuration unless Close is called first.
type FreeWindow struct {
	gate     *Gate
	timerID  string
	onExpire func()

	mu     sync.Mutex
	closed bool
}

// StartFreeWindow opens the free playback window and arms its expiry timer.
// onExpire is invoked at most once, and only when the window is forced closed
// by the timer rather than by Close.
func (g *Gate) StartFreeWindow(onExpire func()) (*FreeWindow, error) {
	w := &FreeWindow{gate: g, onExpire: onExpire}
	id, err := g.timer.ScheduleAfter(FreeWindowDuration, w.expire)
	if err != nil {
		return nil, fmt.Errorf("failed to arm free window timer: %w", err)
	}
	w.timerID = id
	slog.Info("Free playback window opened", "duration", FreeWindowDuration)
	return w, nil
}

// expire runs when the window's timer fires.
func (w *FreeWindow) expire() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	slog.Info("Free playback window expired")
	if w.onExpire != nil {
		w.onExpire()
	}
}

// Close closes the window early and cancels the expiry timer. Safe to call
// more than once and after expiry.
func (w *FreeWindow) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	if err := w.gate.timer.Cancel(w.timerID); err != nil {
		slog.Error("Free window timer cancel failed", "error", err, "id", w.timerID)
	}
	slog.Info("Free playback window closed early")
}

// Closed reports whether the window has been closed (explicitly or by expiry).
func (w *FreeWindow) Closed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}
