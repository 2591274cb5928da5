package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/InnerCurrent/serene/internal/models"
	"github.com/InnerCurrent/serene/internal/timer"
)

// TimedPlayer is a headless playback sink: it "plays" a script for its
// declared duration and then invokes the completion callback. The demo daemon
// uses it in place of a real media renderer.
type TimedPlayer struct {
	timer timer.Timer

	mu      sync.Mutex
	timerID string
}

// NewTimedPlayer creates a TimedPlayer using the given timer.
func NewTimedPlayer(t timer.Timer) *TimedPlayer {
	return &TimedPlayer{timer: t}
}

func (p *TimedPlayer) Play(ctx context.Context, script models.MeditationScript, onComplete func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, err := p.timer.ScheduleAfter(script.Duration, func() {
		p.mu.Lock()
		p.timerID = ""
		p.mu.Unlock()
		onComplete()
	})
	if err != nil {
		return err
	}
	p.timerID = id
	slog.Info("Playback started", "script", script.ID, "duration", script.Duration)
	return nil
}

func (p *TimedPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.timerID == "" {
		return nil
	}
	if err := p.timer.Cancel(p.timerID); err != nil {
		return err
	}
	p.timerID = ""
	slog.Debug("Playback stopped")
	return nil
}
