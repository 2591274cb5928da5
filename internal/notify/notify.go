// Package notify delivers fire-and-forget user notifications for
// permission-denial and session-lifecycle events.
//
// The engine decides what to say; sinks decide how it is rendered. The log
// sink is always available; an SMS sink via Twilio can be configured on top.
package notify

import (
	"context"
	"log/slog"

	"github.com/InnerCurrent/serene/internal/models"
)

// Notifier is the notification sink interface.
type Notifier interface {
	// Notify delivers one notification. Delivery failures are reported but
	// must never abort the operation that produced the notice.
	Notify(ctx context.Context, n models.Notification) error
}

// LogNotifier renders notifications through the structured logger.
type LogNotifier struct{}

// NewLogNotifier creates the default logging sink.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (l *LogNotifier) Notify(ctx context.Context, n models.Notification) error {
	switch n.Severity {
	case models.SeverityError:
		slog.Error("User notice", "title", n.Title, "description", n.Description)
	case models.SeverityWarning:
		slog.Warn("User notice", "title", n.Title, "description", n.Description)
	default:
		slog.Info("User notice", "title", n.Title, "description", n.Description)
	}
	return nil
}

// Multi fans one notification out to several sinks. A failing sink is logged
// and skipped; Notify never fails overall.
type Multi struct {
	sinks []Notifier
}

// NewMulti creates a fan-out notifier.
func NewMulti(sinks ...Notifier) *Multi {
	return &Multi{sinks: sinks}
}

func (m *Multi) Notify(ctx context.Context, n models.Notification) error {
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, n); err != nil {
			slog.Error("Notification sink failed", "error", err, "title", n.Title)
		}
	}
	return nil
}
