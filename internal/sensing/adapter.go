// Package sensing implements the biometric modality adapters.
//
// Each modality (face, voice, wearable) owns an independent
// permission/connection lifecycle and a last-write-wins snapshot of its most
// recent reading. Adapters never read or mutate each other; the fusion layer
// combines whatever each one currently holds.
package sensing

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/InnerCurrent/serene/internal/models"
)

// Provider is the capability behind one modality: an OS camera or microphone,
// or a wearable transport. Denial of access is a normal false result, not an
// error; errors are reserved for unexpected platform faults.
type Provider[S any] interface {
	// RequestAccess suspends until the capability grants or denies access.
	RequestAccess(ctx context.Context) (bool, error)

	// BeginStreaming starts producing readings at the provider's natural
	// cadence. The returned channel is closed by EndStreaming.
	BeginStreaming(ctx context.Context) (<-chan S, error)

	// EndStreaming stops the reading stream and releases the capability.
	EndStreaming() error
}

// Adapter owns the lifecycle and latest snapshot for one modality.
type Adapter[S any] struct {
	name      string
	provider  Provider[S]
	def       S
	normalize func(S) S

	mu        sync.RWMutex
	status    models.AdapterStatus
	snapshot  S
	hasSample bool
	cancel    context.CancelFunc
}

func newAdapter[S any](name string, p Provider[S], def S, normalize func(S) S) *Adapter[S] {
	slog.Debug("Creating sensing adapter", "modality", name)
	return &Adapter[S]{
		name:      name,
		provider:  p,
		def:       def,
		normalize: normalize,
		status:    models.StatusUnrequested,
		snapshot:  def,
	}
}

// NewFaceAdapter creates the camera-backed face analysis adapter.
func NewFaceAdapter(p Provider[models.FaceSnapshot]) *Adapter[models.FaceSnapshot] {
	return newAdapter("face", p, models.DefaultFaceSnapshot(), models.FaceSnapshot.Normalize)
}

// NewVoiceAdapter creates the microphone-backed voice analysis adapter.
func NewVoiceAdapter(p Provider[models.VoiceSnapshot]) *Adapter[models.VoiceSnapshot] {
	return newAdapter("voice", p, models.DefaultVoiceSnapshot(), models.VoiceSnapshot.Normalize)
}

// NewWearableAdapter creates the wearable device adapter. Its provider's
// RequestAccess performs a discovery/connect handshake rather than an OS
// permission prompt, but the lifecycle shape is the same.
func NewWearableAdapter(p Provider[models.WearableSnapshot]) *Adapter[models.WearableSnapshot] {
	return newAdapter("wearable", p, models.DefaultWearableSnapshot(), models.WearableSnapshot.Normalize)
}

// Name returns the modality name ("face", "voice", "wearable").
func (a *Adapter[S]) Name() string { return a.name }

// Status returns the adapter's current lifecycle state.
func (a *Adapter[S]) Status() models.AdapterStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.status
}

// Snapshot returns the most recent reading, or the modality's "no signal"
// default if the adapter has never produced one. A snapshot remains readable
// after Stop; consumers should treat it as stale when Status is not Active.
func (a *Adapter[S]) Snapshot() S {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if !a.hasSample {
		return a.def
	}
	return a.snapshot
}

// RequestPermission suspends until the capability grants or denies access.
// A user-level denial is returned as (false, nil); only platform faults
// produce an error. Either outcome leaves the adapter in Denied, so the user
// can retry after changing system settings.
func (a *Adapter[S]) RequestPermission(ctx context.Context) (bool, error) {
	a.mu.Lock()
	switch a.status {
	case models.StatusActive, models.StatusGranted:
		a.mu.Unlock()
		slog.Debug("Adapter permission already granted", "modality", a.name)
		return true, nil
	case models.StatusPending:
		a.mu.Unlock()
		return false, fmt.Errorf("%s permission request already in flight", a.name)
	}
	a.status = models.StatusPending
	a.mu.Unlock()

	slog.Debug("Adapter requesting permission", "modality", a.name)
	granted, err := a.provider.RequestAccess(ctx)

	a.mu.Lock()
	defer a.mu.Unlock()
	if err != nil {
		a.status = models.StatusDenied
		slog.Error("Adapter permission request failed", "error", err, "modality", a.name)
		return false, fmt.Errorf("%s capability fault: %w", a.name, err)
	}
	if !granted {
		a.status = models.StatusDenied
		slog.Info("Adapter permission denied", "modality", a.name)
		return false, nil
	}
	a.status = models.StatusGranted
	slog.Info("Adapter permission granted", "modality", a.name)
	return true, nil
}

// Start begins streaming snapshots. It is a no-op when already Active and
// when permission has not been granted.
func (a *Adapter[S]) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.status == models.StatusActive {
		a.mu.Unlock()
		slog.Debug("Adapter already active", "modality", a.name)
		return nil
	}
	if a.status != models.StatusGranted {
		a.mu.Unlock()
		slog.Debug("Adapter start skipped: not granted", "modality", a.name, "status", a.status)
		return nil
	}
	a.mu.Unlock()

	stream, err := a.provider.BeginStreaming(ctx)
	if err != nil {
		slog.Error("Adapter failed to begin streaming", "error", err, "modality", a.name)
		return fmt.Errorf("%s failed to begin streaming: %w", a.name, err)
	}

	streamCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.status = models.StatusActive
	a.cancel = cancel
	a.mu.Unlock()

	go a.consume(streamCtx, stream)
	slog.Info("Adapter started", "modality", a.name)
	return nil
}

// consume applies stream readings in arrival order, last-write-wins.
func (a *Adapter[S]) consume(ctx context.Context, stream <-chan S) {
	for {
		select {
		case <-ctx.Done():
			return
		case snap, ok := <-stream:
			if !ok {
				return
			}
			a.mu.Lock()
			if a.status == models.StatusActive {
				a.snapshot = a.normalize(snap)
				a.hasSample = true
			}
			a.mu.Unlock()
		}
	}
}

// Stop transitions Active back to Granted. The transition is effective
// immediately for readers even if the capability takes time to release.
func (a *Adapter[S]) Stop() error {
	a.mu.Lock()
	if a.status != models.StatusActive {
		a.mu.Unlock()
		slog.Debug("Adapter stop skipped: not active", "modality", a.name, "status", a.status)
		return nil
	}
	a.status = models.StatusGranted
	cancel := a.cancel
	a.cancel = nil
	a.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := a.provider.EndStreaming(); err != nil {
		slog.Error("Adapter failed to end streaming", "error", err, "modality", a.name)
		return fmt.Errorf("%s failed to end streaming: %w", a.name, err)
	}
	slog.Info("Adapter stopped", "modality", a.name)
	return nil
}
