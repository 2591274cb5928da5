// Simulated capability providers. These stand in for real camera, microphone,
// and wearable transports, producing plausible randomized metrics at a fixed
// cadence, and are used by the demo daemon and tests.

package sensing

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/InnerCurrent/serene/internal/models"
	"github.com/google/uuid"
)

// DefaultCadence is how often simulated providers emit a reading.
const DefaultCadence = 2 * time.Second

// SimOpts holds configuration options for simulated providers.
type SimOpts struct {
	Cadence time.Duration
	Deny    bool
	Fault   error
}

// SimOption defines a configuration option for a simulated provider.
type SimOption func(*SimOpts)

// WithCadence sets the interval between simulated readings.
func WithCadence(d time.Duration) SimOption {
	return func(o *SimOpts) { o.Cadence = d }
}

// WithDenial makes RequestAccess return a user-level denial.
func WithDenial() SimOption {
	return func(o *SimOpts) { o.Deny = true }
}

// WithFault makes RequestAccess fail with a platform error.
func WithFault(err error) SimOption {
	return func(o *SimOpts) { o.Fault = err }
}

func applySimOptions(opts []SimOption) SimOpts {
	cfg := SimOpts{Cadence: DefaultCadence}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// emitter runs the shared streaming loop for simulated providers.
type emitter struct {
	mu   sync.Mutex
	stop chan struct{}
}

// stream starts a goroutine producing values from gen every cadence until
// EndStreaming or context cancellation.
func stream[S any](ctx context.Context, e *emitter, cadence time.Duration, gen func() S) <-chan S {
	e.mu.Lock()
	e.stop = make(chan struct{})
	stop := e.stop
	e.mu.Unlock()

	out := make(chan S)
	go func() {
		defer close(out)
		ticker := time.NewTicker(cadence)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				select {
				case out <- gen():
				case <-ctx.Done():
					return
				case <-stop:
					return
				}
			}
		}
	}()
	return out
}

func (e *emitter) end() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
}

// SimCamera simulates the face analysis capability.
type SimCamera struct {
	cfg SimOpts
	emitter
}

// NewSimCamera creates a simulated camera provider.
func NewSimCamera(opts ...SimOption) *SimCamera {
	return &SimCamera{cfg: applySimOptions(opts)}
}

func (c *SimCamera) RequestAccess(ctx context.Context) (bool, error) {
	if c.cfg.Fault != nil {
		return false, c.cfg.Fault
	}
	// Emulate the OS permission prompt round-trip.
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return !c.cfg.Deny, nil
}

func (c *SimCamera) BeginStreaming(ctx context.Context) (<-chan models.FaceSnapshot, error) {
	emotions := []models.Emotion{
		models.EmotionHappy, models.EmotionNeutral, models.EmotionNeutral,
		models.EmotionRelaxed, models.EmotionStressed, models.EmotionSad,
	}
	return stream(ctx, &c.emitter, c.cfg.Cadence, func() models.FaceSnapshot {
		return models.FaceSnapshot{
			FaceDetected:   rand.IntN(10) > 0,
			AttentionLevel: 40 + rand.IntN(61),
			EyeOpenness:    50 + rand.IntN(51),
			Emotion:        emotions[rand.IntN(len(emotions))],
		}
	}), nil
}

func (c *SimCamera) EndStreaming() error {
	c.emitter.end()
	return nil
}

// SimMicrophone simulates the voice sensing capability.
type SimMicrophone struct {
	cfg SimOpts
	emitter
}

// NewSimMicrophone creates a simulated microphone provider.
func NewSimMicrophone(opts ...SimOption) *SimMicrophone {
	return &SimMicrophone{cfg: applySimOptions(opts)}
}

func (m *SimMicrophone) RequestAccess(ctx context.Context) (bool, error) {
	if m.cfg.Fault != nil {
		return false, m.cfg.Fault
	}
	select {
	case <-time.After(10 * time.Millisecond):
	case <-ctx.Done():
		return false, ctx.Err()
	}
	return !m.cfg.Deny, nil
}

func (m *SimMicrophone) BeginStreaming(ctx context.Context) (<-chan models.VoiceSnapshot, error) {
	tones := []models.VoiceTone{
		models.ToneCalm, models.ToneNeutral, models.ToneNeutral,
		models.ToneStressed, models.ToneEnergetic,
	}
	return stream(ctx, &m.emitter, m.cfg.Cadence, func() models.VoiceSnapshot {
		return models.VoiceSnapshot{
			Clarity: 30 + rand.IntN(66),
			Tone:    tones[rand.IntN(len(tones))],
		}
	}), nil
}

func (m *SimMicrophone) EndStreaming() error {
	m.emitter.end()
	return nil
}

// SimWearable simulates a wearable device transport. Access is a
// discovery/connect handshake rather than an OS permission prompt.
type SimWearable struct {
	cfg      SimOpts
	deviceID string
	emitter
}

// NewSimWearable creates a simulated wearable provider.
func NewSimWearable(opts ...SimOption) *SimWearable {
	return &SimWearable{cfg: applySimOptions(opts)}
}

// DeviceID returns the connected device's identity, or "" before pairing.
func (w *SimWearable) DeviceID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.deviceID
}

func (w *SimWearable) RequestAccess(ctx context.Context) (bool, error) {
	if w.cfg.Fault != nil {
		return false, w.cfg.Fault
	}
	// Discovery scan then pairing handshake.
	select {
	case <-time.After(25 * time.Millisecond):
	case <-ctx.Done():
		return false, ctx.Err()
	}
	if w.cfg.Deny {
		return false, nil
	}
	w.mu.Lock()
	w.deviceID = uuid.NewString()
	w.mu.Unlock()
	slog.Debug("Simulated wearable paired", "device_id", w.DeviceID())
	return true, nil
}

func (w *SimWearable) BeginStreaming(ctx context.Context) (<-chan models.WearableSnapshot, error) {
	return stream(ctx, &w.emitter, w.cfg.Cadence, func() models.WearableSnapshot {
		hr := 55 + rand.IntN(46)
		energy := models.EnergyMedium
		switch {
		case hr < 65:
			energy = models.EnergyLow
		case hr > 85:
			energy = models.EnergyHigh
		}
		return models.WearableSnapshot{HeartRate: hr, Energy: energy}
	}), nil
}

func (w *SimWearable) EndStreaming() error {
	w.emitter.end()
	return nil
}
