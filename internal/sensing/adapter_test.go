package sensing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/InnerCurrent/serene/internal/models"
)

// fakeProvider is a hand-controlled capability for lifecycle tests.
type fakeProvider[S any] struct {
	grant    bool
	grantErr error
	ch       chan S
	ended    bool
}

func newFakeProvider[S any](grant bool) *fakeProvider[S] {
	return &fakeProvider[S]{grant: grant, ch: make(chan S, 4)}
}

func (f *fakeProvider[S]) RequestAccess(ctx context.Context) (bool, error) {
	if f.grantErr != nil {
		return false, f.grantErr
	}
	return f.grant, nil
}

func (f *fakeProvider[S]) BeginStreaming(ctx context.Context) (<-chan S, error) {
	return f.ch, nil
}

func (f *fakeProvider[S]) EndStreaming() error {
	f.ended = true
	return nil
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestAdapterLifecycle(t *testing.T) {
	p := newFakeProvider[models.FaceSnapshot](true)
	a := NewFaceAdapter(p)
	ctx := context.Background()

	if a.Status() != models.StatusUnrequested {
		t.Fatalf("expected unrequested, got %s", a.Status())
	}

	granted, err := a.RequestPermission(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !granted || a.Status() != models.StatusGranted {
		t.Fatalf("expected granted, got %v %s", granted, a.Status())
	}

	if err := a.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status() != models.StatusActive {
		t.Fatalf("expected active, got %s", a.Status())
	}

	p.ch <- models.FaceSnapshot{FaceDetected: true, AttentionLevel: 80, EyeOpenness: 90, Emotion: models.EmotionRelaxed}
	waitFor(t, func() bool { return a.Snapshot().AttentionLevel == 80 })

	if err := a.Stop(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status() != models.StatusGranted {
		t.Errorf("expected granted after stop, got %s", a.Status())
	}
	if !p.ended {
		t.Error("provider streaming was not ended")
	}
	// Last snapshot stays readable after stop.
	if got := a.Snapshot(); got.AttentionLevel != 80 {
		t.Errorf("expected last snapshot to remain readable, got %+v", got)
	}
}

func TestAdapterStartIsNoOpWithoutGrant(t *testing.T) {
	a := NewVoiceAdapter(newFakeProvider[models.VoiceSnapshot](true))
	if err := a.Start(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Status() != models.StatusUnrequested {
		t.Errorf("start without grant changed state: %s", a.Status())
	}
}

func TestAdapterDoubleStartIsNoOp(t *testing.T) {
	p := newFakeProvider[models.VoiceSnapshot](true)
	a := NewVoiceAdapter(p)
	ctx := context.Background()
	if _, err := a.RequestPermission(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("second start should be a no-op, got %v", err)
	}
	if a.Status() != models.StatusActive {
		t.Errorf("expected active, got %s", a.Status())
	}
	a.Stop()
}

func TestAdapterDenial(t *testing.T) {
	p := newFakeProvider[models.WearableSnapshot](false)
	a := NewWearableAdapter(p)
	ctx := context.Background()

	granted, err := a.RequestPermission(ctx)
	if err != nil {
		t.Fatalf("denial must not be an error, got %v", err)
	}
	if granted {
		t.Fatal("expected denial")
	}
	if a.Status() != models.StatusDenied {
		t.Errorf("expected denied, got %s", a.Status())
	}

	// Denied is terminal until a new request; the user may retry.
	p.grant = true
	granted, err = a.RequestPermission(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !granted || a.Status() != models.StatusGranted {
		t.Errorf("retry after denial should succeed, got %v %s", granted, a.Status())
	}
}

func TestAdapterCapabilityFault(t *testing.T) {
	p := newFakeProvider[models.FaceSnapshot](true)
	p.grantErr = errors.New("camera hardware fault")
	a := NewFaceAdapter(p)

	granted, err := a.RequestPermission(context.Background())
	if err == nil {
		t.Fatal("expected a capability fault error")
	}
	if granted {
		t.Error("fault must not grant access")
	}
	if a.Status() != models.StatusDenied {
		t.Errorf("expected denied after fault, got %s", a.Status())
	}
}

func TestAdapterDefaultSnapshots(t *testing.T) {
	face := NewFaceAdapter(newFakeProvider[models.FaceSnapshot](true))
	if got := face.Snapshot(); got != models.DefaultFaceSnapshot() {
		t.Errorf("unexpected face default: %+v", got)
	}
	voice := NewVoiceAdapter(newFakeProvider[models.VoiceSnapshot](true))
	if got := voice.Snapshot(); got != models.DefaultVoiceSnapshot() {
		t.Errorf("unexpected voice default: %+v", got)
	}
	wearable := NewWearableAdapter(newFakeProvider[models.WearableSnapshot](true))
	if got := wearable.Snapshot(); got != models.DefaultWearableSnapshot() {
		t.Errorf("unexpected wearable default: %+v", got)
	}
}

func TestAdapterNormalizesReadings(t *testing.T) {
	p := newFakeProvider[models.VoiceSnapshot](true)
	a := NewVoiceAdapter(p)
	ctx := context.Background()
	if _, err := a.RequestPermission(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Stop()

	p.ch <- models.VoiceSnapshot{Clarity: 400, Tone: "operatic"}
	waitFor(t, func() bool { return a.Snapshot().Clarity == 100 })
	if got := a.Snapshot(); got.Tone != models.ToneNeutral {
		t.Errorf("unknown tone not normalized: %+v", got)
	}
}

func TestSimulatedProvidersProduceReadings(t *testing.T) {
	cam := NewSimCamera(WithCadence(5 * time.Millisecond))
	a := NewFaceAdapter(cam)
	ctx := context.Background()

	granted, err := a.RequestPermission(ctx)
	if err != nil || !granted {
		t.Fatalf("expected simulated grant, got %v %v", granted, err)
	}
	if err := a.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	waitFor(t, func() bool {
		s := a.Snapshot()
		return s != models.DefaultFaceSnapshot()
	})
	a.Stop()
}

func TestSimulatedWearablePairing(t *testing.T) {
	w := NewSimWearable()
	a := NewWearableAdapter(w)

	if w.DeviceID() != "" {
		t.Fatal("device ID should be empty before pairing")
	}
	granted, err := a.RequestPermission(context.Background())
	if err != nil || !granted {
		t.Fatalf("expected pairing to succeed, got %v %v", granted, err)
	}
	if w.DeviceID() == "" {
		t.Error("pairing should assign a device ID")
	}
}

func TestSimulatedDenialAndFault(t *testing.T) {
	denied := NewSimMicrophone(WithDenial())
	granted, err := denied.RequestAccess(context.Background())
	if err != nil || granted {
		t.Errorf("expected clean denial, got %v %v", granted, err)
	}

	fault := errors.New("transport unavailable")
	faulty := NewSimWearable(WithFault(fault))
	granted, err = faulty.RequestAccess(context.Background())
	if !errors.Is(err, fault) || granted {
		t.Errorf("expected fault, got %v %v", granted, err)
	}
}
