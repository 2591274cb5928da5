// Package session coordinates the sensing adapters, the free-session gate,
// the recommendation engine, and meditation playback.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/InnerCurrent/serene/internal/fusion"
	"github.com/InnerCurrent/serene/internal/gate"
	"github.com/InnerCurrent/serene/internal/models"
	"github.com/InnerCurrent/serene/internal/notify"
	"github.com/InnerCurrent/serene/internal/recommend"
	"github.com/InnerCurrent/serene/internal/sensing"
	"github.com/InnerCurrent/serene/internal/store"
)

// DefaultPremiumCode is the access code accepted when none is configured.
const DefaultPremiumCode = "PREMIUM123"

// AnalysisState is the biometric analysis lifecycle.
type AnalysisState string

const (
	AnalysisIdle     AnalysisState = "idle"
	AnalysisStarting AnalysisState = "starting"
	AnalysisActive   AnalysisState = "active"
	AnalysisStopping AnalysisState = "stopping"
)

// PlaybackStatus is the meditation playback lifecycle, orthogonal to analysis.
type PlaybackStatus string

const (
	PlaybackIdle      PlaybackStatus = "idle"
	PlaybackPlaying   PlaybackStatus = "playing"
	PlaybackCompleted PlaybackStatus = "completed"
)

// Player is the playback sink. It renders a script's media and invokes
// onComplete exactly once when playback finishes naturally. Stop interrupts
// playback without invoking onComplete.
type Player interface {
	Play(ctx context.Context, script models.MeditationScript, onComplete func()) error
	Stop() error
}

// Phraser optionally rewrites insight text; nil disables enrichment.
type Phraser interface {
	RephraseInsights(ctx context.Context, insights []string) ([]string, error)
}

// Deps holds the collaborators injected into the orchestrator.
type Deps struct {
	Face     *sensing.Adapter[models.FaceSnapshot]
	Voice    *sensing.Adapter[models.VoiceSnapshot]
	Wearable *sensing.Adapter[models.WearableSnapshot]
	Gate     *gate.Gate
	Catalog  *recommend.Catalog
	Store    store.Store
	Notifier notify.Notifier
	Player   Player
	Phraser  Phraser
}

// Opts holds configuration options for the orchestrator.
type Opts struct {
	PremiumCode string
	Clock       func() time.Time
}

// Option defines a configuration option for the orchestrator.
type Option func(*Opts)

// WithPremiumCode overrides the premium access code.
func WithPremiumCode(code string) Option {
	return func(o *Opts) { o.PremiumCode = code }
}

// WithClock substitutes the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(o *Opts) { o.Clock = clock }
}

// Orchestrator drives analysis and playback. Analysis and playback state
// machines are independent: stopping analysis never interrupts a running
// meditation, and playback never blocks sensing.
type Orchestrator struct {
	deps        Deps
	premiumCode string
	clock       func() time.Time

	mu              sync.Mutex
	analysis        AnalysisState
	playback        PlaybackStatus
	playingScript   models.MeditationScript
	playingAccess   models.AccessKind
	playingStarted  time.Time
	freeWindow      *gate.FreeWindow
	premiumUnlocked bool
}

// New creates an orchestrator. Deps.Notifier and Deps.Player must be set;
// Deps.Phraser may be nil.
func New(deps Deps, opts ...Option) *Orchestrator {
	cfg := Opts{
		PremiumCode: DefaultPremiumCode,
		Clock:       time.Now,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("Creating session orchestrator")
	return &Orchestrator{
		deps:        deps,
		premiumCode: cfg.PremiumCode,
		clock:       cfg.Clock,
		analysis:    AnalysisIdle,
		playback:    PlaybackIdle,
	}
}

// AnalysisStatus returns the analysis lifecycle state.
func (o *Orchestrator) AnalysisStatus() AnalysisState {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.analysis
}

// PlaybackState returns the playback lifecycle state.
func (o *Orchestrator) PlaybackState() PlaybackStatus {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.playback
}

// modality is the orchestrator's uniform view of one adapter's lifecycle.
type modality struct {
	name       string
	status     func() models.AdapterStatus
	request    func(ctx context.Context) (bool, error)
	start      func(ctx context.Context) error
	stop       func() error
	denyTitle  string
	denyDesc   string
	faultTitle string
	faultDesc  string
}

func (o *Orchestrator) modalities() []modality {
	return []modality{
		{
			name:       "face",
			status:     o.deps.Face.Status,
			request:    o.deps.Face.RequestPermission,
			start:      o.deps.Face.Start,
			stop:       o.deps.Face.Stop,
			denyTitle:  "Camera Permission Required",
			denyDesc:   "Please enable camera access for face analysis",
			faultTitle: "Camera Access Error",
			faultDesc:  "Unable to access the camera. Please check system settings and try again.",
		},
		{
			name:       "voice",
			status:     o.deps.Voice.Status,
			request:    o.deps.Voice.RequestPermission,
			start:      o.deps.Voice.Start,
			stop:       o.deps.Voice.Stop,
			denyTitle:  "Microphone Permission Required",
			denyDesc:   "Please enable microphone access for voice analysis",
			faultTitle: "Microphone Access Error",
			faultDesc:  "Unable to access the microphone. Please check system settings and try again.",
		},
		{
			name:       "wearable",
			status:     o.deps.Wearable.Status,
			request:    o.deps.Wearable.RequestPermission,
			start:      o.deps.Wearable.Start,
			stop:       o.deps.Wearable.Stop,
			denyTitle:  "Wearable Connection Declined",
			denyDesc:   "Pair your wearable device to include vitals in the session",
			faultTitle: "Wearable Connection Error",
			faultDesc:  "Unable to reach the wearable device. Move it closer and try again.",
		},
	}
}

// StartAnalysis requests permissions for every modality not yet granted,
// concurrently and independently, then starts every granted modality. One
// notice is produced per denied or errored modality; the call never fails as
// a whole.
func (o *Orchestrator) StartAnalysis(ctx context.Context) {
	o.mu.Lock()
	if o.analysis == AnalysisActive || o.analysis == AnalysisStarting {
		o.mu.Unlock()
		slog.Debug("StartAnalysis skipped: already running", "state", o.analysis)
		return
	}
	o.analysis = AnalysisStarting
	o.mu.Unlock()

	slog.Info("Starting biometric analysis")

	mods := o.modalities()
	var wg sync.WaitGroup
	for i := range mods {
		m := &mods[i]
		status := m.status()
		if status == models.StatusGranted || status == models.StatusActive {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			granted, err := m.request(ctx)
			if err != nil {
				o.deps.Notifier.Notify(ctx, models.Notification{
					Title:       m.faultTitle,
					Description: m.faultDesc,
					Severity:    models.SeverityError,
				})
				return
			}
			if !granted {
				o.deps.Notifier.Notify(ctx, models.Notification{
					Title:       m.denyTitle,
					Description: m.denyDesc,
					Severity:    models.SeverityWarning,
				})
			}
		}()
	}
	wg.Wait()

	started := 0
	for _, m := range mods {
		if m.status() != models.StatusGranted {
			continue
		}
		if err := m.start(ctx); err != nil {
			o.deps.Notifier.Notify(ctx, models.Notification{
				Title:       m.faultTitle,
				Description: m.faultDesc,
				Severity:    models.SeverityError,
			})
			continue
		}
		started++
	}

	o.mu.Lock()
	o.analysis = AnalysisActive
	o.mu.Unlock()

	o.deps.Notifier.Notify(ctx, models.Notification{
		Title:       "AI Analysis Started",
		Description: "Beginning biometric monitoring and environment adaptation",
		Severity:    models.SeverityInfo,
	})
	slog.Info("Biometric analysis started", "modalities_started", started)
}

// StopAnalysis stops every active modality. Always safe, even when analysis
// was never started.
func (o *Orchestrator) StopAnalysis(ctx context.Context) {
	o.mu.Lock()
	if o.analysis == AnalysisIdle {
		o.mu.Unlock()
		slog.Debug("StopAnalysis skipped: already idle")
		return
	}
	o.analysis = AnalysisStopping
	o.mu.Unlock()

	for _, m := range o.modalities() {
		if err := m.stop(); err != nil {
			slog.Error("Modality stop failed", "error", err, "modality", m.name)
		}
	}

	o.mu.Lock()
	o.analysis = AnalysisIdle
	o.mu.Unlock()

	o.deps.Notifier.Notify(ctx, models.Notification{
		Title:       "AI Analysis Stopped",
		Description: "Biometric monitoring paused",
		Severity:    models.SeverityInfo,
	})
	slog.Info("Biometric analysis stopped")
}

// UnlockPremium validates the premium access code by exact string match.
// There is no retry lockout.
func (o *Orchestrator) UnlockPremium(code string) error {
	if code != o.premiumCode {
		slog.Debug("Premium unlock rejected")
		return models.ErrInvalidAccessCode
	}
	o.mu.Lock()
	o.premiumUnlocked = true
	o.mu.Unlock()
	slog.Info("Premium access unlocked")
	return nil
}

// PremiumUnlocked reports whether a valid access code has been entered.
func (o *Orchestrator) PremiumUnlocked() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.premiumUnlocked
}

// StartMeditation begins playback of a script. Free sessions pass through the
// gate and open the self-expiring free window; premium sessions require a
// prior UnlockPremium.
func (o *Orchestrator) StartMeditation(ctx context.Context, script models.MeditationScript, access models.AccessKind) error {
	o.mu.Lock()
	if o.playback == PlaybackPlaying {
		o.mu.Unlock()
		return models.ErrAlreadyPlaying
	}
	if access == models.AccessPremium && !o.premiumUnlocked {
		o.mu.Unlock()
		return models.ErrPremiumLocked
	}
	o.mu.Unlock()

	var window *gate.FreeWindow
	if access == models.AccessFree {
		if err := o.deps.Gate.Consume(); err != nil {
			return err
		}
		var err error
		window, err = o.deps.Gate.StartFreeWindow(func() {
			o.finishPlayback(context.Background(), "Free Session Ended",
				"Your daily free session window has closed.", false)
		})
		if err != nil {
			return fmt.Errorf("failed to open free session window: %w", err)
		}
	}

	o.mu.Lock()
	o.playback = PlaybackPlaying
	o.playingScript = script
	o.playingAccess = access
	o.playingStarted = o.clock()
	o.freeWindow = window
	o.mu.Unlock()

	slog.Info("Meditation started", "script", script.ID, "access", access)

	if err := o.deps.Player.Play(ctx, script, func() {
		o.finishPlayback(context.Background(), "Session Complete",
			"Great job! Your meditation session data has been saved.", true)
	}); err != nil {
		// Roll back so the user is not stuck in a phantom Playing state.
		o.mu.Lock()
		o.playback = PlaybackIdle
		o.freeWindow = nil
		o.mu.Unlock()
		if window != nil {
			window.Close()
		}
		return fmt.Errorf("failed to start playback of %s: %w", script.ID, err)
	}
	return nil
}

// ClosePlayback ends the current session by explicit user action.
func (o *Orchestrator) ClosePlayback(ctx context.Context) error {
	o.mu.Lock()
	if o.playback != PlaybackPlaying {
		o.mu.Unlock()
		return models.ErrNotPlaying
	}
	o.mu.Unlock()

	o.finishPlayback(ctx, "Session Closed", "Your meditation session was closed.", false)
	return nil
}

// finishPlayback is the single exit path for playback. It stops the player
// when playback did not complete naturally, cancels the free window timer on
// every path, records the session, and announces the outcome.
func (o *Orchestrator) finishPlayback(ctx context.Context, title, description string, completed bool) {
	o.mu.Lock()
	if o.playback != PlaybackPlaying {
		o.mu.Unlock()
		return
	}
	if completed {
		o.playback = PlaybackCompleted
	} else {
		o.playback = PlaybackIdle
	}
	script := o.playingScript
	access := o.playingAccess
	startedAt := o.playingStarted
	window := o.freeWindow
	o.freeWindow = nil
	o.mu.Unlock()

	if !completed {
		if err := o.deps.Player.Stop(); err != nil {
			slog.Error("Player stop failed", "error", err, "script", script.ID)
		}
	}
	if window != nil {
		window.Close()
	}

	rec := models.SessionRecord{
		ID:        uuid.NewString(),
		ScriptID:  script.ID,
		Access:    access,
		StartedAt: startedAt,
		Duration:  o.clock().Sub(startedAt),
	}
	if err := o.deps.Store.AddSessionRecord(rec); err != nil {
		slog.Error("Failed to record session", "error", err, "script", script.ID)
	}

	o.deps.Notifier.Notify(ctx, models.Notification{
		Title:       title,
		Description: description,
		Severity:    models.SeverityInfo,
	})
	slog.Info("Meditation finished", "script", script.ID, "completed", completed)
}

// Fused combines the adapters' current state and snapshots.
func (o *Orchestrator) Fused() fusion.FusedState {
	return fusion.Fuse(
		o.deps.Face.Status(), o.deps.Face.Snapshot(),
		o.deps.Voice.Status(), o.deps.Voice.Snapshot(),
		o.deps.Wearable.Status(), o.deps.Wearable.Snapshot(),
	)
}

// Score returns the current adaptation score.
func (o *Orchestrator) Score() int {
	return o.Fused().Score()
}

// Recommendation returns the current script recommendation, if any.
func (o *Orchestrator) Recommendation() (models.MeditationScript, bool) {
	return recommend.Recommend(o.deps.Catalog, o.Fused())
}

// Environment returns the derived environment settings.
func (o *Orchestrator) Environment() models.EnvironmentSettings {
	return recommend.Environment(o.Fused())
}

// Insights returns the current insight list, optionally rephrased by the
// configured GenAI phraser. Phrasing failures fall back to the static text.
func (o *Orchestrator) Insights(ctx context.Context) []string {
	insights := recommend.Insights(o.Fused())
	if o.deps.Phraser == nil {
		return insights
	}
	phrased, err := o.deps.Phraser.RephraseInsights(ctx, insights)
	if err != nil {
		slog.Warn("Insight phrasing unavailable, using static text", "error", err)
		return insights
	}
	return phrased
}

// Stats summarizes the stored session history.
func (o *Orchestrator) Stats() (models.SessionStats, error) {
	records, err := o.deps.Store.SessionRecords()
	if err != nil {
		return models.SessionStats{}, fmt.Errorf("failed to load session history: %w", err)
	}
	return store.ComputeSessionStats(records, o.clock()), nil
}
