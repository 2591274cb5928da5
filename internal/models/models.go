// Package models defines the core data structures for Serene.
//
// It includes biometric snapshot types, adapter lifecycle states, the
// meditation catalog entry shape, and notification structures shared across
// modules.
package models

import (
	"errors"
	"time"
)

// Emotion classifies the dominant facial expression in a face snapshot.
type Emotion string

const (
	EmotionHappy    Emotion = "happy"
	EmotionNeutral  Emotion = "neutral"
	EmotionSad      Emotion = "sad"
	EmotionStressed Emotion = "stressed"
	EmotionRelaxed  Emotion = "relaxed"
)

// VoiceTone classifies the vocal tone in a voice snapshot.
type VoiceTone string

const (
	ToneCalm      VoiceTone = "calm"
	ToneNeutral   VoiceTone = "neutral"
	ToneStressed  VoiceTone = "stressed"
	ToneEnergetic VoiceTone = "energetic"
)

// EnergyLevel classifies the overall energy reading from a wearable device.
type EnergyLevel string

const (
	EnergyLow    EnergyLevel = "low"
	EnergyMedium EnergyLevel = "medium"
	EnergyHigh   EnergyLevel = "high"
)

// EnergyType tags a meditation script with the state it is designed to induce.
type EnergyType string

const (
	EnergyTypeCalming    EnergyType = "calming"
	EnergyTypeFocusing   EnergyType = "focusing"
	EnergyTypeEnergizing EnergyType = "energizing"
	EnergyTypeBalancing  EnergyType = "balancing"
)

// Validation limits for biometric fields.
const (
	// MaxPercent is the upper bound for percentage-scaled biometric fields.
	MaxPercent = 100
	// MaxHeartRate is the upper bound accepted for a wearable heart rate reading.
	MaxHeartRate = 250
)

// Error variables for better error handling and testability
var (
	ErrAlreadyUsedToday  = errors.New("free session already used today")
	ErrInvalidAccessCode = errors.New("invalid premium access code")
	ErrNotGranted        = errors.New("modality permission not granted")
	ErrAlreadyPlaying    = errors.New("a meditation session is already playing")
	ErrNotPlaying        = errors.New("no meditation session is playing")
	ErrPremiumLocked     = errors.New("premium access has not been unlocked")
	ErrServiceStopped    = errors.New("service has been stopped")
)

// IsValidEmotion checks if the given emotion is one of the supported variants.
func IsValidEmotion(e Emotion) bool {
	switch e {
	case EmotionHappy, EmotionNeutral, EmotionSad, EmotionStressed, EmotionRelaxed:
		return true
	default:
		return false
	}
}

// IsValidTone checks if the given voice tone is one of the supported variants.
func IsValidTone(t VoiceTone) bool {
	switch t {
	case ToneCalm, ToneNeutral, ToneStressed, ToneEnergetic:
		return true
	default:
		return false
	}
}

// IsValidEnergyLevel checks if the given energy level is one of the supported variants.
func IsValidEnergyLevel(l EnergyLevel) bool {
	switch l {
	case EnergyLow, EnergyMedium, EnergyHigh:
		return true
	default:
		return false
	}
}

// IsValidEnergyType checks if the given energy type is one of the supported variants.
func IsValidEnergyType(t EnergyType) bool {
	switch t {
	case EnergyTypeCalming, EnergyTypeFocusing, EnergyTypeEnergizing, EnergyTypeBalancing:
		return true
	default:
		return false
	}
}

// ClampPercent bounds a percentage-scaled value to [0, 100].
func ClampPercent(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxPercent {
		return MaxPercent
	}
	return v
}

// ClampHeartRate bounds a heart rate reading to [0, MaxHeartRate].
func ClampHeartRate(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxHeartRate {
		return MaxHeartRate
	}
	return v
}

// FaceSnapshot holds the latest facial metrics from the camera adapter.
type FaceSnapshot struct {
	FaceDetected   bool    `json:"face_detected"`
	AttentionLevel int     `json:"attention_level"` // 0-100
	EyeOpenness    int     `json:"eye_openness"`    // 0-100
	Emotion        Emotion `json:"emotion"`
}

// Normalize clamps bounded fields and substitutes neutral for an unknown emotion.
func (s FaceSnapshot) Normalize() FaceSnapshot {
	s.AttentionLevel = ClampPercent(s.AttentionLevel)
	s.EyeOpenness = ClampPercent(s.EyeOpenness)
	if !IsValidEmotion(s.Emotion) {
		s.Emotion = EmotionNeutral
	}
	return s
}

// VoiceSnapshot holds the latest vocal metrics from the microphone adapter.
type VoiceSnapshot struct {
	Clarity int       `json:"clarity"` // 0-100
	Tone    VoiceTone `json:"tone"`
}

// Normalize clamps bounded fields and substitutes neutral for an unknown tone.
func (s VoiceSnapshot) Normalize() VoiceSnapshot {
	s.Clarity = ClampPercent(s.Clarity)
	if !IsValidTone(s.Tone) {
		s.Tone = ToneNeutral
	}
	return s
}

// WearableSnapshot holds the latest vitals from a connected wearable device.
type WearableSnapshot struct {
	HeartRate int         `json:"heart_rate"` // bpm
	Energy    EnergyLevel `json:"energy"`
}

// Normalize clamps the heart rate and substitutes medium for an unknown energy level.
func (s WearableSnapshot) Normalize() WearableSnapshot {
	s.HeartRate = ClampHeartRate(s.HeartRate)
	if !IsValidEnergyLevel(s.Energy) {
		s.Energy = EnergyMedium
	}
	return s
}

// DefaultFaceSnapshot is the "no signal" reading used before the camera has
// produced a sample or while the face adapter is not active.
func DefaultFaceSnapshot() FaceSnapshot {
	return FaceSnapshot{FaceDetected: false, AttentionLevel: 0, EyeOpenness: 0, Emotion: EmotionNeutral}
}

// DefaultVoiceSnapshot is the "no signal" reading for the voice adapter.
func DefaultVoiceSnapshot() VoiceSnapshot {
	return VoiceSnapshot{Clarity: 0, Tone: ToneNeutral}
}

// DefaultWearableSnapshot is the "no signal" reading for the wearable adapter.
func DefaultWearableSnapshot() WearableSnapshot {
	return WearableSnapshot{HeartRate: 0, Energy: EnergyMedium}
}

// AdapterStatus is the lifecycle state of a sensing adapter.
type AdapterStatus string

const (
	// StatusUnrequested means permission has never been requested.
	StatusUnrequested AdapterStatus = "unrequested"
	// StatusPending means a permission or connection handshake is in flight.
	StatusPending AdapterStatus = "pending"
	// StatusGranted means permission was granted but streaming is idle.
	StatusGranted AdapterStatus = "granted"
	// StatusActive means the adapter is streaming snapshots.
	StatusActive AdapterStatus = "active"
	// StatusDenied means the user or platform refused access. A new
	// permission request may leave this state.
	StatusDenied AdapterStatus = "denied"
)

// EnvironmentSettings holds the derived meditation environment configuration.
// All fields are percentages in [0, 100]; the struct is recomputed from fused
// sensor state and never persisted.
type EnvironmentSettings struct {
	Sound       int `json:"sound"`
	Temperature int `json:"temperature"`
	Brightness  int `json:"brightness"`
}

// Normalize clamps every environment field to its percentage bounds.
func (e EnvironmentSettings) Normalize() EnvironmentSettings {
	e.Sound = ClampPercent(e.Sound)
	e.Temperature = ClampPercent(e.Temperature)
	e.Brightness = ClampPercent(e.Brightness)
	return e
}

// MeditationScript is one read-only catalog entry.
type MeditationScript struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Energy     EnergyType    `json:"energy_type"`
	Duration   time.Duration `json:"duration"`
	ContentRef string        `json:"content_ref"`
}

// AccessKind distinguishes how a meditation session was unlocked.
type AccessKind string

const (
	AccessFree    AccessKind = "free"
	AccessPremium AccessKind = "premium"
)

// SessionRecord captures one completed meditation session for history and stats.
type SessionRecord struct {
	ID        string        `json:"id"`
	ScriptID  string        `json:"script_id"`
	Access    AccessKind    `json:"access"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// SessionStats summarizes stored session history for the dashboard.
type SessionStats struct {
	SessionsToday int           `json:"sessions_today"`
	TotalTime     time.Duration `json:"total_time"`
	StreakDays    int           `json:"streak_days"`
}

// NoticeSeverity grades user-facing notifications.
type NoticeSeverity string

const (
	SeverityInfo    NoticeSeverity = "info"
	SeverityWarning NoticeSeverity = "warning"
	SeverityError   NoticeSeverity = "error"
)

// Notification is a fire-and-forget user-facing message. The engine decides
// what to say; rendering belongs to whichever sink receives it.
type Notification struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Severity    NoticeSeverity `json:"severity"`
}
