// Package fusion combines the latest readings from the three sensing
// modalities into a single derived state and adaptation score.
//
// Fusion is a pure function of the adapters' (status, snapshot) pairs. It is
// recomputed on every read, is total over partial input (an inactive or
// denied modality contributes its "no signal" default), and never caches.
package fusion

import (
	"math"

	"github.com/InnerCurrent/serene/internal/models"
)

// BasePointsPerModality is the score awarded for each actively sensing stream.
const BasePointsPerModality = 25

// FusedState is the ephemeral combination of the latest modality snapshots.
type FusedState struct {
	Face     models.FaceSnapshot
	Voice    models.VoiceSnapshot
	Wearable models.WearableSnapshot

	FaceActive     bool
	VoiceActive    bool
	WearableActive bool
}

// Fuse combines the three adapters' current state. Snapshots are taken as
// given, active or not; the biometric bonus deliberately includes "no signal"
// defaults from inactive modalities.
func Fuse(
	faceStatus models.AdapterStatus, face models.FaceSnapshot,
	voiceStatus models.AdapterStatus, voice models.VoiceSnapshot,
	wearableStatus models.AdapterStatus, wearable models.WearableSnapshot,
) FusedState {
	return FusedState{
		Face:           face.Normalize(),
		Voice:          voice.Normalize(),
		Wearable:       wearable.Normalize(),
		FaceActive:     faceStatus == models.StatusActive,
		VoiceActive:    voiceStatus == models.StatusActive,
		WearableActive: wearableStatus == models.StatusActive,
	}
}

// ActiveCount returns how many modalities are actively sensing.
func (f FusedState) ActiveCount() int {
	n := 0
	if f.FaceActive {
		n++
	}
	if f.VoiceActive {
		n++
	}
	if f.WearableActive {
		n++
	}
	return n
}

// Score computes the adaptation score: 25 points per active stream plus the
// rounded mean of attention, clarity, and heart rate, capped at 100. Adding an
// active stream can only raise or hold the score.
func (f FusedState) Score() int {
	base := f.ActiveCount() * BasePointsPerModality
	bonus := int(math.Round(float64(f.Face.AttentionLevel+f.Voice.Clarity+f.Wearable.HeartRate) / 3))
	score := base + bonus
	if score > 100 {
		return 100
	}
	return score
}
