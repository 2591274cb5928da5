package recommend

import (
	"fmt"
	"log/slog"

	"github.com/InnerCurrent/serene/internal/fusion"
	"github.com/InnerCurrent/serene/internal/models"
)

// Thresholds used by the rule match and insight generation.
const (
	// LowAttentionThreshold is the attention level below which a focusing
	// session is recommended.
	LowAttentionThreshold = 60
	// ElevatedHeartRate is the bpm above which heart rate is flagged.
	ElevatedHeartRate = 90
)

// Recommend selects a meditation script for the fused state. Rules are
// evaluated in a fixed priority order; the first match wins:
//
//  1. stressed face or stressed voice  -> calming
//  2. attention below threshold        -> focusing
//  3. low wearable energy              -> energizing
//  4. otherwise                        -> balancing
//
// The boolean is false when the catalog has no script of the target energy
// type; callers must handle the absence without failing.
func Recommend(c *Catalog, f fusion.FusedState) (models.MeditationScript, bool) {
	target := targetEnergy(f)
	script, ok := c.FirstByEnergy(target)
	if !ok {
		slog.Warn("No script available for recommendation", "energy_type", target)
		return models.MeditationScript{}, false
	}
	slog.Debug("Recommendation selected", "energy_type", target, "script", script.ID)
	return script, true
}

func targetEnergy(f fusion.FusedState) models.EnergyType {
	switch {
	case f.Face.Emotion == models.EmotionStressed || f.Voice.Tone == models.ToneStressed:
		return models.EnergyTypeCalming
	case f.Face.AttentionLevel < LowAttentionThreshold:
		return models.EnergyTypeFocusing
	case f.Wearable.Energy == models.EnergyLow:
		return models.EnergyTypeEnergizing
	default:
		return models.EnergyTypeBalancing
	}
}

// Environment derives meditation environment settings from the fused state.
// The result is ephemeral: bounded to 0-100, recomputed on every fused-state
// change, never persisted.
func Environment(f fusion.FusedState) models.EnvironmentSettings {
	e := models.EnvironmentSettings{Sound: 50, Temperature: 50, Brightness: 50}

	stressed := f.Face.Emotion == models.EmotionStressed || f.Voice.Tone == models.ToneStressed
	if stressed {
		// Quieter and darker under stress, slightly warmer.
		e.Sound -= 20
		e.Brightness -= 25
		e.Temperature += 10
	} else if f.Face.AttentionLevel < LowAttentionThreshold {
		e.Brightness += 25
	}
	if f.Wearable.Energy == models.EnergyLow {
		e.Sound += 15
	}
	if f.Wearable.HeartRate > ElevatedHeartRate {
		e.Temperature -= 10
	}
	return e.Normalize()
}

// Insights regenerates the full insight list for the fused state. One entry
// per notable condition; the list is rebuilt from scratch on every pass.
func Insights(f fusion.FusedState) []string {
	var insights []string

	if f.Face.Emotion == models.EmotionStressed {
		insights = append(insights, "Your facial expression shows signs of stress. A calming session can help you release it.")
	}
	if f.Voice.Tone == models.ToneStressed {
		insights = append(insights, "Your voice carries a stressed tone. Slow, deep breathing before the session may help.")
	}
	if f.FaceActive && !f.Face.FaceDetected {
		insights = append(insights, "We can't see your face right now. Adjust your camera for better adaptation.")
	}
	if f.FaceActive && f.Face.AttentionLevel < LowAttentionThreshold {
		insights = append(insights, fmt.Sprintf("Your attention is at %d%%. A focusing exercise can bring you back to center.", f.Face.AttentionLevel))
	}
	if f.Wearable.Energy == models.EnergyLow {
		insights = append(insights, "Your energy is running low. An energizing session could lift you up.")
	}
	if f.WearableActive && f.Wearable.HeartRate > ElevatedHeartRate {
		insights = append(insights, fmt.Sprintf("Your heart rate is elevated at %d bpm. Consider easing into the session.", f.Wearable.HeartRate))
	}

	if len(insights) == 0 {
		insights = append(insights, "Your signals look balanced. A balancing session will keep you in flow.")
	}
	return insights
}
