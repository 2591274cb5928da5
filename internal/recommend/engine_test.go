package recommend

import (
	"strings"
	"testing"

	"github.com/InnerCurrent/serene/internal/fusion"
	"github.com/InnerCurrent/serene/internal/models"
)

func mustCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := LoadCatalog()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return c
}

func fused(face models.FaceSnapshot, voice models.VoiceSnapshot, wearable models.WearableSnapshot) fusion.FusedState {
	return fusion.Fuse(
		models.StatusActive, face,
		models.StatusActive, voice,
		models.StatusActive, wearable,
	)
}

func TestRuleOrderingStressWinsOverAll(t *testing.T) {
	c := mustCatalog(t)
	// Stress, low attention, AND low energy all present: rule 1 must win.
	f := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 30, Emotion: models.EmotionStressed},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneNeutral},
		models.WearableSnapshot{HeartRate: 70, Energy: models.EnergyLow},
	)
	script, ok := Recommend(c, f)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if script.Energy != models.EnergyTypeCalming {
		t.Errorf("expected calming, got %s", script.Energy)
	}
}

func TestRuleOrderingStressedVoiceAlsoCalms(t *testing.T) {
	c := mustCatalog(t)
	f := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 90, Emotion: models.EmotionHappy},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneStressed},
		models.WearableSnapshot{HeartRate: 70, Energy: models.EnergyHigh},
	)
	script, ok := Recommend(c, f)
	if !ok || script.Energy != models.EnergyTypeCalming {
		t.Errorf("expected calming for stressed voice, got %v %v", script.Energy, ok)
	}
}

func TestRuleOrderingLowAttentionFocuses(t *testing.T) {
	c := mustCatalog(t)
	f := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 40, Emotion: models.EmotionNeutral},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneNeutral},
		models.WearableSnapshot{HeartRate: 70, Energy: models.EnergyMedium},
	)
	script, ok := Recommend(c, f)
	if !ok {
		t.Fatal("expected a recommendation")
	}
	if script.Energy != models.EnergyTypeFocusing {
		t.Errorf("expected focusing, got %s", script.Energy)
	}
}

func TestRuleOrderingLowEnergyEnergizes(t *testing.T) {
	c := mustCatalog(t)
	f := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 80, Emotion: models.EmotionNeutral},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneCalm},
		models.WearableSnapshot{HeartRate: 60, Energy: models.EnergyLow},
	)
	script, ok := Recommend(c, f)
	if !ok || script.Energy != models.EnergyTypeEnergizing {
		t.Errorf("expected energizing, got %v %v", script.Energy, ok)
	}
}

func TestRuleOrderingDefaultBalances(t *testing.T) {
	c := mustCatalog(t)
	// All-neutral defaults with nothing active still produce balancing...
	f := fusion.Fuse(
		models.StatusUnrequested, models.FaceSnapshot{AttentionLevel: 80, Emotion: models.EmotionNeutral},
		models.StatusUnrequested, models.DefaultVoiceSnapshot(),
		models.StatusUnrequested, models.DefaultWearableSnapshot(),
	)
	script, ok := Recommend(c, f)
	if !ok || script.Energy != models.EnergyTypeBalancing {
		t.Errorf("expected balancing, got %v %v", script.Energy, ok)
	}
	// ...and the first balancing catalog entry is the one selected.
	first, _ := c.FirstByEnergy(models.EnergyTypeBalancing)
	if script.ID != first.ID {
		t.Errorf("expected first balancing entry %s, got %s", first.ID, script.ID)
	}
}

func TestRecommendAbsentEnergyType(t *testing.T) {
	catalog, err := parseCatalog([]byte(`[
		{"id": "only-balancing", "title": "Only One", "energy_type": "balancing", "duration_minutes": 10, "content_ref": "x"}
	]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 90, Emotion: models.EmotionStressed},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneNeutral},
		models.WearableSnapshot{HeartRate: 70, Energy: models.EnergyMedium},
	)
	if _, ok := Recommend(catalog, f); ok {
		t.Error("expected no recommendation when no calming script exists")
	}
}

func TestCatalogRejectsUnknownEnergyType(t *testing.T) {
	_, err := parseCatalog([]byte(`[
		{"id": "bad", "title": "Bad", "energy_type": "soporific", "duration_minutes": 10, "content_ref": "x"}
	]`))
	if err == nil {
		t.Error("expected an error for an unknown energy type")
	}
}

func TestEnvironmentBoundedAndStressResponsive(t *testing.T) {
	stressed := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 80, Emotion: models.EmotionStressed},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneNeutral},
		models.WearableSnapshot{HeartRate: 70, Energy: models.EnergyMedium},
	)
	calm := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 80, Emotion: models.EmotionRelaxed},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneCalm},
		models.WearableSnapshot{HeartRate: 70, Energy: models.EnergyMedium},
	)

	es := Environment(stressed)
	ec := Environment(calm)
	if es.Sound >= ec.Sound {
		t.Errorf("stress should lower sound: %d vs %d", es.Sound, ec.Sound)
	}
	if es.Brightness >= ec.Brightness {
		t.Errorf("stress should lower brightness: %d vs %d", es.Brightness, ec.Brightness)
	}

	lowAttention := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 20, Emotion: models.EmotionNeutral},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneNeutral},
		models.WearableSnapshot{HeartRate: 70, Energy: models.EnergyMedium},
	)
	if la := Environment(lowAttention); la.Brightness <= ec.Brightness {
		t.Errorf("low attention should raise brightness: %d vs %d", la.Brightness, ec.Brightness)
	}

	for _, f := range []fusion.FusedState{stressed, calm, lowAttention} {
		e := Environment(f)
		for _, v := range []int{e.Sound, e.Temperature, e.Brightness} {
			if v < 0 || v > 100 {
				t.Errorf("environment setting out of bounds: %+v", e)
			}
		}
	}
}

func TestInsightsRegeneratedInFull(t *testing.T) {
	f := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 30, Emotion: models.EmotionStressed},
		models.VoiceSnapshot{Clarity: 50, Tone: models.ToneStressed},
		models.WearableSnapshot{HeartRate: 95, Energy: models.EnergyLow},
	)
	insights := Insights(f)
	if len(insights) != 5 {
		t.Fatalf("expected 5 insights, got %d: %v", len(insights), insights)
	}

	// All conditions clear: a single balanced note replaces everything.
	calm := fused(
		models.FaceSnapshot{FaceDetected: true, AttentionLevel: 90, Emotion: models.EmotionRelaxed},
		models.VoiceSnapshot{Clarity: 80, Tone: models.ToneCalm},
		models.WearableSnapshot{HeartRate: 65, Energy: models.EnergyMedium},
	)
	insights = Insights(calm)
	if len(insights) != 1 || !strings.Contains(insights[0], "balanced") {
		t.Errorf("expected the single balanced insight, got %v", insights)
	}
}

func TestInsightsSkipInactiveModalityConditions(t *testing.T) {
	// Inactive face at default zero attention must not produce the
	// low-attention insight; the default is "no signal", not a reading.
	f := fusion.Fuse(
		models.StatusUnrequested, models.DefaultFaceSnapshot(),
		models.StatusActive, models.VoiceSnapshot{Clarity: 80, Tone: models.ToneCalm},
		models.StatusActive, models.WearableSnapshot{HeartRate: 65, Energy: models.EnergyMedium},
	)
	for _, insight := range Insights(f) {
		if strings.Contains(insight, "attention") {
			t.Errorf("inactive face produced an attention insight: %q", insight)
		}
	}
}

func TestCatalogByID(t *testing.T) {
	c := mustCatalog(t)
	if _, ok := c.ByID("balancing-inner-current"); !ok {
		t.Error("expected to find balancing-inner-current")
	}
	if _, ok := c.ByID("nope"); ok {
		t.Error("unexpected hit for unknown id")
	}
}
