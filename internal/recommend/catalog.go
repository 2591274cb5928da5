// Package recommend derives the meditation recommendation, environment
// settings, and insight list from fused sensor state.
package recommend

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/InnerCurrent/serene/internal/models"
)

//go:embed scripts.json
var scriptsJSON []byte

// catalogEntry is the on-disk shape of one meditation script.
type catalogEntry struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	EnergyType      string `json:"energy_type"`
	DurationMinutes int    `json:"duration_minutes"`
	ContentRef      string `json:"content_ref"`
}

// Catalog is the read-only meditation script collection, loaded once at
// process start. Order is significant: rule matching picks the first script
// of the target energy type.
type Catalog struct {
	scripts []models.MeditationScript
}

// LoadCatalog parses the embedded script catalog.
func LoadCatalog() (*Catalog, error) {
	return parseCatalog(scriptsJSON)
}

func parseCatalog(data []byte) (*Catalog, error) {
	var entries []catalogEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse script catalog: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("script catalog is empty")
	}

	scripts := make([]models.MeditationScript, 0, len(entries))
	for _, e := range entries {
		energy := models.EnergyType(e.EnergyType)
		if !models.IsValidEnergyType(energy) {
			return nil, fmt.Errorf("script %q has unknown energy type %q", e.ID, e.EnergyType)
		}
		if e.ID == "" || e.Title == "" {
			return nil, fmt.Errorf("script entry missing id or title: %+v", e)
		}
		scripts = append(scripts, models.MeditationScript{
			ID:         e.ID,
			Title:      e.Title,
			Energy:     energy,
			Duration:   time.Duration(e.DurationMinutes) * time.Minute,
			ContentRef: e.ContentRef,
		})
	}
	slog.Info("Meditation catalog loaded", "scripts", len(scripts))
	return &Catalog{scripts: scripts}, nil
}

// Scripts returns a copy of the catalog entries in load order.
func (c *Catalog) Scripts() []models.MeditationScript {
	out := make([]models.MeditationScript, len(c.scripts))
	copy(out, c.scripts)
	return out
}

// ByID looks up one script.
func (c *Catalog) ByID(id string) (models.MeditationScript, bool) {
	for _, s := range c.scripts {
		if s.ID == id {
			return s, true
		}
	}
	return models.MeditationScript{}, false
}

// FirstByEnergy returns the first catalog entry with the given energy type.
func (c *Catalog) FirstByEnergy(t models.EnergyType) (models.MeditationScript, bool) {
	for _, s := range c.scripts {
		if s.Energy == t {
			return s, true
		}
	}
	return models.MeditationScript{}, false
}
