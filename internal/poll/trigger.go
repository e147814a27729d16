// Package poll accumulates frame time into a progress value and reports
// when a refresh cycle completes.
package poll

import (
	"fmt"
	"math"

	"github.com/tinytelemetry/fxlive/internal/model"
)

// Config controls the cycle length.
type Config struct {
	Rate      float64 // progress gained per millisecond
	Threshold float64 // near-completion point that ends a cycle
}

// DefaultConfig returns the ~10s cycle used by the TUI.
func DefaultConfig() Config {
	return Config{Rate: model.DefaultPollRate, Threshold: model.DefaultFireThreshold}
}

// Validate checks that the config describes a cycle that can complete.
func (c Config) Validate() error {
	if c.Rate <= 0 || math.IsNaN(c.Rate) || math.IsInf(c.Rate, 0) {
		return fmt.Errorf("poll rate must be positive, got %v", c.Rate)
	}
	if c.Threshold <= 0 || c.Threshold >= 1 {
		return fmt.Errorf("fire threshold must be in (0,1), got %v", c.Threshold)
	}
	return nil
}

// Trigger owns the progress value in [0,1).
type Trigger struct {
	cfg      Config
	progress float64
}

// NewTrigger creates a Trigger at progress 0.
func NewTrigger(cfg Config) *Trigger {
	return &Trigger{cfg: cfg}
}

// Advance applies one frame tick. It returns true when the tick completes a
// cycle, in which case progress is reset to 0. Advance never triggers the
// refresh itself; the caller does that after observing true.
func (t *Trigger) Advance(deltaMillis float64) bool {
	if deltaMillis < 0 || math.IsNaN(deltaMillis) {
		deltaMillis = 0
	}

	next := t.progress + deltaMillis*t.cfg.Rate
	if next > t.cfg.Threshold {
		t.progress = 0
		return true
	}
	t.progress = math.Mod(next, 1)
	return false
}

// Progress returns the current progress in [0,1).
func (t *Trigger) Progress() float64 {
	return t.progress
}

// Reset returns progress to 0 without reporting a completed cycle.
func (t *Trigger) Reset() {
	t.progress = 0
}
