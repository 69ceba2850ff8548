package runner

import (
	"log/slog"
	"math"
)

// ConvergenceConfig defines parameters for detecting stalled optimization.
type ConvergenceConfig struct {
	// Enabled controls whether stall detection is active.
	Enabled bool

	// Patience is the number of generations with no significant improvement
	// before stopping.
	Patience int

	// Threshold is the minimum relative improvement of the best objective
	// value required to count as progress, e.g. 0.001 for 0.1%.
	Threshold float64
}

// DefaultConvergenceConfig returns sensible defaults for stall detection.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:   true,
		Patience:  30,
		Threshold: 1e-9,
	}
}

// DisabledConvergenceConfig returns a config with stall detection off.
func DisabledConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{Enabled: false}
}

// ConvergenceTracker tracks the best objective value per generation and
// detects when the run has stopped making progress.
type ConvergenceTracker struct {
	config          ConvergenceConfig
	history         []float64
	bestValue       float64
	lastSignificant float64
	staleCount      int
}

// NewConvergenceTracker creates a tracker with the given config.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:          config,
		bestValue:       math.Inf(1),
		lastSignificant: math.Inf(1),
	}
}

// Update records the generation's best value and returns true if the run has
// stalled for longer than the configured patience.
func (c *ConvergenceTracker) Update(value float64) bool {
	if !c.config.Enabled {
		return false
	}

	c.history = append(c.history, value)
	if value < c.bestValue {
		c.bestValue = value
	}

	if len(c.history) == 1 {
		c.lastSignificant = value
		return false
	}

	relative := (c.lastSignificant - value) / math.Abs(c.lastSignificant)
	if relative >= c.config.Threshold {
		c.lastSignificant = value
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience {
		slog.Info("Progress stalled - stopping early",
			"stale_count", c.staleCount,
			"patience", c.config.Patience,
			"best_value", c.bestValue,
		)
		return true
	}
	return false
}

// BestValue returns the best value seen so far.
func (c *ConvergenceTracker) BestValue() float64 {
	return c.bestValue
}

// History returns a copy of the recorded per-generation best values.
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.history...)
}

// StaleCount returns the current number of generations without improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}
