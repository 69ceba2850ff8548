package store

import (
	"fmt"
	"time"

	"github.com/cwbudde/cmaes/internal/cma"
)

// JobConfig holds the configuration of an optimization job. It is embedded in
// checkpoints so a resumed job can be validated against compatible settings.
type JobConfig struct {
	Objective          string    `json:"objective"`
	Dims               int       `json:"dims"`
	Generations        int       `json:"generations"`
	PopSize            int       `json:"popSize"`
	Sigma              float64   `json:"sigma"`
	Seed               uint64    `json:"seed"`
	Mean               []float64 `json:"mean,omitempty"`               // initial mean; zero vector when omitted
	CheckpointInterval int       `json:"checkpointInterval,omitempty"` // checkpoint every N generations (0 = disabled)
}

// Checkpoint is a saved optimizer state that can be resumed later.
//
// The checkpoint embeds the complete engine state (mean, step size,
// covariance entries, both evolution paths, generation counter, selection
// weights, best solution, and the random generator's position) so resuming
// continues the exact trajectory the interrupted run would have taken.
type Checkpoint struct {
	// JobID is the unique identifier for the optimization job.
	JobID string `json:"jobId"`

	// State is the full engine snapshot.
	State *cma.Snapshot `json:"state"`

	// BestValue duplicates the snapshot's best objective value so listings
	// do not need to deserialize the whole state.
	BestValue float64 `json:"bestValue"`

	// InitialValue is the objective value at the starting mean, kept for
	// improvement tracking.
	InitialValue float64 `json:"initialValue"`

	// Timestamp records when this checkpoint was created.
	Timestamp time.Time `json:"timestamp"`

	// Config holds the job configuration, needed for compatibility checks
	// during resume.
	Config JobConfig `json:"config"`
}

// NewCheckpoint creates a checkpoint from a live engine and job state.
func NewCheckpoint(jobID string, engine *cma.CMAES, initialValue float64, config JobConfig) (*Checkpoint, error) {
	snapshot, err := engine.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot engine: %w", err)
	}

	return &Checkpoint{
		JobID:        jobID,
		State:        snapshot,
		BestValue:    snapshot.BestValue,
		InitialValue: initialValue,
		Timestamp:    time.Now(),
		Config:       config,
	}, nil
}

// CheckpointInfo contains metadata about a checkpoint without the full state.
// Used for listing checkpoints without loading covariance matrices.
type CheckpointInfo struct {
	JobID      string    `json:"jobId"`
	BestValue  float64   `json:"bestValue"`
	Generation int       `json:"generation"`
	Timestamp  time.Time `json:"timestamp"`
	Objective  string    `json:"objective"`
	Dims       int       `json:"dims"`
}

// ToInfo converts a full Checkpoint to its metadata.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	info := CheckpointInfo{
		JobID:     c.JobID,
		BestValue: c.BestValue,
		Timestamp: c.Timestamp,
		Objective: c.Config.Objective,
		Dims:      c.Config.Dims,
	}
	if c.State != nil {
		info.Generation = c.State.Generation
	}
	return info
}

// Validate checks the checkpoint for missing fields and cross-field dimension
// inconsistencies. Returns a *CorruptCheckpointError describing the first
// problem found.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &CorruptCheckpointError{Field: "jobId", Reason: "cannot be empty"}
	}
	if c.State == nil {
		return &CorruptCheckpointError{Field: "state", Reason: "missing engine snapshot"}
	}
	if c.Timestamp.IsZero() {
		return &CorruptCheckpointError{Field: "timestamp", Reason: "cannot be zero"}
	}
	if c.Config.Objective == "" {
		return &CorruptCheckpointError{Field: "config.objective", Reason: "cannot be empty"}
	}
	if c.Config.Dims <= 0 {
		return &CorruptCheckpointError{Field: "config.dims", Reason: "must be positive"}
	}
	if c.Config.Generations <= 0 {
		return &CorruptCheckpointError{Field: "config.generations", Reason: "must be positive"}
	}
	if c.Config.PopSize <= 0 {
		return &CorruptCheckpointError{Field: "config.popSize", Reason: "must be positive"}
	}
	if c.Config.Dims != c.State.Dim {
		return &CorruptCheckpointError{
			Field:  "state.dim",
			Reason: fmt.Sprintf("snapshot dimension %d does not match config dims %d", c.State.Dim, c.Config.Dims),
		}
	}
	if c.Config.PopSize != c.State.Lambda {
		return &CorruptCheckpointError{
			Field:  "state.lambda",
			Reason: fmt.Sprintf("snapshot population %d does not match config popSize %d", c.State.Lambda, c.Config.PopSize),
		}
	}
	if len(c.Config.Mean) != 0 && len(c.Config.Mean) != c.Config.Dims {
		return &CorruptCheckpointError{Field: "config.mean", Reason: "length does not match dims"}
	}
	// The snapshot's own field dimensions are re-checked on restore; surface
	// obvious truncation here so listing flags it early.
	if len(c.State.Mean) != c.State.Dim {
		return &CorruptCheckpointError{Field: "state.mean", Reason: "length does not match dimension"}
	}
	if len(c.State.Covariance) != c.State.Dim*c.State.Dim {
		return &CorruptCheckpointError{Field: "state.covariance", Reason: "length does not match dimension"}
	}
	return nil
}

// IsCompatible checks whether this checkpoint can be resumed under the given
// config. The search space and objective must match exactly.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.Objective != config.Objective {
		return &CompatibilityError{Field: "objective", Expected: c.Config.Objective, Actual: config.Objective}
	}
	if c.Config.Dims != config.Dims {
		return &CompatibilityError{
			Field:    "dims",
			Expected: fmt.Sprintf("%d", c.Config.Dims),
			Actual:   fmt.Sprintf("%d", config.Dims),
		}
	}
	if c.Config.PopSize != config.PopSize {
		return &CompatibilityError{
			Field:    "popSize",
			Expected: fmt.Sprintf("%d", c.Config.PopSize),
			Actual:   fmt.Sprintf("%d", config.PopSize),
		}
	}
	return nil
}

// CorruptCheckpointError reports a checkpoint with missing required fields or
// inconsistent dimensions across fields.
type CorruptCheckpointError struct {
	Field  string
	Reason string
}

func (e *CorruptCheckpointError) Error() string {
	return "corrupt checkpoint: " + e.Field + " " + e.Reason
}

func (e *CorruptCheckpointError) Is(target error) bool {
	_, ok := target.(*CorruptCheckpointError)
	return ok
}

// CompatibilityError reports a checkpoint/config mismatch on resume.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
