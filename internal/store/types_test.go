package store

import (
	"errors"
	"testing"
	"time"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/linalg"
)

// testConfig returns a valid job config for a 3-dimensional sphere job.
func testConfig() JobConfig {
	return JobConfig{
		Objective:   "sphere",
		Dims:        3,
		Generations: 100,
		PopSize:     7,
		Sigma:       1.0,
		Seed:        42,
	}
}

// testEngine creates an engine matching testConfig, advanced a few
// generations so the snapshot carries non-trivial state.
func testEngine(t *testing.T) *cma.CMAES {
	t.Helper()

	engine, err := cma.New(linalg.VectorOf(2, 2, 2), 1.0, 7, cma.WithSeed(42))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	sphere := func(candidates []linalg.Vector) ([]float64, error) {
		values := make([]float64, len(candidates))
		for i, c := range candidates {
			values[i] = c.SquaredNorm()
		}
		return values, nil
	}
	for g := 0; g < 5; g++ {
		if _, err := engine.Epoch(sphere); err != nil {
			t.Fatalf("epoch %d failed: %v", g, err)
		}
	}
	return engine
}

func createTestCheckpoint(t *testing.T, jobID string) *Checkpoint {
	t.Helper()

	checkpoint, err := NewCheckpoint(jobID, testEngine(t), 12.0, testConfig())
	if err != nil {
		t.Fatalf("failed to create checkpoint: %v", err)
	}
	return checkpoint
}

func TestNewCheckpointCapturesEngineState(t *testing.T) {
	checkpoint := createTestCheckpoint(t, "job-1")

	if checkpoint.State == nil {
		t.Fatal("checkpoint has no engine snapshot")
	}
	if checkpoint.State.Generation != 5 {
		t.Errorf("snapshot generation = %d, want 5", checkpoint.State.Generation)
	}
	if checkpoint.BestValue != checkpoint.State.BestValue {
		t.Errorf("BestValue %v disagrees with snapshot %v", checkpoint.BestValue, checkpoint.State.BestValue)
	}
	if checkpoint.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestCheckpointValidate(t *testing.T) {
	valid := createTestCheckpoint(t, "job-1")
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid checkpoint rejected: %v", err)
	}

	cases := map[string]func(*Checkpoint){
		"empty job id":    func(c *Checkpoint) { c.JobID = "" },
		"missing state":   func(c *Checkpoint) { c.State = nil },
		"zero timestamp":  func(c *Checkpoint) { c.Timestamp = time.Time{} },
		"empty objective": func(c *Checkpoint) { c.Config.Objective = "" },
		"bad dims":        func(c *Checkpoint) { c.Config.Dims = 0 },
		"bad generations": func(c *Checkpoint) { c.Config.Generations = -1 },
		"bad pop size":    func(c *Checkpoint) { c.Config.PopSize = 0 },
		"dim mismatch":    func(c *Checkpoint) { c.Config.Dims = 4; c.Config.Mean = nil },
		"lambda mismatch": func(c *Checkpoint) { c.Config.PopSize = 9 },
		"mean mismatch":   func(c *Checkpoint) { c.Config.Mean = []float64{1, 2} },
		"truncated mean":  func(c *Checkpoint) { c.State.Mean = c.State.Mean[:1] },
		"truncated cov":   func(c *Checkpoint) { c.State.Covariance = c.State.Covariance[:3] },
	}

	for name, corrupt := range cases {
		checkpoint := createTestCheckpoint(t, "job-1")
		corrupt(checkpoint)

		err := checkpoint.Validate()
		if err == nil {
			t.Errorf("case %q: expected validation error", name)
			continue
		}
		var corruptErr *CorruptCheckpointError
		if !errors.As(err, &corruptErr) {
			t.Errorf("case %q: error type = %T, want *CorruptCheckpointError", name, err)
		}
	}
}

func TestCheckpointIsCompatible(t *testing.T) {
	checkpoint := createTestCheckpoint(t, "job-1")

	if err := checkpoint.IsCompatible(testConfig()); err != nil {
		t.Fatalf("matching config rejected: %v", err)
	}

	other := testConfig()
	other.Objective = "rastrigin"
	if err := checkpoint.IsCompatible(other); err == nil {
		t.Error("objective mismatch accepted")
	}

	other = testConfig()
	other.Dims = 5
	if err := checkpoint.IsCompatible(other); err == nil {
		t.Error("dims mismatch accepted")
	}

	other = testConfig()
	other.PopSize = 20
	if err := checkpoint.IsCompatible(other); err == nil {
		t.Error("popSize mismatch accepted")
	}
}

func TestToInfo(t *testing.T) {
	checkpoint := createTestCheckpoint(t, "job-1")
	info := checkpoint.ToInfo()

	if info.JobID != "job-1" {
		t.Errorf("JobID = %q", info.JobID)
	}
	if info.Generation != 5 {
		t.Errorf("Generation = %d, want 5", info.Generation)
	}
	if info.Objective != "sphere" {
		t.Errorf("Objective = %q", info.Objective)
	}
	if info.Dims != 3 {
		t.Errorf("Dims = %d, want 3", info.Dims)
	}
}
