package runner

import (
	"context"
	"testing"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/linalg"
	"github.com/cwbudde/cmaes/internal/objective"
)

func newSphereEngine(t *testing.T) *cma.CMAES {
	t.Helper()

	engine, err := cma.New(linalg.VectorOf(5, 5), 1.0, 6, cma.WithSeed(42))
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine
}

func TestRunReachesTarget(t *testing.T) {
	engine := newSphereEngine(t)

	cfg := Config{
		Generations: 500,
		TargetValue: 1e-6,
		UseTarget:   true,
		Convergence: DisabledConvergenceConfig(),
	}

	result, err := Run(context.Background(), engine, objective.Batch(objective.NewSphere()), cfg, Hooks{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != StopTarget {
		t.Errorf("stop reason = %s, want %s", result.Reason, StopTarget)
	}
	if result.Best.Value > 1e-6 {
		t.Errorf("best value = %v, want <= 1e-6", result.Best.Value)
	}
	if result.Generations >= 500 {
		t.Errorf("expected early stop, ran all %d generations", result.Generations)
	}
	if result.InitialValue != 50 {
		t.Errorf("initial value at (5,5) = %v, want 50", result.InitialValue)
	}
}

func TestRunExhaustsBudget(t *testing.T) {
	engine := newSphereEngine(t)

	cfg := Config{Generations: 10, Convergence: DisabledConvergenceConfig()}
	result, err := Run(context.Background(), engine, objective.Batch(objective.NewSphere()), cfg, Hooks{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if result.Reason != StopGenerations {
		t.Errorf("stop reason = %s, want %s", result.Reason, StopGenerations)
	}
	if result.Generations != 10 {
		t.Errorf("generations = %d, want 10", result.Generations)
	}
}

func TestRunGenerationHook(t *testing.T) {
	engine := newSphereEngine(t)

	var calls int
	var lastGen int
	hooks := Hooks{
		OnGeneration: func(generation int, best cma.Best, sigma float64) {
			calls++
			lastGen = generation
			if sigma <= 0 {
				t.Errorf("sigma = %v at generation %d", sigma, generation)
			}
		},
	}

	cfg := Config{Generations: 5, Convergence: DisabledConvergenceConfig()}
	if _, err := Run(context.Background(), engine, objective.Batch(objective.NewSphere()), cfg, hooks); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if calls != 5 {
		t.Errorf("hook called %d times, want 5", calls)
	}
	if lastGen != 5 {
		t.Errorf("last generation = %d, want 5", lastGen)
	}
}

func TestRunCheckpointInterval(t *testing.T) {
	engine := newSphereEngine(t)

	var saves int
	hooks := Hooks{
		Checkpoint: func(e *cma.CMAES) error {
			saves++
			return nil
		},
	}

	cfg := Config{
		Generations:     12,
		Convergence:     DisabledConvergenceConfig(),
		CheckpointEvery: 4,
	}
	if _, err := Run(context.Background(), engine, objective.Batch(objective.NewSphere()), cfg, hooks); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if saves != 3 {
		t.Errorf("checkpoint saved %d times, want 3", saves)
	}
}

func TestRunCancelled(t *testing.T) {
	engine := newSphereEngine(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{Generations: 100, Convergence: DisabledConvergenceConfig()}
	result, err := Run(ctx, engine, objective.Batch(objective.NewSphere()), cfg, Hooks{})
	if err == nil {
		t.Fatal("expected context error")
	}
	if result.Reason != StopCancelled {
		t.Errorf("stop reason = %s, want %s", result.Reason, StopCancelled)
	}
}

func TestRunRejectsBadBudget(t *testing.T) {
	engine := newSphereEngine(t)
	if _, err := Run(context.Background(), engine, objective.Batch(objective.NewSphere()), Config{}, Hooks{}); err == nil {
		t.Fatal("expected error for zero generation budget")
	}
}

func TestConvergenceTrackerStalls(t *testing.T) {
	tracker := NewConvergenceTracker(ConvergenceConfig{
		Enabled:   true,
		Patience:  3,
		Threshold: 0.01,
	})

	// Strong improvements keep the counter at zero.
	if tracker.Update(100) || tracker.Update(50) || tracker.Update(25) {
		t.Fatal("tracker stalled during steady improvement")
	}

	// Sub-threshold improvements accumulate staleness.
	tracker.Update(24.999)
	tracker.Update(24.998)
	if !tracker.Update(24.997) {
		t.Fatal("tracker did not stall after patience exceeded")
	}
	if tracker.BestValue() != 24.997 {
		t.Errorf("best value = %v, want 24.997", tracker.BestValue())
	}
	if got := len(tracker.History()); got != 6 {
		t.Errorf("history length = %d, want 6", got)
	}
}
