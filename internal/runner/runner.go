// Package runner drives a CMA-ES engine generation by generation, with
// stopping criteria, progress hooks, and periodic checkpointing.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/linalg"
)

// StopReason says why a run ended.
type StopReason string

const (
	StopGenerations StopReason = "generations" // generation budget exhausted
	StopTarget      StopReason = "target"      // target objective value reached
	StopStalled     StopReason = "stalled"     // no significant progress
	StopCancelled   StopReason = "cancelled"   // context cancelled
)

// Config controls a run.
type Config struct {
	// Generations is the maximum number of generations.
	Generations int

	// TargetValue stops the run once the best value drops to or below it.
	// Only honored when UseTarget is set, since 0 is a common target.
	TargetValue float64
	UseTarget   bool

	// Convergence configures stall detection.
	Convergence ConvergenceConfig

	// CheckpointEvery saves a checkpoint every N generations (0 = disabled).
	CheckpointEvery int
}

// Hooks are optional observation points. Either may be nil.
type Hooks struct {
	// OnGeneration runs after every completed generation.
	OnGeneration func(generation int, best cma.Best, sigma float64)

	// Checkpoint persists the engine state; failures are logged and the run
	// continues, since a missed checkpoint must not kill a healthy search.
	Checkpoint func(engine *cma.CMAES) error
}

// Result holds the outcome of a run.
type Result struct {
	Best         cma.Best
	InitialValue float64
	Generations  int
	Reason       StopReason
}

// Run advances the engine until a stopping criterion fires. Engine errors are
// fatal and returned immediately with the generations completed so far.
func Run(ctx context.Context, engine *cma.CMAES, evaluate cma.BatchEvaluator, cfg Config, hooks Hooks) (*Result, error) {
	if cfg.Generations <= 0 {
		return nil, fmt.Errorf("generation budget must be positive, got %d", cfg.Generations)
	}

	initial, err := evaluate([]linalg.Vector{engine.Mean()})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate initial mean: %w", err)
	}
	initialValue := math.Inf(1)
	if len(initial) == 1 {
		initialValue = initial[0]
	}

	slog.Info("Starting optimization run",
		"dim", engine.Params().Dim,
		"lambda", engine.Params().Lambda,
		"start_generation", engine.Generation(),
		"budget", cfg.Generations,
		"initial_value", initialValue,
	)

	tracker := NewConvergenceTracker(cfg.Convergence)
	result := &Result{InitialValue: initialValue, Reason: StopGenerations}

	start := engine.Generation()
	for engine.Generation() < start+cfg.Generations {
		select {
		case <-ctx.Done():
			result.Reason = StopCancelled
			return result, ctx.Err()
		default:
		}

		best, err := engine.Epoch(evaluate)
		if err != nil {
			return result, err
		}
		result.Best = best
		result.Generations = engine.Generation() - start

		if hooks.OnGeneration != nil {
			hooks.OnGeneration(engine.Generation(), best, engine.Sigma())
		}

		if cfg.CheckpointEvery > 0 && hooks.Checkpoint != nil &&
			result.Generations%cfg.CheckpointEvery == 0 {
			if err := hooks.Checkpoint(engine); err != nil {
				slog.Error("Failed to save checkpoint", "generation", engine.Generation(), "error", err)
			}
		}

		if cfg.UseTarget && best.Value <= cfg.TargetValue {
			result.Reason = StopTarget
			break
		}
		if tracker.Update(best.Value) {
			result.Reason = StopStalled
			break
		}
	}

	slog.Info("Optimization run finished",
		"reason", result.Reason,
		"generations", result.Generations,
		"initial_value", result.InitialValue,
		"best_value", result.Best.Value,
	)
	return result, nil
}
