package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/linalg"
	"github.com/cwbudde/cmaes/internal/objective"
	"github.com/cwbudde/cmaes/internal/runner"
	"github.com/cwbudde/cmaes/internal/store"
)

// runJob executes an optimization job in the background. The job's worker
// goroutine is the sole owner of the engine instance: the engine is not
// reentrant, so all state observation goes through the JobManager.
// If resumeFrom is non-nil the engine continues from that checkpoint instead
// of starting fresh.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, baseDir, jobID string, resumeFrom *store.Checkpoint) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	err := jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateRunning
	})
	if err != nil {
		return err
	}

	slog.Info("Starting job",
		"job_id", jobID,
		"objective", job.Config.Objective,
		"dims", job.Config.Dims,
		"resumed", resumeFrom != nil,
	)

	eval, err := objective.ByName(job.Config.Objective)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	evaluate := objective.Batch(eval)

	engine, err := buildEngine(job.Config, resumeFrom)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}

	initialValue := startingValue(engine, evaluate, resumeFrom)
	jm.UpdateJob(jobID, func(j *Job) {
		j.InitialValue = initialValue
		j.Generation = engine.Generation()
	})

	trace, err := store.NewTraceWriter(baseDir, jobID, resumeFrom != nil)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	defer trace.Close()

	hooks := runner.Hooks{
		OnGeneration: func(generation int, best cma.Best, sigma float64) {
			jm.UpdateJob(jobID, func(j *Job) {
				j.Generation = generation
				j.BestValue = best.Value
				j.BestGenome = best.Genome.Components()
			})
			if err := trace.Write(store.TraceEntry{
				Generation: generation,
				BestValue:  best.Value,
				Sigma:      sigma,
				Timestamp:  time.Now(),
			}); err != nil {
				slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
			}
			jm.broadcaster.Broadcast(ProgressEvent{
				JobID:      jobID,
				State:      StateRunning,
				Generation: generation,
				BestValue:  best.Value,
				Sigma:      sigma,
				Timestamp:  time.Now(),
			})
		},
		Checkpoint: func(e *cma.CMAES) error {
			checkpoint, err := store.NewCheckpoint(jobID, e, initialValue, job.Config)
			if err != nil {
				return err
			}
			return checkpointStore.SaveCheckpoint(jobID, checkpoint)
		},
	}

	cfg := runner.Config{
		Generations:     job.Config.Generations,
		Convergence:     runner.DefaultConvergenceConfig(),
		CheckpointEvery: job.Config.CheckpointInterval,
	}

	start := time.Now()
	result, err := runner.Run(ctx, engine, evaluate, cfg, hooks)
	if err != nil {
		if ctx.Err() != nil {
			markJobCancelled(jm, jobID)
			return ctx.Err()
		}
		markJobFailed(jm, jobID, err)
		return err
	}
	elapsed := time.Since(start)

	// Final checkpoint so the completed state can be inspected or extended.
	if job.Config.CheckpointInterval > 0 {
		if err := hooks.Checkpoint(engine); err != nil {
			slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	endTime := time.Now()
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCompleted
		j.BestValue = result.Best.Value
		j.BestGenome = result.Best.Genome.Components()
		j.Generation = engine.Generation()
		j.StopReason = string(result.Reason)
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	slog.Info("Job completed",
		"job_id", jobID,
		"elapsed", elapsed,
		"generations", result.Generations,
		"initial_value", result.InitialValue,
		"best_value", result.Best.Value,
		"stop_reason", result.Reason,
	)

	jm.broadcaster.Broadcast(ProgressEvent{
		JobID:      jobID,
		State:      StateCompleted,
		Generation: engine.Generation(),
		BestValue:  result.Best.Value,
		Sigma:      engine.Sigma(),
		Timestamp:  time.Now(),
	})

	return nil
}

// buildEngine constructs a fresh engine from the job config, or restores one
// from a checkpoint.
func buildEngine(config store.JobConfig, resumeFrom *store.Checkpoint) (*cma.CMAES, error) {
	if resumeFrom != nil {
		engine, err := cma.Restore(resumeFrom.State)
		if err != nil {
			return nil, fmt.Errorf("failed to restore engine from checkpoint: %w", err)
		}
		return engine, nil
	}

	mean := linalg.NewVector(config.Dims)
	if len(config.Mean) > 0 {
		mean = linalg.VectorOf(config.Mean...)
	}

	engine, err := cma.New(mean, config.Sigma, config.PopSize, cma.WithSeed(config.Seed))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}
	return engine, nil
}

// startingValue evaluates the current mean, falling back to the checkpoint's
// recorded initial value when evaluation of the mean fails.
func startingValue(engine *cma.CMAES, evaluate cma.BatchEvaluator, resumeFrom *store.Checkpoint) float64 {
	if resumeFrom != nil {
		return resumeFrom.InitialValue
	}
	values, err := evaluate([]linalg.Vector{engine.Mean()})
	if err != nil || len(values) != 1 {
		return 0
	}
	return values[0]
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
}

// markJobCancelled marks a job as cancelled
func markJobCancelled(jm *JobManager, jobID string) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateCancelled
		j.EndTime = &endTime
	})
	slog.Info("Job cancelled", "job_id", jobID)
}
