package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/objective"
	"github.com/cwbudde/cmaes/internal/runner"
	"github.com/cwbudde/cmaes/internal/store"
	"github.com/spf13/cobra"
)

var (
	resumeDataDir     string
	resumeGenerations int
)

var resumeCmd = &cobra.Command{
	Use:   "resume [job-id]",
	Short: "Resume an optimization from its checkpoint",
	Long: `Loads the saved checkpoint for a job and continues the optimization
from the exact state it was interrupted at, including the random stream.`,
	Args: cobra.ExactArgs(1),
	RunE: runResume,
}

func init() {
	resumeCmd.Flags().StringVar(&resumeDataDir, "data-dir", "./data", "Base directory for checkpoints and traces")
	resumeCmd.Flags().IntVar(&resumeGenerations, "generations", 0, "Additional generation budget (0 = checkpoint's own budget)")
	rootCmd.AddCommand(resumeCmd)
}

func runResume(cmd *cobra.Command, args []string) error {
	jobID := args[0]

	checkpointStore, err := store.NewFSStore(resumeDataDir)
	if err != nil {
		return fmt.Errorf("failed to open checkpoint store: %w", err)
	}

	checkpoint, err := checkpointStore.LoadCheckpoint(jobID)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint for %s: %w", jobID, err)
	}

	eval, err := objective.ByName(checkpoint.Config.Objective)
	if err != nil {
		return err
	}

	engine, err := cma.Restore(checkpoint.State)
	if err != nil {
		return fmt.Errorf("failed to restore optimizer: %w", err)
	}

	budget := resumeGenerations
	if budget <= 0 {
		budget = checkpoint.Config.Generations
	}

	slog.Info("Resuming optimization",
		"job_id", jobID,
		"objective", eval.Name(),
		"dims", checkpoint.Config.Dims,
		"from_generation", engine.Generation(),
		"budget", budget,
	)

	hooks := runner.Hooks{
		OnGeneration: func(generation int, best cma.Best, s float64) {
			if generation%50 == 0 {
				slog.Info("Progress", "generation", generation, "best_value", best.Value, "sigma", s)
			}
		},
		Checkpoint: func(e *cma.CMAES) error {
			updated, err := store.NewCheckpoint(jobID, e, checkpoint.InitialValue, checkpoint.Config)
			if err != nil {
				return err
			}
			return checkpointStore.SaveCheckpoint(jobID, updated)
		},
	}

	cfg := runner.Config{
		Generations:     budget,
		Convergence:     runner.DefaultConvergenceConfig(),
		CheckpointEvery: checkpoint.Config.CheckpointInterval,
	}

	start := time.Now()
	result, err := runner.Run(context.Background(), engine, objective.Batch(eval), cfg, hooks)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	elapsed := time.Since(start)

	// Persist the final state so the job can be extended again.
	if err := hooks.Checkpoint(engine); err != nil {
		slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
	}

	fmt.Printf("%s resumed: best %.6g after %d more generations (%s, %s)\n",
		jobID, result.Best.Value, result.Generations, result.Reason, elapsed.Round(time.Millisecond))

	return nil
}
