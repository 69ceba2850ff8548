package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cwbudde/cmaes/internal/cma"
	"github.com/cwbudde/cmaes/internal/linalg"
	"github.com/cwbudde/cmaes/internal/objective"
	"github.com/cwbudde/cmaes/internal/runner"
	"github.com/cwbudde/cmaes/internal/store"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	objectiveName      string
	dims               int
	generations        int
	popSize            int
	seed               uint64
	sigma              float64
	initialMean        []float64
	targetValue        float64
	outPath            string
	dataDir            string
	checkpointInterval int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run single-shot optimization",
	Long:  `Runs a CMA-ES optimization against a built-in objective function and writes the best solution found.`,
	RunE:  runOptimization,
}

func init() {
	runCmd.Flags().StringVar(&objectiveName, "objective", "", fmt.Sprintf("Objective function (one of: %v)", objective.Names()))
	runCmd.Flags().IntVar(&dims, "dims", 10, "Problem dimensionality")
	runCmd.Flags().IntVar(&generations, "generations", 500, "Max generations")
	runCmd.Flags().IntVar(&popSize, "pop", 0, "Population size (0 = derived from dims)")
	runCmd.Flags().Uint64Var(&seed, "seed", cma.DefaultSeed, "Random seed")
	runCmd.Flags().Float64Var(&sigma, "sigma", 0.5, "Initial step size")
	runCmd.Flags().Float64SliceVar(&initialMean, "mean", nil, "Initial mean (comma-separated, defaults to origin)")
	runCmd.Flags().Float64Var(&targetValue, "target", 0, "Stop once the best value reaches this threshold")
	runCmd.Flags().StringVar(&outPath, "out", "", "Write the result as JSON to this path")
	runCmd.Flags().StringVar(&dataDir, "data-dir", "./data", "Base directory for checkpoints and traces")
	runCmd.Flags().IntVar(&checkpointInterval, "checkpoint-interval", 0, "Checkpoint every N generations (0 = disabled)")

	runCmd.MarkFlagRequired("objective")
	rootCmd.AddCommand(runCmd)
}

// runResult is the JSON document written by --out.
type runResult struct {
	Objective    string    `json:"objective"`
	Dims         int       `json:"dims"`
	BestGenome   []float64 `json:"bestGenome"`
	BestValue    float64   `json:"bestValue"`
	InitialValue float64   `json:"initialValue"`
	Generations  int       `json:"generations"`
	StopReason   string    `json:"stopReason"`
	Elapsed      float64   `json:"elapsedSeconds"`
}

func runOptimization(cmd *cobra.Command, args []string) error {
	eval, err := objective.ByName(objectiveName)
	if err != nil {
		return err
	}

	if len(initialMean) > 0 && len(initialMean) != dims {
		return fmt.Errorf("mean has %d components, expected %d", len(initialMean), dims)
	}

	mean := linalg.NewVector(dims)
	if len(initialMean) > 0 {
		mean = linalg.VectorOf(initialMean...)
	}

	effectivePop := popSize
	if effectivePop <= 0 {
		effectivePop = cma.PopulationSize(dims)
	}

	slog.Info("Starting optimization",
		"objective", eval.Name(),
		"dims", dims,
		"generations", generations,
		"pop", effectivePop,
		"seed", seed,
	)

	engine, err := cma.New(mean, sigma, effectivePop, cma.WithSeed(seed))
	if err != nil {
		return fmt.Errorf("failed to create optimizer: %w", err)
	}

	jobID := uuid.New().String()
	initialValue := 0.0
	if values, err := objective.Batch(eval)([]linalg.Vector{mean}); err == nil && len(values) == 1 {
		initialValue = values[0]
	}

	hooks := runner.Hooks{
		OnGeneration: func(generation int, best cma.Best, s float64) {
			if generation%50 == 0 {
				slog.Info("Progress", "generation", generation, "best_value", best.Value, "sigma", s)
			}
		},
	}

	if checkpointInterval > 0 {
		checkpointStore, err := store.NewFSStore(dataDir)
		if err != nil {
			return fmt.Errorf("failed to open checkpoint store: %w", err)
		}
		config := store.JobConfig{
			Objective:          eval.Name(),
			Dims:               dims,
			Generations:        generations,
			PopSize:            effectivePop,
			Sigma:              sigma,
			Seed:               seed,
			Mean:               initialMean,
			CheckpointInterval: checkpointInterval,
		}
		hooks.Checkpoint = func(e *cma.CMAES) error {
			checkpoint, err := store.NewCheckpoint(jobID, e, initialValue, config)
			if err != nil {
				return err
			}
			return checkpointStore.SaveCheckpoint(jobID, checkpoint)
		}
		slog.Info("Checkpointing enabled", "job_id", jobID, "every", checkpointInterval)
	}

	cfg := runner.Config{
		Generations:     generations,
		TargetValue:     targetValue,
		UseTarget:       cmd.Flags().Changed("target"),
		Convergence:     runner.DefaultConvergenceConfig(),
		CheckpointEvery: checkpointInterval,
	}

	start := time.Now()
	result, err := runner.Run(context.Background(), engine, objective.Batch(eval), cfg, hooks)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	elapsed := time.Since(start)

	fmt.Printf("%s (%dD): %.6g -> %.6g in %d generations (%s, %s)\n",
		eval.Name(), dims, result.InitialValue, result.Best.Value,
		result.Generations, result.Reason, elapsed.Round(time.Millisecond))

	if outPath != "" {
		doc := runResult{
			Objective:    eval.Name(),
			Dims:         dims,
			BestGenome:   result.Best.Genome.Components(),
			BestValue:    result.Best.Value,
			InitialValue: result.InitialValue,
			Generations:  result.Generations,
			StopReason:   string(result.Reason),
			Elapsed:      elapsed.Seconds(),
		}
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		if err := os.WriteFile(outPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write result: %w", err)
		}
		fmt.Printf("Wrote %s\n", outPath)
	}

	return nil
}
