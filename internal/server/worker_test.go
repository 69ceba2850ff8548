package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/cmaes/internal/store"
)

func setupTestWorker(t *testing.T) (*JobManager, *store.FSStore, string) {
	t.Helper()
	baseDir := t.TempDir()
	fsStore, err := store.NewFSStore(baseDir)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	return NewJobManager(), fsStore, baseDir
}

func TestRunJob_Success(t *testing.T) {
	jm, fsStore, baseDir := setupTestWorker(t)

	config := JobConfig{
		Objective:          "sphere",
		Dims:               2,
		Generations:        30,
		PopSize:            8,
		Sigma:              0.5,
		Seed:               42,
		Mean:               []float64{3, 3},
		CheckpointInterval: 5,
	}

	job := jm.CreateJob(config)

	err := runJob(context.Background(), jm, fsStore, baseDir, job.ID, nil)
	if err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
	if len(updated.BestGenome) != 2 {
		t.Errorf("Expected 2-dimensional best genome, got %d", len(updated.BestGenome))
	}
	if updated.BestValue >= updated.InitialValue {
		t.Errorf("Best value %v should improve on initial %v", updated.BestValue, updated.InitialValue)
	}
	if updated.StopReason == "" {
		t.Error("Stop reason should be recorded")
	}
	if updated.EndTime == nil {
		t.Error("End time should be set")
	}

	// Checkpoint and trace should be on disk
	if _, err := fsStore.LoadCheckpoint(job.ID); err != nil {
		t.Errorf("Final checkpoint should exist: %v", err)
	}
	tracePath := filepath.Join(fsStore.JobDir(job.ID), "trace.jsonl")
	if _, err := os.Stat(tracePath); err != nil {
		t.Errorf("Trace file should exist: %v", err)
	}
}

func TestRunJob_UnknownObjective(t *testing.T) {
	jm, fsStore, baseDir := setupTestWorker(t)

	config := testJobConfig()
	config.Objective = "nonexistent"
	job := jm.CreateJob(config)

	err := runJob(context.Background(), jm, fsStore, baseDir, job.ID, nil)
	if err == nil {
		t.Error("runJob should fail with unknown objective")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm, fsStore, baseDir := setupTestWorker(t)

	job := jm.CreateJob(testJobConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancelled before the run starts

	err := runJob(ctx, jm, fsStore, baseDir, job.ID, nil)
	if err == nil {
		t.Error("runJob should return error when cancelled")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
}

func TestRunJob_ResumeContinuesFromCheckpoint(t *testing.T) {
	jm, fsStore, baseDir := setupTestWorker(t)

	config := JobConfig{
		Objective:          "sphere",
		Dims:               2,
		Generations:        20,
		PopSize:            8,
		Sigma:              0.5,
		Seed:               42,
		Mean:               []float64{3, 3},
		CheckpointInterval: 10,
	}

	job := jm.CreateJob(config)
	if err := runJob(context.Background(), jm, fsStore, baseDir, job.ID, nil); err != nil {
		t.Fatalf("Initial run failed: %v", err)
	}

	checkpoint, err := fsStore.LoadCheckpoint(job.ID)
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	startGen := checkpoint.State.Generation

	resumed := jm.AdoptJob(job.ID, config)
	if err := runJob(context.Background(), jm, fsStore, baseDir, resumed.ID, checkpoint); err != nil {
		t.Fatalf("Resumed run failed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Resumed job should be completed, got %s", updated.State)
	}
	if updated.Generation <= startGen {
		t.Errorf("Resumed job should advance beyond generation %d, got %d", startGen, updated.Generation)
	}
	if updated.InitialValue != checkpoint.InitialValue {
		t.Errorf("Resumed job should keep the original initial value %v, got %v",
			checkpoint.InitialValue, updated.InitialValue)
	}
}
