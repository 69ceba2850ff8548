package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// setupTestStore creates a temporary directory and returns an FSStore.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	fsStore, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return fsStore, tempDir
}

func TestNewFSStore(t *testing.T) {
	tempDir := t.TempDir()

	fsStore, err := NewFSStore(filepath.Join(tempDir, "nested", "data"))
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if fsStore == nil {
		t.Fatal("Expected non-nil store")
	}
}

func TestSaveAndLoadCheckpoint(t *testing.T) {
	fsStore, tempDir := setupTestStore(t)

	jobID := "test-job-123"
	checkpoint := createTestCheckpoint(t, jobID)

	if err := fsStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "jobs", jobID, "checkpoint.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Checkpoint file was not created at %s", expectedPath)
	}

	loaded, err := fsStore.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}

	if loaded.JobID != checkpoint.JobID {
		t.Errorf("JobID = %q, want %q", loaded.JobID, checkpoint.JobID)
	}
	if loaded.State.Generation != checkpoint.State.Generation {
		t.Errorf("Generation = %d, want %d", loaded.State.Generation, checkpoint.State.Generation)
	}
	if loaded.State.Sigma != checkpoint.State.Sigma {
		t.Errorf("Sigma = %v, want %v", loaded.State.Sigma, checkpoint.State.Sigma)
	}
	for i, v := range checkpoint.State.Covariance {
		if loaded.State.Covariance[i] != v {
			t.Fatalf("Covariance entry %d = %v, want %v", i, loaded.State.Covariance[i], v)
		}
	}
	if len(loaded.State.RNGState) == 0 {
		t.Error("RNG state missing after round-trip")
	}
}

func TestSaveCheckpointOverwrites(t *testing.T) {
	fsStore, _ := setupTestStore(t)

	jobID := "overwrite-job"
	first := createTestCheckpoint(t, jobID)
	if err := fsStore.SaveCheckpoint(jobID, first); err != nil {
		t.Fatalf("first save failed: %v", err)
	}

	second := createTestCheckpoint(t, jobID)
	second.InitialValue = 99
	if err := fsStore.SaveCheckpoint(jobID, second); err != nil {
		t.Fatalf("second save failed: %v", err)
	}

	loaded, err := fsStore.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.InitialValue != 99 {
		t.Errorf("InitialValue = %v, want 99", loaded.InitialValue)
	}
}

func TestSaveCheckpointRejectsInvalid(t *testing.T) {
	fsStore, _ := setupTestStore(t)

	checkpoint := createTestCheckpoint(t, "bad-job")
	checkpoint.State = nil

	err := fsStore.SaveCheckpoint("bad-job", checkpoint)
	var corruptErr *CorruptCheckpointError
	if !errors.As(err, &corruptErr) {
		t.Fatalf("error = %v, want *CorruptCheckpointError", err)
	}
}

func TestLoadCheckpointNotFound(t *testing.T) {
	fsStore, _ := setupTestStore(t)

	_, err := fsStore.LoadCheckpoint("missing-job")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
}

func TestLoadCheckpointCorruptJSON(t *testing.T) {
	fsStore, tempDir := setupTestStore(t)

	jobID := "corrupt-job"
	jobDir := filepath.Join(tempDir, "jobs", jobID)
	if err := os.MkdirAll(jobDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(jobDir, "checkpoint.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := fsStore.LoadCheckpoint(jobID)
	var corruptErr *CorruptCheckpointError
	if !errors.As(err, &corruptErr) {
		t.Fatalf("error = %v, want *CorruptCheckpointError", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	fsStore, _ := setupTestStore(t)

	infos, err := fsStore.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints on empty store failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected empty listing, got %d entries", len(infos))
	}

	for _, jobID := range []string{"job-a", "job-b", "job-c"} {
		if err := fsStore.SaveCheckpoint(jobID, createTestCheckpoint(t, jobID)); err != nil {
			t.Fatalf("save %s failed: %v", jobID, err)
		}
	}

	infos, err = fsStore.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 checkpoints, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Objective != "sphere" {
			t.Errorf("objective = %q, want sphere", info.Objective)
		}
		if info.Generation != 5 {
			t.Errorf("generation = %d, want 5", info.Generation)
		}
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	fsStore, tempDir := setupTestStore(t)

	jobID := "delete-me"
	if err := fsStore.SaveCheckpoint(jobID, createTestCheckpoint(t, jobID)); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if err := fsStore.DeleteCheckpoint(jobID); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(tempDir, "jobs", jobID)); !os.IsNotExist(err) {
		t.Error("job directory still exists after delete")
	}

	if err := fsStore.DeleteCheckpoint(jobID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}
