package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwbudde/cmaes/internal/store"
)

func TestSelectCheckpointsForDeletion_ByAge(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)}, // 10 days old
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},  // 5 days old
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},  // 1 day old
		{JobID: "job4", Timestamp: now.AddDate(0, 0, -30)}, // 30 days old
	}

	// Delete checkpoints older than 7 days
	toDelete := selectCheckpointsForDeletion(infos, 0, 7)

	if len(toDelete) != 2 {
		t.Errorf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}

	found10 := false
	found30 := false
	for _, info := range toDelete {
		if info.JobID == "job1" {
			found10 = true
		}
		if info.JobID == "job4" {
			found30 = true
		}
	}

	if !found10 || !found30 {
		t.Error("Expected job1 and job4 to be selected for deletion")
	}
}

func TestSelectCheckpointsForDeletion_ByCount(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -10)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -5)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
	}

	// Keep only the most recent checkpoint
	toDelete := selectCheckpointsForDeletion(infos, 1, 0)

	if len(toDelete) != 2 {
		t.Fatalf("Expected 2 checkpoints to delete, got %d", len(toDelete))
	}

	for _, info := range toDelete {
		if info.JobID == "job3" {
			t.Error("Most recent checkpoint should be kept")
		}
	}
}

func TestSelectCheckpointsForDeletion_Combined(t *testing.T) {
	now := time.Now()
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: now.AddDate(0, 0, -30)},
		{JobID: "job2", Timestamp: now.AddDate(0, 0, -2)},
		{JobID: "job3", Timestamp: now.AddDate(0, 0, -1)},
	}

	// Both criteria select job1; it must appear once
	toDelete := selectCheckpointsForDeletion(infos, 2, 7)

	if len(toDelete) != 1 {
		t.Fatalf("Expected 1 checkpoint to delete, got %d", len(toDelete))
	}
	if toDelete[0].JobID != "job1" {
		t.Errorf("Expected job1 to be selected, got %s", toDelete[0].JobID)
	}
}

func TestSelectCheckpointsForDeletion_NoCriteria(t *testing.T) {
	infos := []store.CheckpointInfo{
		{JobID: "job1", Timestamp: time.Now()},
	}

	toDelete := selectCheckpointsForDeletion(infos, 0, 0)
	if len(toDelete) != 0 {
		t.Errorf("Expected no checkpoints to delete, got %d", len(toDelete))
	}
}

func TestShortJobID(t *testing.T) {
	if got := shortJobID("short"); got != "short" {
		t.Errorf("Short IDs should pass through, got %s", got)
	}

	long := "0123456789abcdef"
	if got := shortJobID(long); got != "0123456789ab..." {
		t.Errorf("Long IDs should be truncated, got %s", got)
	}
}

func TestGetDirSize(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "a.json"), make([]byte, 100), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.jsonl"), make([]byte, 50), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	size, err := getDirSize(dir)
	if err != nil {
		t.Fatalf("getDirSize failed: %v", err)
	}
	if size != 150 {
		t.Errorf("Expected size 150, got %d", size)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{1048576, "1.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %s, want %s", tt.bytes, got, tt.want)
		}
	}
}
