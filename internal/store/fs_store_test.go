package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shuaib5352/bsofs/internal/bso"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}

	return store, tempDir
}

// createTestRecord creates a small valid record: 4 features, 2 selected.
func createTestRecord(runID string) *RunRecord {
	cfg := bso.DefaultConfig()
	cfg.Dimensions = 4

	return &RunRecord{
		RunID:                runID,
		Seed:                 42,
		Dataset:              "toy",
		Config:               cfg,
		BestPosition:         []int{1, 0, 1, 0},
		BestFitness:          0.0234,
		Iterations:           50,
		Evaluations:          1275,
		SelectedFeatureNames: []string{"a", "c"},
		EstimatedAccuracy:    97.66,
		Timestamp:            time.Now(),
	}
}

func TestNewFSStore(t *testing.T) {
	tempDir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store.BaseDir() != tempDir {
		t.Errorf("Expected base dir %s, got %s", tempDir, store.BaseDir())
	}
	if _, err := os.Stat(tempDir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "test-run-123"
	if err := store.SaveRun(runID, createTestRecord(runID)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "runs", runID, "result.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Record file was not created at %s", expectedPath)
	}
	if _, err := os.Stat(expectedPath + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("Temp file should not exist after save")
	}
}

func TestSaveRun_RejectsBadInput(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveRun("", createTestRecord("any")); err == nil {
		t.Error("Expected error for empty runID")
	}
	if err := store.SaveRun("run", nil); err == nil {
		t.Error("Expected error for nil record")
	}

	invalid := createTestRecord("run")
	invalid.BestPosition = []int{1, 1}
	if err := store.SaveRun("run", invalid); err == nil {
		t.Error("Expected error for invalid record")
	}
}

func TestSaveRun_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "test-run-overwrite"
	first := createTestRecord(runID)
	first.BestFitness = 0.5
	second := createTestRecord(runID)
	second.BestFitness = 0.1

	if err := store.SaveRun(runID, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}
	if err := store.SaveRun(runID, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.BestFitness != 0.1 {
		t.Errorf("Expected BestFitness=0.1, got %f", loaded.BestFitness)
	}
}

func TestLoadRun(t *testing.T) {
	store, _ := setupTestStore(t)

	runID := "test-run-load"
	original := createTestRecord(runID)
	if err := store.SaveRun(runID, original); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	loaded, err := store.LoadRun(runID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if loaded.RunID != original.RunID {
		t.Errorf("RunID mismatch: expected %s, got %s", original.RunID, loaded.RunID)
	}
	if loaded.Config != original.Config {
		t.Errorf("Config mismatch: expected %+v, got %+v", original.Config, loaded.Config)
	}
	if len(loaded.BestPosition) != len(original.BestPosition) {
		t.Fatalf("BestPosition length mismatch")
	}
	for i := range original.BestPosition {
		if loaded.BestPosition[i] != original.BestPosition[i] {
			t.Errorf("BestPosition[%d] mismatch", i)
		}
	}
	if !loaded.Timestamp.Equal(original.Timestamp) {
		t.Errorf("Timestamp mismatch")
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("Loaded record should be valid: %v", err)
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadRun("nonexistent-run")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}

	if _, err := store.LoadRun(""); err == nil {
		t.Error("Expected error for empty runID")
	}
}

func TestListRuns_Empty(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected empty list, got %d runs", len(infos))
	}
}

func TestListRuns_SortedOldestFirst(t *testing.T) {
	store, _ := setupTestStore(t)

	now := time.Now()
	ages := map[string]int{"run-new": 1, "run-old": 10, "run-mid": 5}
	for runID, days := range ages {
		record := createTestRecord(runID)
		record.Timestamp = now.AddDate(0, 0, -days)
		if err := store.SaveRun(runID, record); err != nil {
			t.Fatalf("Failed to save run %s: %v", runID, err)
		}
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}

	want := []string{"run-old", "run-mid", "run-new"}
	if len(infos) != len(want) {
		t.Fatalf("Expected %d runs, got %d", len(want), len(infos))
	}
	for i, runID := range want {
		if infos[i].RunID != runID {
			t.Errorf("Position %d: expected %s, got %s", i, runID, infos[i].RunID)
		}
	}
}

func TestListRuns_SkipsInvalidDirectories(t *testing.T) {
	store, tempDir := setupTestStore(t)

	if err := store.SaveRun("valid-run", createTestRecord("valid-run")); err != nil {
		t.Fatalf("Failed to save valid run: %v", err)
	}

	// Directory with only a trace
	if _, err := NewTraceWriter(tempDir, "trace-only", false); err != nil {
		t.Fatalf("Failed to create trace: %v", err)
	}

	// Non-directory file in runs directory
	if err := os.WriteFile(filepath.Join(tempDir, "runs", "dummy.txt"), []byte("test"), 0644); err != nil {
		t.Fatalf("Failed to create dummy file: %v", err)
	}

	// Corrupted record
	corruptDir := filepath.Join(tempDir, "runs", "corrupt")
	if err := os.MkdirAll(corruptDir, 0755); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(corruptDir, "result.json"), []byte("{"), 0644); err != nil {
		t.Fatalf("Failed to write corrupt record: %v", err)
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 1 || infos[0].RunID != "valid-run" {
		t.Errorf("Expected only valid-run, got %+v", infos)
	}
}

func TestDeleteRun(t *testing.T) {
	store, tempDir := setupTestStore(t)

	runID := "test-run-delete"
	if err := store.SaveRun(runID, createTestRecord(runID)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	writer, err := NewTraceWriter(tempDir, runID, false)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	writer.Close()

	if err := store.DeleteRun(runID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, err := store.LoadRun(runID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
	if _, err := os.Stat(store.RunDir(runID)); !os.IsNotExist(err) {
		t.Errorf("Run directory should be removed")
	}
}

func TestDeleteRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	var notFound *NotFoundError
	err := store.DeleteRun("nonexistent-run")
	if !errors.As(err, &notFound) {
		t.Fatalf("Expected NotFoundError, got %T: %v", err, err)
	}
	if notFound.RunID != "nonexistent-run" {
		t.Errorf("Expected RunID in error, got %q", notFound.RunID)
	}

	if err := store.DeleteRun(""); err == nil {
		t.Error("Expected error for empty runID")
	}
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	const numRuns = 10
	done := make(chan bool, numRuns)

	for i := 0; i < numRuns; i++ {
		go func(idx int) {
			runID := fmt.Sprintf("concurrent-run-%d", idx)
			if err := store.SaveRun(runID, createTestRecord(runID)); err != nil {
				t.Errorf("Concurrent save failed for run %s: %v", runID, err)
			}
			done <- true
		}(i)
	}

	for i := 0; i < numRuns; i++ {
		<-done
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != numRuns {
		t.Errorf("Expected %d runs, got %d", numRuns, len(infos))
	}
}
