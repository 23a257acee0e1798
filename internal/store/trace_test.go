package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shuaib5352/bsofs/internal/bso"
	"github.com/shuaib5352/bsofs/internal/features"
)

func record(iteration int, best float64) bso.ConvergenceRecord {
	return bso.ConvergenceRecord{Iteration: iteration, BestFitness: best, AvgFitness: best + 0.01, SelectedFeatures: 10}
}

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-123"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	entries := []TraceEntry{
		{ConvergenceRecord: record(0, 0.10), Timestamp: time.Now()},
		{ConvergenceRecord: record(1, 0.08), Timestamp: time.Now()},
		{ConvergenceRecord: record(2, 0.06), Timestamp: time.Now()},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	tracePath := filepath.Join(tmpDir, "runs", runID, "trace.jsonl")
	if writer.Path() != tracePath {
		t.Errorf("Expected path %s, got %s", tracePath, writer.Path())
	}

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	readEntries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(readEntries) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(readEntries))
	}
	for i, entry := range readEntries {
		if entry.ConvergenceRecord != entries[i].ConvergenceRecord {
			t.Errorf("Entry %d: expected %+v, got %+v", i, entries[i].ConvergenceRecord, entry.ConvergenceRecord)
		}
	}
}

func TestTraceWriter_Append(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-append"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if err := writer.Write(TraceEntry{ConvergenceRecord: record(0, 0.1), Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	writer.Close()

	writer, err = NewTraceWriter(tmpDir, runID, true)
	if err != nil {
		t.Fatalf("Failed to create trace writer in append mode: %v", err)
	}
	if err := writer.Write(TraceEntry{ConvergenceRecord: record(1, 0.05), Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	writer.Close()

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(entries))
	}
	if entries[1].Iteration != 1 {
		t.Errorf("Second entry: expected iteration 1, got %d", entries[1].Iteration)
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-flush"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	writer.Observe(record(0, 0.2))
	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	data, err := os.ReadFile(writer.Path())
	if err != nil {
		t.Fatalf("Failed to read trace file: %v", err)
	}
	if len(data) == 0 {
		t.Error("Trace file is empty after flush")
	}
	if writer.Err() != nil {
		t.Errorf("Unexpected observe error: %v", writer.Err())
	}
}

func TestTraceWriter_ObservesOptimizer(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-optimizer"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	table := features.CICIoT2023()
	cfg := bso.DefaultConfig()
	cfg.MaxIterations = 8
	eval, err := bso.NewImportanceEvaluator(table, cfg.Dimensions, bso.DefaultCalibration())
	if err != nil {
		t.Fatalf("NewImportanceEvaluator failed: %v", err)
	}
	o, err := bso.New(cfg, eval, table, bso.WithSource(bso.NewSource(3)), bso.WithObserver(writer.Observe))
	if err != nil {
		t.Fatalf("bso.New failed: %v", err)
	}
	res, err := o.Optimize(context.Background())
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != res.Iterations {
		t.Fatalf("Expected %d entries, got %d", res.Iterations, len(entries))
	}
	for i, entry := range entries {
		if entry.ConvergenceRecord != res.ConvergenceHistory[i] {
			t.Errorf("Entry %d differs from history", i)
		}
	}
}

func TestTraceReader_ReadIteratively(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-iter"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	for i := 0; i < 5; i++ {
		writer.Observe(record(i, 1.0-float64(i)*0.1))
	}
	writer.Close()

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	count := 0
	for {
		entry, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Failed to read entry: %v", err)
		}
		if entry.Iteration != count {
			t.Errorf("Entry %d: expected iteration %d, got %d", count, count, entry.Iteration)
		}
		count++
	}

	if count != 5 {
		t.Errorf("Expected to read 5 entries, got %d", count)
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "nonexistent-run")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got: %v", err)
	}
}

func TestTraceReader_CorruptLine(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "corrupt"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	writer.Close()
	if err := os.WriteFile(writer.Path(), []byte("not json\n"), 0644); err != nil {
		t.Fatalf("Failed to write: %v", err)
	}

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	if _, err := reader.ReadAll(); err == nil {
		t.Error("Expected error for corrupt trace line")
	}
}

func TestDeleteTrace(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-delete"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	writer.Observe(record(0, 0.3))
	writer.Close()

	if err := DeleteTrace(tmpDir, runID); err != nil {
		t.Fatalf("DeleteTrace failed: %v", err)
	}
	if _, err := os.Stat(writer.Path()); !os.IsNotExist(err) {
		t.Error("Trace file should not exist after deletion")
	}

	// Deleting again is not an error
	if err := DeleteTrace(tmpDir, runID); err != nil {
		t.Errorf("DeleteTrace should not error for nonexistent file, got: %v", err)
	}
}

func TestTraceWriter_ConcurrentWrites(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-concurrent"

	writer, err := NewTraceWriter(tmpDir, runID, false)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(iter int) {
			writer.Observe(record(iter, float64(iter)))
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	writer.Flush()

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(entries) != 10 {
		t.Errorf("Expected 10 entries, got %d", len(entries))
	}
}
