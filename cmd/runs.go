package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuaib5352/bsofs/internal/store"
)

var (
	keepLast      int
	olderThanDays int
	forceClean    bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage archived runs",
	Long: `Manage runs saved with "bsofs run --save", including listing, inspecting
and cleaning old runs.`,
}

var listRunsCmd = &cobra.Command{
	Use:   "list",
	Short: "List all archived runs",
	Long:  `Display all runs with metadata including run ID, timestamp, iterations, fitness, and sizes.`,
	RunE:  runListRuns,
}

var showRunCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show one archived run",
	Args:  cobra.ExactArgs(1),
	RunE:  runShowRun,
}

var cleanRunsCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean old runs",
	Long: `Delete old runs based on retention policy.
You can specify how many runs to keep or delete runs older than N days.`,
	RunE: runCleanRuns,
}

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.AddCommand(listRunsCmd)
	runsCmd.AddCommand(showRunCmd)
	runsCmd.AddCommand(cleanRunsCmd)

	cleanRunsCmd.Flags().IntVar(&keepLast, "keep-last", 0, "Keep only the last N runs (0 = keep all)")
	cleanRunsCmd.Flags().IntVar(&olderThanDays, "older-than", 0, "Delete runs older than N days (0 = no age limit)")
	cleanRunsCmd.Flags().BoolVarP(&forceClean, "force", "f", false, "Skip confirmation prompt")
}

func openArchive(cmd *cobra.Command) (*store.FSStore, error) {
	dir, err := resolveDataDir(cmd)
	if err != nil {
		return nil, err
	}
	archive, err := store.NewFSStore(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open run archive: %w", err)
	}
	return archive, nil
}

func shortID(runID string) string {
	if len(runID) > 12 {
		return runID[:12] + "..."
	}
	return runID
}

func runListRuns(cmd *cobra.Command, args []string) error {
	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}

	infos, err := archive.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RUN ID\tTIMESTAMP\tDATASET\tSEED\tITERATIONS\tBEST FITNESS\tSELECTED\tSIZE")
	fmt.Fprintln(w, "------\t---------\t-------\t----\t----------\t------------\t--------\t----")

	for _, info := range infos {
		size, err := getDirSize(archive.RunDir(info.RunID))
		sizeStr := "unknown"
		if err == nil {
			sizeStr = formatBytes(size)
		}

		iterations := fmt.Sprintf("%d", info.Iterations)
		if info.Cancelled {
			iterations += " (partial)"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%.6f\t%d\t%s\n",
			shortID(info.RunID),
			info.Timestamp.Format("2006-01-02 15:04:05"),
			info.Dataset,
			info.Seed,
			iterations,
			info.BestFitness,
			info.Selected,
			sizeStr,
		)
	}

	w.Flush()

	fmt.Printf("\nTotal runs: %d\n", len(infos))
	return nil
}

func runShowRun(cmd *cobra.Command, args []string) error {
	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}

	runID := args[0]
	record, err := archive.LoadRun(runID)
	if err != nil {
		return err
	}

	fmt.Printf("Run: %s\n", record.RunID)
	fmt.Printf("Recorded: %s\n", record.Timestamp.Format(time.RFC3339))
	if record.Cancelled {
		fmt.Println("State: interrupted (partial result)")
	}
	fmt.Println()

	cfg := record.Config
	fmt.Println("Configuration:")
	fmt.Printf("  Dataset: %s\n", record.Dataset)
	fmt.Printf("  Seed: %d\n", record.Seed)
	fmt.Printf("  Swarm: %d bats, %d dimensions\n", cfg.SwarmSize, cfg.Dimensions)
	fmt.Printf("  Iterations: %d max, threshold %g\n", cfg.MaxIterations, cfg.ConvergenceThreshold)
	fmt.Printf("  Frequency: [%g, %g]  Loudness: %g  Pulse rate: %g  Alpha: %g  Gamma: %g\n",
		cfg.FrequencyMin, cfg.FrequencyMax, cfg.InitialLoudness, cfg.InitialPulseRate, cfg.Alpha, cfg.Gamma)
	fmt.Println()

	fmt.Println("Result:")
	fmt.Printf("  Iterations: %d (%d evaluations)\n", record.Iterations, record.Evaluations)
	fmt.Printf("  Best fitness: %.6f\n", record.BestFitness)
	fmt.Printf("  Estimated accuracy: %.2f%% (%+.2f vs baseline)\n", record.EstimatedAccuracy, record.ImprovementOverBaseline)
	fmt.Printf("  Elapsed: %s\n", record.Elapsed.Round(time.Millisecond))
	fmt.Printf("  Selected (%d): %s\n", len(record.SelectedFeatureNames), strings.Join(record.SelectedFeatureNames, ", "))

	reader, err := store.NewTraceReader(archive.BaseDir(), runID)
	if err != nil {
		slog.Debug("No convergence trace", "run_id", runID, "error", err)
		return nil
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		return fmt.Errorf("failed to read convergence trace: %w", err)
	}
	if len(entries) > 0 {
		first, last := entries[0], entries[len(entries)-1]
		fmt.Println()
		fmt.Println("Convergence:")
		fmt.Printf("  Trace entries: %d\n", len(entries))
		fmt.Printf("  Best fitness: %.6f -> %.6f\n", first.BestFitness, last.BestFitness)
		fmt.Printf("  Diversity: %.4f -> %.4f\n", first.Diversity, last.Diversity)
		fmt.Printf("  Loudness: %.4f -> %.4f\n", first.Loudness, last.Loudness)
	}

	return nil
}

func runCleanRuns(cmd *cobra.Command, args []string) error {
	if keepLast == 0 && olderThanDays == 0 {
		return fmt.Errorf("must specify either --keep-last or --older-than")
	}

	archive, err := openArchive(cmd)
	if err != nil {
		return err
	}

	infos, err := archive.ListRuns()
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No runs to clean.")
		return nil
	}

	toDelete := selectRunsForDeletion(infos, keepLast, olderThanDays)

	if len(toDelete) == 0 {
		fmt.Println("No runs match deletion criteria.")
		return nil
	}

	fmt.Printf("Found %d run(s) to delete:\n", len(toDelete))
	for _, info := range toDelete {
		fmt.Printf("  - %s (fitness %.6f, %s)\n",
			shortID(info.RunID),
			info.BestFitness,
			info.Timestamp.Format("2006-01-02 15:04:05"),
		)
	}

	if !forceClean {
		fmt.Print("\nProceed with deletion? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	deleted := 0
	failed := 0
	for _, info := range toDelete {
		if err := archive.DeleteRun(info.RunID); err != nil {
			slog.Error("Failed to delete run", "run_id", info.RunID, "error", err)
			failed++
		} else {
			slog.Info("Deleted run", "run_id", info.RunID)
			deleted++
		}
	}

	fmt.Printf("\nDeleted %d run(s), %d failed.\n", deleted, failed)
	return nil
}

// selectRunsForDeletion applies the retention policy: runs older than
// olderThanDays, plus the oldest runs beyond the newest keepLast. Zero
// disables either rule.
func selectRunsForDeletion(infos []store.RunInfo, keepLast int, olderThanDays int) []store.RunInfo {
	var toDelete []store.RunInfo
	selected := make(map[string]bool)

	if olderThanDays > 0 {
		cutoff := time.Now().AddDate(0, 0, -olderThanDays)
		for _, info := range infos {
			if info.Timestamp.Before(cutoff) {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	if keepLast > 0 && len(infos) > keepLast {
		sorted := make([]store.RunInfo, len(infos))
		copy(sorted, infos)
		sort.Slice(sorted, func(i, j int) bool {
			return sorted[i].Timestamp.Before(sorted[j].Timestamp)
		})

		for _, info := range sorted[:len(sorted)-keepLast] {
			if !selected[info.RunID] {
				toDelete = append(toDelete, info)
				selected[info.RunID] = true
			}
		}
	}

	return toDelete
}

// getDirSize calculates the total size of a directory
func getDirSize(path string) (int64, error) {
	var size int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// formatBytes formats bytes as human-readable string
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
