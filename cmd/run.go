package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuaib5352/bsofs/internal/bso"
	"github.com/shuaib5352/bsofs/internal/config"
	"github.com/shuaib5352/bsofs/internal/experiment"
	"github.com/shuaib5352/bsofs/internal/features"
	"github.com/shuaib5352/bsofs/internal/metrics"
	"github.com/shuaib5352/bsofs/internal/store"
)

var saveRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a single feature-selection search",
	Long: `Runs the bat swarm optimizer once and prints the selected features.
Interrupting the run (Ctrl-C) prints the best subset found so far.`,
	RunE: runOptimization,
}

func init() {
	addSearchFlags(runCmd)
	runCmd.Flags().BoolVar(&saveRun, "save", false, "Archive the result and convergence trace under --data-dir")

	rootCmd.AddCommand(runCmd)
}

func runOptimization(cmd *cobra.Command, args []string) error {
	f, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return executeRun(cmd.Context(), f, cmd.OutOrStdout())
}

func executeRun(ctx context.Context, f *config.File, w io.Writer) error {
	table, err := loadTable(f)
	if err != nil {
		return err
	}

	setup, err := experiment.NewSetup(f.Optimizer, f.Fitness, table, f.CacheSize, logger)
	if err != nil {
		return err
	}

	runSeed := effectiveSeed(f.Seed)
	runID := store.NewRunID()
	var opts []bso.Option

	var recorder *metrics.Recorder
	if metricsFile != "" {
		recorder = metrics.NewRecorder()
		opts = append(opts, bso.WithObserver(recorder.ObserveIteration))
	}

	var archive *store.FSStore
	var trace *store.TraceWriter
	if saveRun {
		archive, err = store.NewFSStore(f.DataDir)
		if err != nil {
			return fmt.Errorf("failed to open run archive: %w", err)
		}
		trace, err = store.NewTraceWriter(f.DataDir, runID, false)
		if err != nil {
			return err
		}
		defer trace.Close()
		opts = append(opts, bso.WithObserver(trace.Observe))
	}

	optimizer, err := setup.NewOptimizer(runSeed, opts...)
	if err != nil {
		return err
	}

	slog.Info("Starting optimization",
		"run_id", runID,
		"seed", runSeed,
		"dataset", table.Dataset,
		"swarm_size", f.Optimizer.SwarmSize,
		"max_iterations", f.Optimizer.MaxIterations,
	)

	start := time.Now()
	res, runErr := optimizer.Optimize(ctx)
	elapsed := time.Since(start)

	cancelled := runErr != nil
	if cancelled && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}

	hits, misses := setup.CacheStats()
	slog.Info("Optimization complete",
		"run_id", runID,
		"elapsed", elapsed,
		"iterations", res.Iterations,
		"evaluations", res.Evaluations,
		"best_fitness", res.BestFitness,
		"cache_hits", hits,
		"cache_misses", misses,
		"cancelled", cancelled,
	)

	printResult(w, res, table, runSeed, elapsed, cancelled)

	if outPath != "" {
		if err := writeJSON(outPath, res); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", outPath)
	}

	if archive != nil {
		if err := trace.Close(); err != nil {
			return err
		}
		if err := trace.Err(); err != nil {
			return fmt.Errorf("failed to write convergence trace: %w", err)
		}
		record := store.NewRunRecord(runID, runSeed, table.Dataset, f.Optimizer, res, elapsed, cancelled)
		if err := archive.SaveRun(runID, record); err != nil {
			return err
		}
		fmt.Fprintf(w, "Saved run %s\n", runID)
	}

	if recorder != nil {
		recorder.ObserveCache(hits, misses)
		recorder.ObserveRun(res, elapsed, metrics.Outcome(res, f.Optimizer, runErr))
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	if cancelled {
		return fmt.Errorf("run interrupted after %d iterations: %w", res.Iterations, runErr)
	}
	return nil
}

func loadTable(f *config.File) (*features.Table, error) {
	table, err := f.Table()
	if err != nil {
		return nil, err
	}
	if table.Len() != f.Optimizer.Dimensions {
		slog.Warn("Feature table size differs from optimizer dimensions",
			"features", table.Len(),
			"dimensions", f.Optimizer.Dimensions,
		)
	}
	return table, nil
}

func printResult(w io.Writer, res *bso.Result, table *features.Table, runSeed int64, elapsed time.Duration, cancelled bool) {
	if cancelled {
		fmt.Fprintln(w, "Interrupted - partial result")
	}
	fmt.Fprintf(w, "Dataset:            %s\n", table.Dataset)
	fmt.Fprintf(w, "Seed:               %d\n", runSeed)
	fmt.Fprintf(w, "Iterations:         %d (%d evaluations, %s)\n", res.Iterations, res.Evaluations, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Best fitness:       %.6f\n", res.BestFitness)
	fmt.Fprintf(w, "Estimated accuracy: %.2f%% (%+.2f vs baseline %.2f%%)\n",
		res.EstimatedAccuracy, res.ImprovementOverBaseline, table.Baseline())
	fmt.Fprintf(w, "Selected features:  %d of %d\n\n", res.SelectedCount(), len(res.BestPosition))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tFEATURE\tWEIGHT")
	fmt.Fprintln(tw, "-----\t-------\t------")
	for _, fw := range res.FeatureWeights {
		if !fw.Selected {
			continue
		}
		weight := fmt.Sprintf("%.4f", fw.Weight)
		if fw.Filler {
			weight += " *"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", fw.Index, fw.Name, weight)
	}
	tw.Flush()
}
