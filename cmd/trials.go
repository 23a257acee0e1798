package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuaib5352/bsofs/internal/bso"
	"github.com/shuaib5352/bsofs/internal/config"
	"github.com/shuaib5352/bsofs/internal/experiment"
	"github.com/shuaib5352/bsofs/internal/metrics"
)

var (
	trialCount int
	parallel   int
)

var trialsCmd = &cobra.Command{
	Use:   "trials",
	Short: "Run the search with several seeds and summarize",
	Long: `Runs independent searches with consecutive seeds, several at a time, and
reports fitness statistics and how often each feature was selected.`,
	RunE: runTrials,
}

func init() {
	addSearchFlags(trialsCmd)
	trialsCmd.Flags().IntVar(&trialCount, "trials", 10, "Number of seeds")
	trialsCmd.Flags().IntVar(&parallel, "parallel", 4, "Trials run concurrently")

	rootCmd.AddCommand(trialsCmd)
}

// trialsReport is the JSON written by --out.
type trialsReport struct {
	Summary experiment.Summary `json:"summary"`
	Trials  []experiment.Trial `json:"trials"`
}

func runTrials(cmd *cobra.Command, args []string) error {
	f, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return executeTrials(cmd.Context(), f, cmd.OutOrStdout())
}

func executeTrials(ctx context.Context, f *config.File, w io.Writer) error {
	table, err := loadTable(f)
	if err != nil {
		return err
	}

	setup, err := experiment.NewSetup(f.Optimizer, f.Fitness, table, f.CacheSize, logger)
	if err != nil {
		return err
	}

	var recorder *metrics.Recorder
	if metricsFile != "" {
		recorder = metrics.NewRecorder()
	}

	baseSeed := effectiveSeed(f.Seed)
	slog.Info("Starting trials", "trials", f.Trials, "parallel", f.Parallel, "base_seed", baseSeed)

	start := time.Now()
	trials, runErr := experiment.RunTrials(ctx, setup, experiment.TrialOptions{
		Trials:   f.Trials,
		Parallel: f.Parallel,
		BaseSeed: baseSeed,
		OnDone: func(t experiment.Trial) {
			slog.Info("Trial finished",
				"trial", t.Index,
				"seed", t.Seed,
				"best_fitness", t.Result.BestFitness,
				"iterations", t.Result.Iterations,
			)
			if recorder != nil {
				var err error
				if t.Cancelled {
					err = context.Canceled
				}
				recorder.ObserveRun(t.Result, t.Elapsed, metrics.Outcome(t.Result, f.Optimizer, err))
			}
		},
	})
	if runErr != nil && !errors.Is(runErr, context.Canceled) && !errors.Is(runErr, context.DeadlineExceeded) {
		return runErr
	}
	if len(trials) == 0 {
		return fmt.Errorf("no trial finished: %w", runErr)
	}

	summary := experiment.Summarize(trials)
	printTrials(w, trials, summary, table.Baseline(), setup, time.Since(start))

	if outPath != "" {
		if err := writeJSON(outPath, trialsReport{Summary: summary, Trials: trials}); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", outPath)
	}

	if recorder != nil {
		recorder.ObserveCache(setup.CacheStats())
		if err := recorder.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	if runErr != nil {
		return fmt.Errorf("trials interrupted after %d of %d: %w", len(trials), f.Trials, runErr)
	}
	return nil
}

func printTrials(w io.Writer, trials []experiment.Trial, s experiment.Summary, baseline float64, setup *experiment.Setup, elapsed time.Duration) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TRIAL\tSEED\tITERATIONS\tBEST FITNESS\tSELECTED\tACCURACY")
	fmt.Fprintln(tw, "-----\t----\t----------\t------------\t--------\t--------")
	for _, t := range trials {
		mark := ""
		if t.Cancelled {
			mark = " (partial)"
		}
		fmt.Fprintf(tw, "%d\t%d\t%d\t%.6f\t%d\t%.2f%%%s\n",
			t.Index, t.Seed, t.Result.Iterations, t.Result.BestFitness,
			t.Result.SelectedCount(), t.Result.EstimatedAccuracy, mark)
	}
	tw.Flush()

	best := trials[s.Best]
	fmt.Fprintf(w, "\nTrials:        %d (%s)\n", s.Trials, elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "Best fitness:  mean %.6f  std %.6f  min %.6f  max %.6f\n",
		s.MeanBestFitness, s.StdBestFitness, s.MinBestFitness, s.MaxBestFitness)
	fmt.Fprintf(w, "Iterations:    mean %.1f\n", s.MeanIterations)
	fmt.Fprintf(w, "Selected:      mean %.1f\n", s.MeanSelected)
	fmt.Fprintf(w, "Accuracy:      mean %.2f%% (baseline %.2f%%)\n", s.MeanAccuracy, baseline)
	fmt.Fprintf(w, "Best trial:    %d (seed %d, fitness %.6f)\n", best.Index, best.Seed, best.Result.BestFitness)

	if hits, misses := setup.CacheStats(); hits+misses > 0 {
		fmt.Fprintf(w, "Fitness cache: %d hits, %d misses\n", hits, misses)
	}

	fmt.Fprintln(w, "\nMost frequently selected:")
	tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, row := range topFeatures(s.SelectionFrequency, best.Result.FeatureWeights, 10) {
		fmt.Fprintf(tw, "  %s\t%.0f%%\n", row.name, row.freq*100)
	}
	tw.Flush()
}

type featureFrequency struct {
	name string
	freq float64
}

// topFeatures returns up to n features ordered by selection frequency, ties
// by index.
func topFeatures(freq []float64, weights []bso.FeatureWeight, n int) []featureFrequency {
	rows := make([]featureFrequency, 0, len(freq))
	for i, f := range freq {
		if f == 0 {
			continue
		}
		name := fmt.Sprintf("Feature_%d", i)
		if i < len(weights) {
			name = weights[i].Name
		}
		rows = append(rows, featureFrequency{name: name, freq: f})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].freq > rows[j].freq
	})
	if len(rows) > n {
		rows = rows[:n]
	}
	return rows
}
