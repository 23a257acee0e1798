package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuaib5352/bsofs/internal/config"
	"github.com/shuaib5352/bsofs/internal/experiment"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the bat swarm with a Mayfly baseline",
	Long: `Runs the bat swarm optimizer and the Mayfly algorithm with the same seed,
population and iteration budget on the same fitness function.`,
	RunE: runCompare,
}

func init() {
	addSearchFlags(compareCmd)
	rootCmd.AddCommand(compareCmd)
}

func runCompare(cmd *cobra.Command, args []string) error {
	f, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	return executeCompare(cmd.Context(), f, cmd.OutOrStdout())
}

func executeCompare(ctx context.Context, f *config.File, w io.Writer) error {
	table, err := loadTable(f)
	if err != nil {
		return err
	}

	setup, err := experiment.NewSetup(f.Optimizer, f.Fitness, table, f.CacheSize, logger)
	if err != nil {
		return err
	}

	runSeed := effectiveSeed(f.Seed)
	slog.Info("Starting comparison", "seed", runSeed, "dataset", table.Dataset)

	rows, err := experiment.Compare(ctx, setup, runSeed)
	if len(rows) > 0 {
		printComparison(w, rows, runSeed)
	}
	if err != nil {
		return fmt.Errorf("comparison incomplete: %w", err)
	}

	if outPath != "" {
		if err := writeJSON(outPath, rows); err != nil {
			return err
		}
		fmt.Fprintf(w, "Wrote %s\n", outPath)
	}
	return nil
}

func printComparison(w io.Writer, rows []experiment.Row, runSeed int64) {
	fmt.Fprintf(w, "Seed: %d\n\n", runSeed)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ALGORITHM\tBEST FITNESS\tSELECTED\tACCURACY\tEVALUATIONS\tTIME")
	fmt.Fprintln(tw, "---------\t------------\t--------\t--------\t-----------\t----")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%.6f\t%d\t%.2f%%\t%d\t%s\n",
			r.Algorithm, r.BestFitness, r.Selected, r.EstimatedAccuracy,
			r.Evaluations, r.Elapsed.Round(time.Millisecond))
	}
	tw.Flush()
}
