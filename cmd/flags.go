package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/shuaib5352/bsofs/internal/config"
)

// Search flags shared by run, trials and compare. They override the config
// file only when set on the command line.
var (
	seed         int64
	swarmSize    int
	iters        int
	threshold    float64
	featuresPath string
	cacheSize    int
	outPath      string
	metricsFile  string
)

func addSearchFlags(c *cobra.Command) {
	c.Flags().Int64Var(&seed, "seed", 0, "Random seed (0 = time-based)")
	c.Flags().IntVar(&swarmSize, "swarm", 25, "Number of bats")
	c.Flags().IntVar(&iters, "iters", 50, "Max iterations")
	c.Flags().Float64Var(&threshold, "threshold", 1e-6, "Stop once the best fitness drops below this value")
	c.Flags().StringVar(&featuresPath, "features", "", "Feature table YAML (default: built-in CICIoT2023)")
	c.Flags().IntVar(&cacheSize, "cache-size", 4096, "Fitness cache entries (0 disables)")
	c.Flags().StringVar(&outPath, "out", "", "Write the result as JSON to this path")
	c.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in textfile format to this path")
}

// changed reports whether the named flag was set explicitly. A nil command
// has no explicit flags.
func changed(cmd *cobra.Command, name string) bool {
	return cmd != nil && cmd.Flags().Changed(name)
}

// resolveConfig loads --config and applies explicitly set flags on top.
func resolveConfig(cmd *cobra.Command) (*config.File, error) {
	f, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	if changed(cmd, "seed") {
		f.Seed = seed
	}
	if changed(cmd, "swarm") {
		f.Optimizer.SwarmSize = swarmSize
	}
	if changed(cmd, "iters") {
		f.Optimizer.MaxIterations = iters
	}
	if changed(cmd, "threshold") {
		f.Optimizer.ConvergenceThreshold = threshold
	}
	if changed(cmd, "features") {
		abs, err := filepath.Abs(featuresPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve feature table path: %w", err)
		}
		f.Features = abs
	}
	if changed(cmd, "cache-size") {
		f.CacheSize = cacheSize
	}
	if changed(cmd, "trials") {
		f.Trials = trialCount
	}
	if changed(cmd, "parallel") {
		f.Parallel = parallel
	}
	if changed(cmd, "data-dir") || configPath == "" {
		f.DataDir = dataDir
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// resolveDataDir returns the archive directory: --data-dir when given,
// otherwise the config file's dataDir.
func resolveDataDir(cmd *cobra.Command) (string, error) {
	if configPath == "" || changed(cmd, "data-dir") {
		return dataDir, nil
	}
	f, err := config.Load(configPath)
	if err != nil {
		return "", err
	}
	return f.DataDir, nil
}

// effectiveSeed replaces the zero seed with a time-based one so every run
// records the seed that reproduces it.
func effectiveSeed(s int64) int64 {
	if s != 0 {
		return s
	}
	return time.Now().UnixNano()
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize output: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
