package experiment

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/shuaib5352/bsofs/internal/bso"
)

// Trial is one seeded run of a multi-seed experiment.
type Trial struct {
	Index   int           `json:"index"`
	Seed    int64         `json:"seed"`
	Result  *bso.Result   `json:"result"`
	Elapsed time.Duration `json:"elapsed"`
	// Cancelled marks a partial result.
	Cancelled bool `json:"cancelled,omitempty"`
}

// TrialOptions controls RunTrials.
type TrialOptions struct {
	Trials   int
	Parallel int
	// Trial i uses seed BaseSeed+i.
	BaseSeed int64
	// OnDone is called from the worker goroutine after each trial.
	OnDone func(Trial)
}

// RunTrials runs opts.Trials independent optimizations with at most
// opts.Parallel of them in flight. Every trial owns its optimizer and random
// source; only the evaluator is shared.
//
// On cancellation the trials finished so far, plus any partial ones, are
// returned in index order together with the context error.
func RunTrials(ctx context.Context, setup *Setup, opts TrialOptions) ([]Trial, error) {
	if opts.Trials < 1 {
		return nil, fmt.Errorf("trials must be at least 1, got %d", opts.Trials)
	}
	if opts.Parallel < 1 {
		opts.Parallel = 1
	}

	results := make([]*Trial, opts.Trials)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Parallel)

	for i := 0; i < opts.Trials; i++ {
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			seed := opts.BaseSeed + int64(i)
			optimizer, err := setup.NewOptimizer(seed, bso.WithLogger(setup.Logger.With("trial", i)))
			if err != nil {
				return fmt.Errorf("trial %d: %w", i, err)
			}

			start := time.Now()
			res, err := optimizer.Optimize(gctx)
			trial := &Trial{
				Index:     i,
				Seed:      seed,
				Result:    res,
				Elapsed:   time.Since(start),
				Cancelled: err != nil,
			}
			results[i] = trial

			if opts.OnDone != nil {
				opts.OnDone(*trial)
			}
			return err
		})
	}

	err := g.Wait()

	trials := make([]Trial, 0, opts.Trials)
	for _, t := range results {
		if t != nil {
			trials = append(trials, *t)
		}
	}
	if err == nil && len(trials) < opts.Trials {
		err = ctx.Err()
	}

	setup.Logger.Info("Trials finished", "completed", len(trials), "requested", opts.Trials)
	return trials, err
}

// Summary aggregates a set of trials.
type Summary struct {
	Trials int `json:"trials"`

	MeanBestFitness float64 `json:"meanBestFitness"`
	// StdBestFitness is the sample standard deviation, 0 for a single trial.
	StdBestFitness float64 `json:"stdBestFitness"`
	MinBestFitness float64 `json:"minBestFitness"`
	MaxBestFitness float64 `json:"maxBestFitness"`

	MeanIterations float64 `json:"meanIterations"`
	MeanSelected   float64 `json:"meanSelected"`
	MeanAccuracy   float64 `json:"meanAccuracy"`

	// SelectionFrequency is the fraction of trials whose best subset
	// contains each feature.
	SelectionFrequency []float64 `json:"selectionFrequency"`

	// Best is the index into the summarized slice of the lowest-fitness trial.
	Best int `json:"best"`
}

// Summarize computes statistics over trials. For an empty slice only Best is
// set, to -1.
func Summarize(trials []Trial) Summary {
	n := len(trials)
	if n == 0 {
		return Summary{Best: -1}
	}

	best := make([]float64, n)
	iterations := make([]float64, n)
	selected := make([]float64, n)
	accuracy := make([]float64, n)

	dims := len(trials[0].Result.BestPosition)
	freq := make([]float64, dims)

	for i, t := range trials {
		best[i] = t.Result.BestFitness
		iterations[i] = float64(t.Result.Iterations)
		selected[i] = float64(t.Result.SelectedCount())
		accuracy[i] = t.Result.EstimatedAccuracy
		for d, bit := range t.Result.BestPosition {
			if d < dims {
				freq[d] += float64(bit)
			}
		}
	}
	floats.Scale(1/float64(n), freq)

	s := Summary{
		Trials:             n,
		MeanBestFitness:    stat.Mean(best, nil),
		MinBestFitness:     floats.Min(best),
		MaxBestFitness:     floats.Max(best),
		MeanIterations:     stat.Mean(iterations, nil),
		MeanSelected:       stat.Mean(selected, nil),
		MeanAccuracy:       stat.Mean(accuracy, nil),
		SelectionFrequency: freq,
		Best:               floats.MinIdx(best),
	}
	if n > 1 {
		s.StdBestFitness = stat.StdDev(best, nil)
	}
	return s
}
