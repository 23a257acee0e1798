package experiment

import (
	"context"
	"time"

	"github.com/shuaib5352/bsofs/internal/opt"
)

// Algorithm names reported by Compare.
const (
	AlgorithmBSO    = "bso"
	AlgorithmMayfly = "mayfly"
)

// Row is one line of a comparison.
type Row struct {
	Algorithm         string        `json:"algorithm"`
	BestFitness       float64       `json:"bestFitness"`
	BestPosition      []int         `json:"bestPosition"`
	Selected          int           `json:"selected"`
	EstimatedAccuracy float64       `json:"estimatedAccuracy"`
	Evaluations       int           `json:"evaluations"`
	Elapsed           time.Duration `json:"elapsed"`
}

// Compare runs the bat swarm optimizer and the Mayfly baseline on the same
// evaluator with equal population and iteration budgets. The Mayfly search
// is continuous over [0, 1]^d with masks thresholded at opt.SelectionThreshold.
func Compare(ctx context.Context, setup *Setup, seed int64) ([]Row, error) {
	rows := make([]Row, 0, 2)

	optimizer, err := setup.NewOptimizer(seed)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res, err := optimizer.Optimize(ctx)
	rows = append(rows, Row{
		Algorithm:         AlgorithmBSO,
		BestFitness:       res.BestFitness,
		BestPosition:      res.BestPosition,
		Selected:          res.SelectedCount(),
		EstimatedAccuracy: res.EstimatedAccuracy,
		Evaluations:       res.Evaluations,
		Elapsed:           time.Since(start),
	})
	if err != nil {
		return rows, err
	}

	cfg := setup.Config
	mayfly := opt.NewMayfly(cfg.MaxIterations, cfg.SwarmSize, seed)
	if mayfly.PopSize() != cfg.SwarmSize {
		setup.Logger.Info("Mayfly population raised to library minimum",
			"requested", cfg.SwarmSize, "used", mayfly.PopSize())
	}

	start = time.Now()
	mask, fitness, evals := opt.SelectFeatures(mayfly, setup.Evaluator.Evaluate, cfg.Dimensions)
	rows = append(rows, Row{
		Algorithm:         AlgorithmMayfly,
		BestFitness:       fitness,
		BestPosition:      mask,
		Selected:          countBits(mask),
		EstimatedAccuracy: (1 - fitness) * 100,
		Evaluations:       evals,
		Elapsed:           time.Since(start),
	})

	setup.Logger.Info("Comparison finished",
		"bso_fitness", rows[0].BestFitness,
		"mayfly_fitness", rows[1].BestFitness,
	)
	return rows, ctx.Err()
}

func countBits(mask []int) int {
	n := 0
	for _, bit := range mask {
		n += bit
	}
	return n
}
