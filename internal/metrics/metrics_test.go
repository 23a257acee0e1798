package metrics

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shuaib5352/bsofs/internal/bso"
	"github.com/shuaib5352/bsofs/internal/features"
)

func TestObserveIteration(t *testing.T) {
	r := NewRecorder()

	r.ObserveIteration(bso.ConvergenceRecord{Iteration: 0, BestFitness: 0.05, AvgFitness: 0.07, SelectedFeatures: 12})
	r.ObserveIteration(bso.ConvergenceRecord{Iteration: 1, BestFitness: 0.04, AvgFitness: 0.06, SelectedFeatures: 11})

	assert.Equal(t, 0.04, testutil.ToFloat64(r.BestFitness))
	assert.Equal(t, 11.0, testutil.ToFloat64(r.SelectedFeatures))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.IterationsTotal))
}

func TestObserveRunWithOptimizer(t *testing.T) {
	table := features.CICIoT2023()
	cfg := bso.DefaultConfig()
	cfg.MaxIterations = 5

	eval, err := bso.NewImportanceEvaluator(table, cfg.Dimensions, bso.DefaultCalibration())
	require.NoError(t, err)

	r := NewRecorder()
	o, err := bso.New(cfg, eval, table, bso.WithSource(bso.NewSource(1)), bso.WithObserver(r.ObserveIteration))
	require.NoError(t, err)

	res, err := o.Optimize(context.Background())
	require.NoError(t, err)
	r.ObserveRun(res, 10*time.Millisecond, Outcome(res, cfg, err))

	assert.Equal(t, float64(res.Iterations), testutil.ToFloat64(r.IterationsTotal))
	assert.Equal(t, float64(res.Evaluations), testutil.ToFloat64(r.EvaluationsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.RunsTotal.WithLabelValues(OutcomeExhausted)))
	assert.Equal(t, res.BestFitness, testutil.ToFloat64(r.BestFitness))
}

func TestOutcome(t *testing.T) {
	cfg := bso.DefaultConfig()
	cfg.ConvergenceThreshold = 0.1

	assert.Equal(t, OutcomeConverged, Outcome(&bso.Result{BestFitness: 0.05}, cfg, nil))
	assert.Equal(t, OutcomeExhausted, Outcome(&bso.Result{BestFitness: 0.2}, cfg, nil))
	assert.Equal(t, OutcomeCancelled, Outcome(&bso.Result{BestFitness: 0.05}, cfg, errors.New("cancelled")))
}

func TestWriteTextfile(t *testing.T) {
	r := NewRecorder()
	r.ObserveCache(3, 7)
	r.RunsTotal.WithLabelValues(OutcomeConverged).Inc()

	path := filepath.Join(t.TempDir(), "bso.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.True(t, strings.Contains(text, "bso_fitness_cache_hits_total 3"))
	assert.True(t, strings.Contains(text, `bso_runs_total{outcome="converged"} 1`))
}
