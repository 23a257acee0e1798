package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/shuaib5352/bsofs/internal/bso"
)

// Run outcomes.
const (
	OutcomeConverged = "converged"
	OutcomeExhausted = "exhausted"
	OutcomeCancelled = "cancelled"
)

// Recorder holds optimizer metrics in its own registry so that several
// recorders (tests, trials) never collide on the default one.
type Recorder struct {
	registry *prometheus.Registry

	BestFitness      prometheus.Gauge
	AvgFitness       prometheus.Gauge
	Diversity        prometheus.Gauge
	Loudness         prometheus.Gauge
	PulseRate        prometheus.Gauge
	SelectedFeatures prometheus.Gauge

	IterationsTotal  prometheus.Counter
	EvaluationsTotal prometheus.Counter
	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RunsTotal   *prometheus.CounterVec
	RunDuration prometheus.Histogram
}

// NewRecorder creates a recorder with a fresh registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		BestFitness: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bso_best_fitness",
			Help: "Global best fitness of the current run",
		}),
		AvgFitness: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bso_avg_fitness",
			Help: "Population average fitness at the last iteration",
		}),
		Diversity: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bso_diversity",
			Help: "Coefficient of variation of population fitness",
		}),
		Loudness: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bso_avg_loudness",
			Help: "Population average loudness",
		}),
		PulseRate: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bso_avg_pulse_rate",
			Help: "Population average pulse rate",
		}),
		SelectedFeatures: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bso_selected_features",
			Help: "Number of features selected by the global best",
		}),

		IterationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bso_iterations_total",
			Help: "Total optimizer iterations recorded",
		}),
		EvaluationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bso_fitness_evaluations_total",
			Help: "Total fitness evaluations",
		}),
		CacheHitsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bso_fitness_cache_hits_total",
			Help: "Fitness evaluations served from the cache",
		}),
		CacheMissesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "bso_fitness_cache_misses_total",
			Help: "Fitness evaluations computed",
		}),

		RunsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bso_runs_total",
			Help: "Optimization runs by outcome",
		}, []string{"outcome"}),
		RunDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "bso_run_duration_seconds",
			Help:    "Wall time of optimization runs",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

// ObserveIteration updates the per-iteration gauges. It has the shape of a
// bso observer.
func (r *Recorder) ObserveIteration(rec bso.ConvergenceRecord) {
	r.BestFitness.Set(rec.BestFitness)
	r.AvgFitness.Set(rec.AvgFitness)
	r.Diversity.Set(rec.Diversity)
	r.Loudness.Set(rec.Loudness)
	r.PulseRate.Set(rec.PulseRate)
	r.SelectedFeatures.Set(float64(rec.SelectedFeatures))
	r.IterationsTotal.Inc()
}

// ObserveRun records a finished run.
func (r *Recorder) ObserveRun(res *bso.Result, elapsed time.Duration, outcome string) {
	r.EvaluationsTotal.Add(float64(res.Evaluations))
	r.RunsTotal.WithLabelValues(outcome).Inc()
	r.RunDuration.Observe(elapsed.Seconds())
	r.BestFitness.Set(res.BestFitness)
	r.SelectedFeatures.Set(float64(res.SelectedCount()))
}

// ObserveCache adds cache hit and miss deltas.
func (r *Recorder) ObserveCache(hits, misses int64) {
	r.CacheHitsTotal.Add(float64(hits))
	r.CacheMissesTotal.Add(float64(misses))
}

// Gatherer exposes the registry.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// WriteTextfile writes all metrics in the text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Outcome classifies a finished run.
func Outcome(res *bso.Result, cfg bso.Config, err error) string {
	if err != nil {
		return OutcomeCancelled
	}
	if res.BestFitness < cfg.ConvergenceThreshold {
		return OutcomeConverged
	}
	return OutcomeExhausted
}
