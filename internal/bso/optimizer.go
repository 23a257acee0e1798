package bso

import (
	"context"
	"fmt"
	"log/slog"
	"math"
)

// localFlipProbability is the per-dimension chance of flipping the global
// best bit when a bat searches around the global best.
const localFlipProbability = 0.1

// Catalog is the read-only feature data the optimizer reports against.
type Catalog interface {
	Name(index int) (string, bool)
	Importance(index int) (float64, bool)
	Baseline() float64
}

// Option customizes an Optimizer.
type Option func(*Optimizer)

// WithSource injects the random source. Without it a time-seeded source is used.
func WithSource(src Source) Option {
	return func(o *Optimizer) { o.rng = src }
}

// WithLogger sets the logger. Without it nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Optimizer) { o.logger = logger }
}

// WithObserver registers a callback invoked with every convergence record
// right after it is appended.
func WithObserver(fn func(ConvergenceRecord)) Option {
	return func(o *Optimizer) { o.observers = append(o.observers, fn) }
}

// Optimizer runs the binary bat algorithm over feature masks.
//
// All state is owned by the instance and touched only from Optimize, so an
// Optimizer must not be shared between goroutines.
type Optimizer struct {
	cfg       Config
	eval      Evaluator
	catalog   Catalog
	rng       Source
	logger    *slog.Logger
	observers []func(ConvergenceRecord)

	swarm             []*Bat
	globalBest        []int
	globalBestFitness float64
	history           []ConvergenceRecord
	evaluations       int
}

// New validates cfg and returns an optimizer. The swarm is created fresh by
// every call to Optimize.
func New(cfg Config, eval Evaluator, catalog Catalog, opts ...Option) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if eval == nil {
		return nil, fmt.Errorf("evaluator cannot be nil")
	}
	if catalog == nil {
		return nil, fmt.Errorf("catalog cannot be nil")
	}

	o := &Optimizer{
		cfg:               cfg,
		eval:              eval,
		catalog:           catalog,
		globalBestFitness: math.Inf(1),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.rng == nil {
		o.rng = defaultSource()
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}

	return o, nil
}

// Config returns the configuration the optimizer was built with.
func (o *Optimizer) Config() Config {
	return o.cfg
}

func (o *Optimizer) evaluate(position []int) float64 {
	o.evaluations++
	return o.eval.Evaluate(position)
}

// initializeSwarm discards any previous run state and draws a new swarm.
func (o *Optimizer) initializeSwarm() {
	dims := o.cfg.Dimensions
	o.swarm = make([]*Bat, 0, o.cfg.SwarmSize)
	o.globalBest = nil
	o.globalBestFitness = math.Inf(1)
	o.history = nil
	o.evaluations = 0

	for i := 0; i < o.cfg.SwarmSize; i++ {
		position := make([]int, dims)
		for d := range position {
			if o.rng.Float64() > 0.5 {
				position[d] = 1
			}
		}
		velocity := make([]float64, dims)
		for d := range velocity {
			velocity[d] = o.rng.Float64()*2 - 1
		}
		frequency := make([]float64, dims)
		for d := range frequency {
			frequency[d] = uniform(o.rng, o.cfg.FrequencyMin, o.cfg.FrequencyMax)
		}
		fitness := o.evaluate(position)

		bat := &Bat{
			Position:            position,
			Velocity:            velocity,
			Frequency:           frequency,
			Fitness:             fitness,
			Loudness:            o.cfg.InitialLoudness,
			PulseRate:           o.cfg.InitialPulseRate,
			PersonalBest:        clonePosition(position),
			PersonalBestFitness: fitness,
		}
		o.swarm = append(o.swarm, bat)

		if fitness < o.globalBestFitness {
			o.globalBestFitness = fitness
			o.globalBest = clonePosition(position)
		}
	}

	// An evaluator that only returns +Inf or NaN never beats the sentinel.
	if o.globalBest == nil {
		o.globalBest = clonePosition(o.swarm[0].Position)
		o.globalBestFitness = o.swarm[0].Fitness
	}
}

// Optimize runs a full search and returns its result. Each call starts from
// a new swarm.
//
// If ctx is cancelled the loop stops before the next iteration and the
// partial result is returned together with ctx.Err().
func (o *Optimizer) Optimize(ctx context.Context) (*Result, error) {
	o.initializeSwarm()
	stall := newStallTracker(o.cfg.StallPatience, o.cfg.StallTolerance)

	o.logger.Debug("Starting bat swarm optimization",
		"swarm_size", o.cfg.SwarmSize,
		"dimensions", o.cfg.Dimensions,
		"max_iterations", o.cfg.MaxIterations,
		"initial_best", o.globalBestFitness,
	)

	for t := 0; t < o.cfg.MaxIterations; t++ {
		select {
		case <-ctx.Done():
			o.logger.Info("Optimization cancelled", "iteration", t, "best_fitness", o.globalBestFitness)
			return o.buildResult(), ctx.Err()
		default:
		}

		avgLoudness := averageLoudness(o.swarm)
		for _, bat := range o.swarm {
			o.updateBat(bat, t, avgLoudness)
		}

		rec := o.record(t)

		if o.globalBestFitness < o.cfg.ConvergenceThreshold {
			o.logger.Info("Convergence threshold reached - stopping early",
				"iteration", t,
				"best_fitness", o.globalBestFitness,
				"threshold", o.cfg.ConvergenceThreshold,
			)
			break
		}
		if stall.Update(rec.BestFitness, o.logger) {
			o.logger.Info("Search stalled - stopping early",
				"iteration", t,
				"stale_count", stall.StaleCount(),
				"best_fitness", o.globalBestFitness,
			)
			break
		}
	}

	return o.buildResult(), nil
}

// updateBat moves one bat. The global best it reads may already have been
// improved by bats processed earlier in the same iteration.
func (o *Optimizer) updateBat(bat *Bat, t int, avgLoudness float64) {
	dims := o.cfg.Dimensions

	for d := 0; d < dims; d++ {
		bat.Frequency[d] = uniform(o.rng, o.cfg.FrequencyMin, o.cfg.FrequencyMax)
	}

	velocity := make([]float64, dims)
	for d := 0; d < dims; d++ {
		velocity[d] = bat.Velocity[d] + float64(bat.Position[d]-o.globalBest[d])*bat.Frequency[d]
	}

	candidate := make([]int, dims)
	for d, v := range velocity {
		if o.rng.Float64() < sigmoid(v) {
			candidate[d] = 1
		}
	}

	if o.rng.Float64() > bat.PulseRate {
		for d := 0; d < dims; d++ {
			if o.rng.Float64() < localFlipProbability {
				candidate[d] = flip(o.globalBest[d])
			} else {
				candidate[d] = o.globalBest[d]
			}
		}
		flips := int(math.Ceil(avgLoudness * 3))
		for f := 0; f < flips; f++ {
			idx := o.rng.Intn(dims)
			candidate[idx] = flip(candidate[idx])
		}
	}

	candidateFitness := o.evaluate(candidate)

	if candidateFitness < bat.Fitness || o.rng.Float64() < bat.Loudness {
		bat.Position = candidate
		bat.Velocity = velocity
		bat.Fitness = candidateFitness

		bat.Loudness *= o.cfg.Alpha
		// Recomputed from the initial rate and the global iteration, not
		// from this bat's own acceptance count.
		bat.PulseRate = o.cfg.InitialPulseRate * (1 - math.Exp(-o.cfg.Gamma*float64(t)))
	}

	if bat.Fitness < bat.PersonalBestFitness {
		bat.PersonalBest = clonePosition(bat.Position)
		bat.PersonalBestFitness = bat.Fitness
	}

	if bat.Fitness < o.globalBestFitness {
		o.globalBestFitness = bat.Fitness
		o.globalBest = clonePosition(bat.Position)
	}
}

func (o *Optimizer) record(t int) ConvergenceRecord {
	stats := collectStats(o.swarm)
	rec := ConvergenceRecord{
		Iteration:        t,
		BestFitness:      o.globalBestFitness,
		AvgFitness:       stats.avgFitness,
		Diversity:        stats.diversity,
		Loudness:         stats.loudness,
		PulseRate:        stats.pulseRate,
		SelectedFeatures: countSelected(o.globalBest),
	}
	o.history = append(o.history, rec)

	o.logger.Debug("Iteration complete",
		"iteration", t,
		"best_fitness", rec.BestFitness,
		"avg_fitness", rec.AvgFitness,
		"diversity", rec.Diversity,
		"selected", rec.SelectedFeatures,
	)

	for _, fn := range o.observers {
		fn(rec)
	}
	return rec
}

// Progress returns a copy of the convergence history so far.
func (o *Optimizer) Progress() []ConvergenceRecord {
	return append([]ConvergenceRecord(nil), o.history...)
}

// BatPoint is a coarse 2-D projection of one bat for visualization.
type BatPoint struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Fitness float64 `json:"fitness"`
}

// SwarmState is a snapshot of the swarm for visualization. X and Y are the
// first two velocity components (0 when missing).
type SwarmState struct {
	Bats              []BatPoint `json:"bats"`
	GlobalBest        []int      `json:"globalBest"`
	GlobalBestFitness float64    `json:"globalBestFitness"`
}

// SwarmState returns the current swarm projection.
func (o *Optimizer) SwarmState() SwarmState {
	state := SwarmState{
		Bats:              make([]BatPoint, 0, len(o.swarm)),
		GlobalBest:        clonePosition(o.globalBest),
		GlobalBestFitness: o.globalBestFitness,
	}
	for _, b := range o.swarm {
		p := BatPoint{Fitness: b.Fitness}
		if len(b.Velocity) > 0 {
			p.X = b.Velocity[0]
		}
		if len(b.Velocity) > 1 {
			p.Y = b.Velocity[1]
		}
		state.Bats = append(state.Bats, p)
	}
	return state
}
