package bso

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ConvergenceRecord is the per-iteration snapshot of the swarm.
type ConvergenceRecord struct {
	Iteration        int     `json:"iteration"`
	BestFitness      float64 `json:"bestFitness"`
	AvgFitness       float64 `json:"avgFitness"`
	Diversity        float64 `json:"diversity"`
	Loudness         float64 `json:"loudness"`
	PulseRate        float64 `json:"pulseRate"`
	SelectedFeatures int     `json:"selectedFeatures"`
}

// swarmStats holds the population aggregates of one iteration.
type swarmStats struct {
	avgFitness float64
	diversity  float64
	loudness   float64
	pulseRate  float64
}

func collectStats(swarm []*Bat) swarmStats {
	fitness := make([]float64, len(swarm))
	loudness := make([]float64, len(swarm))
	pulse := make([]float64, len(swarm))
	for i, b := range swarm {
		fitness[i] = b.Fitness
		loudness[i] = b.Loudness
		pulse[i] = b.PulseRate
	}

	avg := stat.Mean(fitness, nil)

	return swarmStats{
		avgFitness: avg,
		diversity:  diversity(fitness, avg),
		loudness:   stat.Mean(loudness, nil),
		pulseRate:  stat.Mean(pulse, nil),
	}
}

// diversity is the coefficient of variation of fitness: the population
// standard deviation over the mean, with a zero mean replaced by 1.
func diversity(fitness []float64, avg float64) float64 {
	dev := make([]float64, len(fitness))
	copy(dev, fitness)
	floats.AddConst(-avg, dev)
	std := floats.Norm(dev, 2) / math.Sqrt(float64(len(fitness)))

	denom := avg
	if denom == 0 {
		denom = 1
	}
	return std / denom
}

func averageLoudness(swarm []*Bat) float64 {
	var sum float64
	for _, b := range swarm {
		sum += b.Loudness
	}
	return sum / float64(len(swarm))
}
