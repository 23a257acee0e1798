package bso

import "math"

// Bat is one member of the swarm: a candidate feature subset together with
// its search state.
type Bat struct {
	Position  []int     // 1 = feature selected
	Velocity  []float64 // continuous momentum, unbounded
	Frequency []float64 // redrawn in [fmin, fmax] every iteration
	Fitness   float64

	Loudness  float64 // acceptance probability for worse candidates
	PulseRate float64 // local search runs when a draw exceeds it

	PersonalBest        []int
	PersonalBestFitness float64
}

// sigmoid is the S-shaped transfer function from velocity to the
// probability of selecting a feature.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func countSelected(position []int) int {
	n := 0
	for _, bit := range position {
		if bit == 1 {
			n++
		}
	}
	return n
}

func flip(bit int) int {
	if bit == 1 {
		return 0
	}
	return 1
}

func clonePosition(p []int) []int {
	return append([]int(nil), p...)
}
