package bso

import (
	"math/rand"
	"time"
)

// Source is the randomness capability the optimizer draws from.
// *rand.Rand satisfies it.
type Source interface {
	// Float64 returns a uniform sample in [0, 1).
	Float64() float64
	// Intn returns a uniform integer in [0, n).
	Intn(n int) int
}

// NewSource returns a deterministic source for the given seed.
func NewSource(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

func defaultSource() Source {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}

func uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}
