package bso

import (
	"log/slog"
	"math"
)

// stallTracker watches the global best fitness and reports when it has not
// improved by a relative tolerance for patience consecutive iterations.
type stallTracker struct {
	patience        int
	tolerance       float64
	lastSignificant float64
	staleCount      int
	seen            int
}

func newStallTracker(patience int, tolerance float64) *stallTracker {
	return &stallTracker{
		patience:        patience,
		tolerance:       tolerance,
		lastSignificant: math.Inf(1),
	}
}

// Update records the best fitness of an iteration and returns true once the
// run has stalled. A tracker with zero patience never stalls.
func (s *stallTracker) Update(best float64, logger *slog.Logger) bool {
	if s.patience <= 0 {
		return false
	}

	s.seen++
	if s.seen == 1 {
		s.lastSignificant = best
		return false
	}

	var improvement float64
	if s.lastSignificant != 0 {
		improvement = (s.lastSignificant - best) / math.Abs(s.lastSignificant)
	} else if best < s.lastSignificant {
		improvement = math.Inf(1)
	}

	if improvement > 0 && improvement >= s.tolerance {
		s.lastSignificant = best
		s.staleCount = 0
		return false
	}

	s.staleCount++
	logger.Debug("No significant fitness improvement",
		"best_fitness", best,
		"last_significant", s.lastSignificant,
		"stale_count", s.staleCount,
		"patience", s.patience,
	)
	return s.staleCount >= s.patience
}

// StaleCount returns the number of iterations since the last significant
// improvement.
func (s *stallTracker) StaleCount() int {
	return s.staleCount
}
