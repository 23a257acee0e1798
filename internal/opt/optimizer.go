package opt

// Optimizer is a box-constrained continuous minimizer. Feature masks are
// searched through it by relaxing each bit to [0, 1] (see SelectFeatures).
type Optimizer interface {
	// Run minimizes eval over [lower, upper]^dim and returns the best point
	// and its cost.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
