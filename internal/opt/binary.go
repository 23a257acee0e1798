package opt

// SelectionThreshold binarizes a continuous coordinate in [0, 1].
const SelectionThreshold = 0.5

// Binarize maps a continuous position onto a feature mask.
func Binarize(x []float64) []int {
	mask := make([]int, len(x))
	for i, v := range x {
		if v >= SelectionThreshold {
			mask[i] = 1
		}
	}
	return mask
}

// SelectFeatures runs a continuous optimizer over [0, 1]^dims and scores each
// candidate by its thresholded mask. It returns the best mask, its fitness
// and the number of fitness evaluations spent.
func SelectFeatures(o Optimizer, fitness func([]int) float64, dims int) ([]int, float64, int) {
	lower := make([]float64, dims)
	upper := make([]float64, dims)
	for i := range upper {
		upper[i] = 1
	}

	evaluations := 0
	eval := func(x []float64) float64 {
		evaluations++
		return fitness(Binarize(x))
	}

	best, _ := o.Run(eval, lower, upper, dims)
	mask := Binarize(best)

	return mask, fitness(mask), evaluations
}
