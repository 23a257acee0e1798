package bso

import "fmt"

// ReportFillerMax bounds the random weight shown for features that have no
// importance entry. It is display-only and never reaches the fitness function
// (see MissingImportance for the search-side value).
const ReportFillerMax = 0.3

// FeatureWeight is one row of the per-feature report.
type FeatureWeight struct {
	Index    int     `json:"index"`
	Name     string  `json:"name"`
	Weight   float64 `json:"weight"`
	Selected bool    `json:"selected"`
	// Filler marks a weight drawn for display because the feature is unranked.
	Filler bool `json:"filler,omitempty"`
}

// Result summarizes an optimization run.
type Result struct {
	BestPosition []int   `json:"bestPosition"`
	BestFitness  float64 `json:"bestFitness"`
	// Iterations is the number of iterations actually run.
	Iterations  int `json:"iterations"`
	Evaluations int `json:"evaluations"`

	ConvergenceHistory []ConvergenceRecord `json:"convergenceHistory"`

	SelectedFeatureIndices []int           `json:"selectedFeatureIndices"`
	SelectedFeatureNames   []string        `json:"selectedFeatureNames"`
	FeatureWeights         []FeatureWeight `json:"featureWeights"`

	// EstimatedAccuracy is (1 - BestFitness) * 100.
	EstimatedAccuracy       float64 `json:"estimatedAccuracy"`
	ImprovementOverBaseline float64 `json:"improvementOverBaseline"`
}

// SelectedCount returns the number of features in the best subset.
func (r *Result) SelectedCount() int {
	return len(r.SelectedFeatureIndices)
}

func featureName(catalog Catalog, index int) string {
	if name, ok := catalog.Name(index); ok {
		return name
	}
	return fmt.Sprintf("Feature_%d", index)
}

func (o *Optimizer) buildResult() *Result {
	res := &Result{
		BestPosition:           clonePosition(o.globalBest),
		BestFitness:            o.globalBestFitness,
		Iterations:             len(o.history),
		Evaluations:            o.evaluations,
		ConvergenceHistory:     o.Progress(),
		SelectedFeatureIndices: []int{},
		SelectedFeatureNames:   []string{},
		FeatureWeights:         make([]FeatureWeight, 0, len(o.globalBest)),
	}

	for idx, bit := range o.globalBest {
		name := featureName(o.catalog, idx)
		fw := FeatureWeight{Index: idx, Name: name, Selected: bit == 1}
		if w, ok := o.catalog.Importance(idx); ok {
			fw.Weight = w
		} else {
			fw.Weight = o.rng.Float64() * ReportFillerMax
			fw.Filler = true
		}
		res.FeatureWeights = append(res.FeatureWeights, fw)

		if bit == 1 {
			res.SelectedFeatureIndices = append(res.SelectedFeatureIndices, idx)
			res.SelectedFeatureNames = append(res.SelectedFeatureNames, name)
		}
	}

	res.EstimatedAccuracy = (1 - o.globalBestFitness) * 100
	res.ImprovementOverBaseline = res.EstimatedAccuracy - o.catalog.Baseline()

	return res
}
