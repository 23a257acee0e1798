package bso

import (
	"fmt"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// MissingImportance is added to the importance sum for every selected
// feature that has no entry in the importance table, so that subsets of
// unranked features are not penalty-free. It affects the search.
const MissingImportance = 0.001

// Evaluator maps a binary feature mask to a cost. Lower is better.
type Evaluator interface {
	Evaluate(position []int) float64
}

// ImportanceSource supplies per-dimension importance weights.
type ImportanceSource interface {
	Importance(index int) (float64, bool)
	TotalImportance() float64
}

// Calibration maps normalized importance onto an accuracy-like range and
// sets the feature-count penalty. The accuracy range is specific to the
// importance source and must be replaced when retargeting.
type Calibration struct {
	AccuracyMin float64 `yaml:"accuracyMin" json:"accuracyMin"`
	AccuracyMax float64 `yaml:"accuracyMax" json:"accuracyMax"`
	// Beta scales the selected/total feature ratio penalty.
	Beta float64 `yaml:"beta" json:"beta"`
	// Missing is the weight of a selected feature absent from the table.
	Missing float64 `yaml:"missing" json:"missing"`
}

// DefaultCalibration returns the CICIoT2023 reference calibration.
func DefaultCalibration() Calibration {
	return Calibration{
		AccuracyMin: 0.88,
		AccuracyMax: 0.9927,
		Beta:        0.01,
		Missing:     MissingImportance,
	}
}

// ImportanceEvaluator is the closed-form proxy fitness:
//
//	1 - (min + norm(importance) * (max - min)) + beta * |S| / |F|
//
// with an empty subset scoring exactly 1.
type ImportanceEvaluator struct {
	weights []float64
	total   float64
	cal     Calibration
}

// NewImportanceEvaluator resolves the importance of each of the dims
// dimensions once so evaluation is a plain slice walk.
func NewImportanceEvaluator(src ImportanceSource, dims int, cal Calibration) (*ImportanceEvaluator, error) {
	if dims < 1 {
		return nil, &ValidationError{Field: "Dimensions", Reason: "must be at least 1"}
	}
	total := src.TotalImportance()
	if total <= 0 {
		return nil, fmt.Errorf("total importance must be positive, got %g", total)
	}
	if cal.AccuracyMax < cal.AccuracyMin {
		return nil, &ValidationError{Field: "AccuracyMax", Reason: "must not be below AccuracyMin"}
	}

	weights := make([]float64, dims)
	for d := range weights {
		if w, ok := src.Importance(d); ok {
			weights[d] = w
		} else {
			weights[d] = cal.Missing
		}
	}

	return &ImportanceEvaluator{weights: weights, total: total, cal: cal}, nil
}

// Evaluate returns the penalized cost of position.
func (e *ImportanceEvaluator) Evaluate(position []int) float64 {
	selected := 0
	var score float64
	for d, bit := range position {
		if bit != 1 {
			continue
		}
		selected++
		if d < len(e.weights) {
			score += e.weights[d]
		} else {
			score += e.cal.Missing
		}
	}
	if selected == 0 {
		return 1.0
	}

	norm := score / e.total
	accuracy := e.cal.AccuracyMin + norm*(e.cal.AccuracyMax-e.cal.AccuracyMin)
	penalty := e.cal.Beta * (float64(selected) / float64(len(position)))

	return 1.0 - accuracy + penalty
}

// CachedEvaluator memoizes another evaluator by mask. The wrapped evaluator
// must be a pure function of the mask. Safe for concurrent use: concurrent
// misses on the same mask share one evaluation.
type CachedEvaluator struct {
	next   Evaluator
	cache  *lru.Cache[string, float64]
	group  singleflight.Group
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedEvaluator wraps next with an LRU of the given size.
func NewCachedEvaluator(next Evaluator, size int) (*CachedEvaluator, error) {
	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create fitness cache: %w", err)
	}
	return &CachedEvaluator{next: next, cache: cache}, nil
}

func (c *CachedEvaluator) Evaluate(position []int) float64 {
	key := maskKey(position)
	if v, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return v
	}
	c.misses.Add(1)
	v, _, _ := c.group.Do(key, func() (interface{}, error) {
		v := c.next.Evaluate(position)
		c.cache.Add(key, v)
		return v, nil
	})
	return v.(float64)
}

// Stats returns cache hits and misses so far.
func (c *CachedEvaluator) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func maskKey(position []int) string {
	var b strings.Builder
	b.Grow(len(position))
	for _, bit := range position {
		if bit == 1 {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// EvaluatorFunc adapts a plain function to Evaluator.
type EvaluatorFunc func(position []int) float64

func (f EvaluatorFunc) Evaluate(position []int) float64 {
	return f(position)
}
