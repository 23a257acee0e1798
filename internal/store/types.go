package store

import (
	"time"

	"github.com/google/uuid"

	"github.com/shuaib5352/bsofs/internal/bso"
)

// RunRecord is the archived outcome of one optimization run. The full
// convergence history lives next to it in trace.jsonl.
type RunRecord struct {
	// RunID is the unique identifier for this run
	RunID string `json:"runId"`

	Seed    int64      `json:"seed"`
	Dataset string     `json:"dataset"`
	Config  bso.Config `json:"config"`

	BestPosition []int   `json:"bestPosition"`
	BestFitness  float64 `json:"bestFitness"`
	Iterations   int     `json:"iterations"`
	Evaluations  int     `json:"evaluations"`

	SelectedFeatureNames    []string `json:"selectedFeatureNames"`
	EstimatedAccuracy       float64  `json:"estimatedAccuracy"`
	ImprovementOverBaseline float64  `json:"improvementOverBaseline"`

	// Cancelled is set when the run was interrupted and the record holds a
	// partial result.
	Cancelled bool `json:"cancelled,omitempty"`

	Elapsed   time.Duration `json:"elapsed"`
	Timestamp time.Time     `json:"timestamp"`
}

// RunInfo contains metadata about a run without the position data.
type RunInfo struct {
	RunID       string    `json:"runId"`
	Dataset     string    `json:"dataset"`
	Seed        int64     `json:"seed"`
	BestFitness float64   `json:"bestFitness"`
	Iterations  int       `json:"iterations"`
	Selected    int       `json:"selected"`
	Cancelled   bool      `json:"cancelled,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.New().String()
}

// NewRunRecord creates a record from an optimizer result.
func NewRunRecord(runID string, seed int64, dataset string, cfg bso.Config, res *bso.Result, elapsed time.Duration, cancelled bool) *RunRecord {
	return &RunRecord{
		RunID:                   runID,
		Seed:                    seed,
		Dataset:                 dataset,
		Config:                  cfg,
		BestPosition:            res.BestPosition,
		BestFitness:             res.BestFitness,
		Iterations:              res.Iterations,
		Evaluations:             res.Evaluations,
		SelectedFeatureNames:    res.SelectedFeatureNames,
		EstimatedAccuracy:       res.EstimatedAccuracy,
		ImprovementOverBaseline: res.ImprovementOverBaseline,
		Cancelled:               cancelled,
		Elapsed:                 elapsed,
		Timestamp:               time.Now(),
	}
}

// ToInfo converts a full RunRecord to RunInfo (metadata only).
func (r *RunRecord) ToInfo() RunInfo {
	return RunInfo{
		RunID:       r.RunID,
		Dataset:     r.Dataset,
		Seed:        r.Seed,
		BestFitness: r.BestFitness,
		Iterations:  r.Iterations,
		Selected:    len(r.SelectedFeatureNames),
		Cancelled:   r.Cancelled,
		Timestamp:   r.Timestamp,
	}
}

// Validate checks if the record has valid data.
// Returns an error if any required field is missing or invalid.
func (r *RunRecord) Validate() error {
	if r.RunID == "" {
		return &ValidationError{Field: "RunID", Reason: "cannot be empty"}
	}
	if len(r.BestPosition) == 0 {
		return &ValidationError{Field: "BestPosition", Reason: "cannot be empty"}
	}
	if len(r.BestPosition) != r.Config.Dimensions {
		return &ValidationError{Field: "BestPosition", Reason: "length must match Config.Dimensions"}
	}
	selected := 0
	for _, bit := range r.BestPosition {
		if bit != 0 && bit != 1 {
			return &ValidationError{Field: "BestPosition", Reason: "entries must be 0 or 1"}
		}
		selected += bit
	}
	if selected != len(r.SelectedFeatureNames) {
		return &ValidationError{Field: "SelectedFeatureNames", Reason: "count must match selected bits"}
	}
	if r.BestFitness < 0 {
		return &ValidationError{Field: "BestFitness", Reason: "cannot be negative"}
	}
	if r.Iterations < 0 || r.Iterations > r.Config.MaxIterations {
		return &ValidationError{Field: "Iterations", Reason: "must be within [0, Config.MaxIterations]"}
	}
	if r.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if err := r.Config.Validate(); err != nil {
		return &ValidationError{Field: "Config", Reason: err.Error()}
	}
	return nil
}

// ValidationError represents a run record validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
