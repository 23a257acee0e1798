package features

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Feature is one candidate input column.
type Feature struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// RankedFeature is an entry of the importance table. Rank is 1-based; the
// optimizer looks importance up by dimension index Rank-1.
type RankedFeature struct {
	Rank          int     `yaml:"rank" json:"rank"`
	Name          string  `yaml:"name" json:"name"`
	Importance    float64 `yaml:"importance" json:"importance"`
	OriginalIndex int     `yaml:"originalIndex" json:"originalIndex"`
}

// Table holds the feature schema and importance ranking of a dataset.
// It is read-only once constructed.
type Table struct {
	Dataset  string          `yaml:"dataset" json:"dataset"`
	Features []Feature       `yaml:"features" json:"features"`
	Ranked   []RankedFeature `yaml:"ranked" json:"ranked"`

	// BaselineAccuracy is the accuracy (percent) that improvement figures
	// are reported against.
	BaselineAccuracy float64 `yaml:"baselineAccuracy" json:"baselineAccuracy"`
}

// Len returns the number of features in the schema.
func (t *Table) Len() int {
	return len(t.Features)
}

// Name returns the display name for a dimension index.
func (t *Table) Name(index int) (string, bool) {
	if index < 0 || index >= len(t.Features) {
		return "", false
	}
	return t.Features[index].Name, true
}

// Importance returns the weight of the ranked feature whose Rank-1 equals index.
func (t *Table) Importance(index int) (float64, bool) {
	for _, r := range t.Ranked {
		if r.Rank-1 == index {
			return r.Importance, true
		}
	}
	return 0, false
}

// TotalImportance sums all ranked weights.
func (t *Table) TotalImportance() float64 {
	var sum float64
	for _, r := range t.Ranked {
		sum += r.Importance
	}
	return sum
}

// Baseline returns the reference accuracy in percent.
func (t *Table) Baseline() float64 {
	return t.BaselineAccuracy
}

// Validate checks that the ranking is usable by the fitness function.
func (t *Table) Validate() error {
	seen := make(map[int]bool, len(t.Ranked))
	for _, r := range t.Ranked {
		if r.Rank < 1 {
			return fmt.Errorf("feature %q: rank must be >= 1, got %d", r.Name, r.Rank)
		}
		if seen[r.Rank] {
			return fmt.Errorf("duplicate rank %d", r.Rank)
		}
		if r.Importance < 0 {
			return fmt.Errorf("feature %q: importance cannot be negative", r.Name)
		}
		seen[r.Rank] = true
	}
	if t.TotalImportance() <= 0 {
		return fmt.Errorf("total importance must be positive")
	}
	return nil
}

// LoadTable reads a YAML feature table from path.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feature table %s: %w", path, err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML feature table and validates it.
func ParseTable(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse feature table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("invalid feature table: %w", err)
	}
	return &t, nil
}
