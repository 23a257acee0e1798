package bso

import "fmt"

// Config holds the optimizer parameters. It is copied into the optimizer at
// construction and never changes during a run.
type Config struct {
	SwarmSize     int `yaml:"swarmSize" json:"swarmSize"`
	Dimensions    int `yaml:"dimensions" json:"dimensions"`
	MaxIterations int `yaml:"maxIterations" json:"maxIterations"`

	FrequencyMin float64 `yaml:"frequencyMin" json:"frequencyMin"`
	FrequencyMax float64 `yaml:"frequencyMax" json:"frequencyMax"`

	InitialLoudness  float64 `yaml:"initialLoudness" json:"initialLoudness"`
	InitialPulseRate float64 `yaml:"initialPulseRate" json:"initialPulseRate"`

	// Alpha is the multiplicative loudness decay applied on acceptance.
	Alpha float64 `yaml:"alpha" json:"alpha"`
	// Gamma controls how quickly the pulse rate approaches InitialPulseRate.
	Gamma float64 `yaml:"gamma" json:"gamma"`

	// ConvergenceThreshold stops the run once the global best fitness drops
	// below it.
	ConvergenceThreshold float64 `yaml:"convergenceThreshold" json:"convergenceThreshold"`

	// StallPatience stops the run after this many iterations without a
	// relative improvement of at least StallTolerance. Zero disables it.
	StallPatience  int     `yaml:"stallPatience,omitempty" json:"stallPatience,omitempty"`
	StallTolerance float64 `yaml:"stallTolerance,omitempty" json:"stallTolerance,omitempty"`
}

// DefaultConfig returns the reference parameters of the CICIoT2023 experiment.
func DefaultConfig() Config {
	return Config{
		SwarmSize:            25,
		Dimensions:           39,
		MaxIterations:        50,
		FrequencyMin:         0.0,
		FrequencyMax:         2.0,
		InitialLoudness:      0.95,
		InitialPulseRate:     0.5,
		Alpha:                0.9,
		Gamma:                0.9,
		ConvergenceThreshold: 1e-6,
	}
}

// Validate rejects configurations the optimizer cannot run. Values are never
// clamped.
func (c Config) Validate() error {
	if c.SwarmSize < 1 {
		return &ValidationError{Field: "SwarmSize", Reason: "must be at least 1"}
	}
	if c.Dimensions < 1 {
		return &ValidationError{Field: "Dimensions", Reason: "must be at least 1"}
	}
	if c.MaxIterations < 1 {
		return &ValidationError{Field: "MaxIterations", Reason: "must be at least 1"}
	}
	if c.FrequencyMin > c.FrequencyMax {
		return &ValidationError{
			Field:  "FrequencyMin",
			Reason: fmt.Sprintf("must not exceed FrequencyMax (%g > %g)", c.FrequencyMin, c.FrequencyMax),
		}
	}
	if c.InitialLoudness <= 0 || c.InitialLoudness > 1 {
		return &ValidationError{Field: "InitialLoudness", Reason: "must be in (0, 1]"}
	}
	if c.InitialPulseRate < 0 || c.InitialPulseRate >= 1 {
		return &ValidationError{Field: "InitialPulseRate", Reason: "must be in [0, 1)"}
	}
	if c.Alpha <= 0 || c.Alpha >= 1 {
		return &ValidationError{Field: "Alpha", Reason: "must be in (0, 1)"}
	}
	if c.Gamma <= 0 {
		return &ValidationError{Field: "Gamma", Reason: "must be positive"}
	}
	if c.StallPatience < 0 {
		return &ValidationError{Field: "StallPatience", Reason: "cannot be negative"}
	}
	if c.StallTolerance < 0 {
		return &ValidationError{Field: "StallTolerance", Reason: "cannot be negative"}
	}
	return nil
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}
