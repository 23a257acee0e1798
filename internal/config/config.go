package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/shuaib5352/bsofs/internal/bso"
	"github.com/shuaib5352/bsofs/internal/features"
)

// File is the run configuration read from YAML. Keys omitted from the file
// keep their default values.
type File struct {
	Optimizer bso.Config      `yaml:"optimizer"`
	Fitness   bso.Calibration `yaml:"fitness"`

	// Features is the path of a feature table. Empty selects the built-in
	// CICIoT2023 table. Relative paths resolve against the config file.
	Features string `yaml:"features,omitempty"`

	// Seed drives the random source. Zero picks a time-based seed.
	Seed int64 `yaml:"seed,omitempty"`

	Trials    int    `yaml:"trials"`
	Parallel  int    `yaml:"parallel"`
	CacheSize int    `yaml:"cacheSize"`
	DataDir   string `yaml:"dataDir"`

	dir string
}

// Default returns the reference configuration.
func Default() *File {
	return &File{
		Optimizer: bso.DefaultConfig(),
		Fitness:   bso.DefaultCalibration(),
		Trials:    10,
		Parallel:  4,
		CacheSize: 4096,
		DataDir:   "./data",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*File, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*File, error) {
	f := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}

// Validate checks every section of the file.
func (f *File) Validate() error {
	if err := f.Optimizer.Validate(); err != nil {
		return fmt.Errorf("optimizer: %w", err)
	}
	if f.Fitness.AccuracyMax < f.Fitness.AccuracyMin {
		return &bso.ValidationError{Field: "Fitness.AccuracyMax", Reason: "must not be below AccuracyMin"}
	}
	if f.Fitness.Beta < 0 {
		return &bso.ValidationError{Field: "Fitness.Beta", Reason: "cannot be negative"}
	}
	if f.Fitness.Missing < 0 {
		return &bso.ValidationError{Field: "Fitness.Missing", Reason: "cannot be negative"}
	}
	if f.Trials < 1 {
		return &bso.ValidationError{Field: "Trials", Reason: "must be at least 1"}
	}
	if f.Parallel < 1 {
		return &bso.ValidationError{Field: "Parallel", Reason: "must be at least 1"}
	}
	if f.CacheSize < 0 {
		return &bso.ValidationError{Field: "CacheSize", Reason: "cannot be negative"}
	}
	return nil
}

// FeaturesPath returns the feature table path, resolved against the
// directory of the loaded config file.
func (f *File) FeaturesPath() string {
	if f.Features == "" || filepath.IsAbs(f.Features) || f.dir == "" {
		return f.Features
	}
	return filepath.Join(f.dir, f.Features)
}

// Table loads the configured feature table.
func (f *File) Table() (*features.Table, error) {
	path := f.FeaturesPath()
	if path == "" {
		return features.CICIoT2023(), nil
	}
	return features.LoadTable(path)
}
