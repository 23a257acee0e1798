package experiment

import (
	"fmt"
	"log/slog"

	"github.com/shuaib5352/bsofs/internal/bso"
	"github.com/shuaib5352/bsofs/internal/features"
)

// Setup is the shared input of every run in an experiment. Evaluator is safe
// for concurrent use; each run builds its own optimizer around it.
type Setup struct {
	Config    bso.Config
	Table     *features.Table
	Evaluator bso.Evaluator
	// Cache is non-nil when Evaluator is memoized.
	Cache  *bso.CachedEvaluator
	Logger *slog.Logger
}

// NewSetup builds the importance evaluator for table, wrapped in an LRU of
// cacheSize entries when cacheSize > 0.
func NewSetup(cfg bso.Config, cal bso.Calibration, table *features.Table, cacheSize int, logger *slog.Logger) (*Setup, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if table == nil {
		return nil, fmt.Errorf("feature table cannot be nil")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	base, err := bso.NewImportanceEvaluator(table, cfg.Dimensions, cal)
	if err != nil {
		return nil, fmt.Errorf("failed to build evaluator: %w", err)
	}

	s := &Setup{
		Config:    cfg,
		Table:     table,
		Evaluator: base,
		Logger:    logger,
	}
	if cacheSize > 0 {
		cached, err := bso.NewCachedEvaluator(base, cacheSize)
		if err != nil {
			return nil, err
		}
		s.Evaluator = cached
		s.Cache = cached
	}

	return s, nil
}

// NewOptimizer returns a fresh optimizer seeded with seed.
func (s *Setup) NewOptimizer(seed int64, opts ...bso.Option) (*bso.Optimizer, error) {
	all := append([]bso.Option{
		bso.WithSource(bso.NewSource(seed)),
		bso.WithLogger(s.Logger),
	}, opts...)
	return bso.New(s.Config, s.Evaluator, s.Table, all...)
}

// CacheStats returns cache hits and misses, or zeros when uncached.
func (s *Setup) CacheStats() (hits, misses int64) {
	if s.Cache == nil {
		return 0, 0
	}
	return s.Cache.Stats()
}
