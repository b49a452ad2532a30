package engine

import (
	"errors"
	"fmt"
)

const (
	DefaultDepth = 3
	maxDepth     = 8
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Depth                int              `json:"depth"`
	ParallelRoot         bool             `json:"parallel_root"`
	TTEnabled            bool             `json:"tt_enabled"`
	TTSize               int              `json:"tt_size"`
	TTBuckets            int              `json:"tt_buckets"`
	TTPersistenceEnabled bool             `json:"tt_persistence_enabled"`
	TTPersistencePath    string           `json:"tt_persistence_path"`
	LogSearchStats       bool             `json:"log_search_stats"`
	Heuristics           HeuristicWeights `json:"heuristics"`
}

func DefaultConfig() Config {
	return Config{
		Depth:        DefaultDepth,
		ParallelRoot: false,

		// The tree at depth 3 is small; the cache mostly pays off in assist mode where
		// consecutive positions share subtrees.
		TTEnabled: true,
		TTSize:    1 << 14,
		TTBuckets: 4,

		TTPersistenceEnabled: false,
		TTPersistencePath:    "tt_cache.gob",
		LogSearchStats:       false,

		Heuristics: DefaultHeuristicWeights(),
	}
}

func (c Config) Validate() error {
	if c.Depth < 1 || c.Depth > maxDepth {
		return fmt.Errorf("%w: depth %d outside [1, %d]", ErrInvalidConfig, c.Depth, maxDepth)
	}
	if c.TTEnabled && c.TTSize <= 0 {
		return fmt.Errorf("%w: tt_size must be positive when tt_enabled", ErrInvalidConfig)
	}
	if c.TTEnabled && c.TTBuckets <= 0 {
		return fmt.Errorf("%w: tt_buckets must be positive when tt_enabled", ErrInvalidConfig)
	}
	if c.TTPersistenceEnabled && c.TTPersistencePath == "" {
		return fmt.Errorf("%w: tt_persistence_path required when persistence is enabled", ErrInvalidConfig)
	}
	return nil
}
