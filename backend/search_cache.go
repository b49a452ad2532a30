package main

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"slide2048/engine"
)

// AISearchCache holds the transposition table shared by every AI player and the
// stateless analyze endpoint.
type AISearchCache struct {
	mu        sync.Mutex
	TT        *engine.TranspositionTable
	TTSize    int
	TTBuckets int
}

var sharedSearchCache = &AISearchCache{}

func SharedSearchCache() *AISearchCache {
	return sharedSearchCache
}

// ensureTT returns the shared table for cfg, rebuilding it when the geometry changed.
// It returns nil when caching is disabled.
func ensureTT(cache *AISearchCache, cfg engine.Config) *engine.TranspositionTable {
	if !cfg.TTEnabled {
		return nil
	}
	buckets := cfg.TTBuckets
	if buckets <= 0 {
		buckets = 2
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if cache.TT == nil || cache.TTSize != cfg.TTSize || cache.TTBuckets != buckets {
		cache.TT = engine.NewTranspositionTable(uint64(cfg.TTSize), buckets)
		cache.TTSize = cfg.TTSize
		cache.TTBuckets = buckets
	}
	return cache.TT
}

func (c *AISearchCache) table() *engine.TranspositionTable {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.TT
}

func FlushGlobalCaches() {
	if tt := sharedSearchCache.table(); tt != nil {
		tt.Clear()
	}
}

// purgeHeuristicEntries drops cached values computed under weights. Probes already ignore
// them; this only frees their slots.
func purgeHeuristicEntries(cache *AISearchCache, weights engine.HeuristicWeights) int {
	tt := cache.table()
	if tt == nil {
		return 0
	}
	removed := tt.DeleteByHeuristicHash(engine.HeuristicHash(weights))
	log.Info().
		Str("component", "ai:cache").
		Int("removed", removed).
		Msg("purged tt entries for previous heuristics")
	return removed
}

func loadTTPersistence(cfg engine.Config, cache *AISearchCache) {
	if cache == nil || !cfg.TTEnabled || !cfg.TTPersistenceEnabled || cfg.TTPersistencePath == "" {
		log.Info().Str("component", "ai:cache").Msg("tt persistence disabled")
		return
	}
	buckets := cfg.TTBuckets
	if buckets <= 0 {
		buckets = 2
	}
	tt, err := engine.LoadTable(cfg.TTPersistencePath, cfg.TTSize, buckets)
	if err != nil {
		event := log.Warn()
		if !errors.Is(err, engine.ErrSnapshotMismatch) {
			event = log.Error()
		}
		event.Err(err).Str("component", "ai:cache").Msg("skipping tt persistence")
		return
	}
	if tt == nil {
		return
	}
	cache.mu.Lock()
	cache.TT = tt
	cache.TTSize = cfg.TTSize
	cache.TTBuckets = buckets
	cache.mu.Unlock()
}

func persistTTPersistence(cfg engine.Config, cache *AISearchCache) {
	if cache == nil || !cfg.TTPersistenceEnabled || cfg.TTPersistencePath == "" {
		return
	}
	tt := cache.table()
	if tt == nil {
		log.Info().Str("component", "ai:cache").Msg("no tt to persist")
		return
	}
	if err := engine.SaveTable(cfg.TTPersistencePath, tt); err != nil {
		log.Error().Err(err).Str("component", "ai:cache").Msg("persist tt failed")
	}
}
