package engine

import (
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// SearchStats counts work done by one Analyze call. Counters are atomic because parallel
// root evaluation shares them.
type SearchStats struct {
	Nodes        atomic.Int64
	MaxNodes     atomic.Int64
	ChanceNodes  atomic.Int64
	Leaves       atomic.Int64
	TTProbes     atomic.Int64
	TTHits       atomic.Int64
	TTStores     atomic.Int64
	TTOverwrites atomic.Int64
	TTEvictions  atomic.Int64
	Start        time.Time
}

type StatsSnapshot struct {
	Nodes        int64 `json:"nodes"`
	MaxNodes     int64 `json:"max_nodes"`
	ChanceNodes  int64 `json:"chance_nodes"`
	Leaves       int64 `json:"leaves"`
	TTProbes     int64 `json:"tt_probes"`
	TTHits       int64 `json:"tt_hits"`
	TTStores     int64 `json:"tt_stores"`
	TTOverwrites int64 `json:"tt_overwrites"`
	TTEvictions  int64 `json:"tt_evictions"`
	ElapsedMs    int64 `json:"elapsed_ms"`
}

func newSearchStats() *SearchStats {
	return &SearchStats{Start: time.Now()}
}

func (s *SearchStats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Nodes:        s.Nodes.Load(),
		MaxNodes:     s.MaxNodes.Load(),
		ChanceNodes:  s.ChanceNodes.Load(),
		Leaves:       s.Leaves.Load(),
		TTProbes:     s.TTProbes.Load(),
		TTHits:       s.TTHits.Load(),
		TTStores:     s.TTStores.Load(),
		TTOverwrites: s.TTOverwrites.Load(),
		TTEvictions:  s.TTEvictions.Load(),
		ElapsedMs:    time.Since(s.Start).Milliseconds(),
	}
}

func logSearchStats(tag string, depth int, analysis Analysis) {
	stats := analysis.Stats
	hitRate := 0.0
	if stats.TTProbes > 0 {
		hitRate = float64(stats.TTHits) / float64(stats.TTProbes)
	}
	nps := 0.0
	if analysis.Elapsed > 0 {
		nps = float64(stats.Nodes) / analysis.Elapsed.Seconds()
	}
	event := log.Info().
		Str("component", "ai:search").
		Str("tag", tag).
		Int("depth", depth).
		Int64("nodes", stats.Nodes).
		Int64("leaves", stats.Leaves).
		Int64("tt_hits", stats.TTHits).
		Float64("tt_hit_rate", hitRate).
		Float64("nps", nps).
		Dur("elapsed", analysis.Elapsed)
	if analysis.HasMove {
		event = event.Stringer("best", analysis.Best).Float64("score", analysis.BestScore)
	} else {
		event = event.Str("best", "none")
	}
	event.Msg("search finished")
}
