package engine

import (
	"math"
	"time"

	"golang.org/x/sync/errgroup"
)

// NodeKind says whose turn a search node is.
type NodeKind uint8

const (
	// MaxNode is the engine's turn: pick the best direction.
	MaxNode NodeKind = iota
	// ChanceNode is the environment's turn: a random tile appears.
	ChanceNode
)

func (k NodeKind) String() string {
	if k == MaxNode {
		return "max"
	}
	return "chance"
}

var spawnOutcomes = [2]struct {
	value  int
	weight float64
}{
	{value: spawnTwo, weight: 0.9},
	{value: spawnFour, weight: 0.1},
}

// DirectionScore is the expectimax value of one root move.
type DirectionScore struct {
	Direction Direction `json:"direction"`
	Legal     bool      `json:"legal"`
	Score     float64   `json:"score"`
}

// Analysis is the full result of a root search.
type Analysis struct {
	Best      Direction         `json:"best"`
	HasMove   bool              `json:"has_move"`
	BestScore float64           `json:"best_score"`
	Depth     int               `json:"depth"`
	Scores    [4]DirectionScore `json:"scores"`
	Stats     StatsSnapshot     `json:"stats"`
	Elapsed   time.Duration     `json:"-"`
}

// Searcher runs expectimax with a fixed configuration. It is safe for concurrent use;
// the optional transposition table is the only state shared between calls and it only
// ever holds exact values.
type Searcher struct {
	config    Config
	weights   HeuristicWeights
	heuristic uint64
	tt        *TranspositionTable
}

func NewSearcher(cfg Config) *Searcher {
	var tt *TranspositionTable
	if cfg.TTEnabled {
		tt = NewTranspositionTable(uint64(cfg.TTSize), cfg.TTBuckets)
	}
	return NewSearcherWithTable(cfg, tt)
}

// NewSearcherWithTable shares tt between searchers. A nil tt disables caching.
func NewSearcherWithTable(cfg Config, tt *TranspositionTable) *Searcher {
	return &Searcher{
		config:    cfg,
		weights:   cfg.Heuristics,
		heuristic: HeuristicHash(cfg.Heuristics),
		tt:        tt,
	}
}

var plainSearcher = NewSearcher(Config{
	Depth:      DefaultDepth,
	Heuristics: DefaultHeuristicWeights(),
})

// ChooseMove returns the direction with the highest expectimax value at depth, or false
// when no direction changes the board.
func ChooseMove(b Board, depth int) (Direction, bool) {
	return plainSearcher.ChooseMove(b, depth)
}

// Search evaluates b at depth from the given node kind with the default heuristic.
func Search(b Board, depth int, kind NodeKind) float64 {
	return plainSearcher.Search(b, depth, kind)
}

func (s *Searcher) Config() Config {
	return s.config
}

func (s *Searcher) Table() *TranspositionTable {
	return s.tt
}

func (s *Searcher) ChooseMove(b Board, depth int) (Direction, bool) {
	analysis := s.Analyze(b, depth)
	return analysis.Best, analysis.HasMove
}

func (s *Searcher) Search(b Board, depth int, kind NodeKind) float64 {
	ctx := s.newContext()
	return ctx.search(b, depth, kind)
}

// Analyze scores every root direction. Directions are tried in enumeration order and the
// first one reaching the maximum wins ties. depth below 1 is treated as 1.
func (s *Searcher) Analyze(b Board, depth int) Analysis {
	if depth < 1 {
		depth = 1
	}
	ctx := s.newContext()
	if s.tt != nil {
		s.tt.NextGeneration()
	}

	var children [4]Board
	analysis := Analysis{Depth: depth}
	for i, d := range Directions {
		children[i] = ApplyMove(b, d)
		analysis.Scores[i] = DirectionScore{Direction: d, Legal: children[i] != b}
	}

	if s.config.ParallelRoot {
		var g errgroup.Group
		for i := range Directions {
			if !analysis.Scores[i].Legal {
				continue
			}
			i := i
			g.Go(func() error {
				analysis.Scores[i].Score = ctx.search(children[i], depth-1, ChanceNode)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i := range Directions {
			if !analysis.Scores[i].Legal {
				continue
			}
			analysis.Scores[i].Score = ctx.search(children[i], depth-1, ChanceNode)
		}
	}

	best := math.Inf(-1)
	for _, scored := range analysis.Scores {
		if !scored.Legal {
			continue
		}
		if scored.Score > best {
			best = scored.Score
			analysis.Best = scored.Direction
			analysis.HasMove = true
		}
	}
	if analysis.HasMove {
		analysis.BestScore = best
	}
	analysis.Stats = ctx.stats.Snapshot()
	analysis.Elapsed = time.Since(ctx.stats.Start)
	if s.config.LogSearchStats {
		logSearchStats("analyze", depth, analysis)
	}
	return analysis
}

type searchContext struct {
	weights   HeuristicWeights
	heuristic uint64
	tt        *TranspositionTable
	stats     *SearchStats
}

func (s *Searcher) newContext() *searchContext {
	return &searchContext{
		weights:   s.weights,
		heuristic: s.heuristic,
		tt:        s.tt,
		stats:     newSearchStats(),
	}
}

func (c *searchContext) search(b Board, depth int, kind NodeKind) float64 {
	c.stats.Nodes.Add(1)
	if depth <= 0 || IsTerminal(b) {
		c.stats.Leaves.Add(1)
		return c.weights.Evaluate(b)
	}

	var key uint64
	if c.tt != nil {
		key = zobrist.searchKey(HashBoard(b), depth, kind)
		c.stats.TTProbes.Add(1)
		if entry, ok := c.tt.Probe(key, c.heuristic, b, depth, kind); ok {
			c.stats.TTHits.Add(1)
			return entry.Value
		}
	}

	var value float64
	if kind == MaxNode {
		value = c.maxValue(b, depth)
	} else {
		value = c.chanceValue(b, depth)
	}

	if c.tt != nil {
		replaced, overwrote := c.tt.Store(key, c.heuristic, b, depth, kind, value)
		c.stats.TTStores.Add(1)
		if replaced {
			c.stats.TTEvictions.Add(1)
		}
		if overwrote {
			c.stats.TTOverwrites.Add(1)
		}
	}
	return value
}

func (c *searchContext) maxValue(b Board, depth int) float64 {
	c.stats.MaxNodes.Add(1)
	best := math.Inf(-1)
	moved := false
	for _, d := range Directions {
		child := ApplyMove(b, d)
		if child == b {
			continue
		}
		moved = true
		if v := c.search(child, depth-1, ChanceNode); v > best {
			best = v
		}
	}
	if !moved {
		return c.weights.Evaluate(b)
	}
	return best
}

// chanceValue averages over empty cells; each cell carries probability mass 1 split
// 0.9/0.1 between a 2 and a 4.
func (c *searchContext) chanceValue(b Board, depth int) float64 {
	c.stats.ChanceNodes.Add(1)
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return c.weights.Evaluate(b)
	}
	total := 0.0
	for _, cell := range empty {
		for _, outcome := range spawnOutcomes {
			child := b.With(cell.Row, cell.Col, outcome.value)
			total += outcome.weight * c.search(child, depth-1, MaxNode)
		}
	}
	return total / float64(len(empty))
}
