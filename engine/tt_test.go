package engine

import (
	"math"
	"math/rand"
	"sync"
	"testing"
)

var defaultHash = HeuristicHash(DefaultHeuristicWeights())

func TestTTConcurrentProbeStore(t *testing.T) {
	tt := NewTranspositionTable(1<<12, 2)
	var wg sync.WaitGroup

	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 4000; i++ {
				b := randomBoard(r, 2)
				depth := (i % 6) + 1
				kind := NodeKind(i & 1)
				key := zobrist.searchKey(HashBoard(b), depth, kind)
				tt.Store(key, defaultHash, b, depth, kind, float64(i))
				tt.Probe(key, defaultHash, b, depth, kind)
				tt.Probe(key^0x9e3779b97f4a7c15, defaultHash, b, depth, kind)
			}
		}(int64(g + 1))
	}

	wg.Wait()
	if tt.Count() == 0 {
		t.Fatalf("expected TT to contain entries after concurrent traffic")
	}
}

func TestTTGenerationWrapStaysNonZero(t *testing.T) {
	tt := NewTranspositionTable(16, 1)
	tt.gen.Store(^uint32(0))
	tt.NextGeneration()
	if got := tt.Generation(); got == 0 {
		t.Fatalf("generation must never be zero")
	}
}

func TestTTProbeRejectsCollidingBoard(t *testing.T) {
	tt := NewTranspositionTable(16, 2)
	a := MustBoard([Size][Size]int{{2, 4}})
	b := MustBoard([Size][Size]int{{4, 2}})
	tt.Store(7, defaultHash, a, 2, ChanceNode, 11)

	if _, ok := tt.Probe(7, defaultHash, b, 2, ChanceNode); ok {
		t.Fatalf("probe with a different board under the same key must miss")
	}
	if _, ok := tt.Probe(7, defaultHash, a, 3, ChanceNode); ok {
		t.Fatalf("probe at a different depth must miss")
	}
	if _, ok := tt.Probe(7, defaultHash, a, 2, MaxNode); ok {
		t.Fatalf("probe with a different node kind must miss")
	}
	if _, ok := tt.Probe(7, defaultHash+1, a, 2, ChanceNode); ok {
		t.Fatalf("probe under different heuristic weights must miss")
	}
	entry, ok := tt.Probe(7, defaultHash, a, 2, ChanceNode)
	if !ok || entry.Value != 11 || entry.Board() != a {
		t.Fatalf("unexpected entry %+v ok=%v", entry, ok)
	}
	if entry.Hits != 1 {
		t.Fatalf("expected one hit, got %d", entry.Hits)
	}
}

func TestTTStoreOverwriteKeepsHits(t *testing.T) {
	tt := NewTranspositionTable(16, 2)
	b := MustBoard([Size][Size]int{{2}})
	tt.Store(3, defaultHash, b, 1, MaxNode, 1)
	tt.Probe(3, defaultHash, b, 1, MaxNode)
	replaced, overwrote := tt.Store(3, defaultHash, b, 1, MaxNode, 2)
	if replaced || !overwrote {
		t.Fatalf("expected overwrite, got replaced=%v overwrote=%v", replaced, overwrote)
	}
	entry, _ := tt.Probe(3, defaultHash, b, 1, MaxNode)
	if entry.Value != 2 || entry.Hits != 2 {
		t.Fatalf("unexpected entry after overwrite: %+v", entry)
	}
}

func TestTTReplacementPrefersDeeperSearch(t *testing.T) {
	tt := NewTranspositionTable(1, 1)
	shallow := MustBoard([Size][Size]int{{2}})
	deep := MustBoard([Size][Size]int{{4}})
	tt.Store(1, defaultHash, shallow, 1, MaxNode, 1)

	if replaced, _ := tt.Store(2, defaultHash, deep, 3, MaxNode, 3); !replaced {
		t.Fatalf("deeper entry should evict a shallower one")
	}
	if replaced, _ := tt.Store(3, defaultHash, shallow, 1, MaxNode, 1); replaced {
		t.Fatalf("fresh deeper entry must survive a shallow store")
	}
	for i := 0; i < ttVeryOldGenerations; i++ {
		tt.NextGeneration()
	}
	if replaced, _ := tt.Store(3, defaultHash, shallow, 1, MaxNode, 1); !replaced {
		t.Fatalf("very old entry should be evicted")
	}
}

func TestTTDeleteClearAndTopEntries(t *testing.T) {
	tt := NewTranspositionTable(64, 2)
	boards := []Board{
		MustBoard([Size][Size]int{{2}}),
		MustBoard([Size][Size]int{{4}}),
		MustBoard([Size][Size]int{{8}}),
	}
	for i, b := range boards {
		tt.Store(uint64(i+1), defaultHash, b, 1, MaxNode, float64(i))
	}
	for i := 0; i < 3; i++ {
		tt.Probe(2, defaultHash, boards[1], 1, MaxNode)
	}

	top, total := tt.TopEntriesByHits(0, 1)
	if total != 3 || len(top) != 1 || top[0].Key != 2 {
		t.Fatalf("unexpected top entries %+v total=%d", top, total)
	}
	if rest, _ := tt.TopEntriesByHits(5, 10); len(rest) != 0 {
		t.Fatalf("offset past the end should be empty")
	}
	if !tt.DeleteByKey(2) || tt.DeleteByKey(2) {
		t.Fatalf("delete should succeed once")
	}
	if tt.Count() != 2 {
		t.Fatalf("expected 2 entries, got %d", tt.Count())
	}
	tt.Clear()
	if tt.Count() != 0 || tt.Generation() != 1 {
		t.Fatalf("clear should empty the table and reset the generation")
	}
}

func TestNewTranspositionTableRoundsToPowerOfTwo(t *testing.T) {
	tt := NewTranspositionTable(100, 0)
	if tt.Size() != 128 || tt.Buckets() != 2 || tt.Capacity() != 256 {
		t.Fatalf("unexpected geometry size=%d buckets=%d cap=%d", tt.Size(), tt.Buckets(), tt.Capacity())
	}
	var missing *TranspositionTable
	if missing.Capacity() != 0 {
		t.Fatalf("nil table has no capacity")
	}
}

func TestTTStoreKeepsEntriesPerHeuristic(t *testing.T) {
	tt := NewTranspositionTable(16, 2)
	b := MustBoard([Size][Size]int{{2, 4}})
	other := HeuristicHash(HeuristicWeights{Smoothness: -1})
	tt.Store(5, defaultHash, b, 2, MaxNode, 10)
	if _, overwrote := tt.Store(5, other, b, 2, MaxNode, 20); overwrote {
		t.Fatalf("a store under other weights must not overwrite")
	}
	if entry, ok := tt.Probe(5, defaultHash, b, 2, MaxNode); !ok || entry.Value != 10 {
		t.Fatalf("default entry lost: %+v ok=%v", entry, ok)
	}
	if entry, ok := tt.Probe(5, other, b, 2, MaxNode); !ok || entry.Value != 20 {
		t.Fatalf("custom entry lost: %+v ok=%v", entry, ok)
	}
	if n := tt.DeleteByHeuristicHash(other); n != 1 {
		t.Fatalf("expected one entry deleted, got %d", n)
	}
	if tt.Count() != 1 {
		t.Fatalf("expected the default entry to remain, got %d entries", tt.Count())
	}
}

func TestHeuristicHashDistinguishesWeights(t *testing.T) {
	if HeuristicHash(DefaultHeuristicWeights()) != defaultHash {
		t.Fatalf("hash must be deterministic")
	}
	if HeuristicHash(HeuristicWeights{Smoothness: 0}) != HeuristicHash(HeuristicWeights{Smoothness: math.Copysign(0, -1)}) {
		t.Fatalf("negative zero must hash like zero")
	}
	seen := map[uint64]HeuristicWeights{}
	for _, w := range []HeuristicWeights{
		DefaultHeuristicWeights(),
		{Empty: 1, MaxTile: 100, Smoothness: 1},
		{Empty: 100, MaxTile: 1, Smoothness: -1},
		{Smoothness: -1},
		{},
	} {
		h := HeuristicHash(w)
		if prev, ok := seen[h]; ok {
			t.Fatalf("weights %+v and %+v share hash %x", prev, w, h)
		}
		seen[h] = w
	}
}
