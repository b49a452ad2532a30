package engine

import (
	"sort"
	"sync"
	"sync/atomic"
)

const ttVeryOldGenerations = 8

// TTEntry is one cached search value. Cells holds the full board so a hash collision is
// detected instead of returning another position's score. HeuristicHash ties the value to
// the evaluation weights it was computed with.
type TTEntry struct {
	Key           uint64
	HeuristicHash uint64
	Cells         [Size][Size]int
	Depth         int
	Kind          NodeKind
	Value         float64
	Hits          uint32
	GenWritten    uint32
	GenLastUsed   uint32
	Valid         bool
}

func (e TTEntry) Board() Board {
	return Board{cells: e.Cells}
}

// TranspositionTable is a set-associative cache of exact expectimax values keyed by
// (board, depth, node kind, heuristic hash).
type TranspositionTable struct {
	mask        uint64
	buckets     int
	entries     []TTEntry
	stripeLocks []sync.Mutex
	stripeMask  uint64
	gen         atomic.Uint32
}

func NewTranspositionTable(size uint64, buckets int) *TranspositionTable {
	if buckets <= 0 {
		buckets = 2
	}
	if size < 1 {
		size = 1
	}
	if (size & (size - 1)) != 0 {
		size = nextPowerOfTwo(size)
	}
	maxStripes := 64
	if int(size) < maxStripes {
		maxStripes = int(size)
	}
	stripes := 1
	for stripes*2 <= maxStripes {
		stripes *= 2
	}
	tt := &TranspositionTable{
		mask:        size - 1,
		buckets:     buckets,
		entries:     make([]TTEntry, int(size)*buckets),
		stripeLocks: make([]sync.Mutex, stripes),
		stripeMask:  uint64(stripes - 1),
	}
	tt.gen.Store(1)
	return tt
}

func (tt *TranspositionTable) NextGeneration() {
	gen := tt.gen.Add(1)
	if gen == 0 {
		tt.gen.CompareAndSwap(0, 1)
	}
}

func (tt *TranspositionTable) Generation() uint32 {
	return tt.currentGeneration()
}

func (tt *TranspositionTable) Size() int {
	return int(tt.mask + 1)
}

func (tt *TranspositionTable) Buckets() int {
	return tt.buckets
}

func (tt *TranspositionTable) Clear() {
	tt.lockAllStripes()
	defer tt.unlockAllStripes()
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.gen.Store(1)
}

func (tt *TranspositionTable) bucketIndex(key uint64) int {
	return int(key&tt.mask) * tt.buckets
}

func (tt *TranspositionTable) stripeIndexForKey(key uint64) int {
	return int((key & tt.mask) & tt.stripeMask)
}

func (tt *TranspositionTable) Probe(key uint64, heuristicHash uint64, b Board, depth int, kind NodeKind) (TTEntry, bool) {
	stripe := tt.stripeIndexForKey(key)
	tt.stripeLocks[stripe].Lock()
	defer tt.stripeLocks[stripe].Unlock()
	gen := tt.currentGeneration()
	start := tt.bucketIndex(key)
	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		entry := tt.entries[idx]
		if !entry.matches(key, heuristicHash, b, depth, kind) {
			continue
		}
		entry.Hits++
		entry.GenLastUsed = gen
		tt.entries[idx] = entry
		return entry, true
	}
	return TTEntry{}, false
}

// Store records value for (b, depth, kind) under heuristicHash. It reports whether an
// unrelated entry was evicted and whether the same position was rewritten.
func (tt *TranspositionTable) Store(key uint64, heuristicHash uint64, b Board, depth int, kind NodeKind, value float64) (replaced bool, overwrote bool) {
	stripe := tt.stripeIndexForKey(key)
	tt.stripeLocks[stripe].Lock()
	defer tt.stripeLocks[stripe].Unlock()
	gen := tt.currentGeneration()
	start := tt.bucketIndex(key)
	fresh := TTEntry{
		Key:           key,
		HeuristicHash: heuristicHash,
		Cells:         b.cells,
		Depth:         depth,
		Kind:          kind,
		Value:         value,
		GenWritten:    gen,
		GenLastUsed:   gen,
		Valid:         true,
	}

	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		entry := tt.entries[idx]
		if !entry.matches(key, heuristicHash, b, depth, kind) {
			continue
		}
		fresh.Hits = entry.Hits
		tt.entries[idx] = fresh
		return false, true
	}

	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		if tt.entries[idx].Valid {
			continue
		}
		tt.entries[idx] = fresh
		return false, false
	}

	victim := -1
	victimClass := 0
	victimAge := uint32(0)
	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		entry := tt.entries[idx]
		class := replacementClass(entry, depth, gen)
		if class == 0 {
			continue
		}
		age := entryAge(gen, entry)
		if victim == -1 || class < victimClass || (class == victimClass && age > victimAge) {
			victim = idx
			victimClass = class
			victimAge = age
		}
	}
	if victim == -1 {
		return false, false
	}
	tt.entries[victim] = fresh
	return true, false
}

func (e TTEntry) matches(key uint64, heuristicHash uint64, b Board, depth int, kind NodeKind) bool {
	return e.Valid && e.Key == key && e.HeuristicHash == heuristicHash &&
		e.Depth == depth && e.Kind == kind && e.Cells == b.cells
}

func (tt *TranspositionTable) DeleteByKey(key uint64) bool {
	stripe := tt.stripeIndexForKey(key)
	tt.stripeLocks[stripe].Lock()
	defer tt.stripeLocks[stripe].Unlock()
	start := tt.bucketIndex(key)
	deleted := false
	for i := 0; i < tt.buckets; i++ {
		idx := start + i
		if !tt.entries[idx].Valid || tt.entries[idx].Key != key {
			continue
		}
		tt.entries[idx] = TTEntry{}
		deleted = true
	}
	return deleted
}

// DeleteByHeuristicHash drops every entry computed under heuristicHash and returns how
// many were removed.
func (tt *TranspositionTable) DeleteByHeuristicHash(heuristicHash uint64) int {
	tt.lockAllStripes()
	defer tt.unlockAllStripes()
	deleted := 0
	for i := range tt.entries {
		if !tt.entries[i].Valid || tt.entries[i].HeuristicHash != heuristicHash {
			continue
		}
		tt.entries[i] = TTEntry{}
		deleted++
	}
	return deleted
}

func (tt *TranspositionTable) TopEntriesByHits(offset int, limit int) ([]TTEntry, int) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	entries := tt.snapshotEntries()
	valid := make([]TTEntry, 0, len(entries))
	for i := range entries {
		if entries[i].Valid {
			valid = append(valid, entries[i])
		}
	}
	sort.Slice(valid, func(i, j int) bool {
		if valid[i].Hits != valid[j].Hits {
			return valid[i].Hits > valid[j].Hits
		}
		if valid[i].Depth != valid[j].Depth {
			return valid[i].Depth > valid[j].Depth
		}
		if valid[i].GenLastUsed != valid[j].GenLastUsed {
			return valid[i].GenLastUsed > valid[j].GenLastUsed
		}
		return valid[i].Key < valid[j].Key
	})
	total := len(valid)
	if offset >= total {
		return []TTEntry{}, total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return valid[offset:end], total
}

func (tt *TranspositionTable) Count() int {
	tt.lockAllStripes()
	defer tt.unlockAllStripes()
	count := 0
	for i := range tt.entries {
		if tt.entries[i].Valid {
			count++
		}
	}
	return count
}

func (tt *TranspositionTable) Capacity() int {
	if tt == nil {
		return 0
	}
	return len(tt.entries)
}

func (tt *TranspositionTable) currentGeneration() uint32 {
	gen := tt.gen.Load()
	if gen != 0 {
		return gen
	}
	if tt.gen.CompareAndSwap(0, 1) {
		return 1
	}
	gen = tt.gen.Load()
	if gen == 0 {
		return 1
	}
	return gen
}

func (tt *TranspositionTable) lockAllStripes() {
	for i := range tt.stripeLocks {
		tt.stripeLocks[i].Lock()
	}
}

func (tt *TranspositionTable) unlockAllStripes() {
	for i := len(tt.stripeLocks) - 1; i >= 0; i-- {
		tt.stripeLocks[i].Unlock()
	}
}

func (tt *TranspositionTable) snapshotEntries() []TTEntry {
	tt.lockAllStripes()
	defer tt.unlockAllStripes()
	entries := make([]TTEntry, len(tt.entries))
	copy(entries, tt.entries)
	return entries
}

func (tt *TranspositionTable) loadEntries(entries []TTEntry) {
	tt.lockAllStripes()
	defer tt.unlockAllStripes()
	if len(entries) > len(tt.entries) {
		entries = entries[:len(tt.entries)]
	}
	copy(tt.entries[:len(entries)], entries)
}

// replacementClass ranks how willing we are to evict entry for a new value at depth.
// 0 keeps the entry; lower non-zero classes are evicted first.
func replacementClass(entry TTEntry, depth int, gen uint32) int {
	if depth > entry.Depth {
		return 1
	}
	age := entryAge(gen, entry)
	if depth == entry.Depth && age > 0 {
		return 2
	}
	if age >= ttVeryOldGenerations {
		return 3
	}
	return 0
}

func entryAge(gen uint32, entry TTEntry) uint32 {
	last := entry.GenLastUsed
	if last == 0 {
		last = entry.GenWritten
	}
	return gen - last
}

func nextPowerOfTwo(v uint64) uint64 {
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	v++
	return v
}
