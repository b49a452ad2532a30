package main

import "slide2048/engine"

type HistoryEntry struct {
	Direction  engine.Direction
	Points     int
	Merges     int
	Spawn      engine.Cell
	SpawnValue int
	ScoreAfter int
	ElapsedMs  float64
	IsAi       bool
	Depth      int
}

// MoveHistory is a display log; moves are never undone.
type MoveHistory struct {
	entries []HistoryEntry
}

func (h *MoveHistory) Clear() {
	h.entries = nil
}

func (h *MoveHistory) Push(entry HistoryEntry) {
	h.entries = append(h.entries, entry)
}

func (h MoveHistory) Size() int {
	return len(h.entries)
}

func (h MoveHistory) All() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

func (h MoveHistory) Last() (HistoryEntry, bool) {
	if len(h.entries) == 0 {
		return HistoryEntry{}, false
	}
	return h.entries[len(h.entries)-1], true
}
