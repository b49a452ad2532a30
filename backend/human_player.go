package main

import "slide2048/engine"

type HumanPlayer struct {
	pending          bool
	pendingDirection engine.Direction
}

func NewHumanPlayer() *HumanPlayer {
	return &HumanPlayer{}
}

func (h *HumanPlayer) IsHuman() bool {
	return true
}

// ChooseMove hands out the queued key press, if any.
func (h *HumanPlayer) ChooseMove(GameState) (engine.Direction, bool) {
	if !h.pending {
		return engine.Left, false
	}
	return h.TakePendingMove(), true
}

func (h *HumanPlayer) SetPendingMove(d engine.Direction) {
	h.pendingDirection = d
	h.pending = true
}

func (h *HumanPlayer) HasPendingMove() bool {
	return h.pending
}

func (h *HumanPlayer) TakePendingMove() engine.Direction {
	h.pending = false
	return h.pendingDirection
}

func (h *HumanPlayer) ClearPending() {
	h.pending = false
}
