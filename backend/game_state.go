package main

import "slide2048/engine"

type GameStatus int

const (
	StatusNotStarted GameStatus = iota
	StatusRunning
	StatusOver
	StatusWon
)

func (s GameStatus) String() string {
	switch s {
	case StatusNotStarted:
		return "not_started"
	case StatusOver:
		return "over"
	case StatusWon:
		return "won"
	default:
		return "running"
	}
}

type GameState struct {
	Board            engine.Board
	Status           GameStatus
	Score            int
	Moves            int
	MaxTile          int
	ReachedWin       bool
	HasLastDirection bool
	LastDirection    engine.Direction
	HasLastSpawn     bool
	LastSpawn        engine.Cell
	LastMessage      string
}

func DefaultGameState() GameState {
	state := GameState{}
	state.Reset()
	return state
}

func (s *GameState) Reset() {
	*s = GameState{Board: engine.NewBoard(), Status: StatusNotStarted}
}

// Clone is a plain copy; Board is a value.
func (s GameState) Clone() GameState {
	return s
}
