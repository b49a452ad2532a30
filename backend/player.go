package main

import "slide2048/engine"

type IPlayer interface {
	IsHuman() bool
	ChooseMove(state GameState) (engine.Direction, bool)
}
