// Package engine is the decision core of a 4x4 sliding-tile merging puzzle.
//
// Boards are values: ApplyMove, Spawn and the search never modify a board another caller
// holds. A host keeps the authoritative board and drives a turn as
//
//	d, ok := engine.ChooseMove(board, engine.DefaultDepth) // or a human direction
//	if !ok { /* game over */ }
//	board = engine.ApplyMove(board, d)
//	board = engine.Spawn(board, rng)
//	over := engine.IsTerminal(board)
//
// ChooseMove runs expectimax: max nodes pick a direction, chance nodes average over every
// empty cell receiving a 2 (p=0.9) or a 4 (p=0.1). Leaves use Evaluate.
package engine
