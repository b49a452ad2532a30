package engine

// IsTerminal reports whether no move can change b: no empty cell and all four
// directions are no-ops.
func IsTerminal(b Board) bool {
	if b.HasEmpty() {
		return false
	}
	for _, d := range Directions {
		if ApplyMove(b, d) != b {
			return false
		}
	}
	return true
}

// LegalMoves lists the directions that change b, in enumeration order.
func LegalMoves(b Board) []Direction {
	moves := make([]Direction, 0, len(Directions))
	for _, d := range Directions {
		if IsLegal(b, d) {
			moves = append(moves, d)
		}
	}
	return moves
}

// HasWon reports whether any tile reached target.
func HasWon(b Board, target int) bool {
	return target > 0 && b.MaxTile() >= target
}
