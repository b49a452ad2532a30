package engine

// MoveResult is the outcome of sliding a board in one direction.
type MoveResult struct {
	Board  Board
	Merges int
	Points int
	Moved  bool
}

// orientation maps a direction onto the canonical left slide and back.
type orientation struct {
	forward func(Board) Board
	inverse func(Board) Board
}

func identity(b Board) Board { return b }

func transposeThenMirror(b Board) Board { return b.Transpose().MirrorColumns() }

func mirrorThenTranspose(b Board) Board { return b.MirrorColumns().Transpose() }

var orientations = [4]orientation{
	Left:  {forward: identity, inverse: identity},
	Right: {forward: Board.MirrorColumns, inverse: Board.MirrorColumns},
	Up:    {forward: Board.Transpose, inverse: Board.Transpose},
	Down:  {forward: transposeThenMirror, inverse: mirrorThenTranspose},
}

// ApplyMove slides and merges every line of b toward d and returns the new board.
// b is not modified. Panics on a direction outside the enumeration.
func ApplyMove(b Board, d Direction) Board {
	return Slide(b, d).Board
}

// Slide is ApplyMove plus merge bookkeeping.
func Slide(b Board, d Direction) MoveResult {
	mustValid(d)
	o := orientations[d]
	canonical := o.forward(b)
	var slid Board
	merges, points := 0, 0
	for r := 0; r < Size; r++ {
		row, m, p := slideRow(canonical.cells[r])
		slid.cells[r] = row
		merges += m
		points += p
	}
	out := o.inverse(slid)
	return MoveResult{
		Board:  out,
		Merges: merges,
		Points: points,
		Moved:  out != b,
	}
}

// slideRow compacts a row to the left and merges equal neighbours once per move.
// A merged tile never merges again in the same move: 2,2,2 becomes 4,2.
func slideRow(row [Size]int) ([Size]int, int, int) {
	var compact [Size]int
	n := 0
	for _, v := range row {
		if v != 0 {
			compact[n] = v
			n++
		}
	}
	var out [Size]int
	merges, points := 0, 0
	pos := 0
	for i := 0; i < n; i++ {
		if i+1 < n && compact[i] == compact[i+1] {
			out[pos] = compact[i] * 2
			points += out[pos]
			merges++
			i++
		} else {
			out[pos] = compact[i]
		}
		pos++
	}
	return out, merges, points
}

// IsLegal reports whether moving b toward d changes it.
func IsLegal(b Board, d Direction) bool {
	return ApplyMove(b, d) != b
}
