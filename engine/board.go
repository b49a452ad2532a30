package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Size is the fixed grid width and height.
const Size = 4

var ErrInvalidTile = errors.New("invalid tile value")

// Board is an immutable 4x4 grid value. Every operation that changes a board returns a
// new one, so search branches never observe each other's state.
type Board struct {
	cells [Size][Size]int
}

// Cell addresses one grid position.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewBoard() Board {
	return Board{}
}

// BoardFromRows builds a board from external input. Values must be 0 or a power of two >= 2.
func BoardFromRows(rows [Size][Size]int) (Board, error) {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if !validTile(rows[r][c]) {
				return Board{}, fmt.Errorf("%w: %d at row %d col %d", ErrInvalidTile, rows[r][c], r, c)
			}
		}
	}
	return Board{cells: rows}, nil
}

// MustBoard is BoardFromRows for fixtures.
func MustBoard(rows [Size][Size]int) Board {
	b, err := BoardFromRows(rows)
	if err != nil {
		panic(err)
	}
	return b
}

func validTile(v int) bool {
	if v == 0 {
		return true
	}
	return v >= 2 && v&(v-1) == 0
}

func (b Board) At(row, col int) int {
	return b.cells[row][col]
}

// With returns a copy of b with one cell replaced.
func (b Board) With(row, col, value int) Board {
	b.cells[row][col] = value
	return b
}

func (b Board) Rows() [Size][Size]int {
	return b.cells
}

func (b Board) Equal(other Board) bool {
	return b.cells == other.cells
}

func (b Board) EmptyCells() []Cell {
	empty := make([]Cell, 0, Size*Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c] == 0 {
				empty = append(empty, Cell{Row: r, Col: c})
			}
		}
	}
	return empty
}

func (b Board) CountEmpty() int {
	count := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c] == 0 {
				count++
			}
		}
	}
	return count
}

func (b Board) HasEmpty() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c] == 0 {
				return true
			}
		}
	}
	return false
}

func (b Board) TileCount() int {
	return Size*Size - b.CountEmpty()
}

func (b Board) MaxTile() int {
	best := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.cells[r][c] > best {
				best = b.cells[r][c]
			}
		}
	}
	return best
}

func (b Board) Sum() int {
	total := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			total += b.cells[r][c]
		}
	}
	return total
}

// MirrorColumns reverses every row (left-right reflection).
func (b Board) MirrorColumns() Board {
	var out Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			out.cells[r][Size-1-c] = b.cells[r][c]
		}
	}
	return out
}

// Transpose swaps rows and columns.
func (b Board) Transpose() Board {
	var out Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			out.cells[c][r] = b.cells[r][c]
		}
	}
	return out
}

func (b Board) String() string {
	line := "+------+------+------+------+"
	var sb strings.Builder
	sb.WriteString(line)
	sb.WriteByte('\n')
	for r := 0; r < Size; r++ {
		sb.WriteByte('|')
		for c := 0; c < Size; c++ {
			if b.cells[r][c] == 0 {
				sb.WriteString("      |")
				continue
			}
			fmt.Fprintf(&sb, "%5d |", b.cells[r][c])
		}
		sb.WriteByte('\n')
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	return sb.String()
}
