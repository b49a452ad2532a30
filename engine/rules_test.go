package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsTerminalNoAdjacentEquals(t *testing.T) {
	assert.True(t, IsTerminal(fullBoard()))
	assert.Empty(t, LegalMoves(fullBoard()))
}

func TestIsTerminalFalseWithEmptyCell(t *testing.T) {
	assert.False(t, IsTerminal(fullBoard().With(0, 0, 0)))
	assert.False(t, IsTerminal(NewBoard()))
}

func TestIsTerminalFalseWhenMergeAvailable(t *testing.T) {
	b := fullBoard().With(0, 1, 2) // row 0 now starts 2,2
	assert.False(t, IsTerminal(b))
	assert.Equal(t, []Direction{Left, Right}, LegalMoves(b))
}

func TestIsTerminalMatchesDefinition(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	terminals := 0
	for i := 0; i < 5000; i++ {
		b := randomBoard(r, i%2)
		want := b.CountEmpty() == 0
		for _, d := range Directions {
			if ApplyMove(b, d) != b {
				want = false
			}
		}
		require.Equal(t, want, IsTerminal(b), "board %v", b)
		if want {
			terminals++
		}
	}
	assert.Positive(t, terminals)
}

func TestHasWon(t *testing.T) {
	b := MustBoard([Size][Size]int{{2048}})
	assert.True(t, HasWon(b, 2048))
	assert.False(t, HasWon(b, 4096))
	assert.False(t, HasWon(b, 0))
}
