package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullBoard() Board {
	return MustBoard([Size][Size]int{
		{2, 4, 8, 16},
		{4, 8, 16, 2},
		{8, 16, 2, 4},
		{16, 2, 4, 8},
	})
}

func TestSpawnSingleEmptyCellDistribution(t *testing.T) {
	b := fullBoard().With(2, 1, 0)
	rng := NewSeededSource(2048)
	const trials = 20000
	fours := 0
	for i := 0; i < trials; i++ {
		out := Spawn(b, rng)
		v := out.At(2, 1)
		require.Contains(t, []int{2, 4}, v)
		require.Equal(t, 0, out.CountEmpty())
		if v == 4 {
			fours++
		}
	}
	ratio := float64(fours) / trials
	assert.InDelta(t, 0.1, ratio, 0.01, "four ratio %f", ratio)
}

func TestSpawnChoosesEmptyCellsUniformly(t *testing.T) {
	b := MustBoard([Size][Size]int{
		{2, 0, 2, 0},
		{2, 2, 2, 2},
		{2, 2, 0, 2},
		{2, 2, 2, 2},
	})
	rng := NewSeededSource(1)
	counts := map[Cell]int{}
	const trials = 9000
	for i := 0; i < trials; i++ {
		_, cell, err := TrySpawn(b, rng)
		require.NoError(t, err)
		counts[cell]++
	}
	require.Len(t, counts, 3)
	for cell, n := range counts {
		assert.Zero(t, b.At(cell.Row, cell.Col))
		assert.InDelta(t, trials/3, n, trials*0.05, "cell %+v", cell)
	}
}

func TestSpawnOnFullBoardIsNoOp(t *testing.T) {
	b := fullBoard()
	assert.Equal(t, b, Spawn(b, NewSeededSource(3)))

	out, _, err := TrySpawn(b, NewSeededSource(3))
	assert.True(t, errors.Is(err, ErrBoardFull))
	assert.Equal(t, b, out)
}

func TestSpawnDoesNotMutateInput(t *testing.T) {
	b := NewBoard()
	_ = Spawn(b, NewSeededSource(5))
	assert.Equal(t, Size*Size, b.CountEmpty())
}

func TestNewGamePlacesTwoTiles(t *testing.T) {
	rng := NewSeededSource(99)
	for i := 0; i < 100; i++ {
		b := NewGame(rng)
		require.Equal(t, 2, b.TileCount())
		require.LessOrEqual(t, b.MaxTile(), 4)
	}
}

func TestSecureSourceRanges(t *testing.T) {
	rng := NewSecureSource()
	for i := 0; i < 1000; i++ {
		n := rng.Intn(7)
		require.GreaterOrEqual(t, n, 0)
		require.Less(t, n, 7)
		f := rng.Float64()
		require.GreaterOrEqual(t, f, 0.0)
		require.Less(t, f, 1.0)
	}
	b := Spawn(NewBoard(), rng)
	assert.Equal(t, 1, b.TileCount())
}
