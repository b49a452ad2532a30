package engine

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoardFromRowsRejectsBadTiles(t *testing.T) {
	for _, v := range []int{1, 3, 6, -2, 1000} {
		_, err := BoardFromRows([Size][Size]int{{0, v}})
		assert.True(t, errors.Is(err, ErrInvalidTile), "value %d", v)
	}
	b, err := BoardFromRows([Size][Size]int{{2, 4, 0, 131072}})
	require.NoError(t, err)
	assert.Equal(t, 131072, b.MaxTile())
	assert.Panics(t, func() { MustBoard([Size][Size]int{{5}}) })
}

func TestBoardWithReturnsCopy(t *testing.T) {
	b := NewBoard()
	c := b.With(1, 2, 8)
	assert.Zero(t, b.At(1, 2))
	assert.Equal(t, 8, c.At(1, 2))
	assert.False(t, b.Equal(c))
}

func TestBoardQueries(t *testing.T) {
	b := MustBoard([Size][Size]int{
		{2, 0, 0, 0},
		{0, 4, 0, 0},
		{0, 0, 8, 0},
		{0, 0, 0, 0},
	})
	assert.Equal(t, 13, b.CountEmpty())
	assert.Len(t, b.EmptyCells(), 13)
	assert.Equal(t, Cell{Row: 0, Col: 1}, b.EmptyCells()[0])
	assert.True(t, b.HasEmpty())
	assert.Equal(t, 3, b.TileCount())
	assert.Equal(t, 8, b.MaxTile())
	assert.Equal(t, 14, b.Sum())
	assert.False(t, fullBoard().HasEmpty())
	assert.Empty(t, fullBoard().EmptyCells())
}

func TestBoardTransforms(t *testing.T) {
	b := MustBoard([Size][Size]int{{2, 4, 8, 16}})
	assert.Equal(t, [Size]int{16, 8, 4, 2}, b.MirrorColumns().Rows()[0])
	tr := b.Transpose()
	assert.Equal(t, 4, tr.At(1, 0))
	assert.Equal(t, b, tr.Transpose())
	assert.Equal(t, b, b.MirrorColumns().MirrorColumns())
}

func TestBoardString(t *testing.T) {
	out := MustBoard([Size][Size]int{{2, 2048}}).String()
	assert.Contains(t, out, "2048")
	assert.Equal(t, 2*Size+1, strings.Count(out, "\n"))
}

func TestDirectionParseAndText(t *testing.T) {
	cases := map[string]Direction{
		"left":       Left,
		"ArrowRight": Right,
		" U ":        Up,
		"d":          Down,
	}
	for raw, want := range cases {
		got, err := ParseDirection(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}
	_, err := ParseDirection("sideways")
	assert.True(t, errors.Is(err, ErrInvalidDirection))

	payload, err := json.Marshal(struct {
		D Direction `json:"d"`
	}{Up})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"up"}`, string(payload))

	var decoded struct {
		D Direction `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"down"}`), &decoded))
	assert.Equal(t, Down, decoded.D)

	_, err = Direction(9).MarshalText()
	assert.Error(t, err)
	assert.Equal(t, "direction(9)", Direction(9).String())
}
