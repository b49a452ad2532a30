package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluateSinglePair(t *testing.T) {
	b := MustBoard([Size][Size]int{{2, 2, 0, 0}})
	// 14 empty, max 2, horizontal |2-2|+|2-0| = 2, vertical 2+2 = 4
	assert.Equal(t, 1400.0+2.0-6.0, Evaluate(b))
}

func TestEvaluateFullBoard(t *testing.T) {
	assert.Equal(t, -152.0, Evaluate(fullBoard()))
}

func TestEvaluateEmptyBoard(t *testing.T) {
	assert.Equal(t, 1600.0, Evaluate(NewBoard()))
}

func TestRoughnessPrefersSmoothBoards(t *testing.T) {
	smooth := MustBoard([Size][Size]int{{2, 4, 0, 0}})
	rough := MustBoard([Size][Size]int{{2, 1024, 0, 0}})
	assert.Less(t, Roughness(smooth), Roughness(rough))
	assert.Greater(t, Evaluate(smooth), Evaluate(rough))
}

func TestHeuristicWeightsScaleTerms(t *testing.T) {
	b := MustBoard([Size][Size]int{{4, 0, 0, 0}})
	w := HeuristicWeights{Empty: 1, MaxTile: 10, Smoothness: 0}
	assert.Equal(t, 15.0+40.0, w.Evaluate(b))
	assert.Equal(t, Evaluate(b), DefaultHeuristicWeights().Evaluate(b))
}
