package engine

import (
	"errors"
	"math/rand"

	"lukechampine.com/frand"
)

const (
	SpawnFourProbability = 0.1
	spawnTwo             = 2
	spawnFour            = 4
)

var ErrBoardFull = errors.New("board full")

// RandomSource is the only randomness the engine consumes. *rand.Rand satisfies it.
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

// NewSeededSource returns a deterministic source for tests and replays.
func NewSeededSource(seed int64) RandomSource {
	return rand.New(rand.NewSource(seed))
}

type secureSource struct{}

// NewSecureSource returns a source backed by frand's ChaCha generator. Safe for concurrent use.
func NewSecureSource() RandomSource {
	return secureSource{}
}

func (secureSource) Intn(n int) int {
	return frand.Intn(n)
}

func (secureSource) Float64() float64 {
	return float64(frand.Uint64n(1<<53)) / (1 << 53)
}

// Spawn places a 2 (p=0.9) or 4 (p=0.1) on a uniformly chosen empty cell.
// A full board is returned unchanged.
func Spawn(b Board, rng RandomSource) Board {
	out, _, err := TrySpawn(b, rng)
	if err != nil {
		return b
	}
	return out
}

// TrySpawn is Spawn for callers that need to know where the tile went, or that a full
// board could not take one.
func TrySpawn(b Board, rng RandomSource) (Board, Cell, error) {
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return b, Cell{}, ErrBoardFull
	}
	cell := empty[rng.Intn(len(empty))]
	value := spawnTwo
	if rng.Float64() < SpawnFourProbability {
		value = spawnFour
	}
	return b.With(cell.Row, cell.Col, value), cell, nil
}

// NewGame returns an empty board with two spawned tiles.
func NewGame(rng RandomSource) Board {
	b := Spawn(NewBoard(), rng)
	return Spawn(b, rng)
}
