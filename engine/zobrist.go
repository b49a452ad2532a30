package engine

import "math/bits"

// maxExponent covers every tile a 4x4 board can hold (2^17 = 131072).
const maxExponent = 17

type ZobristTable struct {
	cells [Size * Size][maxExponent + 1]uint64
	kinds [2]uint64
	depth [64]uint64
}

var zobrist = newZobristTable(0x9e3779b97f4a7c15)

func newZobristTable(seed uint64) *ZobristTable {
	rng := splitmix64{state: seed}
	table := &ZobristTable{}
	for i := range table.cells {
		// exponent 0 is the empty cell and hashes to nothing
		for e := 1; e <= maxExponent; e++ {
			table.cells[i][e] = rng.next()
		}
	}
	for i := range table.kinds {
		table.kinds[i] = rng.next()
	}
	for i := range table.depth {
		table.depth[i] = rng.next()
	}
	return table
}

// HashBoard returns the zobrist hash of b.
func HashBoard(b Board) uint64 {
	return zobrist.board(b)
}

func (z *ZobristTable) board(b Board) uint64 {
	var hash uint64
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			v := b.cells[r][c]
			if v == 0 {
				continue
			}
			hash ^= z.cells[r*Size+c][tileExponent(v)]
		}
	}
	return hash
}

// searchKey folds depth and node kind into a board hash.
func (z *ZobristTable) searchKey(boardHash uint64, depth int, kind NodeKind) uint64 {
	key := boardHash ^ z.kinds[kind&1]
	if depth >= 0 {
		key ^= z.depth[depth%len(z.depth)]
	}
	return key
}

func tileExponent(v int) int {
	e := bits.TrailingZeros(uint(v))
	if e > maxExponent {
		return maxExponent
	}
	return e
}

type splitmix64 struct {
	state uint64
}

func (s *splitmix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
