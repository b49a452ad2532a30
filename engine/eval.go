package engine

// HeuristicWeights scales the three terms of the leaf evaluation.
type HeuristicWeights struct {
	Empty      float64 `json:"empty"`
	MaxTile    float64 `json:"max_tile"`
	Smoothness float64 `json:"smoothness"`
}

func DefaultHeuristicWeights() HeuristicWeights {
	return HeuristicWeights{
		Empty:      100.0,
		MaxTile:    1.0,
		Smoothness: 1.0,
	}
}

// Evaluate scores b with the default weights:
//
//	100*empty + max - sum|vertical diffs| - sum|horizontal diffs|
func Evaluate(b Board) float64 {
	return DefaultHeuristicWeights().Evaluate(b)
}

func (w HeuristicWeights) Evaluate(b Board) float64 {
	return w.Empty*float64(b.CountEmpty()) +
		w.MaxTile*float64(b.MaxTile()) -
		w.Smoothness*float64(Roughness(b))
}

// Roughness is the sum of absolute differences over all horizontally and vertically
// adjacent cell pairs.
func Roughness(b Board) int {
	total := 0
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			v := b.cells[r][c]
			if c+1 < Size {
				total += absInt(v - b.cells[r][c+1])
			}
			if r+1 < Size {
				total += absInt(v - b.cells[r+1][c])
			}
		}
	}
	return total
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
