package engine

import "math"

const fnv64Offset = 1469598103934665603
const fnv64Prime = 1099511628211

// HeuristicHash fingerprints w so cached values computed under other weights never match.
func HeuristicHash(w HeuristicWeights) uint64 {
	hash := uint64(fnv64Offset)
	mix := func(value float64) {
		if value == 0 {
			// -0 and +0 evaluate identically
			value = 0
		}
		bits := math.Float64bits(value)
		for i := 0; i < 8; i++ {
			hash ^= uint64(byte(bits >> (8 * i)))
			hash *= fnv64Prime
		}
	}
	mix(w.Empty)
	mix(w.MaxTile)
	mix(w.Smoothness)
	return hash
}
