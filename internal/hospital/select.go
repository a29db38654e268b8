package hospital

import (
	"gonum.org/v1/gonum/floats"

	"github.com/sells-group/synthgeo/internal/rng"
)

// Select draws an index with probability proportional to its weight. Zero
// weights are ineligible. When every weight is zero it returns false. The
// cumulative walk returns the first index whose running mass exceeds a single
// uniform draw; if rounding leaves the draw unreached, the last index is
// returned.
func Select(r rng.Rand, weights []float64) (int, bool) {
	if len(weights) == 0 {
		return -1, false
	}
	total := floats.Sum(weights)
	if total <= 0 {
		return -1, false
	}

	probs := make([]float64, len(weights))
	copy(probs, weights)
	floats.Scale(1/total, probs)

	draw := r.Float64()
	cum := 0.0
	for i, p := range probs {
		cum += p
		if draw < cum {
			return i, true
		}
	}
	return len(probs) - 1, true
}
