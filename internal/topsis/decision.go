package topsis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Bounds of the range raw criterion values are rescaled into.
const (
	ScaleLower = 3.0
	ScaleUpper = 10.0
)

// ValueFunc reads one criterion's raw value from an alternative.
type ValueFunc[T any] func(T) float64

// Accessors maps criterion index to the accessor for that criterion's value.
// It is index-aligned with the criteria slice.
type Accessors[T any] []ValueFunc[T]

// BuildDecisionMatrix builds the rescaled decision matrix: one row per alternative
// (input order), one column per accessor (criteria order).
//
//	m[i][j] = (v - min_j) / (max_j - min_j + 1) * (ScaleUpper - ScaleLower) + ScaleLower
//
// The +1 keeps constant columns finite; such columns collapse to ScaleLower.
func BuildDecisionMatrix[T any](alternatives []T, accessors Accessors[T]) *Grid {
	raw := NewGrid(len(alternatives), len(accessors))
	for i, alt := range alternatives {
		for j, value := range accessors {
			if value == nil {
				panic(fmt.Sprintf("topsis: accessor %d is nil", j))
			}
			raw.Set(i, j, finite(value(alt)))
		}
	}
	return Rescale(raw)
}

// finite clamps ±Inf to ±MaxFloat64 and maps NaN to 0.
func finite(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case math.IsInf(v, 1):
		return math.MaxFloat64
	case math.IsInf(v, -1):
		return -math.MaxFloat64
	default:
		return v
	}
}

// Rescale maps every column of raw into [ScaleLower, ScaleUpper] using the column's
// own minimum and maximum. A grid without rows is returned as an empty copy.
// Operands are halved so that columns spanning most of the float64 range do not
// overflow; the upper bound is only reached at that extreme.
func Rescale(raw *Grid) *Grid {
	out := NewGrid(raw.Rows(), raw.Cols())
	if raw.Rows() == 0 {
		return out
	}
	span := ScaleUpper - ScaleLower
	for j := 0; j < raw.Cols(); j++ {
		col := raw.Column(j)
		lo, hi := floats.Min(col), floats.Max(col)
		for i, v := range col {
			out.Set(i, j, (v/2-lo/2)/(hi/2-lo/2+0.5)*span+ScaleLower)
		}
	}
	return out
}
