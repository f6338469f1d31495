package topsis

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// IdealSolutions returns the ideal and anti-ideal vectors of the weighted matrix g.
//
// For a Max objective the ideal is the column maximum and the anti-ideal the column
// minimum; for Min the roles swap. With no rows both vectors are zero.
func IdealSolutions(g *Grid, objectives []Objective) (ideal, anti []float64) {
	if len(objectives) != g.Cols() {
		panic(fmt.Sprintf("topsis: %d objectives for %d columns", len(objectives), g.Cols()))
	}
	ideal = make([]float64, g.Cols())
	anti = make([]float64, g.Cols())
	if g.Rows() == 0 {
		return ideal, anti
	}

	for j, obj := range objectives {
		col := g.Column(j)
		hi, lo := floats.Max(col), floats.Min(col)
		if obj == Min {
			ideal[j], anti[j] = lo, hi
		} else {
			ideal[j], anti[j] = hi, lo
		}
	}
	return ideal, anti
}
