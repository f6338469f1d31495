package topsis

import "gonum.org/v1/gonum/floats"

// Distances returns each row's Euclidean distance to the ideal and anti-ideal vectors.
//
//	S+[i] = √Σ_j (g[i][j] - ideal[j])²
//	S-[i] = √Σ_j (g[i][j] - anti[j])²
func Distances(g *Grid, ideal, anti []float64) (toIdeal, toAnti []float64) {
	g.mustMatch(ideal)
	g.mustMatch(anti)

	toIdeal = make([]float64, g.Rows())
	toAnti = make([]float64, g.Rows())
	if g.Cols() == 0 {
		return toIdeal, toAnti
	}
	for i := 0; i < g.Rows(); i++ {
		row := g.Row(i)
		toIdeal[i] = floats.Distance(row, ideal, 2)
		toAnti[i] = floats.Distance(row, anti, 2)
	}
	return toIdeal, toAnti
}
