package topsis

import "gonum.org/v1/gonum/floats"

// ColumnNorms returns the Euclidean norm of every column of g.
func ColumnNorms(g *Grid) []float64 {
	norms := make([]float64, g.Cols())
	for j := range norms {
		norms[j] = floats.Norm(g.Column(j), 2)
	}
	return norms
}

// NormalizeColumns scales every column of g to unit Euclidean norm.
// A column whose norm is zero stays all zeros.
func NormalizeColumns(g *Grid) *Grid {
	if g.Cols() == 0 {
		return g.Clone()
	}
	return g.DivColumns(ColumnNorms(g))
}

// ApplyWeights multiplies column j of g by weights[j].
func ApplyWeights(g *Grid, weights []float64) *Grid {
	if g.Cols() == 0 {
		return g.Clone()
	}
	return g.MulColumns(weights)
}
