package topsis

import (
	"fmt"
	"strings"
)

// Grid is a dense row-major matrix of float64 values.
// Zero rows or zero columns are valid and make every operation a no-op.
type Grid struct {
	rows, cols int
	data       []float64 // length == rows*cols
}

// NewGrid returns a rows×cols grid of zeros. Negative dimensions are treated as zero.
func NewGrid(rows, cols int) *Grid {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Grid{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// GridFromRows copies a slice of equal-length rows into a new Grid.
// It panics if the rows are ragged.
func GridFromRows(rows [][]float64) *Grid {
	if len(rows) == 0 {
		return NewGrid(0, 0)
	}
	g := NewGrid(len(rows), len(rows[0]))
	for i, row := range rows {
		if len(row) != g.cols {
			panic(fmt.Sprintf("topsis: row %d has %d columns, want %d", i, len(row), g.cols))
		}
		copy(g.data[i*g.cols:(i+1)*g.cols], row)
	}
	return g
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// At returns the element at (i, j).
func (g *Grid) At(i, j int) float64 {
	return g.data[g.offset(i, j)]
}

// Set assigns v at (i, j).
func (g *Grid) Set(i, j int, v float64) {
	g.data[g.offset(i, j)] = v
}

func (g *Grid) offset(i, j int) int {
	if i < 0 || i >= g.rows || j < 0 || j >= g.cols {
		panic(fmt.Sprintf("topsis: index (%d,%d) out of range for %dx%d grid", i, j, g.rows, g.cols))
	}
	return i*g.cols + j
}

// Row returns row i. The slice aliases the grid's storage.
func (g *Grid) Row(i int) []float64 {
	if i < 0 || i >= g.rows {
		panic(fmt.Sprintf("topsis: row %d out of range for %d rows", i, g.rows))
	}
	return g.data[i*g.cols : (i+1)*g.cols : (i+1)*g.cols]
}

// Column returns a copy of column j.
func (g *Grid) Column(j int) []float64 {
	if j < 0 || j >= g.cols {
		panic(fmt.Sprintf("topsis: column %d out of range for %d columns", j, g.cols))
	}
	col := make([]float64, g.rows)
	for i := range col {
		col[i] = g.data[i*g.cols+j]
	}
	return col
}

// Clone returns a deep copy of g.
func (g *Grid) Clone() *Grid {
	data := make([]float64, len(g.data))
	copy(data, g.data)
	return &Grid{rows: g.rows, cols: g.cols, data: data}
}

// DivColumns returns a new grid where every element of column j is divided by vec[j].
// A zero divisor leaves that column's elements at zero.
// It panics if len(vec) != g.Cols().
func (g *Grid) DivColumns(vec []float64) *Grid {
	g.mustMatch(vec)
	out := NewGrid(g.rows, g.cols)
	for i := 0; i < g.rows; i++ {
		for j, d := range vec {
			if d == 0 {
				continue
			}
			out.data[i*g.cols+j] = g.data[i*g.cols+j] / d
		}
	}
	return out
}

// MulColumns returns a new grid where every element of column j is multiplied by vec[j].
// It panics if len(vec) != g.Cols().
func (g *Grid) MulColumns(vec []float64) *Grid {
	g.mustMatch(vec)
	out := NewGrid(g.rows, g.cols)
	for i := 0; i < g.rows; i++ {
		for j, m := range vec {
			out.data[i*g.cols+j] = g.data[i*g.cols+j] * m
		}
	}
	return out
}

func (g *Grid) mustMatch(vec []float64) {
	if len(vec) != g.cols {
		panic(fmt.Sprintf("topsis: vector length %d does not match %d columns", len(vec), g.cols))
	}
}

// String renders the grid one row per line, for debugging.
func (g *Grid) String() string {
	var b strings.Builder
	for i := 0; i < g.rows; i++ {
		for j := 0; j < g.cols; j++ {
			if j > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "%10.4f", g.data[i*g.cols+j])
		}
		b.WriteByte('\n')
	}
	return b.String()
}
