package topsis

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Direction says whether higher or lower values of a criterion are preferred.
type Direction int

const (
	// Benefit criteria prefer higher values.
	Benefit Direction = iota
	// Cost criteria prefer lower values.
	Cost
)

// String returns "benefit" or "cost".
func (d Direction) String() string {
	if d == Cost {
		return "cost"
	}
	return "benefit"
}

// ParseDirection parses "benefit" or "cost", case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "benefit":
		return Benefit, nil
	case "cost":
		return Cost, nil
	default:
		return Benefit, fmt.Errorf("unknown criterion type %q: must be benefit or cost", s)
	}
}

// Objective is the optimisation target derived from a Direction.
type Objective string

const (
	// Max prefers the largest weighted value (benefit criteria).
	Max Objective = "max"
	// Min prefers the smallest weighted value (cost criteria).
	Min Objective = "min"
)

// Criterion is one weighted, directional evaluation attribute.
// The position of a criterion in its slice fixes its matrix column.
type Criterion struct {
	Title  string
	Type   Direction
	Weight float64
}

// NormalizeCriteria derives the weight and objective vectors for criteria.
//
// weight[i] = criteria[i].Weight / Σ weights. When the weights sum to zero every
// normalized weight is zero; callers are expected to reject such input beforehand.
func NormalizeCriteria(criteria []Criterion) ([]float64, []Objective) {
	weights := make([]float64, len(criteria))
	objectives := make([]Objective, len(criteria))
	for i, c := range criteria {
		weights[i] = c.Weight
		objectives[i] = Max
		if c.Type == Cost {
			objectives[i] = Min
		}
	}

	if total := floats.Sum(weights); total != 0 {
		floats.Scale(1/total, weights)
	} else {
		for i := range weights {
			weights[i] = 0
		}
	}
	return weights, objectives
}
