package topsis

import (
	"cmp"
	"fmt"
	"slices"
)

// Scored is an alternative annotated with its preference score.
// Alternative is the caller's value, untouched by the engine.
type Scored[T any] struct {
	Alternative T
	Score       float64
	// Index is the alternative's position in the input slice.
	Index int
}

// Comparator orders two scored alternatives: negative when a ranks before b,
// positive when b ranks before a, zero when the comparator cannot tell them apart.
type Comparator[T any] func(a, b Scored[T]) int

// ByScoreDesc ranks higher scores first. It is the default comparator.
func ByScoreDesc[T any](a, b Scored[T]) int {
	return cmp.Compare(b.Score, a.Score)
}

// Chain returns a comparator that consults each comparator in turn until one of
// them tells a and b apart.
func Chain[T any](comparators ...Comparator[T]) Comparator[T] {
	return func(a, b Scored[T]) int {
		for _, c := range comparators {
			if c == nil {
				continue
			}
			if r := c(a, b); r != 0 {
				return r
			}
		}
		return 0
	}
}

// Scores converts distances to closeness scores: S-/(S+ + S-).
// When both distances are zero the score is 1.
func Scores(toIdeal, toAnti []float64) []float64 {
	if len(toIdeal) != len(toAnti) {
		panic(fmt.Sprintf("topsis: %d ideal distances but %d anti-ideal distances", len(toIdeal), len(toAnti)))
	}
	scores := make([]float64, len(toIdeal))
	for i := range scores {
		total := toIdeal[i] + toAnti[i]
		if total == 0 {
			scores[i] = 1
			continue
		}
		scores[i] = toAnti[i] / total
	}
	return scores
}

// Analysis holds every intermediate stage of one TOPSIS evaluation.
type Analysis struct {
	Weights    []float64
	Objectives []Objective
	Decision   *Grid
	Normalized *Grid
	Weighted   *Grid
	Ideal      []float64
	AntiIdeal  []float64
	ToIdeal    []float64
	ToAnti     []float64
	Scores     []float64
}

// Analyze runs the full pipeline over alternatives without ordering them.
// It panics if len(accessors) != len(criteria).
func Analyze[T any](criteria []Criterion, alternatives []T, accessors Accessors[T]) *Analysis {
	if len(accessors) != len(criteria) {
		panic(fmt.Sprintf("topsis: %d accessors for %d criteria", len(accessors), len(criteria)))
	}

	a := &Analysis{}
	a.Weights, a.Objectives = NormalizeCriteria(criteria)
	a.Decision = BuildDecisionMatrix(alternatives, accessors)
	a.Normalized = NormalizeColumns(a.Decision)
	a.Weighted = ApplyWeights(a.Normalized, a.Weights)
	a.Ideal, a.AntiIdeal = IdealSolutions(a.Weighted, a.Objectives)
	a.ToIdeal, a.ToAnti = Distances(a.Weighted, a.Ideal, a.AntiIdeal)
	a.Scores = Scores(a.ToIdeal, a.ToAnti)
	return a
}

// Rank scores alternatives and returns them best first.
// A nil comparator means ByScoreDesc. The sort is stable, so alternatives the
// comparator considers equal keep their input order.
func Rank[T any](criteria []Criterion, alternatives []T, accessors Accessors[T], compare Comparator[T]) []Scored[T] {
	analysis := Analyze(criteria, alternatives, accessors)
	return Order(alternatives, analysis.Scores, compare)
}

// Order pairs alternatives with their scores and sorts them best first.
func Order[T any](alternatives []T, scores []float64, compare Comparator[T]) []Scored[T] {
	if compare == nil {
		compare = ByScoreDesc[T]
	}
	ranked := make([]Scored[T], len(alternatives))
	for i, alt := range alternatives {
		ranked[i] = Scored[T]{Alternative: alt, Score: scores[i], Index: i}
	}
	slices.SortStableFunc(ranked, compare)
	return ranked
}

// Best returns the top-ranked alternative. ok is false when alternatives is empty.
func Best[T any](criteria []Criterion, alternatives []T, accessors Accessors[T], compare Comparator[T]) (best Scored[T], ok bool) {
	ranked := Rank(criteria, alternatives, accessors, compare)
	if len(ranked) == 0 {
		return best, false
	}
	return ranked[0], true
}
