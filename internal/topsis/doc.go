// Package topsis ranks alternatives against weighted benefit and cost criteria
// using TOPSIS (Technique for Order Preference by Similarity to Ideal Solution).
//
// The pipeline runs in fixed stages, each exposed as its own function:
//
//	weights, objectives := NormalizeCriteria(criteria)
//	decision := BuildDecisionMatrix(alternatives, accessors) // rescaled into [3, 10)
//	weighted := ApplyWeights(NormalizeColumns(decision), weights)
//	ideal, anti := IdealSolutions(weighted, objectives)
//	toIdeal, toAnti := Distances(weighted, ideal, anti)
//	scores := Scores(toIdeal, toAnti)
//
// Rank and Best run the whole pipeline and order the result with a Comparator.
// Every call builds its own matrices; nothing is cached or shared, so the
// functions are safe for concurrent use.
//
// Degenerate input never produces NaN: zero rows or zero columns pass through
// every stage, a zero-norm column stays zero, and an alternative at distance zero
// from both reference points scores 1.
package topsis
