// Package printer selects the best-fit printer among candidates by ranking them
// with TOPSIS and breaking score ties with the calibrated attribute order.
package printer

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"

	"github.com/onnwee/spk/internal/topsis"
)

// Header is a criterion as it appears on the wire.
type Header struct {
	Title  string  `json:"title"`
	Type   string  `json:"type"`
	Weight float64 `json:"weight"`
}

// FindRequest is the body of a find-printer request.
// Headers become the engine's criteria and Printers its alternatives.
type FindRequest struct {
	Headers  []Header  `json:"headers"`
	Printers []Printer `json:"printers"`
}

// Criteria converts the headers into engine criteria, preserving order.
func (r *FindRequest) Criteria() ([]topsis.Criterion, error) {
	criteria := make([]topsis.Criterion, len(r.Headers))
	for i, h := range r.Headers {
		dir, err := topsis.ParseDirection(h.Type)
		if err != nil {
			return nil, fmt.Errorf("header %q: %w", h.Title, err)
		}
		criteria[i] = topsis.Criterion{Title: h.Title, Type: dir, Weight: h.Weight}
	}
	return criteria, nil
}

// Printer is a candidate printer: an id, one numeric field per criterion title,
// and any other attributes. Fields are kept exactly as decoded so they can be
// echoed back unchanged; numbers decoded with UseNumber stay json.Number.
type Printer map[string]any

// ID returns the printer's id field, or 0 if it is missing or not numeric.
// Fractions are truncated and ids beyond the int64 range saturate.
func (p Printer) ID() int64 {
	v, ok := p.Number("id")
	switch {
	case !ok:
		return 0
	case v >= math.MaxInt64:
		return math.MaxInt64
	case v <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(v)
	}
}

// Number returns a numeric field. ok is false when the field is missing, not a
// number, or not finite as a float64.
func (p Printer) Number(field string) (float64, bool) {
	var f float64
	switch v := p[field].(type) {
	case json.Number:
		var err error
		if f, err = v.Float64(); err != nil {
			return 0, false
		}
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint64:
		f = float64(v)
	default:
		return 0, false
	}
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// Accessors returns one value accessor per criterion, in criteria order.
// A missing, non-numeric or non-finite field reads as 0; validation rejects such input upstream.
func Accessors(criteria []topsis.Criterion) topsis.Accessors[Printer] {
	acc := make(topsis.Accessors[Printer], len(criteria))
	for i, c := range criteria {
		title := c.Title
		acc[i] = func(p Printer) float64 {
			v, _ := p.Number(title)
			return v
		}
	}
	return acc
}

// Selection is a ranked printer with its preference score.
type Selection struct {
	Printer Printer
	Score   float64
	// Rank is the 1-based position in the final order.
	Rank int
}

// MarshalJSON writes the printer's original fields plus "score".
func (s Selection) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(s.Printer)+1)
	maps.Copy(out, s.Printer)
	out["score"] = s.Score
	return json.Marshal(out)
}
