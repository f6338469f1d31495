package ranking

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Order is the sort direction of a tie-break key.
type Order string

const (
	Ascending  Order = "asc"
	Descending Order = "desc"
)

// Key is one tie-break attribute consulted after the preference score.
type Key struct {
	Field string `json:"field"` // Attribute name on the alternative (e.g. "queue")
	Order Order  `json:"order"` // "asc" (default) or "desc"
}

// TieBreak is the ordered list of keys that separates alternatives with equal scores.
type TieBreak struct {
	Keys []Key `json:"keys"`
}

// CalibrationConfig represents the JSON structure of the calibration file.
type CalibrationConfig struct {
	Version  string   `json:"version"`   // Config version for future compatibility
	TieBreak TieBreak `json:"tie_break"` // Tie-break keys, highest priority first
}

// ErrEmptyField is returned when a tie-break key has no field name.
var ErrEmptyField = errors.New("tie-break key field is required")

// DefaultTieBreak returns the printer tie-break order: shortest queue first,
// then smallest dimension, then shortest distance.
func DefaultTieBreak() TieBreak {
	return TieBreak{
		Keys: []Key{
			{Field: "queue", Order: Ascending},
			{Field: "dimension", Order: Ascending},
			{Field: "distance", Order: Ascending},
		},
	}
}

// Validate checks every key has a field and a known order.
func (tb TieBreak) Validate() error {
	seen := make(map[string]bool, len(tb.Keys))
	for i, k := range tb.Keys {
		if strings.TrimSpace(k.Field) == "" {
			return fmt.Errorf("key %d: %w", i, ErrEmptyField)
		}
		if seen[k.Field] {
			return fmt.Errorf("key %d: duplicate field %q", i, k.Field)
		}
		seen[k.Field] = true
		switch k.Order {
		case Ascending, Descending, "":
		default:
			return fmt.Errorf("key %d: order must be %q or %q, got %q", i, Ascending, Descending, k.Order)
		}
	}
	return nil
}

// Fields returns the key field names in priority order.
func (tb TieBreak) Fields() []string {
	fields := make([]string, len(tb.Keys))
	for i, k := range tb.Keys {
		fields[i] = k.Field
	}
	return fields
}

// Lookup returns an alternative's numeric attribute, and whether it is present.
type Lookup func(field string) (float64, bool)

// Compare orders two alternatives by the tie-break keys.
// For each key a present value ranks before a missing one; two missing values are equal.
func (tb TieBreak) Compare(a, b Lookup) int {
	for _, k := range tb.Keys {
		av, aok := a(k.Field)
		bv, bok := b(k.Field)
		switch {
		case !aok && !bok:
			continue
		case !bok:
			return -1
		case !aok:
			return 1
		}

		r := cmp.Compare(av, bv)
		if k.Order == Descending {
			r = -r
		}
		if r != 0 {
			return r
		}
	}
	return 0
}

// LoadCalibration loads the tie-break order from a JSON calibration file.
// An empty path returns the defaults. On any error the defaults are returned
// alongside the error so callers can degrade gracefully.
func LoadCalibration(filePath string) (TieBreak, error) {
	if filePath == "" {
		return DefaultTieBreak(), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		slog.Warn("failed to read calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultTieBreak(), fmt.Errorf("failed to read calibration file: %w", err)
	}

	var config CalibrationConfig
	if err := json.Unmarshal(data, &config); err != nil {
		slog.Warn("failed to parse calibration file, using defaults",
			"path", filePath,
			"error", err)
		return DefaultTieBreak(), fmt.Errorf("failed to parse calibration file: %w", err)
	}

	defaults := DefaultTieBreak()
	merged := MergeCalibration(defaults, config.TieBreak)
	if err := merged.Validate(); err != nil {
		slog.Warn("invalid calibration file, using defaults",
			"path", filePath,
			"error", err)
		return defaults, fmt.Errorf("invalid calibration file: %w", err)
	}
	logCalibrationOverrides(defaults, merged)

	return merged, nil
}

// MergeCalibration applies override on top of base.
// A non-empty override key list replaces the base list; keys without an order
// default to ascending. An empty override returns a copy of base.
func MergeCalibration(base, override TieBreak) TieBreak {
	src := base.Keys
	if len(override.Keys) > 0 {
		src = override.Keys
	}

	keys := make([]Key, len(src))
	for i, k := range src {
		k.Field = strings.TrimSpace(k.Field)
		if k.Order == "" {
			k.Order = Ascending
		}
		keys[i] = k
	}
	return TieBreak{Keys: keys}
}

func (tb TieBreak) String() string {
	parts := make([]string, len(tb.Keys))
	for i, k := range tb.Keys {
		parts[i] = k.Field + " " + string(k.Order)
	}
	return strings.Join(parts, ", ")
}

// logCalibrationOverrides logs whether the loaded order differs from the defaults.
func logCalibrationOverrides(defaults, loaded TieBreak) {
	if defaults.String() != loaded.String() {
		slog.Info("loaded ranking calibration with overrides",
			"default_tie_break", defaults.String(),
			"tie_break", loaded.String())
		return
	}
	slog.Info("loaded ranking calibration (using all defaults)")
}
