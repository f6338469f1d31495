// Package ranking holds the tie-break calibration applied after TOPSIS scoring.
//
// Basic Usage:
//
//	// Load calibration (typically at startup)
//	tieBreak, err := ranking.LoadCalibration("configs/ranking.calibration.json")
//	if err != nil {
//		slog.Warn("using default tie-break", "error", err)
//	}
//
//	// Compare two alternatives whose scores are equal
//	r := tieBreak.Compare(a.Lookup, b.Lookup)
//
// Calibration:
//
// The calibration file lists tie-break keys in priority order:
//
//	{"version": "1", "tie_break": {"keys": [{"field": "queue", "order": "asc"}]}}
//
// A missing or empty key list keeps the default order (queue, dimension,
// distance, all ascending). Changes require a restart to take effect.
package ranking
