package printer

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics names as constants for consistency.
const (
	MetricRankTotal        = "printer_rank_total"
	MetricRankDuration     = "printer_rank_duration_seconds"
	MetricRankAlternatives = "printer_rank_alternatives"
	MetricRankCriteria     = "printer_rank_criteria"
	MetricRankWinnerScore  = "printer_rank_winner_score"
)

// Result label values for MetricRankTotal.
const (
	ResultSelected = "selected"
	ResultEmpty    = "empty"
	ResultError    = "error"
)

// Metrics contains Prometheus metrics for printer ranking.
// All operations are thread-safe.
type Metrics struct {
	rankTotal        *prometheus.CounterVec
	rankDuration     prometheus.Histogram
	rankAlternatives prometheus.Histogram
	rankCriteria     prometheus.Histogram
	rankWinnerScore  prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors initialized.
// The metrics are not registered; call Register to register them with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		rankTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRankTotal,
				Help: "Total number of printer ranking operations by result",
			},
			[]string{"result"},
		),
		rankDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankDuration,
			Help:    "Histogram of printer ranking duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		rankAlternatives: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankAlternatives,
			Help:    "Number of candidate printers per ranking",
			Buckets: prometheus.ExponentialBuckets(1, 2, 11), // 1 to 1024
		}),
		rankCriteria: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankCriteria,
			Help:    "Number of criteria per ranking",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		}),
		rankWinnerScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRankWinnerScore,
			Help:    "Preference score of the selected printer",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}
}

// Register registers all metrics with the given registry.
// Returns an error if registration fails.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveRank records one ranking operation.
func (m *Metrics) ObserveRank(result string, seconds float64, alternatives, criteria int) {
	m.rankTotal.WithLabelValues(result).Inc()
	m.rankDuration.Observe(seconds)
	m.rankAlternatives.Observe(float64(alternatives))
	m.rankCriteria.Observe(float64(criteria))
}

// ObserveWinnerScore records the score of a selected printer.
func (m *Metrics) ObserveWinnerScore(score float64) {
	m.rankWinnerScore.Observe(score)
}

// IncRankErrors counts a ranking that failed before scoring.
func (m *Metrics) IncRankErrors() {
	m.rankTotal.WithLabelValues(ResultError).Inc()
}

// Collectors returns all Prometheus collectors for testing.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.rankTotal,
		m.rankDuration,
		m.rankAlternatives,
		m.rankCriteria,
		m.rankWinnerScore,
	}
}
