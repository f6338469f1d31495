package printer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/onnwee/spk/internal/ranking"
	"github.com/onnwee/spk/internal/topsis"
	"github.com/onnwee/spk/internal/tracing"
)

// ErrNilRequest is returned when FindPrinter is called without a request.
var ErrNilRequest = errors.New("printer: nil request")

// Comparator orders ranked printers by score, then by the tie-break keys.
func Comparator(tb ranking.TieBreak) topsis.Comparator[Printer] {
	return topsis.Chain(
		topsis.ByScoreDesc[Printer],
		func(a, b topsis.Scored[Printer]) int {
			return tb.Compare(a.Alternative.Number, b.Alternative.Number)
		},
	)
}

// Service ranks candidate printers.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	tieBreak ranking.TieBreak
	compare  topsis.Comparator[Printer]
	metrics  *Metrics
}

// NewService creates a Service. metrics may be nil.
func NewService(tb ranking.TieBreak, metrics *Metrics) *Service {
	return &Service{
		tieBreak: tb,
		compare:  Comparator(tb),
		metrics:  metrics,
	}
}

// TieBreak returns the tie-break order used after the score.
func (s *Service) TieBreak() ranking.TieBreak {
	return s.tieBreak
}

// FindPrinter returns the best printer for the request.
// It returns nil, nil when the request has no printers.
func (s *Service) FindPrinter(ctx context.Context, req *FindRequest) (*Selection, error) {
	ranked, _, err := s.RankPrinters(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, nil
	}

	best := ranked[0]
	tracing.AddEvent(ctx, "printer.selected",
		attribute.Int64("printer.id", best.Printer.ID()),
		attribute.Float64("printer.score", best.Score),
	)
	return &best, nil
}

// RankPrinters ranks every printer in the request, best first, and returns the
// full analysis alongside.
func (s *Service) RankPrinters(ctx context.Context, req *FindRequest) (ranked []Selection, analysis *topsis.Analysis, err error) {
	if req == nil {
		return nil, nil, ErrNilRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	ctx, endSpan := tracing.StartSpan(ctx, "printer.rank",
		attribute.Int("rank.criteria", len(req.Headers)),
		attribute.Int("rank.printers", len(req.Printers)),
	)
	defer func() { endSpan(err) }()

	start := time.Now()
	criteria, err := req.Criteria()
	if err != nil {
		s.recordError()
		return nil, nil, fmt.Errorf("failed to build criteria: %w", err)
	}

	analysis = topsis.Analyze(criteria, req.Printers, Accessors(criteria))
	scored := topsis.Order(req.Printers, analysis.Scores, s.compare)

	ranked = make([]Selection, len(scored))
	for i, sc := range scored {
		ranked[i] = Selection{Printer: sc.Alternative, Score: sc.Score, Rank: i + 1}
	}

	elapsed := time.Since(start)
	s.record(ranked, len(criteria), elapsed)

	if len(ranked) > 0 {
		slog.DebugContext(ctx, "printers ranked",
			"criteria", len(criteria),
			"printers", len(ranked),
			"winner_id", ranked[0].Printer.ID(),
			"winner_score", ranked[0].Score,
			"duration_ms", elapsed.Milliseconds(),
		)
	} else {
		slog.DebugContext(ctx, "no printers to rank", "criteria", len(criteria))
	}
	return ranked, analysis, nil
}

func (s *Service) record(ranked []Selection, criteria int, elapsed time.Duration) {
	if s.metrics == nil {
		return
	}
	result := ResultEmpty
	if len(ranked) > 0 {
		result = ResultSelected
		s.metrics.ObserveWinnerScore(ranked[0].Score)
	}
	s.metrics.ObserveRank(result, elapsed.Seconds(), len(ranked), criteria)
}

func (s *Service) recordError() {
	if s.metrics != nil {
		s.metrics.IncRankErrors()
	}
}
