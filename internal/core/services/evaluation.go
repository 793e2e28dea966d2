package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// EvaluationConfig controls how gold cases are run.
type EvaluationConfig struct {
	// InterCaseDelay is the minimum spacing between case starts.
	InterCaseDelay time.Duration

	// CaseTimeout bounds each case. Zero means no bound.
	CaseTimeout time.Duration

	// FailurePhrases mark an answer as irrelevant.
	FailurePhrases []string

	// TopK and RerankTopK are passed to the pipeline for every case.
	TopK       int
	RerankTopK int
}

// EvaluationService runs gold cases sequentially and scores the answers.
type EvaluationService struct {
	store driven.EvaluationStore
	cfg   EvaluationConfig
}

// NewEvaluationService creates an evaluation service. store may be nil.
func NewEvaluationService(store driven.EvaluationStore, cfg EvaluationConfig) *EvaluationService {
	if cfg.TopK <= 0 {
		cfg.TopK = domain.DefaultRetrievalTopK
	}
	if cfg.RerankTopK <= 0 {
		cfg.RerankTopK = domain.DefaultRerankTopK
	}
	if cfg.FailurePhrases == nil {
		cfg.FailurePhrases = domain.DefaultFailurePhrases()
	}
	return &EvaluationService{store: store, cfg: cfg}
}

// Evaluate runs each case in order, waiting at least InterCaseDelay between
// case starts. A failing case is recorded with zero scores and the run
// continues. Cancelling ctx stops new cases from starting; the case in
// flight runs to completion.
func (s *EvaluationService) Evaluate(
	ctx context.Context, cases []domain.GoldCase, pipeline driving.Pipeline,
) (*domain.EvaluationReport, error) {
	if pipeline == nil {
		return nil, fmt.Errorf("%w: pipeline is nil", domain.ErrInvalidInput)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: no evaluation cases", domain.ErrInvalidInput)
	}
	for _, c := range cases {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("case %q: %w", c.ID, err)
		}
	}

	logger.Section("Evaluation")

	limit := rate.Inf
	if s.cfg.InterCaseDelay > 0 {
		limit = rate.Every(s.cfg.InterCaseDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	report := &domain.EvaluationReport{
		ID:        uuid.New().String(),
		Records:   make([]domain.EvaluationRecord, 0, len(cases)),
		StartedAt: time.Now(),
	}

	for i, gold := range cases {
		if ctx.Err() != nil || limiter.Wait(ctx) != nil {
			report.Cancelled = true
			logger.Warn("Evaluation cancelled after %d of %d cases", i, len(cases))
			break
		}

		rec := s.runCase(ctx, gold, pipeline)
		report.Records = append(report.Records, rec)
		logger.Info("[%d/%d] %s: overall=%.2f success=%t", i+1, len(cases), gold.ID,
			rec.Scores.OverallScore, rec.Scores.IsSuccess)
	}

	report.FinishedAt = time.Now()
	report.Summarise()

	if s.store != nil {
		if err := s.store.SaveReport(context.WithoutCancel(ctx), report); err != nil {
			logger.Warn("Failed to save evaluation report: %v", err)
		}
	}

	return report, nil
}

// runCase executes a single case. It detaches from ctx cancellation so an
// in-flight case is never cut short by a cancelled run.
func (s *EvaluationService) runCase(
	ctx context.Context, gold domain.GoldCase, pipeline driving.Pipeline,
) domain.EvaluationRecord {
	caseCtx := context.WithoutCancel(ctx)
	if s.cfg.CaseTimeout > 0 {
		var cancel context.CancelFunc
		caseCtx, cancel = context.WithTimeout(caseCtx, s.cfg.CaseTimeout)
		defer cancel()
	}

	start := time.Now()
	result, err := pipeline(caseCtx, gold.Question, s.cfg.TopK, s.cfg.RerankTopK)
	rec := domain.EvaluationRecord{Case: gold, Duration: time.Since(start)}
	if err != nil {
		logger.Warn("Case %s failed: %v", gold.ID, err)
		rec.Err = err.Error()
		return rec
	}

	rec.Result = result
	rec.Scores = domain.ScoreAnswer(gold, result, s.cfg.FailurePhrases)
	return rec
}

// History returns recent evaluation reports, newest first.
func (s *EvaluationService) History(ctx context.Context, limit int) ([]domain.EvaluationReport, error) {
	if s.store == nil {
		return []domain.EvaluationReport{}, nil
	}
	if limit <= 0 {
		limit = 10
	}
	return s.store.ListReports(ctx, limit)
}
