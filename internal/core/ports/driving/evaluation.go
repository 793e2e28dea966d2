package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// Pipeline answers one question with the given retrieval limits.
type Pipeline func(ctx context.Context, question string, topK, rerankTopK int) (*domain.AnswerResult, error)

// EvaluationService scores the answer pipeline against gold cases.
type EvaluationService interface {
	// Evaluate runs cases in order through pipeline. Case failures are
	// recorded, not returned; the error is reserved for invalid input.
	Evaluate(ctx context.Context, cases []domain.GoldCase, pipeline Pipeline) (*domain.EvaluationReport, error)

	// History returns recent evaluation reports, newest first.
	History(ctx context.Context, limit int) ([]domain.EvaluationReport, error)
}
