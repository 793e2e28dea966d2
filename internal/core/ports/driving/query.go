package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// QueryService answers questions from the indexed corpus.
type QueryService interface {
	// Answer runs retrieve, rerank and compose for one question.
	// Returns domain.ErrInvalidArgument for out-of-range limits and
	// domain.ErrRetrievalUnavailable or domain.ErrGenerationUnavailable
	// when a provider fails.
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.AnswerResult, error)
}
