package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Reranker reorders retrieval candidates with a cross-relevance provider.
// Provider failures never surface: the outcome is marked degraded and
// keeps the similarity order instead.
type Reranker struct {
	provider driven.Reranker
	timeout  time.Duration
}

// NewReranker creates a reranker. provider may be nil, in which case
// candidates pass through in similarity order. A positive timeout bounds
// each provider call.
func NewReranker(provider driven.Reranker, timeout time.Duration) *Reranker {
	return &Reranker{provider: provider, timeout: timeout}
}

// Rerank returns min(topK, len(candidates)) candidates.
func (r *Reranker) Rerank(
	ctx context.Context, query string, candidates []domain.ScoredCandidate, topK int,
) (domain.RerankOutcome, error) {
	if topK < 1 {
		return domain.RerankOutcome{}, fmt.Errorf("%w: rerank_top_k must be positive, got %d",
			domain.ErrInvalidArgument, topK)
	}

	// Nothing to reorder.
	if r.provider == nil || len(candidates) <= 1 {
		return domain.RerankOutcome{Candidates: domain.Unranked(candidates, topK)}, nil
	}

	scores, err := r.score(ctx, query, candidates)
	if err != nil {
		logger.Warn("Rerank degraded to similarity order: %v", err)
		return domain.RerankOutcome{
			Candidates: domain.Unranked(candidates, topK),
			Degraded:   true,
			Reason:     err.Error(),
		}, nil
	}

	reranked := make([]domain.RerankedCandidate, len(candidates))
	for i, c := range candidates {
		score := scores[i]
		reranked[i] = domain.RerankedCandidate{
			Chunk:       c.Chunk,
			Similarity:  c.Similarity,
			RerankScore: &score,
		}
	}
	sort.SliceStable(reranked, func(i, j int) bool {
		return *reranked[i].RerankScore > *reranked[j].RerankScore
	})
	if len(reranked) > topK {
		reranked = reranked[:topK]
	}
	logger.Debug("Reranked %d candidates with %s, kept %d", len(candidates), r.provider.ModelName(), len(reranked))

	return domain.RerankOutcome{Candidates: reranked}, nil
}

// score calls the provider and checks its output is usable.
func (r *Reranker) score(ctx context.Context, query string, candidates []domain.ScoredCandidate) ([]float64, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	docs := make([]string, len(candidates))
	for i, c := range candidates {
		docs[i] = c.Chunk.Content
	}

	scores, err := r.provider.Score(ctx, query, docs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankUnavailable, err)
	}
	if len(scores) != len(docs) {
		return nil, fmt.Errorf("%w: got %d scores for %d documents",
			domain.ErrRerankUnavailable, len(scores), len(docs))
	}
	for _, s := range scores {
		if math.IsNaN(s) {
			return nil, fmt.Errorf("%w: provider returned NaN score", domain.ErrRerankUnavailable)
		}
	}
	return scores, nil
}
