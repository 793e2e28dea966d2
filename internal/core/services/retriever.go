package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultMaxTopK bounds retrieval when no limit is configured.
const DefaultMaxTopK = 100

// Retriever embeds a query and runs similarity search against the vector index.
// It owns no state and performs no caching.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	maxTopK  int
}

// NewRetriever creates a retriever. A maxTopK below 1 uses DefaultMaxTopK.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, maxTopK int) *Retriever {
	if maxTopK < 1 {
		maxTopK = DefaultMaxTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		maxTopK:  maxTopK,
	}
}

// MaxTopK returns the largest accepted topK.
func (r *Retriever) MaxTopK() int {
	return r.maxTopK
}

// Retrieve returns up to topK candidates, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.ScoredCandidate, error) {
	if topK < 1 || topK > r.maxTopK {
		return nil, fmt.Errorf("%w: top_k must be in [1, %d], got %d", domain.ErrInvalidArgument, r.maxTopK, topK)
	}
	if r.embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, domain.ErrEmbeddingUnavailable)
	}
	if r.index == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, domain.ErrVectorIndexUnavailable)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: embed query: %w", domain.ErrRetrievalUnavailable, err)
	}
	logger.Debug("Query embedded with %s (%d dims)", r.embedder.ModelName(), len(vector))

	hits, err := r.index.Search(ctx, vector, topK)
	if err != nil {
		return nil, fmt.Errorf("%w: vector search: %w", domain.ErrRetrievalUnavailable, err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})
	if len(hits) > topK {
		hits = hits[:topK]
	}

	candidates := make([]domain.ScoredCandidate, len(hits))
	for i, hit := range hits {
		candidates[i] = domain.ScoredCandidate{Chunk: hit.Chunk, Similarity: hit.Similarity}
	}
	logger.Debug("Retrieved %d candidates (top_k=%d)", len(candidates), topK)

	return candidates, nil
}
