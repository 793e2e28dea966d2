package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestReranker_ReordersByScore(t *testing.T) {
	provider := &mockReranker{scores: []float64{0.1, 0.9, 0.5}}
	r := NewReranker(provider, 0)

	out, err := r.Rerank(context.Background(), "q", testCandidates(3), 3)

	require.NoError(t, err)
	assert.False(t, out.Degraded)
	require.Len(t, out.Candidates, 3)
	assert.Equal(t, "chunk-b", out.Candidates[0].Chunk.ID)
	assert.Equal(t, "chunk-c", out.Candidates[1].Chunk.ID)
	assert.Equal(t, "chunk-a", out.Candidates[2].Chunk.ID)
	for _, c := range out.Candidates {
		require.NotNil(t, c.RerankScore)
	}
	assert.InDelta(t, 0.9, *out.Candidates[0].RerankScore, 1e-9)
	assert.InDelta(t, 0.9, out.Candidates[0].Similarity, 1e-9, "similarity is carried through")
}

func TestReranker_OutputLength(t *testing.T) {
	r := NewReranker(&mockReranker{}, 0)

	for _, tc := range []struct{ n, k, want int }{
		{5, 3, 3},
		{2, 5, 2},
		{4, 4, 4},
		{1, 3, 1},
	} {
		out, err := r.Rerank(context.Background(), "q", testCandidates(tc.n), tc.k)
		require.NoError(t, err)
		assert.Len(t, out.Candidates, tc.want, "n=%d k=%d", tc.n, tc.k)
	}
}

func TestReranker_DegradesOnFailure(t *testing.T) {
	tests := []struct {
		name     string
		provider *mockReranker
		timeout  time.Duration
	}{
		{"provider error", &mockReranker{err: errors.New("429 too many requests")}, 0},
		{"timeout", &mockReranker{delay: time.Second}, 10 * time.Millisecond},
		{"wrong length", &mockReranker{scores: []float64{1}}, 0},
		{"nan score", &mockReranker{scores: []float64{math.NaN(), 1, 2, 3}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReranker(tt.provider, tt.timeout)
			input := testCandidates(4)

			out, err := r.Rerank(context.Background(), "q", input, 3)

			require.NoError(t, err)
			assert.True(t, out.Degraded)
			assert.NotEmpty(t, out.Reason)
			require.Len(t, out.Candidates, 3)
			for i, c := range out.Candidates {
				assert.Equal(t, input[i].Chunk.ID, c.Chunk.ID)
				assert.Nil(t, c.RerankScore)
			}
		})
	}
}

func TestReranker_SkipsProviderForSingleCandidate(t *testing.T) {
	provider := &mockReranker{}
	r := NewReranker(provider, 0)

	out, err := r.Rerank(context.Background(), "q", testCandidates(1), 5)

	require.NoError(t, err)
	assert.Equal(t, 0, provider.calls)
	assert.False(t, out.Degraded)
	require.Len(t, out.Candidates, 1)
	assert.Nil(t, out.Candidates[0].RerankScore)
}

func TestReranker_NilProviderPassesThrough(t *testing.T) {
	out, err := NewReranker(nil, 0).Rerank(context.Background(), "q", testCandidates(4), 2)

	require.NoError(t, err)
	assert.False(t, out.Degraded)
	assert.Len(t, out.Candidates, 2)
	assert.Equal(t, "chunk-a", out.Candidates[0].Chunk.ID)
}

func TestReranker_InvalidTopK(t *testing.T) {
	_, err := NewReranker(&mockReranker{}, 0).Rerank(context.Background(), "q", testCandidates(2), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestReranker_EmptyInput(t *testing.T) {
	out, err := NewReranker(&mockReranker{}, 0).Rerank(context.Background(), "q", nil, 3)

	require.NoError(t, err)
	assert.Empty(t, out.Candidates)
}
