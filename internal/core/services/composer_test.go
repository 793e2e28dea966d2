package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func reranked(n int) []domain.RerankedCandidate {
	return domain.Unranked(testCandidates(n), n)
}

func TestComposer_BuildPrompt(t *testing.T) {
	c := NewComposer(&mockLLMService{}, nil, ComposerConfig{})

	prompt := c.BuildPrompt("What is AI?", reranked(2))

	assert.Contains(t, prompt, "[1] Source: doc-a\nContent: content a\n\n")
	assert.Contains(t, prompt, "[2] Source: doc-b\nContent: content b\n\n")
	assert.Less(t, strings.Index(prompt, "[1] Source"), strings.Index(prompt, "[2] Source"))
	assert.Contains(t, prompt, "QUESTION: What is AI?")
	assert.Contains(t, prompt, domain.DefaultNoAnswerPhrases()[0])
}

func TestComposer_PromptStore(t *testing.T) {
	tests := []struct {
		name     string
		template string
		want     string
	}{
		{"valid template", "CTX=%s NA=%s Q=%s", "CTX=[1] Source: doc-a"},
		{"too few placeholders", "only %s here", "ANSWER WITH CITATIONS:"},
		{"stray verb", "%s %s %s %d", "ANSWER WITH CITATIONS:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockPromptStore{prompts: map[string]string{driven.PromptAnswer: tt.template}}
			c := NewComposer(&mockLLMService{}, store, ComposerConfig{})
			assert.Contains(t, c.BuildPrompt("q", reranked(1)), tt.want)
		})
	}
}

func TestComposer_Compose_ReconcilesCitations(t *testing.T) {
	llm := &mockLLMService{text: "AI improves efficiency [1] and accuracy [2][2]"}
	c := NewComposer(llm, nil, ComposerConfig{MaxTokens: 256, Temperature: 0.1})

	result, err := c.Compose(context.Background(), "benefits of AI", reranked(3))

	require.NoError(t, err)
	assert.Equal(t, "AI improves efficiency [1] and accuracy [2][2]", result.Answer)
	require.Len(t, result.Citations, 2)
	assert.Equal(t, 1, result.Citations[0].Index)
	assert.Equal(t, "doc-a", result.Citations[0].Source)
	assert.Equal(t, 2, result.Citations[1].Index)
	assert.Equal(t, "doc-b", result.Citations[1].Source)
	assert.Len(t, result.Sources, 3)
	assert.Equal(t, 256, llm.lastOpts.MaxTokens)
	assert.InDelta(t, 0.1, llm.lastOpts.Temperature, 1e-9)
}

func TestComposer_Compose_OutOfRangeMarker(t *testing.T) {
	llm := &mockLLMService{text: "See [5] for details"}
	c := NewComposer(llm, nil, ComposerConfig{})

	result, err := c.Compose(context.Background(), "q", reranked(3))

	require.NoError(t, err)
	assert.Empty(t, result.Citations)
	assert.Equal(t, "See [5] for details", result.Answer)
}

func TestComposer_Compose_NoAnswer(t *testing.T) {
	llm := &mockLLMService{text: "I couldn't find any relevant information in the documents [1]."}
	c := NewComposer(llm, nil, ComposerConfig{})

	result, err := c.Compose(context.Background(), "q", reranked(2))

	require.NoError(t, err)
	assert.NotNil(t, result.Citations)
	assert.Empty(t, result.Citations)
}

func TestComposer_Compose_EmptyCandidates(t *testing.T) {
	llm := &mockLLMService{text: "unused"}
	c := NewComposer(llm, nil, ComposerConfig{})

	result, err := c.Compose(context.Background(), "q", nil)

	require.NoError(t, err)
	assert.Equal(t, domain.NoResultsAnswer, result.Answer)
	assert.Empty(t, result.Citations)
	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, llm.calls)
}

func TestComposer_Compose_BlankGeneration(t *testing.T) {
	c := NewComposer(&mockLLMService{text: "   \n"}, nil, ComposerConfig{})

	result, err := c.Compose(context.Background(), "q", reranked(1))

	require.NoError(t, err)
	assert.Equal(t, emptyGenerationAnswer, result.Answer)
}

func TestComposer_Compose_GenerationUnavailable(t *testing.T) {
	boom := errors.New("503 service unavailable")

	_, err := NewComposer(&mockLLMService{err: boom}, nil, ComposerConfig{}).
		Compose(context.Background(), "q", reranked(1))
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, boom)

	_, err = NewComposer(nil, nil, ComposerConfig{}).Compose(context.Background(), "q", reranked(1))
	assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestComposer_UsageAndCost(t *testing.T) {
	cfg := ComposerConfig{InputCostPer1K: 0.000075, OutputCostPer1K: 0.0003}

	t.Run("provider usage", func(t *testing.T) {
		usage := &domain.TokenUsage{PromptTokens: 1000, CompletionTokens: 2000, TotalTokens: 3000}
		c := NewComposer(&mockLLMService{text: "answer [1]", usage: usage}, nil, cfg)

		result, err := c.Compose(context.Background(), "q", reranked(1))

		require.NoError(t, err)
		assert.Equal(t, usage, result.TokenUsage)
		require.NotNil(t, result.EstimatedCost)
		assert.InDelta(t, 0.000675, *result.EstimatedCost, 1e-12)
	})

	t.Run("estimated usage", func(t *testing.T) {
		c := NewComposer(&mockLLMService{text: "12345678"}, nil, cfg)

		result, err := c.Compose(context.Background(), "q", reranked(1))

		require.NoError(t, err)
		require.NotNil(t, result.TokenUsage)
		assert.Equal(t, 2, result.TokenUsage.CompletionTokens)
		assert.Positive(t, result.TokenUsage.PromptTokens)
		assert.Equal(t, result.TokenUsage.PromptTokens+2, result.TokenUsage.TotalTokens)
	})
}

func TestEstimateTokenUsage(t *testing.T) {
	usage := EstimateTokenUsage(strings.Repeat("x", 403), "abc")

	assert.Equal(t, 100, usage.PromptTokens)
	assert.Equal(t, 0, usage.CompletionTokens)
	assert.Equal(t, 100, usage.TotalTokens)
}

func TestComposer_EstimateCost_Rounding(t *testing.T) {
	c := NewComposer(nil, nil, ComposerConfig{InputCostPer1K: 0.000075, OutputCostPer1K: 0.0003})

	assert.Equal(t, 0.0, c.EstimateCost(nil))
	assert.Equal(t, 0.000001, c.EstimateCost(&domain.TokenUsage{PromptTokens: 7, CompletionTokens: 2}))
}
