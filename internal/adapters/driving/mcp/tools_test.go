package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

func TestServer_handleAsk(t *testing.T) {
	ctx := context.Background()

	t.Run("returns answer with citations", func(t *testing.T) {
		rerank := 0.97
		mockQuery := &mockQueryService{
			result: &domain.AnswerResult{
				Answer: "Channels connect goroutines [1].",
				Citations: []domain.Citation{
					{Index: 1, Source: "go.md", Title: "Go", ContentSnippet: "Channels are..."},
				},
				Sources: []domain.Source{
					{ID: "go.md_0_a1b2c3d4", Source: "go.md", Title: "Go", Score: 0.8, RerankScore: &rerank},
					{ID: "go.md_1_e5f6a7b8", Source: "go.md", Title: "Go", Score: 0.7},
				},
			},
		}

		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "What are channels?", TopK: 7})

		require.NoError(t, err)
		assert.Equal(t, "Channels connect goroutines [1].", output.Answer)
		require.Len(t, output.Citations, 1)
		assert.Equal(t, 1, output.Citations[0].Index)
		require.Len(t, output.Sources, 2)
		assert.Equal(t, 1, output.Sources[0].Rank)
		assert.Equal(t, 0.97, output.Sources[0].Score)
		assert.Equal(t, 0.7, output.Sources[1].Score)
		assert.Equal(t, 7, mockQuery.lastReq.TopK)
		assert.Equal(t, "What are channels?", mockQuery.lastReq.Query)
	})

	t.Run("no citations is an empty list", func(t *testing.T) {
		mockQuery := &mockQueryService{result: &domain.AnswerResult{Answer: domain.NoResultsAnswer}}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		_, output, err := server.handleAsk(ctx, nil, AskInput{Question: "anything"})

		require.NoError(t, err)
		assert.NotNil(t, output.Citations)
		assert.Empty(t, output.Citations)
	})

	t.Run("maps provider errors", func(t *testing.T) {
		mockQuery := &mockQueryService{
			err: fmt.Errorf("%w: timeout", domain.ErrGenerationUnavailable),
		}
		server, err := NewServer(&Ports{Query: mockQuery})
		require.NoError(t, err)

		_, _, err = server.handleAsk(ctx, nil, AskInput{Question: "q"})

		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrGenerationUnavailable)
		assert.Contains(t, err.Error(), "ask: generation provider unavailable")
	})
}

func TestServer_handleUploadText(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads raw text", func(t *testing.T) {
		docs := &mockDocumentService{}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: docs})
		require.NoError(t, err)

		_, output, err := server.handleUploadText(ctx, nil, UploadTextInput{Text: "hello world", Title: "Greeting"})

		require.NoError(t, err)
		assert.Equal(t, domain.TextInputSource, output.DocumentID)
		assert.Equal(t, 1, output.ChunksCreated)
		require.NotNil(t, docs.uploaded)
		assert.Equal(t, "Greeting", docs.uploaded.Title)
		assert.Equal(t, "text/plain", docs.uploaded.MIMEType)
		assert.Empty(t, docs.uploaded.Name)
	})

	t.Run("empty document error", func(t *testing.T) {
		docs := &mockDocumentService{err: domain.ErrEmptyDocument}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: docs})
		require.NoError(t, err)

		_, _, err = server.handleUploadText(ctx, nil, UploadTextInput{Text: "   "})

		assert.ErrorIs(t, err, domain.ErrEmptyDocument)
		assert.Contains(t, err.Error(), "document has no text")
	})
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()

	docs := &mockDocumentService{documents: []domain.Document{
		{ID: "a.md", Title: "A", ChunkCount: 4},
		{ID: "b.pdf", Title: "B", ChunkCount: 9},
	}}
	server, err := NewServer(&Ports{Query: &mockQueryService{}, Documents: docs})
	require.NoError(t, err)

	_, output, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})

	require.NoError(t, err)
	assert.Equal(t, 2, output.Count)
	assert.Equal(t, DocumentOutput{ID: "b.pdf", Title: "B", ChunkCount: 9}, output.Documents[1])
}

func TestServer_handleEvaluate(t *testing.T) {
	ctx := context.Background()

	pipeline := func(_ context.Context, question string, _, _ int) (*domain.AnswerResult, error) {
		if question == domain.GoldCases()[1].Question {
			return nil, errors.New("llm down")
		}
		return &domain.AnswerResult{Answer: "ok"}, nil
	}

	t.Run("runs selected cases", func(t *testing.T) {
		eval := &mockEvaluationService{}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Evaluation: eval, Pipeline: pipeline})
		require.NoError(t, err)

		ids := []string{domain.GoldCases()[1].ID, domain.GoldCases()[0].ID}
		_, output, err := server.handleEvaluate(ctx, nil, EvaluateInput{CaseIDs: ids})

		require.NoError(t, err)
		require.Len(t, eval.cases, 2)
		assert.Equal(t, domain.GoldCases()[0].ID, eval.cases[0].ID)
		assert.Equal(t, 2, output.TotalTests)
		assert.InDelta(t, 0.5, output.SuccessRate, 1e-9)
		assert.Equal(t, "llm down", output.Cases[1].Error)
		assert.Equal(t, 1, output.ByCategory[domain.GoldCases()[0].Category])
	})

	t.Run("all cases by default", func(t *testing.T) {
		eval := &mockEvaluationService{}
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Evaluation: eval, Pipeline: pipeline})
		require.NoError(t, err)

		_, output, err := server.handleEvaluate(ctx, nil, EvaluateInput{})

		require.NoError(t, err)
		assert.Equal(t, len(domain.GoldCases()), output.TotalTests)
	})

	t.Run("unknown case id", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}, Evaluation: &mockEvaluationService{}, Pipeline: pipeline})
		require.NoError(t, err)

		_, _, err = server.handleEvaluate(ctx, nil, EvaluateInput{CaseIDs: []string{"nope"}})

		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("not wired", func(t *testing.T) {
		server, err := NewServer(&Ports{Query: &mockQueryService{}})
		require.NoError(t, err)

		_, _, err = server.handleEvaluate(ctx, nil, EvaluateInput{})

		assert.ErrorIs(t, err, ErrEvaluationUnavailable)
	})
}

func TestToolError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{domain.ErrInvalidArgument, "invalid input"},
		{domain.ErrNotFound, "not found"},
		{domain.ErrFileTooLarge, "document too large"},
		{domain.ErrRetrievalUnavailable, "retrieval provider unavailable"},
		{domain.ErrLLMUnavailable, "generation provider unavailable"},
		{errors.New("disk full"), "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			err := toolError("ask", tt.err)
			assert.ErrorIs(t, err, tt.err)
			assert.Contains(t, err.Error(), "ask: "+tt.want)
		})
	}
}
