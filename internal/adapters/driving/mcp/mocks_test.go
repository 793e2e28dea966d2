package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	result  *domain.AnswerResult
	err     error
	lastReq domain.QueryRequest
}

func (m *mockQueryService) Answer(_ context.Context, req domain.QueryRequest) (*domain.AnswerResult, error) {
	m.lastReq = req
	return m.result, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	documents []domain.Document
	uploaded  *domain.RawDocument
	err       error
}

func (m *mockDocumentService) Upload(_ context.Context, raw *domain.RawDocument) (*domain.UploadResult, error) {
	m.uploaded = raw
	if m.err != nil {
		return nil, m.err
	}
	return &domain.UploadResult{
		Message:       "Document processed successfully. Created 1 chunks.",
		DocumentID:    domain.TextInputSource,
		ChunksCreated: 1,
	}, nil
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.Document, error) {
	return m.documents, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.documents {
		if m.documents[i].ID == id {
			return &m.documents[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// mockEvaluationService runs the pipeline once per case and scores
// every answered case as a success.
type mockEvaluationService struct {
	cases []domain.GoldCase
	err   error
}

func (m *mockEvaluationService) Evaluate(
	ctx context.Context,
	cases []domain.GoldCase,
	pipeline driving.Pipeline,
) (*domain.EvaluationReport, error) {
	m.cases = cases
	if m.err != nil {
		return nil, m.err
	}

	report := &domain.EvaluationReport{TotalTests: len(cases)}
	passed := 0
	for _, c := range cases {
		rec := domain.EvaluationRecord{Case: c}
		res, err := pipeline(ctx, c.Question, 10, 5)
		if err != nil {
			rec.Err = err.Error()
		} else {
			rec.Result = res
			rec.Scores = domain.CaseScores{OverallScore: 0.8, IsSuccess: true}
			passed++
		}
		report.Records = append(report.Records, rec)
	}
	if len(cases) > 0 {
		report.SuccessRate = float64(passed) / float64(len(cases))
	}
	return report, nil
}

func (m *mockEvaluationService) History(_ context.Context, _ int) ([]domain.EvaluationReport, error) {
	return nil, m.err
}
