package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// mockQueryService implements driving.QueryService.
type mockQueryService struct {
	lastReq domain.QueryRequest
	result  *domain.AnswerResult
	err     error
}

func (m *mockQueryService) Answer(_ context.Context, req domain.QueryRequest) (*domain.AnswerResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &domain.AnswerResult{
		Answer: "Paris is the capital of France [1].",
		Citations: []domain.Citation{
			{Index: 1, Source: "geo.txt", Title: "Geography", ContentSnippet: "Paris is the capital"},
		},
		Sources: []domain.Source{
			{ID: "geo.txt#0", Content: "Paris is the capital of France.", Source: "geo.txt", Title: "Geography", Score: 0.9},
		},
		RetrievalTime: 20 * time.Millisecond,
		RerankTime:    10 * time.Millisecond,
		LLMTime:       300 * time.Millisecond,
		TotalTime:     330 * time.Millisecond,
	}, nil
}

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	docs     []domain.Document
	chunks   []domain.Chunk
	uploaded []*domain.RawDocument
	deleted  []string
	err      error
}

func (m *mockDocumentService) Upload(_ context.Context, raw *domain.RawDocument) (*domain.UploadResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.uploaded = append(m.uploaded, raw)
	id := raw.Name
	if id == "" {
		id = domain.TextInputSource
	}
	return &domain.UploadResult{
		Message:       "Document processed successfully. Created 2 chunks.",
		DocumentID:    id,
		ChunksCreated: 2,
	}, nil
}

func (m *mockDocumentService) List(context.Context) ([]domain.Document, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Chunks(context.Context, string) ([]domain.Chunk, error) {
	return m.chunks, nil
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if _, err := m.Get(context.Background(), id); err != nil {
		return err
	}
	m.deleted = append(m.deleted, id)
	return nil
}

// mockEvaluationService implements driving.EvaluationService and runs
// each case through the pipeline.
type mockEvaluationService struct {
	cases   []domain.GoldCase
	history []domain.EvaluationReport
}

func (m *mockEvaluationService) Evaluate(
	ctx context.Context,
	cases []domain.GoldCase,
	pipeline driving.Pipeline,
) (*domain.EvaluationReport, error) {
	m.cases = cases
	report := &domain.EvaluationReport{ID: "run-1"}
	for _, c := range cases {
		rec := domain.EvaluationRecord{Case: c}
		result, err := pipeline(ctx, c.Question, 10, 5)
		if err != nil {
			rec.Err = err.Error()
		} else {
			rec.Result = result
			rec.Scores = domain.ScoreAnswer(c, result, nil)
		}
		report.Records = append(report.Records, rec)
	}
	report.Summarise()
	return report, nil
}

func (m *mockEvaluationService) History(_ context.Context, limit int) ([]domain.EvaluationReport, error) {
	if limit < len(m.history) {
		return m.history[:limit], nil
	}
	return m.history, nil
}

// mockSettingsService implements driving.SettingsService.
type mockSettingsService struct {
	settings  domain.AppSettings
	set       map[string]any
	providers map[string]domain.ProviderSettings
	reset     []string
	setErr    error
}

func newMockSettingsService() *mockSettingsService {
	return &mockSettingsService{
		settings:  domain.DefaultAppSettings(),
		set:       make(map[string]any),
		providers: make(map[string]domain.ProviderSettings),
	}
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	for role, p := range m.providers {
		switch role {
		case roleEmbedding:
			s.Embedding = p
		case roleLLM:
			s.LLM = p
		case roleRerank:
			s.Rerank = p
		}
	}
	return &s, nil
}

func (m *mockSettingsService) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Reset(key string) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.reset = append(m.reset, key)
	return nil
}

func (m *mockSettingsService) SetProvider(role string, provider domain.AIProvider, model, apiKey string) error {
	m.providers[role] = domain.ProviderSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error                  { return nil }
func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }
func (m *mockSettingsService) Keys() []string                  { return []string{"llm.model", "pipeline.chunk_size"} }
func (m *mockSettingsService) ConfigPath() string              { return "/tmp/sercha-rag/config.toml" }

// mockValidator implements driven.ProviderValidator.
type mockValidator struct {
	roles []string
	err   error
}

func (m *mockValidator) ValidateProvider(_ context.Context, role string, _ domain.ProviderSettings) error {
	m.roles = append(m.roles, role)
	return m.err
}

type testServices struct {
	query     *mockQueryService
	documents *mockDocumentService
	eval      *mockEvaluationService
	settings  *mockSettingsService
}

// setupTestServices wires mock services and returns a cleanup function.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		query: &mockQueryService{},
		documents: &mockDocumentService{
			docs: []domain.Document{
				{ID: "geo.txt", Title: "Geography", Source: "geo.txt", Content: "Paris is the capital of France.", ChunkCount: 1},
			},
			chunks: []domain.Chunk{
				{ID: "geo.txt#0", DocumentID: "geo.txt", Content: "Paris is the capital of France.", CharEnd: 31, Section: domain.DefaultSection},
			},
		},
		eval:     &mockEvaluationService{},
		settings: newMockSettingsService(),
	}
	SetServices(&Services{
		Query:      ts.query,
		Documents:  ts.documents,
		Evaluation: ts.eval,
		Settings:   ts.settings,
		Pipeline: func(ctx context.Context, q string, topK, rerankTopK int) (*domain.AnswerResult, error) {
			return ts.query.Answer(ctx, domain.QueryRequest{Query: q, TopK: topK, RerankTopK: rerankTopK})
		},
	})
	return ts, func() {
		SetServices(nil)
		resetFlags(rootCmd)
	}
}

// resetFlags restores every flag to its default so tests do not leak
// state through package-level flag variables.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

var (
	_ driving.QueryService      = (*mockQueryService)(nil)
	_ driving.DocumentService   = (*mockDocumentService)(nil)
	_ driving.EvaluationService = (*mockEvaluationService)(nil)
	_ driving.SettingsService   = (*mockSettingsService)(nil)
)
