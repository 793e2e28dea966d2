package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockEmbeddingService implements driven.EmbeddingService for testing.
type mockEmbeddingService struct {
	vector   []float32
	embedErr error
	batchErr error
	calls    int
}

func (m *mockEmbeddingService) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	if m.vector == nil {
		return []float32{0.1, 0.2, 0.3}, nil
	}
	return m.vector, nil
}

func (m *mockEmbeddingService) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.calls++
	if m.batchErr != nil {
		return nil, m.batchErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0}
	}
	return out, nil
}

func (m *mockEmbeddingService) Dimensions() int             { return 3 }
func (m *mockEmbeddingService) ModelName() string           { return "mock-embed" }
func (m *mockEmbeddingService) Ping(_ context.Context) error { return nil }
func (m *mockEmbeddingService) Close() error                { return nil }

// mockVectorIndex implements driven.VectorIndex for testing.
type mockVectorIndex struct {
	mu        sync.Mutex
	hits      []driven.VectorHit
	searchErr error
	upsertErr error
	deleteErr error
	upserted  []domain.Chunk
	deleted   []string
	lastK     int

	// failAfter, when positive, fails every upsert after that many succeed.
	failAfter     int
	deletedChunks []string
}

func (m *mockVectorIndex) Upsert(_ context.Context, chunk domain.Chunk, _ []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.upsertErr != nil || (m.failAfter > 0 && len(m.upserted) >= m.failAfter) {
		return errors.Join(m.upsertErr, errors.New("upsert failed"))
	}
	m.upserted = append(m.upserted, chunk)
	return nil
}

func (m *mockVectorIndex) Search(_ context.Context, _ []float32, k int) ([]driven.VectorHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastK = k
	if m.searchErr != nil {
		return nil, m.searchErr
	}
	hits := append([]driven.VectorHit(nil), m.hits...)
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (m *mockVectorIndex) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, documentID)
	return nil
}

func (m *mockVectorIndex) DeleteChunks(_ context.Context, chunkIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletedChunks = append(m.deletedChunks, chunkIDs...)
	return nil
}

func (m *mockVectorIndex) Close() error { return nil }

// mockReranker implements driven.Reranker for testing.
type mockReranker struct {
	scores []float64
	err    error
	delay  time.Duration
	calls  int
}

func (m *mockReranker) Score(ctx context.Context, _ string, docs []string) ([]float64, error) {
	m.calls++
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	if m.scores != nil {
		return m.scores, nil
	}
	out := make([]float64, len(docs))
	for i := range docs {
		out[i] = float64(i)
	}
	return out, nil
}

func (m *mockReranker) ModelName() string { return "mock-rerank" }

// mockLLMService implements driven.LLMService for testing.
type mockLLMService struct {
	text       string
	usage      *domain.TokenUsage
	err        error
	lastPrompt string
	lastOpts   driven.GenerateOptions
	calls      int
}

func (m *mockLLMService) Generate(_ context.Context, prompt string, opts driven.GenerateOptions) (*driven.Generation, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return &driven.Generation{Text: m.text, Usage: m.usage}, nil
}

func (m *mockLLMService) ModelName() string           { return "mock-llm" }
func (m *mockLLMService) Ping(_ context.Context) error { return nil }
func (m *mockLLMService) Close() error                { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("prompt not found")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockMetrics implements driven.MetricsRecorder for testing.
type mockMetrics struct {
	stages   map[string]int
	outcomes map[string]int
	degraded int
	uploads  int
}

func newMockMetrics() *mockMetrics {
	return &mockMetrics{stages: map[string]int{}, outcomes: map[string]int{}}
}

func (m *mockMetrics) ObserveStage(stage string, _ time.Duration) { m.stages[stage]++ }
func (m *mockMetrics) IncQuery(outcome string)                   { m.outcomes[outcome]++ }
func (m *mockMetrics) IncRerankDegraded()                        { m.degraded++ }
func (m *mockMetrics) ObserveUpload(_ int)                       { m.uploads++ }

// mockConfigStore implements driven.ConfigStore with an in-memory map.
type mockConfigStore struct {
	values map[string]any
	setErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: map[string]any{}}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.values[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	n, _ := toInt(m.values[key])
	return n
}

func (m *mockConfigStore) GetStringSlice(key string) []string {
	s, _ := m.values[key].([]string)
	return s
}

func (m *mockConfigStore) Set(key string, value any) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Delete(key string) error {
	if m.setErr != nil {
		return m.setErr
	}
	delete(m.values, key)
	return nil
}

func (m *mockConfigStore) Path() string { return "/tmp/config.toml" }

// mockEvaluationStore implements driven.EvaluationStore for testing.
type mockEvaluationStore struct {
	saved []domain.EvaluationReport
	err   error
}

func (m *mockEvaluationStore) SaveReport(_ context.Context, r *domain.EvaluationReport) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, *r)
	return nil
}

func (m *mockEvaluationStore) ListReports(_ context.Context, limit int) ([]domain.EvaluationReport, error) {
	if limit < len(m.saved) {
		return m.saved[:limit], nil
	}
	return m.saved, nil
}

// --- Fixtures ---

func testChunk(id, source, content string) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: source,
		Section:    domain.DefaultSection,
		Content:    content,
		CharEnd:    len(content),
		Source:     source,
		Title:      "Title of " + source,
	}
}

func testHits(n int) []driven.VectorHit {
	hits := make([]driven.VectorHit, n)
	for i := range hits {
		id := string(rune('a' + i))
		hits[i] = driven.VectorHit{
			Chunk:      testChunk("chunk-"+id, "doc-"+id, "content "+id),
			Similarity: 1 - float64(i)*0.1,
		}
	}
	return hits
}

func testCandidates(n int) []domain.ScoredCandidate {
	hits := testHits(n)
	out := make([]domain.ScoredCandidate, n)
	for i, h := range hits {
		out[i] = domain.ScoredCandidate{Chunk: h.Chunk, Similarity: h.Similarity}
	}
	return out
}
