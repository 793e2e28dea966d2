package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// embedBatchSize caps the number of chunks sent per embedding request.
const embedBatchSize = 64

// DocumentService ingests uploads into the document store and vector index.
type DocumentService struct {
	normalisers driven.NormaliserRegistry
	pipeline    driven.PostProcessorPipeline
	embedder    driven.EmbeddingService
	index       driven.VectorIndex
	store       driven.DocumentStore
	metrics     driven.MetricsRecorder
	maxBytes    int64
}

// NewDocumentService creates a document service. maxBytes <= 0 disables
// the upload size limit.
func NewDocumentService(
	normalisers driven.NormaliserRegistry,
	pipeline driven.PostProcessorPipeline,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	store driven.DocumentStore,
	maxBytes int64,
) *DocumentService {
	return &DocumentService{
		normalisers: normalisers,
		pipeline:    pipeline,
		embedder:    embedder,
		index:       index,
		store:       store,
		maxBytes:    maxBytes,
	}
}

// SetMetrics sets the telemetry sink. Nil disables metrics.
func (s *DocumentService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// Upload extracts text, chunks it, embeds the chunks and indexes them.
// Re-uploading a named file replaces the previous document; raw text
// always creates a new one.
func (s *DocumentService) Upload(ctx context.Context, raw *domain.RawDocument) (*domain.UploadResult, error) {
	logger.Section("Upload")

	if raw == nil || len(raw.Content) == 0 {
		return nil, fmt.Errorf("%w: either a file or text content is required", domain.ErrInvalidInput)
	}
	if s.maxBytes > 0 && int64(len(raw.Content)) > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes",
			domain.ErrFileTooLarge, len(raw.Content), s.maxBytes)
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	extracted, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}

	content := strings.Join(strings.Fields(extracted.Content), " ")
	if content == "" {
		return nil, domain.ErrEmptyDocument
	}

	// Named uploads replace an earlier upload of the same name. Text
	// uploads are always new documents.
	source, id := raw.Name, raw.Name
	if source == "" {
		source = domain.TextInputSource
		id = source + "_" + uuid.New().String()[:8]
	}
	doc := &domain.Document{
		ID:        id,
		Title:     resolveTitle(raw.Title, extracted.Title),
		Source:    source,
		Content:   content,
		MIMEType:  raw.MIMEType,
		CreatedAt: time.Now(),
	}
	logger.Debug("Extracted %d characters from %s (%s)", len(content), source, raw.MIMEType)

	chunks, err := s.pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk document: %w", err)
	}
	doc.ChunkCount = len(chunks)

	vectors, err := s.embed(ctx, chunks)
	if err != nil {
		return nil, err
	}

	prev, err := s.previous(ctx, raw.Name)
	if err != nil {
		return nil, err
	}

	// The new chunks go in before the old ones come out, so a failure
	// leaves the previous version searchable and listed.
	for i, chunk := range chunks {
		if err := s.index.Upsert(ctx, chunk, vectors[i]); err != nil {
			s.discard(ctx, prev, chunks[:i])
			return nil, fmt.Errorf("%w: upsert chunk %s: %w", domain.ErrVectorIndexUnavailable, chunk.ID, err)
		}
	}
	if err := s.save(ctx, doc, chunks, prev); err != nil {
		s.discard(ctx, prev, chunks)
		return nil, err
	}

	if prev != nil {
		if stale := prev.staleIDs(chunks); len(stale) > 0 {
			if err := s.index.DeleteChunks(ctx, stale); err != nil {
				logger.Warn("%s: %d chunks of the previous version remain indexed: %v", doc.ID, len(stale), err)
			}
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveUpload(len(chunks))
	}
	logger.Info("Indexed %s: %d chunks", doc.ID, len(chunks))

	return &domain.UploadResult{
		Message:       fmt.Sprintf("Document processed successfully. Created %d chunks.", len(chunks)),
		DocumentID:    doc.ID,
		ChunksCreated: len(chunks),
	}, nil
}

// previousVersion is what a named re-upload replaces.
type previousVersion struct {
	doc    *domain.Document
	chunks map[string]bool
}

// staleIDs lists the previous chunk IDs the new version does not reuse.
func (p *previousVersion) staleIDs(current []domain.Chunk) []string {
	keep := make(map[string]bool, len(current))
	for _, c := range current {
		keep[c.ID] = true
	}
	var stale []string
	for id := range p.chunks {
		if !keep[id] {
			stale = append(stale, id)
		}
	}
	sort.Strings(stale)
	return stale
}

// previous loads the stored version of a named upload, or nil when there
// is none. Without a store the old vectors cannot be told apart from the
// new ones, so they are removed up front.
func (s *DocumentService) previous(ctx context.Context, name string) (*previousVersion, error) {
	if name == "" {
		return nil, nil
	}
	if s.store == nil {
		if err := s.index.DeleteDocument(ctx, name); err != nil {
			return nil, fmt.Errorf("%w: remove previous vectors: %w", domain.ErrVectorIndexUnavailable, err)
		}
		return nil, nil
	}

	doc, err := s.store.GetDocument(ctx, name)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load previous version: %w", err)
	}
	chunks, err := s.store.GetChunks(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("load previous chunks: %w", err)
	}
	prev := &previousVersion{doc: doc, chunks: make(map[string]bool, len(chunks))}
	for _, c := range chunks {
		prev.chunks[c.ID] = true
	}
	return prev, nil
}

// save records the document and its chunks. If the chunks cannot be
// saved the previous record is put back.
func (s *DocumentService) save(ctx context.Context, doc *domain.Document, chunks []domain.Chunk, prev *previousVersion) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveDocument(ctx, doc); err != nil {
		return fmt.Errorf("save document: %w", err)
	}
	if err := s.store.SaveChunks(ctx, doc.ID, chunks); err != nil {
		var restore error
		if prev != nil {
			restore = s.store.SaveDocument(ctx, prev.doc)
		} else {
			restore = s.store.DeleteDocument(ctx, doc.ID)
		}
		if restore != nil {
			logger.Warn("%s: restoring the document record: %v", doc.ID, restore)
		}
		return fmt.Errorf("save chunks: %w", err)
	}
	return nil
}

// discard removes vectors written by a failed upload. Chunk IDs the
// previous version also uses are left alone.
func (s *DocumentService) discard(ctx context.Context, prev *previousVersion, written []domain.Chunk) {
	ids := make([]string, 0, len(written))
	for _, c := range written {
		if prev == nil || !prev.chunks[c.ID] {
			ids = append(ids, c.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	if err := s.index.DeleteChunks(ctx, ids); err != nil {
		logger.Warn("discarding %d vectors of a failed upload: %v", len(ids), err)
	}
}

// embed embeds chunk contents in batches, preserving order.
func (s *DocumentService) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	vectors := make([][]float32, 0, len(chunks))
	for start := 0; start < len(chunks); start += embedBatchSize {
		end := min(start+embedBatchSize, len(chunks))

		texts := make([]string, 0, end-start)
		for _, c := range chunks[start:end] {
			texts = append(texts, c.Content)
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("%w: embed chunks: %w", domain.ErrEmbeddingUnavailable, err)
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
				domain.ErrEmbeddingUnavailable, len(batch), len(texts))
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

func resolveTitle(given, extracted string) string {
	if t := strings.TrimSpace(given); t != "" {
		return t
	}
	if t := strings.TrimSpace(extracted); t != "" {
		return t
	}
	return domain.DefaultTitle
}

// List returns all indexed documents.
func (s *DocumentService) List(ctx context.Context) ([]domain.Document, error) {
	if s.store == nil {
		return []domain.Document{}, nil
	}
	return s.store.ListDocuments(ctx)
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.GetDocument(ctx, documentID)
}

// Chunks returns the chunks of a document in position order.
func (s *DocumentService) Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	if _, err := s.store.GetDocument(ctx, documentID); err != nil {
		return nil, err
	}
	return s.store.GetChunks(ctx, documentID)
}

// Delete removes a document from the vector index and the store.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	if s.store != nil {
		if _, err := s.store.GetDocument(ctx, documentID); err != nil {
			return err
		}
	}
	if s.index != nil {
		if err := s.index.DeleteDocument(ctx, documentID); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrVectorIndexUnavailable, err)
		}
	}
	if s.store != nil {
		if err := s.store.DeleteDocument(ctx, documentID); err != nil {
			return fmt.Errorf("delete document: %w", err)
		}
	}
	logger.Info("Deleted document %s", documentID)
	return nil
}
