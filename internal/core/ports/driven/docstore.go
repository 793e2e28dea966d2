package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentStore persists the document registry and chunk text.
// Backed by SQLite for metadata storage.
type DocumentStore interface {
	// SaveDocument stores or replaces a document.
	SaveDocument(ctx context.Context, doc *domain.Document) error

	// SaveChunks replaces the chunks for a document.
	SaveChunks(ctx context.Context, documentID string, chunks []domain.Chunk) error

	// GetDocument retrieves a document by ID.
	// Returns domain.ErrNotFound if absent.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetChunks retrieves all chunks for a document in position order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// ListDocuments returns all documents, newest first.
	ListDocuments(ctx context.Context) ([]domain.Document, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error
}

// EvaluationStore keeps a history of evaluation runs.
type EvaluationStore interface {
	// SaveReport persists a completed report.
	SaveReport(ctx context.Context, report *domain.EvaluationReport) error

	// ListReports returns the most recent reports, newest first.
	ListReports(ctx context.Context, limit int) ([]domain.EvaluationReport, error)
}
