package driving

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// DocumentService ingests and manages uploaded documents.
type DocumentService interface {
	// Upload extracts, chunks, embeds and indexes a document.
	Upload(ctx context.Context, raw *domain.RawDocument) (*domain.UploadResult, error)

	// List returns all indexed documents.
	List(ctx context.Context) ([]domain.Document, error)

	// Get retrieves a document by ID.
	Get(ctx context.Context, documentID string) (*domain.Document, error)

	// Chunks returns the chunks of a document in position order.
	Chunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// Delete removes a document from the registry and the vector index.
	Delete(ctx context.Context, documentID string) error
}
