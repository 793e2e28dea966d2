package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// VectorIndex stores chunk embeddings and answers similarity queries.
// Implementations persist the chunk metadata (source, title, section,
// position) with each vector so hits are self-describing.
type VectorIndex interface {
	// Upsert stores or replaces the vector for a chunk.
	Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error

	// Search returns up to k nearest chunks, most similar first.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// DeleteDocument removes every chunk belonging to a document.
	DeleteDocument(ctx context.Context, documentID string) error

	// DeleteChunks removes the given chunks. Unknown IDs are ignored.
	DeleteChunks(ctx context.Context, chunkIDs []string) error

	// Close releases resources.
	Close() error
}

// VectorHit is one similarity search result.
type VectorHit struct {
	Chunk domain.Chunk

	// Similarity is higher for closer vectors.
	Similarity float64
}

// VectorRecord is a chunk with its stored embedding.
type VectorRecord struct {
	Chunk  domain.Chunk
	Vector []float32
}

// VectorSnapshotStore persists vectors for indexes that live in memory,
// so they survive a restart.
type VectorSnapshotStore interface {
	// LoadVectors returns every stored record.
	LoadVectors(ctx context.Context) ([]VectorRecord, error)

	// SaveVector stores or replaces the record for a chunk.
	SaveVector(ctx context.Context, record VectorRecord) error

	// DeleteDocumentVectors removes the records of a document.
	DeleteDocumentVectors(ctx context.Context, documentID string) error

	// DeleteVectors removes the records of the given chunks.
	DeleteVectors(ctx context.Context, chunkIDs []string) error
}
