// Package memory provides a brute-force in-memory vector index.
//
// Similarity is cosine. An optional snapshot store mirrors every write so
// the index can be rebuilt on startup.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

type entry struct {
	chunk  domain.Chunk
	vector []float32
	norm   float64
	seq    int
}

// Index is a thread-safe in-memory vector index.
type Index struct {
	mu        sync.RWMutex
	entries   map[string]*entry
	dimension int
	seq       int
	snapshot  driven.VectorSnapshotStore
}

// New creates an empty index. dimension may be 0 to accept the size of
// the first vector.
func New(dimension int) *Index {
	return &Index{
		entries:   make(map[string]*entry),
		dimension: dimension,
	}
}

// NewWithSnapshot creates an index backed by store and loads its records.
func NewWithSnapshot(ctx context.Context, dimension int, store driven.VectorSnapshotStore) (*Index, error) {
	idx := New(dimension)
	records, err := store.LoadVectors(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load snapshot: %v", domain.ErrVectorIndexUnavailable, err)
	}
	for _, r := range records {
		if err := idx.put(r.Chunk, r.Vector); err != nil {
			return nil, err
		}
	}
	idx.snapshot = store
	return idx, nil
}

// Len returns the number of stored vectors.
func (i *Index) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Upsert stores or replaces the vector for a chunk.
func (i *Index) Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error {
	if chunk.ID == "" {
		return fmt.Errorf("%w: chunk ID is required", domain.ErrInvalidInput)
	}
	if err := i.put(chunk, vector); err != nil {
		return err
	}
	if i.snapshot != nil {
		if err := i.snapshot.SaveVector(ctx, driven.VectorRecord{Chunk: chunk, Vector: vector}); err != nil {
			return fmt.Errorf("%w: snapshot: %v", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return nil
}

func (i *Index) put(chunk domain.Chunk, vector []float32) error {
	if len(vector) == 0 {
		return fmt.Errorf("%w: empty vector", domain.ErrInvalidInput)
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.dimension == 0 {
		i.dimension = len(vector)
	}
	if len(vector) != i.dimension {
		return fmt.Errorf("%w: vector dimension %d, index expects %d",
			domain.ErrInvalidInput, len(vector), i.dimension)
	}

	i.seq++
	seq := i.seq
	if old, ok := i.entries[chunk.ID]; ok {
		seq = old.seq
	}
	i.entries[chunk.ID] = &entry{
		chunk:  chunk,
		vector: append([]float32(nil), vector...),
		norm:   norm(vector),
		seq:    seq,
	}
	return nil
}

// Search returns up to k chunks by descending cosine similarity.
// Ties keep insertion order.
func (i *Index) Search(_ context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	i.mu.RLock()
	defer i.mu.RUnlock()

	if len(i.entries) == 0 {
		return []driven.VectorHit{}, nil
	}
	if len(query) != i.dimension {
		return nil, fmt.Errorf("%w: query dimension %d, index expects %d",
			domain.ErrInvalidInput, len(query), i.dimension)
	}

	qnorm := norm(query)
	type scored struct {
		e   *entry
		sim float64
	}
	all := make([]scored, 0, len(i.entries))
	for _, e := range i.entries {
		all = append(all, scored{e: e, sim: cosine(query, qnorm, e.vector, e.norm)})
	}
	sort.Slice(all, func(a, b int) bool {
		if all[a].sim != all[b].sim {
			return all[a].sim > all[b].sim
		}
		return all[a].e.seq < all[b].e.seq
	})

	if k > len(all) {
		k = len(all)
	}
	hits := make([]driven.VectorHit, k)
	for n := 0; n < k; n++ {
		hits[n] = driven.VectorHit{Chunk: all[n].e.chunk, Similarity: all[n].sim}
	}
	return hits, nil
}

// DeleteDocument removes every chunk belonging to a document.
func (i *Index) DeleteDocument(ctx context.Context, documentID string) error {
	i.mu.Lock()
	for id, e := range i.entries {
		if e.chunk.DocumentID == documentID {
			delete(i.entries, id)
		}
	}
	i.mu.Unlock()

	if i.snapshot != nil {
		if err := i.snapshot.DeleteDocumentVectors(ctx, documentID); err != nil {
			return fmt.Errorf("%w: snapshot: %v", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return nil
}

// DeleteChunks removes the given chunks.
func (i *Index) DeleteChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	i.mu.Lock()
	for _, id := range chunkIDs {
		delete(i.entries, id)
	}
	i.mu.Unlock()

	if i.snapshot != nil {
		if err := i.snapshot.DeleteVectors(ctx, chunkIDs); err != nil {
			return fmt.Errorf("%w: snapshot: %v", domain.ErrVectorIndexUnavailable, err)
		}
	}
	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for n := range a {
		dot += float64(a[n]) * float64(b[n])
	}
	return dot / (anorm * bnorm)
}
