// Package milvus provides a vector index backed by Milvus.
package milvus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

var tracer = otel.Tracer("milvus")

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultAddress        = "localhost:19530"
	DefaultCollection     = "sercha_rag_chunks"
	DefaultHNSWM          = 16
	DefaultEfConstruction = 200
)

// Config holds configuration for the Milvus index.
type Config struct {
	Address    string
	Username   string
	Password   string
	Collection string
	Dimensions int

	// HNSW build parameters.
	HNSWM          int
	EfConstruction int
}

// Index stores chunk vectors in a Milvus collection with an HNSW/COSINE index.
type Index struct {
	store      store
	collection string
	dimensions int
	hnswM      int
	efBuild    int
}

// New connects to Milvus and prepares the collection.
func New(ctx context.Context, cfg Config) (*Index, error) {
	if cfg.Address == "" {
		cfg.Address = DefaultAddress
	}

	c, err := client.NewClient(ctx, client.Config{
		Address:  cfg.Address,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect to milvus: %v", domain.ErrVectorIndexUnavailable, err)
	}

	idx, err := newIndex(sdkStore{c: c}, cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	if err := idx.EnsureCollection(ctx); err != nil {
		_ = c.Close()
		return nil, err
	}
	return idx, nil
}

func newIndex(s store, cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: milvus dimensions must be positive", domain.ErrConfiguration)
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.HNSWM == 0 {
		cfg.HNSWM = DefaultHNSWM
	}
	if cfg.EfConstruction == 0 {
		cfg.EfConstruction = DefaultEfConstruction
	}
	return &Index{
		store:      s,
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
		hnswM:      cfg.HNSWM,
		efBuild:    cfg.EfConstruction,
	}, nil
}

// EnsureCollection creates and indexes the collection if needed, then loads it.
func (i *Index) EnsureCollection(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "milvus.EnsureCollection",
		trace.WithAttributes(attribute.String("collection", i.collection)))
	defer span.End()

	has, err := i.store.HasCollection(ctx, i.collection)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: check collection: %v", domain.ErrVectorIndexUnavailable, err)
	}

	if !has {
		logger.Info("Creating milvus collection %s (%d dims)", i.collection, i.dimensions)
		if err := i.store.CreateCollection(ctx, ChunkSchema(i.collection, i.dimensions)); err != nil {
			span.RecordError(err)
			return fmt.Errorf("%w: create collection: %v", domain.ErrVectorIndexUnavailable, err)
		}

		hnsw, err := entity.NewIndexHNSW(entity.COSINE, i.hnswM, i.efBuild)
		if err != nil {
			span.RecordError(err)
			return fmt.Errorf("%w: build index params: %v", domain.ErrConfiguration, err)
		}
		if err := i.store.CreateIndex(ctx, i.collection, fieldVector, hnsw); err != nil {
			span.RecordError(err)
			return fmt.Errorf("%w: create index: %v", domain.ErrVectorIndexUnavailable, err)
		}
	}

	if err := i.store.LoadCollection(ctx, i.collection); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: load collection: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Upsert stores or replaces the vector for a chunk.
func (i *Index) Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error {
	if len(vector) != i.dimensions {
		return fmt.Errorf("%w: vector dimension %d, collection expects %d",
			domain.ErrInvalidInput, len(vector), i.dimensions)
	}

	ctx, span := tracer.Start(ctx, "milvus.Upsert",
		trace.WithAttributes(
			attribute.String("collection", i.collection),
			attribute.String("chunk_id", chunk.ID),
		))
	defer span.End()

	err := i.store.Upsert(ctx, i.collection,
		entity.NewColumnVarChar(fieldID, []string{chunk.ID}),
		entity.NewColumnFloatVector(fieldVector, i.dimensions, [][]float32{vector}),
		entity.NewColumnVarChar(fieldDocumentID, []string{chunk.DocumentID}),
		entity.NewColumnVarChar(fieldSource, []string{chunk.Source}),
		entity.NewColumnVarChar(fieldTitle, []string{chunk.Title}),
		entity.NewColumnVarChar(fieldSection, []string{chunk.Section}),
		entity.NewColumnInt64(fieldPosition, []int64{int64(chunk.Position)}),
		entity.NewColumnInt64(fieldCharStart, []int64{int64(chunk.CharStart)}),
		entity.NewColumnInt64(fieldCharEnd, []int64{int64(chunk.CharEnd)}),
		entity.NewColumnVarChar(fieldContent, []string{chunk.Content}),
	)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: upsert: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Search returns up to k nearest chunks, most similar first.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	ctx, span := tracer.Start(ctx, "milvus.Search",
		trace.WithAttributes(
			attribute.String("collection", i.collection),
			attribute.Int("top_k", k),
		))
	defer span.End()

	results, err := i.store.Search(ctx, i.collection, query, k)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%w: search: %v", domain.ErrVectorIndexUnavailable, err)
	}

	hits := []driven.VectorHit{}
	for _, result := range results {
		for n := 0; n < result.ResultCount; n++ {
			hits = append(hits, driven.VectorHit{
				Chunk:      chunkAt(result.Fields, n),
				Similarity: float64(result.Scores[n]),
			})
		}
	}

	span.SetAttributes(attribute.Int("result_count", len(hits)))
	return hits, nil
}

func chunkAt(fields client.ResultSet, n int) domain.Chunk {
	str := func(name string) string {
		if col, ok := fields.GetColumn(name).(*entity.ColumnVarChar); ok && n < col.Len() {
			return col.Data()[n]
		}
		return ""
	}
	num := func(name string) int {
		if col, ok := fields.GetColumn(name).(*entity.ColumnInt64); ok && n < col.Len() {
			return int(col.Data()[n])
		}
		return 0
	}
	return domain.Chunk{
		ID:         str(fieldID),
		DocumentID: str(fieldDocumentID),
		Position:   num(fieldPosition),
		Section:    str(fieldSection),
		Content:    str(fieldContent),
		CharStart:  num(fieldCharStart),
		CharEnd:    num(fieldCharEnd),
		Source:     str(fieldSource),
		Title:      str(fieldTitle),
	}
}

// DeleteDocument removes every chunk belonging to a document.
func (i *Index) DeleteDocument(ctx context.Context, documentID string) error {
	ctx, span := tracer.Start(ctx, "milvus.DeleteDocument",
		trace.WithAttributes(attribute.String("document_id", documentID)))
	defer span.End()

	expr := fieldDocumentID + " == " + strconv.Quote(documentID)
	if err := i.store.Delete(ctx, i.collection, expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: delete: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// DeleteChunks removes the given chunks by primary key.
func (i *Index) DeleteChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	ctx, span := tracer.Start(ctx, "milvus.DeleteChunks",
		trace.WithAttributes(attribute.Int("chunks", len(chunkIDs))))
	defer span.End()

	quoted := make([]string, len(chunkIDs))
	for n, id := range chunkIDs {
		quoted[n] = strconv.Quote(id)
	}
	expr := fieldID + " in [" + strings.Join(quoted, ", ") + "]"
	if err := i.store.Delete(ctx, i.collection, expr); err != nil {
		span.RecordError(err)
		return fmt.Errorf("%w: delete chunks: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Close releases the client connection.
func (i *Index) Close() error {
	return i.store.Close()
}
