// Package qdrant provides a vector index backed by the Qdrant REST API.
package qdrant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultURL        = "http://localhost:6333"
	DefaultCollection = "sercha_rag_chunks"
	DefaultTimeout    = 15 * time.Second
)

// pointNamespace derives stable point UUIDs from chunk IDs, since Qdrant
// only accepts unsigned integers or UUIDs as point IDs.
var pointNamespace = uuid.MustParse("6f1c1f4e-5a8b-4b0e-9d3c-2f0a7e1b8c55")

// Config holds configuration for the Qdrant index.
type Config struct {
	// URL is the Qdrant HTTP endpoint (default: http://localhost:6333).
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name.
	Collection string

	// Dimensions is the vector size used when creating the collection.
	Dimensions int

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration
}

// Index stores chunk vectors in a Qdrant collection with cosine distance.
type Index struct {
	client     *httpjson.Client
	base       string
	collection string
	dimensions int
}

type payload struct {
	ChunkID    string `json:"chunk_id"`
	DocumentID string `json:"document_id"`
	Source     string `json:"source"`
	Title      string `json:"title"`
	Section    string `json:"section"`
	Position   int    `json:"position"`
	CharStart  int    `json:"char_start"`
	CharEnd    int    `json:"char_end"`
	Content    string `json:"content"`
}

type point struct {
	ID      string    `json:"id"`
	Vector  []float32 `json:"vector"`
	Payload payload   `json:"payload"`
}

type searchRequest struct {
	Vector      []float32 `json:"vector"`
	Limit       int       `json:"limit"`
	WithPayload bool      `json:"with_payload"`
}

type searchResponse struct {
	Result []struct {
		Score   float64 `json:"score"`
		Payload payload `json:"payload"`
	} `json:"result"`
}

type matchFilter struct {
	Must []fieldMatch `json:"must"`
}

type fieldMatch struct {
	Key   string `json:"key"`
	Match struct {
		Value string `json:"value"`
	} `json:"match"`
}

// New creates a Qdrant index. Call EnsureCollection before first use.
func New(cfg Config) (*Index, error) {
	if cfg.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: qdrant dimensions must be positive", domain.ErrConfiguration)
	}
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	var headers map[string]string
	if cfg.APIKey != "" {
		headers = map[string]string{"api-key": cfg.APIKey}
	}

	return &Index{
		client:     httpjson.New("qdrant", cfg.Timeout, headers),
		base:       strings.TrimSuffix(cfg.URL, "/") + "/collections/" + url.PathEscape(cfg.Collection),
		collection: cfg.Collection,
		dimensions: cfg.Dimensions,
	}, nil
}

// EnsureCollection creates the collection if it does not exist.
func (i *Index) EnsureCollection(ctx context.Context) error {
	err := i.client.Get(ctx, i.base, nil)
	if err == nil {
		return nil
	}
	var statusErr *httpjson.StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusNotFound {
		return fmt.Errorf("%w: %v", domain.ErrVectorIndexUnavailable, err)
	}

	logger.Info("Creating qdrant collection %s (%d dims)", i.collection, i.dimensions)
	body := map[string]any{
		"vectors": map[string]any{
			"size":     i.dimensions,
			"distance": "Cosine",
		},
	}
	if err := i.client.Do(ctx, http.MethodPut, i.base, body, nil); err != nil {
		return fmt.Errorf("%w: create collection: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// PointID returns the Qdrant point ID for a chunk.
func PointID(chunkID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(chunkID)).String()
}

// Upsert stores or replaces the vector for a chunk.
func (i *Index) Upsert(ctx context.Context, chunk domain.Chunk, vector []float32) error {
	if len(vector) != i.dimensions {
		return fmt.Errorf("%w: vector dimension %d, collection expects %d",
			domain.ErrInvalidInput, len(vector), i.dimensions)
	}

	body := map[string]any{"points": []point{{
		ID:     PointID(chunk.ID),
		Vector: vector,
		Payload: payload{
			ChunkID:    chunk.ID,
			DocumentID: chunk.DocumentID,
			Source:     chunk.Source,
			Title:      chunk.Title,
			Section:    chunk.Section,
			Position:   chunk.Position,
			CharStart:  chunk.CharStart,
			CharEnd:    chunk.CharEnd,
			Content:    chunk.Content,
		},
	}}}
	if err := i.client.Do(ctx, http.MethodPut, i.base+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("%w: upsert: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Search returns up to k nearest chunks, most similar first.
func (i *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if k <= 0 {
		return []driven.VectorHit{}, nil
	}

	var resp searchResponse
	req := searchRequest{Vector: query, Limit: k, WithPayload: true}
	if err := i.client.Post(ctx, i.base+"/points/search", req, &resp); err != nil {
		return nil, fmt.Errorf("%w: search: %v", domain.ErrVectorIndexUnavailable, err)
	}

	hits := make([]driven.VectorHit, 0, len(resp.Result))
	for _, r := range resp.Result {
		p := r.Payload
		hits = append(hits, driven.VectorHit{
			Chunk: domain.Chunk{
				ID:         p.ChunkID,
				DocumentID: p.DocumentID,
				Position:   p.Position,
				Section:    p.Section,
				Content:    p.Content,
				CharStart:  p.CharStart,
				CharEnd:    p.CharEnd,
				Source:     p.Source,
				Title:      p.Title,
			},
			Similarity: r.Score,
		})
	}
	return hits, nil
}

// DeleteDocument removes every point whose payload names the document.
func (i *Index) DeleteDocument(ctx context.Context, documentID string) error {
	match := fieldMatch{Key: "document_id"}
	match.Match.Value = documentID
	body := map[string]any{"filter": matchFilter{Must: []fieldMatch{match}}}

	if err := i.client.Post(ctx, i.base+"/points/delete?wait=true", body, nil); err != nil {
		return fmt.Errorf("%w: delete: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// DeleteChunks removes the given chunks by point ID.
func (i *Index) DeleteChunks(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	points := make([]string, len(chunkIDs))
	for n, id := range chunkIDs {
		points[n] = PointID(id)
	}
	if err := i.client.Post(ctx, i.base+"/points/delete?wait=true", map[string]any{"points": points}, nil); err != nil {
		return fmt.Errorf("%w: delete chunks: %v", domain.ErrVectorIndexUnavailable, err)
	}
	return nil
}

// Close releases resources.
func (i *Index) Close() error {
	return nil
}
