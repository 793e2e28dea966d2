// Package cohere provides a reranker adapter using the Cohere rerank API.
package cohere

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/httpjson"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure Reranker implements the interface.
var _ driven.Reranker = (*Reranker)(nil)

// Default configuration values.
const (
	DefaultBaseURL           = "https://api.cohere.com"
	DefaultModel             = "rerank-english-v3.0"
	DefaultTimeout           = 15 * time.Second
	DefaultRequestsPerSecond = 2.0
	DefaultBurst             = 5
	DefaultBackoff           = 30 * time.Second
)

// ErrRateLimited is returned while a 429 backoff is in effect.
var ErrRateLimited = errors.New("cohere: rate limited")

// Config holds configuration for the Cohere reranker.
type Config struct {
	// APIKey is the Cohere API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.cohere.com).
	BaseURL string

	// Model is the rerank model (default: rerank-english-v3.0).
	Model string

	// Timeout is the request timeout (default: 15s).
	Timeout time.Duration

	// RequestsPerSecond and Burst configure client-side throttling.
	RequestsPerSecond float64
	Burst             int

	// Backoff is how long to stop calling the API after a 429 (default: 30s).
	Backoff time.Duration
}

// Reranker scores documents against a query with Cohere.
type Reranker struct {
	client  *httpjson.Client
	baseURL string
	model   string
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

type rerankRequest struct {
	Model     string   `json:"model"`
	Query     string   `json:"query"`
	Documents []string `json:"documents"`
	TopN      int      `json:"top_n"`
}

type rerankResponse struct {
	Results []struct {
		Index          int     `json:"index"`
		RelevanceScore float64 `json:"relevance_score"`
	} `json:"results"`
}

// New creates a Cohere reranker.
func New(cfg Config) (*Reranker, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cohere: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = DefaultBackoff
	}

	return &Reranker{
		client:  httpjson.New("cohere", cfg.Timeout, map[string]string{"Authorization": "Bearer " + cfg.APIKey}),
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		model:   cfg.Model,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		backoff: cfg.Backoff,
		now:     time.Now,
	}, nil
}

// Score returns one relevance score per document, in input order.
// During a 429 backoff it fails fast instead of waiting.
func (r *Reranker) Score(ctx context.Context, query string, documents []string) ([]float64, error) {
	if len(documents) == 0 {
		return []float64{}, nil
	}

	r.mu.Lock()
	retryAt := r.retryAt
	r.mu.Unlock()
	if r.now().Before(retryAt) {
		return nil, fmt.Errorf("%w until %s", ErrRateLimited, retryAt.Format(time.RFC3339))
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("cohere: throttle: %w", err)
	}

	req := rerankRequest{
		Model:     r.model,
		Query:     query,
		Documents: documents,
		TopN:      len(documents),
	}

	var resp rerankResponse
	if err := r.client.Post(ctx, r.baseURL+"/v1/rerank", req, &resp); err != nil {
		var statusErr *httpjson.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusTooManyRequests {
			r.mu.Lock()
			r.retryAt = r.now().Add(r.backoff)
			r.mu.Unlock()
		}
		return nil, err
	}

	scores := make([]float64, len(documents))
	seen := make([]bool, len(documents))
	for _, res := range resp.Results {
		if res.Index < 0 || res.Index >= len(documents) {
			return nil, fmt.Errorf("cohere: result index %d out of range", res.Index)
		}
		scores[res.Index] = res.RelevanceScore
		seen[res.Index] = true
	}
	for i, ok := range seen {
		if !ok {
			return nil, fmt.Errorf("cohere: no score for document %d", i)
		}
	}
	return scores, nil
}

// ModelName returns the rerank model.
func (r *Reranker) ModelName() string {
	return r.model
}
