package httpapi

import (
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

type queryRequest struct {
	Query      string `json:"query" binding:"required"`
	TopK       *int   `json:"top_k"`
	RerankTopK *int   `json:"rerank_top_k"`
}

// queryResponse is an answer with its timing breakdown in seconds.
type queryResponse struct {
	Answer         string             `json:"answer"`
	Citations      []domain.Citation  `json:"citations"`
	Sources        []domain.Source    `json:"sources"`
	RetrievalTime  float64            `json:"retrieval_time"`
	RerankTime     float64            `json:"rerank_time"`
	LLMTime        float64            `json:"llm_time"`
	TotalTime      float64            `json:"total_time"`
	TokenUsage     *domain.TokenUsage `json:"token_usage,omitempty"`
	EstimatedCost  *float64           `json:"estimated_cost,omitempty"`
	RerankDegraded bool               `json:"rerank_degraded"`
}

func newQueryResponse(r *domain.AnswerResult) queryResponse {
	resp := queryResponse{
		Answer:         r.Answer,
		Citations:      r.Citations,
		Sources:        r.Sources,
		RetrievalTime:  seconds(r.RetrievalTime),
		RerankTime:     seconds(r.RerankTime),
		LLMTime:        seconds(r.LLMTime),
		TotalTime:      seconds(r.TotalTime),
		TokenUsage:     r.TokenUsage,
		EstimatedCost:  r.EstimatedCost,
		RerankDegraded: r.RerankDegraded,
	}
	if resp.Citations == nil {
		resp.Citations = []domain.Citation{}
	}
	if resp.Sources == nil {
		resp.Sources = []domain.Source{}
	}
	return resp
}

func seconds(d time.Duration) float64 {
	return d.Seconds()
}

type documentResponse struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Source     string    `json:"source"`
	MIMEType   string    `json:"mime_type,omitempty"`
	ChunkCount int       `json:"chunk_count"`
	CreatedAt  time.Time `json:"created_at"`
}

func newDocumentResponse(d *domain.Document) documentResponse {
	return documentResponse{
		ID:         d.ID,
		Title:      d.Title,
		Source:     d.Source,
		MIMEType:   d.MIMEType,
		ChunkCount: d.ChunkCount,
		CreatedAt:  d.CreatedAt,
	}
}

type chunkResponse struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
	Section  string `json:"section"`
	Content  string `json:"content"`
}

type documentDetailResponse struct {
	documentResponse
	Chunks []chunkResponse `json:"chunks"`
}
