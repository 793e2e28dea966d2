package domain

import "time"

// Default query parameters.
const (
	DefaultRetrievalTopK = 10
	DefaultRerankTopK    = 5
)

// NoResultsAnswer is returned when retrieval finds nothing to ground an answer.
const NoResultsAnswer = "I couldn't find any relevant information to answer your question. " +
	"Please try rephrasing your query or upload relevant documents."

// QueryRequest is a question to answer from the indexed corpus.
type QueryRequest struct {
	Query      string `json:"query"`
	TopK       int    `json:"top_k"`
	RerankTopK int    `json:"rerank_top_k"`
}

// WithDefaults fills zero-valued limits.
func (r QueryRequest) WithDefaults(topK, rerankTopK int) QueryRequest {
	if r.TopK == 0 {
		r.TopK = topK
	}
	if r.RerankTopK == 0 {
		r.RerankTopK = rerankTopK
	}
	return r
}

// Citation links an inline [n] marker to the source shown at rank n.
type Citation struct {
	Index          int    `json:"index"`
	Source         string `json:"source"`
	Title          string `json:"title"`
	ContentSnippet string `json:"content_snippet"`
}

// Source is a candidate that was shown to the generator.
type Source struct {
	ID          string   `json:"id"`
	Content     string   `json:"content"`
	Source      string   `json:"source"`
	Title       string   `json:"title"`
	Score       float64  `json:"score"`
	RerankScore *float64 `json:"rerank_score,omitempty"`
}

// TokenUsage reports prompt and completion token counts.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// AnswerResult is a grounded answer with its verified citations.
type AnswerResult struct {
	Answer    string     `json:"answer"`
	Citations []Citation `json:"citations"`
	Sources   []Source   `json:"sources"`

	RetrievalTime time.Duration `json:"-"`
	RerankTime    time.Duration `json:"-"`
	LLMTime       time.Duration `json:"-"`
	TotalTime     time.Duration `json:"-"`

	TokenUsage    *TokenUsage `json:"token_usage,omitempty"`
	EstimatedCost *float64    `json:"estimated_cost,omitempty"`

	// RerankDegraded is true when results are in similarity order
	// because the rerank provider failed.
	RerankDegraded bool `json:"rerank_degraded"`
}
