package driven

import "context"

// Reranker scores query/document pairs with a cross-relevance model.
type Reranker interface {
	// Score returns one relevance score per document, in input order.
	Score(ctx context.Context, query string, documents []string) ([]float64, error)

	// ModelName returns the model identifier.
	ModelName() string
}
