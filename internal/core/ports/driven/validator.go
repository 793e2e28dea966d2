package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ProviderValidator checks that a provider configuration can be reached
// before it is saved.
type ProviderValidator interface {
	// ValidateProvider builds a client for the role ("embedding", "llm" or
	// "rerank") and pings it. Unconfigured settings validate as nil.
	ValidateProvider(ctx context.Context, role string, settings domain.ProviderSettings) error
}
