package driven

import (
	"context"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// LLMService generates text from a prompt.
type LLMService interface {
	// Generate produces a completion for prompt. Usage is nil when the
	// provider does not report token counts.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (*Generation, error)

	// ModelName returns the model identifier.
	ModelName() string

	// Ping validates the service is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateOptions configures text generation.
type GenerateOptions struct {
	// MaxTokens limits the response length.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// StopWords halt generation when encountered.
	StopWords []string
}

// Generation is the output of one Generate call.
type Generation struct {
	Text  string
	Usage *domain.TokenUsage
}
