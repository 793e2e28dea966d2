package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.ProviderValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateProvider builds the provider for role and pings it.
// Cohere has no ping endpoint, so rerank settings are only built.
func (v *ConfigValidator) ValidateProvider(ctx context.Context, role string, settings domain.ProviderSettings) error {
	if !settings.IsConfigured() {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	switch role {
	case RoleEmbedding:
		svc, err := CreateEmbeddingService(settings)
		if err != nil {
			return err
		}
		defer svc.Close()
		return svc.Ping(ctx)

	case RoleLLM:
		svc, err := CreateLLMService(settings)
		if err != nil {
			return err
		}
		defer svc.Close()
		return svc.Ping(ctx)

	case RoleRerank:
		_, err := CreateReranker(settings)
		return err

	default:
		return fmt.Errorf("%w: unknown provider role %q", domain.ErrInvalidInput, role)
	}
}
