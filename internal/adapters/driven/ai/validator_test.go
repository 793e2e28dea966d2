package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
)

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.ProviderValidator = (*ConfigValidator)(nil)
}

func TestConfigValidator_UnconfiguredIsValid(t *testing.T) {
	v := NewConfigValidator()
	require.NotNil(t, v)

	assert.NoError(t, v.ValidateProvider(context.Background(), RoleLLM, domain.ProviderSettings{}))
}

func TestConfigValidator_PingsProvider(t *testing.T) {
	ctx := context.Background()
	v := NewConfigValidator()

	ok := newOllamaServer(t, http.StatusOK)
	down := newOllamaServer(t, http.StatusServiceUnavailable)

	for _, role := range []string{RoleEmbedding, RoleLLM} {
		t.Run(role, func(t *testing.T) {
			settings := domain.ProviderSettings{Provider: domain.AIProviderOllama, Model: "m", BaseURL: ok.URL}
			assert.NoError(t, v.ValidateProvider(ctx, role, settings))

			settings.BaseURL = down.URL
			err := v.ValidateProvider(ctx, role, settings)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "503")
		})
	}
}

func TestConfigValidator_Rerank(t *testing.T) {
	v := NewConfigValidator()

	err := v.ValidateProvider(context.Background(), RoleRerank,
		domain.ProviderSettings{Provider: domain.AIProviderGemini, APIKey: "k"})
	assert.ErrorIs(t, err, domain.ErrConfiguration)

	err = v.ValidateProvider(context.Background(), RoleRerank,
		domain.ProviderSettings{Provider: domain.AIProviderCohere, APIKey: "k"})
	assert.NoError(t, err)
}

func TestConfigValidator_UnknownRole(t *testing.T) {
	v := NewConfigValidator()

	err := v.ValidateProvider(context.Background(), "vector",
		domain.ProviderSettings{Provider: domain.AIProviderOllama})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
