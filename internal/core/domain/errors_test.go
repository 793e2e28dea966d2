package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrUnsupportedFormat", ErrUnsupportedFormat},
		{"ErrConfiguration", ErrConfiguration},
		{"ErrInvalidArgument", ErrInvalidArgument},
		{"ErrRetrievalUnavailable", ErrRetrievalUnavailable},
		{"ErrGenerationUnavailable", ErrGenerationUnavailable},
		{"ErrRerankUnavailable", ErrRerankUnavailable},
		{"ErrLLMUnavailable", ErrLLMUnavailable},
		{"ErrEmbeddingUnavailable", ErrEmbeddingUnavailable},
		{"ErrVectorIndexUnavailable", ErrVectorIndexUnavailable},
		{"ErrFileTooLarge", ErrFileTooLarge},
		{"ErrEmptyDocument", ErrEmptyDocument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Wrapping(t *testing.T) {
	wrapped := fmt.Errorf("%w: embed query: connection refused", ErrRetrievalUnavailable)

	assert.True(t, errors.Is(wrapped, ErrRetrievalUnavailable))
	assert.False(t, errors.Is(wrapped, ErrGenerationUnavailable))
	assert.Contains(t, wrapped.Error(), "retrieval unavailable")
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrConfiguration, ErrInvalidArgument))
	assert.False(t, errors.Is(ErrRerankUnavailable, ErrRetrievalUnavailable))
}
