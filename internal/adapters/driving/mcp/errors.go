// Package mcp provides an MCP (Model Context Protocol) server adapter for
// sercha-rag. It lets AI assistants ask grounded questions, add documents
// and run the evaluation battery.
package mcp

import (
	"errors"
	"fmt"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ErrMissingQueryService is returned when the query service is not provided.
var ErrMissingQueryService = errors.New("mcp: query service is required")

// ErrEvaluationUnavailable is returned by the evaluate tool when no
// evaluation service or pipeline is wired.
var ErrEvaluationUnavailable = errors.New("mcp: evaluation is not available")

// toolError turns a service error into the message an assistant sees.
// The SDK reports handler errors as tool results with isError set.
func toolError(tool string, err error) error {
	reason := "internal error"
	switch {
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrInvalidInput):
		reason = "invalid input"
	case errors.Is(err, domain.ErrEmptyDocument):
		reason = "document has no text"
	case errors.Is(err, domain.ErrFileTooLarge):
		reason = "document too large"
	case errors.Is(err, domain.ErrNotFound):
		reason = "not found"
	case errors.Is(err, domain.ErrRetrievalUnavailable), errors.Is(err, domain.ErrEmbeddingUnavailable),
		errors.Is(err, domain.ErrVectorIndexUnavailable):
		reason = "retrieval provider unavailable"
	case errors.Is(err, domain.ErrGenerationUnavailable), errors.Is(err, domain.ErrLLMUnavailable):
		reason = "generation provider unavailable"
	}
	return fmt.Errorf("%s: %s: %w", tool, reason, err)
}
