// Package tui provides an interactive terminal user interface for sercha-rag.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Query answers questions with citations.
	Query driving.QueryService

	// Documents lists and reads indexed documents.
	Documents driving.DocumentService
}

// NewPorts creates a new Ports aggregate with the given services.
func NewPorts(query driving.QueryService, documents driving.DocumentService) *Ports {
	return &Ports{Query: query, Documents: documents}
}

// Validate ensures all required ports are set.
// Returns an error if any port is nil.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Query == nil {
		return ErrMissingQueryService
	}
	if p.Documents == nil {
		return ErrMissingDocumentService
	}
	return nil
}
