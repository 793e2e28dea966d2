package mcp

import (
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Ports holds the services the MCP server exposes.
type Ports struct {
	// Query answers questions. Required.
	Query driving.QueryService

	// Documents manages uploaded documents.
	Documents driving.DocumentService

	// Evaluation and Pipeline back the evaluate tool.
	Evaluation driving.EvaluationService
	Pipeline   driving.Pipeline

	// Version is reported to clients during initialisation.
	Version string
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p == nil || p.Query == nil {
		return ErrMissingQueryService
	}
	return nil
}
