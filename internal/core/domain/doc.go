// Package domain defines the core business entities for sercha-rag.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An uploaded document and its extracted text
//   - Chunk: A retrievable segment of a document
//   - ScoredCandidate / RerankedCandidate: Retrieval and rerank output
//   - Citation / AnswerResult: A grounded answer and its verified references
//   - GoldCase / EvaluationReport: The answer quality harness
//
// Citation extraction lives here as a pure function so every surface
// resolves markers identically.
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
