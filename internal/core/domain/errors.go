package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates no normaliser can extract text from an upload.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// Pipeline Errors.

	// ErrConfiguration indicates invalid pipeline configuration such as
	// a chunk overlap that is not smaller than the chunk size.
	// Configuration errors are fatal and never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidArgument indicates an argument outside its permitted range,
	// for example a top_k of zero.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrRetrievalUnavailable indicates the embedding provider or vector
	// index could not be reached. Surfaced to the caller as a query failure.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")

	// ErrGenerationUnavailable indicates the generation provider failed.
	// Surfaced to the caller as a query failure.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrRerankUnavailable indicates the rerank provider failed.
	// It never leaves the reranker: a failed rerank degrades to
	// similarity order instead.
	ErrRerankUnavailable = errors.New("rerank unavailable")

	// Provider Errors.

	// ErrLLMUnavailable indicates the LLM service is not configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index is not configured.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// Upload Errors.

	// ErrFileTooLarge indicates an upload exceeds the configured size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyDocument indicates no text could be extracted from an upload.
	ErrEmptyDocument = errors.New("document has no text content")
)
