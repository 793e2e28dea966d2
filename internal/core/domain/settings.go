package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings, generation or reranking.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderGemini is Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderCohere is Cohere cloud API, used for reranking.
	AIProviderCohere AIProvider = "cohere"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini, AIProviderCohere:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p != AIProviderOllama
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderGemini:
		return "Google Gemini (cloud)"
	case AIProviderCohere:
		return "Cohere (cloud)"
	default:
		return unknownDescription
	}
}

// ProviderSettings holds connection details for one AI provider.
type ProviderSettings struct {
	// Provider is the service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL overrides the provider endpoint.
	BaseURL string

	// APIKey authenticates cloud providers.
	APIKey string
}

// IsConfigured returns true if the provider is set up.
func (s ProviderSettings) IsConfigured() bool {
	if !s.Provider.IsValid() {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps vectors in process, snapshotted to the local store.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendQdrant uses a Qdrant server over its REST API.
	VectorBackendQdrant VectorBackend = "qdrant"

	// VectorBackendMilvus uses a Milvus server over gRPC.
	VectorBackendMilvus VectorBackend = "milvus"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendQdrant, VectorBackendMilvus:
		return true
	default:
		return false
	}
}

// VectorSettings holds vector index configuration.
type VectorSettings struct {
	Backend    VectorBackend
	Address    string
	APIKey     string
	Collection string

	// Dimensions is the embedding vector size. Zero means take it from the
	// embedding model.
	Dimensions int
}

// PipelineSettings holds the answer pipeline knobs.
type PipelineSettings struct {
	ChunkSize       int
	ChunkOverlap    int
	MaxFileSizeMB   int
	RetrievalTopK   int
	RerankTopK      int
	MaxTopK         int
	MaxOutputTokens int
	Temperature     float64
	QueryTimeout    time.Duration

	// NoAnswerPhrases force an empty citation list when present in an answer.
	NoAnswerPhrases []string

	// InputCostPer1K and OutputCostPer1K price generation tokens in USD.
	InputCostPer1K  float64
	OutputCostPer1K float64
}

// Validate checks the pipeline knobs for values the chunker and
// retriever would reject.
func (p PipelineSettings) Validate() error {
	if p.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrConfiguration, p.ChunkSize)
	}
	if p.ChunkOverlap < 0 || p.ChunkOverlap >= p.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap must be in [0, chunk_size), got %d", ErrConfiguration, p.ChunkOverlap)
	}
	if p.MaxTopK < 1 {
		return fmt.Errorf("%w: max_top_k must be positive, got %d", ErrConfiguration, p.MaxTopK)
	}
	if p.RetrievalTopK < 1 || p.RetrievalTopK > p.MaxTopK {
		return fmt.Errorf("%w: retrieval_top_k_default must be in [1, %d], got %d",
			ErrConfiguration, p.MaxTopK, p.RetrievalTopK)
	}
	if p.RerankTopK < 1 {
		return fmt.Errorf("%w: rerank_top_k_default must be positive, got %d", ErrConfiguration, p.RerankTopK)
	}
	return nil
}

// MaxFileSizeBytes returns the upload limit in bytes.
func (p PipelineSettings) MaxFileSizeBytes() int64 {
	return int64(p.MaxFileSizeMB) * 1024 * 1024
}

// EvaluationSettings holds evaluation harness configuration.
type EvaluationSettings struct {
	// InterCaseDelay is the minimum spacing between case starts.
	InterCaseDelay time.Duration

	// FailurePhrases mark an answer as irrelevant when present.
	FailurePhrases []string
}

// ServerSettings holds HTTP API configuration.
type ServerSettings struct {
	Address        string
	AllowedOrigins []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Pipeline   PipelineSettings
	Evaluation EvaluationSettings
	Embedding  ProviderSettings
	LLM        ProviderSettings
	Rerank     ProviderSettings
	Vector     VectorSettings
	Server     ServerSettings
}

// DefaultNoAnswerPhrases are the phrases the grounding prompt asks the
// generator to use when the context does not support an answer.
func DefaultNoAnswerPhrases() []string {
	return []string{
		"I couldn't find any relevant information",
		"I don't have enough information",
	}
}

// DefaultFailurePhrases are phrases that mark an answer as an apology
// or failure during evaluation.
func DefaultFailurePhrases() []string {
	return []string{
		"couldn't find",
		"don't have enough information",
		"apologize",
		"unable to answer",
		"encountered an error",
	}
}

// DefaultAppSettings returns settings with sensible defaults.
// AI providers are left unconfigured; users set them via the settings
// command or environment variables.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Pipeline: PipelineSettings{
			ChunkSize:       1000,
			ChunkOverlap:    150,
			MaxFileSizeMB:   10,
			RetrievalTopK:   DefaultRetrievalTopK,
			RerankTopK:      DefaultRerankTopK,
			MaxTopK:         100,
			MaxOutputTokens: 1024,
			Temperature:     0.1,
			QueryTimeout:    60 * time.Second,
			NoAnswerPhrases: DefaultNoAnswerPhrases(),
			InputCostPer1K:  0.000075,
			OutputCostPer1K: 0.0003,
		},
		Evaluation: EvaluationSettings{
			InterCaseDelay: time.Second,
			FailurePhrases: DefaultFailurePhrases(),
		},
		Rerank: ProviderSettings{
			Provider: AIProviderCohere,
			Model:    "rerank-english-v3.0",
		},
		Vector: VectorSettings{
			Backend:    VectorBackendMemory,
			Collection: "sercha_rag_chunks",
		},
		Server: ServerSettings{
			Address:        ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI}
}

// AllLLMProviders returns providers that support generation.
func AllLLMProviders() []AIProvider {
	return []AIProvider{AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderGemini}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "nomic-embed-text",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
		AIProviderGemini:    "gemini-1.5-flash",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
