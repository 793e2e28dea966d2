// Package ai provides factory functions for creating AI service and
// vector index adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	ollamaembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-rag/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/anthropic"
	geminillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-rag/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/rerank/cohere"
	memoryvec "github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/milvus"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/vector/qdrant"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Provider roles, matching the settings key prefixes.
const (
	RoleEmbedding = "embedding"
	RoleLLM       = "llm"
	RoleRerank    = "rerank"
)

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService
	Reranker         driven.Reranker
	VectorIndex      driven.VectorIndex
	Warnings         []string // Non-fatal issues that left a service unset.
	FellBack         bool     // True if the vector index fell back to memory.
}

// Options controls Init.
type Options struct {
	// Snapshot persists the in-memory vector index. Nil keeps it ephemeral.
	Snapshot driven.VectorSnapshotStore

	// Validate pings the embedding and LLM providers during Init.
	Validate bool
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.VectorIndex != nil {
		r.VectorIndex.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Init builds every provider named in settings. Provider failures become
// warnings and leave the service nil so the pipeline can report it as
// unavailable. A remote vector backend that cannot be reached falls back
// to the in-memory index.
func Init(ctx context.Context, settings *domain.AppSettings, opts Options) *InitResult {
	result := &InitResult{}

	create := CreateEmbeddingService
	createLLM := CreateLLMService
	if opts.Validate {
		create = CreateAndValidateEmbeddingService
		createLLM = CreateAndValidateLLMService
	}

	embedder, err := create(settings.Embedding)
	if err != nil {
		result.warn(err.Error())
	} else if embedder == nil {
		result.warn("embedding provider not configured. Run 'sercha-rag settings provider embedding <provider>'")
	}
	result.EmbeddingService = embedder

	llm, err := createLLM(settings.LLM)
	if err != nil {
		result.warn(err.Error())
	} else if llm == nil {
		result.warn("LLM provider not configured. Run 'sercha-rag settings provider llm <provider>'")
	}
	result.LLMService = llm

	reranker, err := CreateReranker(settings.Rerank)
	if err != nil {
		result.warn(err.Error())
	}
	result.Reranker = reranker

	dims := settings.Vector.Dimensions
	if dims == 0 && embedder != nil {
		dims = embedder.Dimensions()
	}
	index, err := CreateVectorIndex(ctx, settings.Vector, dims, opts.Snapshot)
	if err != nil && settings.Vector.Backend != domain.VectorBackendMemory {
		result.warn(fmt.Sprintf("%v; using in-memory vector index", err))
		result.FellBack = true
		index, err = CreateVectorIndex(ctx, domain.VectorSettings{Backend: domain.VectorBackendMemory}, dims, opts.Snapshot)
	}
	if err != nil {
		result.warn(err.Error())
	}
	result.VectorIndex = index

	for _, w := range result.Warnings {
		logger.Warn("%s", w)
	}
	return result
}

func (r *InitResult) warn(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(settings domain.ProviderSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil || svc == nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'sercha-rag settings list' to check",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateLLMService(settings domain.ProviderSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil || svc == nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'sercha-rag settings list' to check",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(settings domain.ProviderSettings) (driven.EmbeddingService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		svc, err := createOpenAIEmbedding(settings)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
		}
		return svc, nil

	default:
		return nil, fmt.Errorf("%w: %s does not support embeddings, use ollama or openai",
			domain.ErrConfiguration, settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings domain.ProviderSettings) (driven.LLMService, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}

	var (
		svc driven.LLMService
		err error
	)
	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		svc, err = openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		svc, err = anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderGemini:
		svc, err = geminillm.NewLLMService(geminillm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	default:
		return nil, fmt.Errorf("%w: %s does not support generation", domain.ErrConfiguration, settings.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLLMUnavailable, err)
	}
	return svc, nil
}

// CreateReranker creates the rerank provider. Returns nil if it is not
// configured, in which case the pipeline keeps retrieval order.
func CreateReranker(settings domain.ProviderSettings) (driven.Reranker, error) {
	if !settings.IsConfigured() {
		return nil, nil
	}
	if settings.Provider != domain.AIProviderCohere {
		return nil, fmt.Errorf("%w: %s does not support reranking, use cohere",
			domain.ErrConfiguration, settings.Provider)
	}

	r, err := cohere.New(cohere.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrRerankUnavailable, err)
	}
	return r, nil
}

// CreateVectorIndex creates the vector index for the configured backend.
// dims is the embedding size; zero lets the memory index take it from the
// first vector. snapshot is only used by the memory backend.
func CreateVectorIndex(
	ctx context.Context,
	settings domain.VectorSettings,
	dims int,
	snapshot driven.VectorSnapshotStore,
) (driven.VectorIndex, error) {
	switch settings.Backend {
	case domain.VectorBackendMemory, "":
		if snapshot == nil {
			return memoryvec.New(dims), nil
		}
		idx, err := memoryvec.NewWithSnapshot(ctx, dims, snapshot)
		if err != nil {
			return nil, err
		}
		return idx, nil

	case domain.VectorBackendQdrant:
		idx, err := qdrant.New(qdrant.Config{
			URL:        settings.Address,
			APIKey:     settings.APIKey,
			Collection: settings.Collection,
			Dimensions: dims,
		})
		if err != nil {
			return nil, err
		}
		if err := idx.EnsureCollection(ctx); err != nil {
			return nil, err
		}
		return idx, nil

	case domain.VectorBackendMilvus:
		idx, err := milvus.New(ctx, milvus.Config{
			Address:    settings.Address,
			Password:   settings.APIKey,
			Collection: settings.Collection,
			Dimensions: dims,
		})
		if err != nil {
			return nil, err
		}
		return idx, nil

	default:
		return nil, fmt.Errorf("%w: unknown vector backend %q", domain.ErrConfiguration, settings.Backend)
	}
}

func createOllamaEmbedding(settings domain.ProviderSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

func createOpenAIEmbedding(settings domain.ProviderSettings) (driven.EmbeddingService, error) {
	dimensions := domain.EmbeddingDimensions()[settings.Model]

	return openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:     settings.APIKey,
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}
