package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/config/file"
	metrics "github.com/custodia-labs/sercha-rag/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/httpapi"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/services"
	"github.com/custodia-labs/sercha-rag/internal/logger"
	"github.com/custodia-labs/sercha-rag/internal/normalisers"
	"github.com/custodia-labs/sercha-rag/internal/postprocessors"
)

// rerankTimeout bounds a single rerank call before the pipeline falls
// back to similarity order.
const rerankTimeout = 10 * time.Second

// bootstrap wires adapters into services. Provider problems are reported
// as warnings so settings commands keep working with a broken config.
func bootstrap(ctx context.Context, p paths, getenv func(string) string) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(p.ConfigDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	applyEnv(settings, getenv)

	var warnings []string
	if err := settings.Pipeline.Validate(); err != nil {
		warnings = append(warnings, fmt.Sprintf("%v; using default pipeline settings", err))
		settings.Pipeline = domain.DefaultAppSettings().Pipeline
	}

	store, err := openStores(p.DataDir, isTrue(getenv(ephemeralEnv)))
	if err != nil {
		warnings = append(warnings, fmt.Sprintf("%v; documents will not persist", err))
	}

	prompts, err := file.NewPromptStore(p.PromptDir, map[string]string{
		driven.PromptAnswer: services.DefaultAnswerPrompt,
	})
	if err != nil {
		store.close()
		return nil, nil, fmt.Errorf("open prompts: %w", err)
	}

	providers := ai.Init(ctx, settings, ai.Options{Snapshot: store.snapshot})
	warnings = append(warnings, providers.Warnings...)

	pipeline, err := postprocessors.NewRegistry().Build(settings.Pipeline)
	if err != nil {
		providers.Close()
		store.close()
		return nil, nil, fmt.Errorf("build pipeline: %w", err)
	}

	recorder := metrics.New()
	cfg := settings.Pipeline

	retriever := services.NewRetriever(providers.EmbeddingService, providers.VectorIndex, cfg.MaxTopK)
	reranker := services.NewReranker(providers.Reranker, rerankTimeout)
	composer := services.NewComposer(providers.LLMService, prompts, services.ComposerConfig{
		MaxTokens:       cfg.MaxOutputTokens,
		Temperature:     cfg.Temperature,
		NoAnswerPhrases: cfg.NoAnswerPhrases,
		InputCostPer1K:  cfg.InputCostPer1K,
		OutputCostPer1K: cfg.OutputCostPer1K,
	})

	queryService := services.NewQueryService(retriever, reranker, composer)
	queryService.SetDefaults(cfg.RetrievalTopK, cfg.RerankTopK)
	queryService.SetMetrics(recorder)

	documentService := services.NewDocumentService(
		normalisers.Default(),
		pipeline,
		providers.EmbeddingService,
		providers.VectorIndex,
		store.documents,
		cfg.MaxFileSizeBytes(),
	)
	documentService.SetMetrics(recorder)

	evaluationService := services.NewEvaluationService(store.evaluations, services.EvaluationConfig{
		InterCaseDelay: settings.Evaluation.InterCaseDelay,
		CaseTimeout:    cfg.QueryTimeout,
		FailurePhrases: settings.Evaluation.FailurePhrases,
		TopK:           cfg.RetrievalTopK,
		RerankTopK:     cfg.RerankTopK,
	})

	logger.Debug("bootstrap: store=%s vector=%s fallback=%t",
		store.location, settings.Vector.Backend, providers.FellBack)

	svcs := &cli.Services{
		Query:      queryService,
		Documents:  documentService,
		Evaluation: evaluationService,
		Settings:   settingsService,
		Pipeline:   queryService.Pipeline(),
		Validator:  ai.NewConfigValidator(),
		Metrics:    recorder,
		Checks:     readyChecks(store, providers),
		Warnings:   warnings,
	}

	cleanup := func() {
		providers.Close()
		store.close()
	}
	return svcs, cleanup, nil
}

// readyChecks reports whether the store and the providers the pipeline
// depends on can serve a request.
func readyChecks(store *stores, providers *ai.InitResult) map[string]httpapi.Check {
	checks := map[string]httpapi.Check{
		"store": store.ping,
		"vector_index": func(context.Context) error {
			if providers.VectorIndex == nil {
				return domain.ErrVectorIndexUnavailable
			}
			return nil
		},
	}

	checks["embedding"] = func(ctx context.Context) error {
		if providers.EmbeddingService == nil {
			return domain.ErrEmbeddingUnavailable
		}
		return providers.EmbeddingService.Ping(ctx)
	}
	checks["llm"] = func(ctx context.Context) error {
		if providers.LLMService == nil {
			return domain.ErrLLMUnavailable
		}
		return providers.LLMService.Ping(ctx)
	}
	return checks
}

// ephemeralEnv keeps documents and evaluation reports in memory only.
const ephemeralEnv = "SERCHA_RAG_EPHEMERAL"

// stores are the persistence ports shared by the services.
type stores struct {
	documents   driven.DocumentStore
	evaluations driven.EvaluationStore
	snapshot    driven.VectorSnapshotStore // nil when in memory
	location    string

	db *sqlite.Store
}

// openStores opens the SQLite registry under dataDir. When ephemeral is
// set, or the database cannot be opened, the in-memory stores are used
// instead; the returned error explains the fallback.
func openStores(dataDir string, ephemeral bool) (*stores, error) {
	mem := &stores{
		documents:   memory.NewDocumentStore(),
		evaluations: memory.NewEvaluationStore(),
		location:    "memory",
	}
	if ephemeral {
		return mem, nil
	}

	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return mem, fmt.Errorf("open store: %w", err)
	}
	return &stores{
		documents:   db.DocumentStore(),
		evaluations: db.EvaluationStore(),
		snapshot:    db.VectorSnapshotStore(),
		location:    db.Path(),
		db:          db,
	}, nil
}

func (s *stores) ping(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	_, err := s.db.SchemaVersion(ctx)
	return err
}

func (s *stores) close() {
	if s.db == nil {
		return
	}
	if err := s.db.Close(); err != nil {
		logger.Warn("close store: %v", err)
	}
}

func isTrue(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
