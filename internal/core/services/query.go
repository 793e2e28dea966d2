package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryService runs the answer pipeline: retrieve, rerank, compose.
type QueryService struct {
	retriever *Retriever
	reranker  *Reranker
	composer  *Composer
	metrics   driven.MetricsRecorder

	defaultTopK       int
	defaultRerankTopK int
}

// NewQueryService wires the three pipeline stages.
func NewQueryService(retriever *Retriever, reranker *Reranker, composer *Composer) *QueryService {
	return &QueryService{
		retriever:         retriever,
		reranker:          reranker,
		composer:          composer,
		defaultTopK:       domain.DefaultRetrievalTopK,
		defaultRerankTopK: domain.DefaultRerankTopK,
	}
}

// SetDefaults sets the limits used when a request leaves them zero.
func (s *QueryService) SetDefaults(topK, rerankTopK int) {
	if topK > 0 {
		s.defaultTopK = topK
	}
	if rerankTopK > 0 {
		s.defaultRerankTopK = rerankTopK
	}
}

// SetMetrics sets the telemetry sink. Nil disables metrics.
func (s *QueryService) SetMetrics(m driven.MetricsRecorder) {
	s.metrics = m
}

// Answer answers one question from the indexed corpus.
func (s *QueryService) Answer(ctx context.Context, req domain.QueryRequest) (*domain.AnswerResult, error) {
	logger.Section("Query")

	req = req.WithDefaults(s.defaultTopK, s.defaultRerankTopK)
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, fmt.Errorf("%w: query is empty", domain.ErrInvalidInput)
	}
	if req.RerankTopK < 1 {
		return nil, fmt.Errorf("%w: rerank_top_k must be positive, got %d", domain.ErrInvalidArgument, req.RerankTopK)
	}
	logger.Debug("Query: %q (top_k=%d, rerank_top_k=%d)", req.Query, req.TopK, req.RerankTopK)

	start := time.Now()

	candidates, err := s.retriever.Retrieve(ctx, req.Query, req.TopK)
	retrievalTime := time.Since(start)
	s.observe("retrieval", retrievalTime)
	if err != nil {
		s.count("error")
		return nil, err
	}

	if len(candidates) == 0 {
		logger.Debug("No candidates retrieved")
		s.count("no_results")
		total := time.Since(start)
		s.observe("total", total)
		return &domain.AnswerResult{
			Answer:        domain.NoResultsAnswer,
			Citations:     []domain.Citation{},
			Sources:       []domain.Source{},
			RetrievalTime: retrievalTime,
			TotalTime:     total,
		}, nil
	}

	rerankStart := time.Now()
	outcome, err := s.reranker.Rerank(ctx, req.Query, candidates, req.RerankTopK)
	rerankTime := time.Since(rerankStart)
	s.observe("rerank", rerankTime)
	if err != nil {
		s.count("error")
		return nil, err
	}
	if outcome.Degraded && s.metrics != nil {
		s.metrics.IncRerankDegraded()
	}

	result, err := s.composer.Compose(ctx, req.Query, outcome.Candidates)
	if err != nil {
		s.count("error")
		return nil, err
	}
	s.observe("generation", result.LLMTime)

	result.RetrievalTime = retrievalTime
	result.RerankTime = rerankTime
	result.RerankDegraded = outcome.Degraded
	result.TotalTime = time.Since(start)
	s.observe("total", result.TotalTime)
	s.count("ok")

	logger.Debug("Answered in %s (retrieval=%s rerank=%s llm=%s, %d citations)",
		result.TotalTime, retrievalTime, rerankTime, result.LLMTime, len(result.Citations))

	return result, nil
}

// Pipeline adapts Answer to the evaluator's pipeline signature.
func (s *QueryService) Pipeline() driving.Pipeline {
	return func(ctx context.Context, question string, topK, rerankTopK int) (*domain.AnswerResult, error) {
		return s.Answer(ctx, domain.QueryRequest{Query: question, TopK: topK, RerankTopK: rerankTopK})
	}
}

func (s *QueryService) observe(stage string, d time.Duration) {
	if s.metrics != nil {
		s.metrics.ObserveStage(stage, d)
	}
}

func (s *QueryService) count(outcome string) {
	if s.metrics != nil {
		s.metrics.IncQuery(outcome)
	}
}
