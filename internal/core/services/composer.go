package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-rag/internal/logger"
)

// DefaultAnswerPrompt is the grounding prompt used when no PromptStore is
// configured. Placeholders: numbered context, no-answer phrase, question.
const DefaultAnswerPrompt = `Answer the question using only the provided context documents. ` +
	`Include citations [1], [2], etc. using exactly the numbering of the context documents below.

CONTEXT:
%s
If the context documents do not contain the answer, reply exactly: "%s"

QUESTION: %s

ANSWER WITH CITATIONS:`

// emptyGenerationAnswer replaces a blank completion.
const emptyGenerationAnswer = "I apologize, but I couldn't generate a proper response."

// ComposerConfig tunes generation and cost estimation.
type ComposerConfig struct {
	MaxTokens       int
	Temperature     float64
	NoAnswerPhrases []string
	InputCostPer1K  float64
	OutputCostPer1K float64
}

// Composer builds the grounding prompt, calls the generator and
// reconciles citation markers against the sources it was shown.
type Composer struct {
	llm     driven.LLMService
	prompts driven.PromptStore
	cfg     ComposerConfig
}

// NewComposer creates a composer. prompts may be nil.
func NewComposer(llm driven.LLMService, prompts driven.PromptStore, cfg ComposerConfig) *Composer {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1024
	}
	if len(cfg.NoAnswerPhrases) == 0 {
		cfg.NoAnswerPhrases = domain.DefaultNoAnswerPhrases()
	}
	return &Composer{llm: llm, prompts: prompts, cfg: cfg}
}

// BuildPrompt renders the grounding prompt with candidates numbered from 1
// in reranked order.
func (c *Composer) BuildPrompt(query string, reranked []domain.RerankedCandidate) string {
	var blocks strings.Builder
	for i, cand := range reranked {
		fmt.Fprintf(&blocks, "[%d] Source: %s\nContent: %s\n\n", i+1, cand.Chunk.Source, cand.Chunk.Content)
	}
	return fmt.Sprintf(c.template(), blocks.String(), c.cfg.NoAnswerPhrases[0], query)
}

// template loads the user prompt, falling back to the default when it is
// missing or does not carry exactly three %s placeholders.
func (c *Composer) template() string {
	if c.prompts == nil {
		return DefaultAnswerPrompt
	}
	tmpl, err := c.prompts.Load(driven.PromptAnswer)
	if err != nil || strings.Count(tmpl, "%s") != 3 || strings.Count(tmpl, "%") != 3 {
		if err == nil {
			logger.Warn("Ignoring %s prompt: expected three %%s placeholders", driven.PromptAnswer)
		}
		return DefaultAnswerPrompt
	}
	return tmpl
}

// Compose generates a cited answer from the reranked candidates.
func (c *Composer) Compose(ctx context.Context, query string, reranked []domain.RerankedCandidate) (*domain.AnswerResult, error) {
	if len(reranked) == 0 {
		return &domain.AnswerResult{
			Answer:    domain.NoResultsAnswer,
			Citations: []domain.Citation{},
			Sources:   []domain.Source{},
		}, nil
	}
	if c.llm == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, domain.ErrLLMUnavailable)
	}

	prompt := c.BuildPrompt(query, reranked)

	start := time.Now()
	gen, err := c.llm.Generate(ctx, prompt, driven.GenerateOptions{
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	logger.Debug("Generated %d chars with %s in %s", len(gen.Text), c.llm.ModelName(), elapsed)

	answer := gen.Text
	if strings.TrimSpace(answer) == "" {
		answer = emptyGenerationAnswer
	}

	sources := make([]domain.Source, len(reranked))
	for i, cand := range reranked {
		sources[i] = cand.ToSource()
	}

	usage := gen.Usage
	if usage == nil {
		usage = EstimateTokenUsage(prompt, answer)
	}
	cost := c.EstimateCost(usage)

	return &domain.AnswerResult{
		Answer:        answer,
		Citations:     domain.ExtractCitations(answer, reranked, c.cfg.NoAnswerPhrases),
		Sources:       sources,
		LLMTime:       elapsed,
		TokenUsage:    usage,
		EstimatedCost: &cost,
	}, nil
}

// EstimateTokenUsage approximates token counts as one token per four bytes.
func EstimateTokenUsage(prompt, completion string) *domain.TokenUsage {
	in := len(prompt) / 4
	out := len(completion) / 4
	return &domain.TokenUsage{
		PromptTokens:     in,
		CompletionTokens: out,
		TotalTokens:      in + out,
	}
}

// EstimateCost prices token usage in USD, rounded to six decimal places.
func (c *Composer) EstimateCost(usage *domain.TokenUsage) float64 {
	if usage == nil {
		return 0
	}
	cost := float64(usage.PromptTokens)/1000*c.cfg.InputCostPer1K +
		float64(usage.CompletionTokens)/1000*c.cfg.OutputCostPer1K
	return math.Round(cost*1e6) / 1e6
}
