package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/citation"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	askTopK       int
	askRerankTopK int
	askJSON       bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from indexed documents",
	Long: `Retrieves the most similar passages, reranks them and asks the LLM
for an answer grounded in those passages. Inline markers like [1] refer
to the numbered sources listed after the answer.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "passages to retrieve (default from settings)")
	askCmd.Flags().IntVarP(&askRerankTopK, "rerank-top-k", "r", 0, "passages kept after reranking (default from settings)")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if queryService == nil {
		return errors.New("query service not configured")
	}
	if cmd.Flags().Changed("top-k") && askTopK < 1 {
		return fmt.Errorf("--top-k must be at least 1, got %d", askTopK)
	}
	if cmd.Flags().Changed("rerank-top-k") && askRerankTopK < 1 {
		return fmt.Errorf("--rerank-top-k must be at least 1, got %d", askRerankTopK)
	}
	printWarnings(cmd)

	req := domain.QueryRequest{
		Query:      strings.Join(args, " "),
		TopK:       askTopK,
		RerankTopK: askRerankTopK,
	}
	result, err := queryService.Answer(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	if askJSON {
		return outputAnswerJSON(cmd, result)
	}
	outputAnswer(cmd, result)
	return nil
}

// answerJSON adds timings in seconds, which AnswerResult omits from JSON.
type answerJSON struct {
	*domain.AnswerResult
	RetrievalTime float64 `json:"retrieval_time"`
	RerankTime    float64 `json:"rerank_time"`
	LLMTime       float64 `json:"llm_time"`
	TotalTime     float64 `json:"total_time"`
}

func outputAnswerJSON(cmd *cobra.Command, result *domain.AnswerResult) error {
	data, err := json.MarshalIndent(answerJSON{
		AnswerResult:  result,
		RetrievalTime: result.RetrievalTime.Seconds(),
		RerankTime:    result.RerankTime.Seconds(),
		LLMTime:       result.LLMTime.Seconds(),
		TotalTime:     result.TotalTime.Seconds(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputAnswer(cmd *cobra.Command, result *domain.AnswerResult) {
	style := styles.DefaultStyles().CitationStyle()

	for _, block := range citation.RenderMarkdown(result.Answer, result.Citations) {
		line := style.Format(block.Segments)
		switch block.Kind {
		case citation.BlockHeading:
			line = strings.Repeat("#", block.Level) + " " + line
		case citation.BlockListItem:
			line = strings.Repeat("  ", max(block.Level-1, 0)) + "- " + line
		case citation.BlockQuote:
			line = "> " + line
		}
		cmd.Println(line)
	}

	if len(result.Citations) > 0 {
		cmd.Println()
		cmd.Println("Sources:")
		for _, c := range result.Citations {
			title := c.Title
			if title == "" {
				title = domain.DefaultTitle
			}
			cmd.Printf("  [%d] %s (%s)\n", c.Index, title, c.Source)
		}
	}

	cmd.Println()
	if result.RerankDegraded {
		cmd.Println("Note: reranking unavailable, sources are in similarity order.")
	}
	cmd.Printf("retrieval %s, rerank %s, llm %s, total %s\n",
		round(result.RetrievalTime), round(result.RerankTime),
		round(result.LLMTime), round(result.TotalTime))
	if result.TokenUsage != nil {
		cmd.Printf("tokens: %d prompt, %d completion", result.TokenUsage.PromptTokens, result.TokenUsage.CompletionTokens)
		if result.EstimatedCost != nil {
			cmd.Printf(", est. $%.6f", *result.EstimatedCost)
		}
		cmd.Println()
	}
}

func round(d time.Duration) time.Duration {
	return d.Round(time.Millisecond)
}
