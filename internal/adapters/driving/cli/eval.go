package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"sort"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

var (
	evalCasesFile string
	evalIDs       []string
	evalJSON      bool
	evalLimit     int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Score the answer pipeline against gold questions",
	Long: `Runs each gold case through the full pipeline and scores the answer
on keyword coverage, citation count and relevance. Cases run one at a time.

By default the built-in battery is used. Supply your own with --cases,
a YAML list of cases:

  - id: q1
    question: What is the refund policy?
    expected_keywords: [refund, 30 days]
    expected_min_citations: 1
    category: policy`,
	Args: cobra.NoArgs,
	RunE: runEval,
}

var evalHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent evaluation runs",
	Args:  cobra.NoArgs,
	RunE:  runEvalHistory,
}

func init() {
	evalCmd.Flags().StringVarP(&evalCasesFile, "cases", "c", "", "YAML file of gold cases")
	evalCmd.Flags().StringSliceVar(&evalIDs, "id", nil, "run only these case IDs")
	evalCmd.PersistentFlags().BoolVar(&evalJSON, "json", false, "output as JSON")
	evalHistoryCmd.Flags().IntVarP(&evalLimit, "limit", "n", 10, "number of runs to show")

	evalCmd.AddCommand(evalHistoryCmd)
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil || answerPipeline == nil {
		return errors.New("evaluation service not configured")
	}
	printWarnings(cmd)

	cases := domain.GoldCases()
	if evalCasesFile != "" {
		loaded, err := loadGoldCases(evalCasesFile)
		if err != nil {
			return err
		}
		cases = loaded
	}
	if len(evalIDs) > 0 {
		cases = slices.DeleteFunc(cases, func(c domain.GoldCase) bool {
			return !slices.Contains(evalIDs, c.ID)
		})
		if len(cases) == 0 {
			return fmt.Errorf("no cases match %v", evalIDs)
		}
	}

	report, err := evaluationService.Evaluate(cmd.Context(), cases, answerPipeline)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evalJSON {
		return printJSON(cmd, report)
	}
	outputReport(cmd, report)
	return nil
}

func runEvalHistory(cmd *cobra.Command, _ []string) error {
	if evaluationService == nil {
		return errors.New("evaluation service not configured")
	}

	reports, err := evaluationService.History(cmd.Context(), evalLimit)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	if evalJSON {
		return printJSON(cmd, reports)
	}
	if len(reports) == 0 {
		cmd.Println("No evaluation runs recorded.")
		return nil
	}

	for _, r := range reports {
		cmd.Printf("  %s  %s  %d cases  success %.0f%%  overall %.2f\n",
			r.StartedAt.Format("2006-01-02 15:04:05"), r.ID, r.TotalTests,
			r.SuccessRate*100, r.AvgOverallScore)
	}
	return nil
}

func loadGoldCases(path string) ([]domain.GoldCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cases: %w", err)
	}
	var cases []domain.GoldCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("parse cases %s: %w", path, err)
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("%w: %s contains no cases", domain.ErrInvalidInput, path)
	}
	for i, c := range cases {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("case %d (%s): %w", i+1, c.ID, err)
		}
	}
	return cases, nil
}

func outputReport(cmd *cobra.Command, r *domain.EvaluationReport) {
	for _, rec := range r.Records {
		mark := "FAIL"
		if rec.Scores.IsSuccess {
			mark = "PASS"
		}
		cmd.Printf("  [%s] %-16s overall %.2f  keywords %.2f  citations %.0f  relevance %.0f\n",
			mark, rec.Case.ID, rec.Scores.OverallScore, rec.Scores.KeywordPrecision,
			rec.Scores.CitationScore, rec.Scores.RelevanceScore)
		if rec.Err != "" {
			cmd.Printf("         error: %s\n", rec.Err)
		}
	}
	cmd.Println()

	if len(r.ByCategory) > 0 {
		cmd.Println("By category:")
		names := make([]string, 0, len(r.ByCategory))
		for name := range r.ByCategory {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c := r.ByCategory[name]
			cmd.Printf("  %-16s %d cases  success %.0f%%  overall %.2f\n",
				name, c.Total, c.SuccessRate*100, c.AvgOverall)
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d  Success rate: %.0f%%  Avg overall: %.2f\n",
		r.TotalTests, r.SuccessRate*100, r.AvgOverallScore)
	if r.Cancelled {
		cmd.Println("Run was cancelled before all cases finished.")
	}
}
