package mcp

import (
	"context"
	"fmt"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default 10)"`
	RerankTopK int    `json:"rerank_top_k,omitempty" jsonschema:"number of chunks to keep after reranking (default 5)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer         string            `json:"answer"`
	Citations      []domain.Citation `json:"citations"`
	Sources        []SourceOutput    `json:"sources"`
	RerankDegraded bool              `json:"rerank_degraded,omitempty"`
}

// SourceOutput is one chunk shown to the generator.
type SourceOutput struct {
	Rank   int     `json:"rank"`
	Source string  `json:"source"`
	Title  string  `json:"title"`
	Score  float64 `json:"score"`
}

// UploadTextInput is the input schema for the upload_text tool.
type UploadTextInput struct {
	Text  string `json:"text" jsonschema:"the document text to index"`
	Title string `json:"title,omitempty" jsonschema:"optional document title"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput summarises one indexed document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	ChunkCount int    `json:"chunk_count"`
}

// EvaluateInput is the input schema for the evaluate tool.
type EvaluateInput struct {
	CaseIDs []string `json:"case_ids,omitempty" jsonschema:"subset of built-in gold case IDs to run (default all)"`
}

// EvaluateOutput is the output schema for the evaluate tool.
type EvaluateOutput struct {
	TotalTests      int            `json:"total_tests"`
	SuccessRate     float64        `json:"success_rate"`
	AvgOverallScore float64        `json:"avg_overall_score"`
	Cases           []CaseOutput   `json:"cases"`
	Cancelled       bool           `json:"cancelled,omitempty"`
	ByCategory      map[string]int `json:"passed_by_category"`
}

// CaseOutput is the score of one gold case.
type CaseOutput struct {
	ID           string  `json:"id"`
	OverallScore float64 `json:"overall_score"`
	Success      bool    `json:"success"`
	Error        string  `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents with numbered citations",
	}, s.handleAsk)

	if s.ports.Documents != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "upload_text",
			Description: "Index a text document so later questions can cite it",
		}, s.handleUploadText)

		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List indexed documents",
		}, s.handleListDocuments)
	}

	if s.ports.Evaluation != nil && s.ports.Pipeline != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "evaluate",
			Description: "Run the gold question battery against the answer pipeline and report scores",
		}, s.handleEvaluate)
	}
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	result, err := s.ports.Query.Answer(ctx, domain.QueryRequest{
		Query:      input.Question,
		TopK:       input.TopK,
		RerankTopK: input.RerankTopK,
	})
	if err != nil {
		return nil, AskOutput{}, toolError("ask", err)
	}

	output := AskOutput{
		Answer:         result.Answer,
		Citations:      result.Citations,
		Sources:        make([]SourceOutput, len(result.Sources)),
		RerankDegraded: result.RerankDegraded,
	}
	if output.Citations == nil {
		output.Citations = []domain.Citation{}
	}
	for i, src := range result.Sources {
		score := src.Score
		if src.RerankScore != nil {
			score = *src.RerankScore
		}
		output.Sources[i] = SourceOutput{Rank: i + 1, Source: src.Source, Title: src.Title, Score: score}
	}

	return nil, output, nil
}

func (s *Server) handleUploadText(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input UploadTextInput,
) (*mcp.CallToolResult, domain.UploadResult, error) {
	result, err := s.ports.Documents.Upload(ctx, &domain.RawDocument{
		MIMEType: "text/plain",
		Title:    input.Title,
		Content:  []byte(input.Text),
	})
	if err != nil {
		return nil, domain.UploadResult{}, toolError("upload_text", err)
	}
	return nil, *result, nil
}

func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, toolError("list_documents", err)
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i := range docs {
		output.Documents[i] = DocumentOutput{
			ID:         docs[i].ID,
			Title:      docs[i].Title,
			ChunkCount: docs[i].ChunkCount,
		}
	}
	return nil, output, nil
}

func (s *Server) handleEvaluate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EvaluateInput,
) (*mcp.CallToolResult, EvaluateOutput, error) {
	if s.ports.Evaluation == nil || s.ports.Pipeline == nil {
		return nil, EvaluateOutput{}, ErrEvaluationUnavailable
	}

	cases, err := selectCases(domain.GoldCases(), input.CaseIDs)
	if err != nil {
		return nil, EvaluateOutput{}, toolError("evaluate", err)
	}

	report, err := s.ports.Evaluation.Evaluate(ctx, cases, s.ports.Pipeline)
	if err != nil {
		return nil, EvaluateOutput{}, toolError("evaluate", err)
	}

	output := EvaluateOutput{
		TotalTests:      report.TotalTests,
		SuccessRate:     report.SuccessRate,
		AvgOverallScore: report.AvgOverallScore,
		Cases:           make([]CaseOutput, len(report.Records)),
		Cancelled:       report.Cancelled,
		ByCategory:      make(map[string]int),
	}
	for i, rec := range report.Records {
		output.Cases[i] = CaseOutput{
			ID:           rec.Case.ID,
			OverallScore: rec.Scores.OverallScore,
			Success:      rec.Scores.IsSuccess,
			Error:        rec.Err,
		}
		if rec.Scores.IsSuccess {
			output.ByCategory[rec.Case.Category]++
		}
	}
	return nil, output, nil
}

// selectCases filters cases by ID, keeping battery order. An empty filter
// selects every case.
func selectCases(cases []domain.GoldCase, ids []string) ([]domain.GoldCase, error) {
	if len(ids) == 0 {
		return cases, nil
	}

	out := make([]domain.GoldCase, 0, len(ids))
	for _, c := range cases {
		if slices.Contains(ids, c.ID) {
			out = append(out, c)
		}
	}
	if len(out) != len(ids) {
		return nil, fmt.Errorf("%w: unknown case id in %v", domain.ErrInvalidInput, ids)
	}
	return out, nil
}
