package domain

import (
	"strings"
	"time"
)

// Success thresholds for a single evaluation case.
const (
	MinKeywordPrecision = 0.3
	MinRelevantLength   = 50
)

// GoldCase is a fixed question with expected answer criteria.
type GoldCase struct {
	ID                   string   `json:"id" yaml:"id"`
	Question             string   `json:"question" yaml:"question"`
	ExpectedKeywords     []string `json:"expected_keywords" yaml:"expected_keywords"`
	ExpectedMinCitations int      `json:"expected_min_citations" yaml:"expected_min_citations"`
	Category             string   `json:"category" yaml:"category"`
}

// Validate reports whether the case can be scored.
func (g GoldCase) Validate() error {
	if strings.TrimSpace(g.Question) == "" {
		return ErrInvalidInput
	}
	if len(g.ExpectedKeywords) == 0 {
		return ErrInvalidInput
	}
	if g.ExpectedMinCitations < 0 {
		return ErrInvalidInput
	}
	return nil
}

// CaseScores holds the per-case metrics.
type CaseScores struct {
	KeywordPrecision float64 `json:"keyword_precision"`
	CitationScore    float64 `json:"citation_score"`
	RelevanceScore   float64 `json:"relevance_score"`
	OverallScore     float64 `json:"overall_score"`
	IsSuccess        bool    `json:"is_success"`
}

// EvaluationRecord is the outcome of running one gold case.
// Exactly one of Result and Err is set.
type EvaluationRecord struct {
	Case     GoldCase      `json:"case"`
	Result   *AnswerResult `json:"result,omitempty"`
	Err      string        `json:"error,omitempty"`
	Scores   CaseScores    `json:"scores"`
	Duration time.Duration `json:"-"`
}

// CategorySummary aggregates records sharing a category.
type CategorySummary struct {
	Total       int     `json:"total"`
	SuccessRate float64 `json:"success_rate"`
	AvgOverall  float64 `json:"avg_overall_score"`
}

// EvaluationReport aggregates an evaluation run.
type EvaluationReport struct {
	ID                  string                     `json:"id"`
	TotalTests          int                        `json:"total_tests"`
	SuccessRate         float64                    `json:"success_rate"`
	AvgKeywordPrecision float64                    `json:"avg_keyword_precision"`
	AvgCitationScore    float64                    `json:"avg_citation_score"`
	AvgRelevanceScore   float64                    `json:"avg_relevance_score"`
	AvgOverallScore     float64                    `json:"avg_overall_score"`
	ByCategory          map[string]CategorySummary `json:"by_category"`
	Records             []EvaluationRecord         `json:"records"`
	StartedAt           time.Time                  `json:"started_at"`
	FinishedAt          time.Time                  `json:"finished_at"`

	// Cancelled is true when the run stopped before every case started.
	Cancelled bool `json:"cancelled"`
}

// ScoreAnswer computes the metrics for one answered case.
func ScoreAnswer(gold GoldCase, result *AnswerResult, failurePhrases []string) CaseScores {
	if result == nil || len(gold.ExpectedKeywords) == 0 {
		return CaseScores{}
	}

	answer := strings.ToLower(result.Answer)
	found := 0
	for _, kw := range gold.ExpectedKeywords {
		if strings.Contains(answer, strings.ToLower(kw)) {
			found++
		}
	}

	s := CaseScores{
		KeywordPrecision: float64(found) / float64(len(gold.ExpectedKeywords)),
	}
	if len(result.Citations) >= gold.ExpectedMinCitations {
		s.CitationScore = 1
	}
	if len(result.Answer) > MinRelevantLength && !IsNoAnswer(result.Answer, failurePhrases) {
		s.RelevanceScore = 1
	}
	s.IsSuccess = s.KeywordPrecision >= MinKeywordPrecision && s.CitationScore == 1 && s.RelevanceScore == 1
	s.OverallScore = (s.KeywordPrecision + s.CitationScore + s.RelevanceScore) / 3
	return s
}

// Summarise fills the aggregate metrics of the report from its records.
func (r *EvaluationReport) Summarise() {
	r.TotalTests = len(r.Records)
	r.ByCategory = make(map[string]CategorySummary)
	r.SuccessRate, r.AvgKeywordPrecision, r.AvgCitationScore = 0, 0, 0
	r.AvgRelevanceScore, r.AvgOverallScore = 0, 0
	if r.TotalTests == 0 {
		return
	}

	successes := 0
	for _, rec := range r.Records {
		s := rec.Scores
		r.AvgKeywordPrecision += s.KeywordPrecision
		r.AvgCitationScore += s.CitationScore
		r.AvgRelevanceScore += s.RelevanceScore
		r.AvgOverallScore += s.OverallScore

		cat := r.ByCategory[rec.Case.Category]
		cat.Total++
		cat.AvgOverall += s.OverallScore
		if s.IsSuccess {
			successes++
			cat.SuccessRate++
		}
		r.ByCategory[rec.Case.Category] = cat
	}

	n := float64(r.TotalTests)
	r.SuccessRate = float64(successes) / n
	r.AvgKeywordPrecision /= n
	r.AvgCitationScore /= n
	r.AvgRelevanceScore /= n
	r.AvgOverallScore /= n

	for name, cat := range r.ByCategory {
		cat.SuccessRate /= float64(cat.Total)
		cat.AvgOverall /= float64(cat.Total)
		r.ByCategory[name] = cat
	}
}
