package domain

import "time"

// ResponseType is the intent classified from a generated response.
type ResponseType string

const (
	ResponseAnswer  ResponseType = "ANSWER"
	ResponseRefuse  ResponseType = "REFUSE"
	ResponseClarify ResponseType = "CLARIFY"
)

// Sentinel expected citations. A case expecting one of these passes when
// the response is classified as the matching ResponseType.
const (
	SentinelRefuse  = "REFUSE"
	SentinelClarify = "CLARIFY"
)

// EvaluationCase is one gold query.
type EvaluationCase struct {
	ID               int    `json:"id" yaml:"id"`
	Category         string `json:"category" yaml:"category"`
	Query            string `json:"query" yaml:"query"`
	ExpectedCitation string `json:"expected_citation" yaml:"expected_citation"`
	ExpectedAnswer   string `json:"expected_answer" yaml:"expected_answer"`
}

// Sentinel returns the sentinel response type the case expects, if any.
func (c EvaluationCase) Sentinel() (ResponseType, bool) {
	switch c.ExpectedCitation {
	case SentinelRefuse:
		return ResponseRefuse, true
	case SentinelClarify:
		return ResponseClarify, true
	default:
		return "", false
	}
}

// EvaluationResult is the write-once outcome of running one case.
type EvaluationResult struct {
	CaseID             int          `json:"id"`
	Category           string       `json:"category"`
	Query              string       `json:"query"`
	ExpectedCitation   string       `json:"expected_citation"`
	FoundCitations     []string     `json:"found_citations"`
	CitationAccuracy   float64      `json:"citation_accuracy"`
	ResponseType       ResponseType `json:"response_type"`
	Passed             bool         `json:"passed"`
	Response           string       `json:"response"`
	ResponseTimeMillis float64      `json:"response_time_ms"`
	// Error is set when the case could not be run; the case is counted as failed.
	Error string `json:"error,omitempty"`
}

// ReportSummary aggregates a run.
type ReportSummary struct {
	TotalQueries        int     `json:"total_queries"`
	Passed              int     `json:"passed"`
	Failed              int     `json:"failed"`
	OverallAccuracy     float64 `json:"overall_accuracy"`
	AvgCitationAccuracy float64 `json:"avg_citation_accuracy"`
	AvgResponseTimeMs   float64 `json:"avg_response_time_ms"`
}

// CategoryStats is the per-category breakdown of a run.
type CategoryStats struct {
	Total    int     `json:"total"`
	Passed   int     `json:"passed"`
	Accuracy float64 `json:"accuracy"`
}

// FailedQuery summarises a failed case for quick review.
type FailedQuery struct {
	ID       int      `json:"id"`
	Query    string   `json:"query"`
	Expected string   `json:"expected"`
	Actual   []string `json:"actual"`
}

// Report is the output of an evaluation run.
type Report struct {
	EvaluationID          string                   `json:"evaluation_id"`
	PromptVersion         string                   `json:"prompt_version"`
	Timestamp             time.Time                `json:"timestamp"`
	Summary               ReportSummary            `json:"summary"`
	CategoryBreakdown     map[string]CategoryStats `json:"category_breakdown"`
	Results               []EvaluationResult       `json:"results"`
	FailedQueries         []FailedQuery            `json:"failed_queries"`
	ProcessingTimeSeconds float64                  `json:"processing_time_seconds"`
}
