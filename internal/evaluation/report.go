package evaluation

import (
	"time"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// ReportMeta labels a report.
type ReportMeta struct {
	EvaluationID  string
	PromptVersion string
	Timestamp     time.Time
	Elapsed       time.Duration
}

// BuildReport aggregates results in the order given.
func BuildReport(results []domain.EvaluationResult, meta ReportMeta) *domain.Report {
	r := &domain.Report{
		EvaluationID:          meta.EvaluationID,
		PromptVersion:         meta.PromptVersion,
		Timestamp:             meta.Timestamp.UTC(),
		CategoryBreakdown:     make(map[string]domain.CategoryStats),
		Results:               results,
		FailedQueries:         []domain.FailedQuery{},
		ProcessingTimeSeconds: meta.Elapsed.Seconds(),
	}

	var accSum, timeSum float64
	for _, res := range results {
		accSum += res.CitationAccuracy
		timeSum += res.ResponseTimeMillis

		cat := r.CategoryBreakdown[res.Category]
		cat.Total++
		if res.Passed {
			r.Summary.Passed++
			cat.Passed++
		} else {
			r.FailedQueries = append(r.FailedQueries, domain.FailedQuery{
				ID:       res.CaseID,
				Query:    res.Query,
				Expected: res.ExpectedCitation,
				Actual:   res.FoundCitations,
			})
		}
		r.CategoryBreakdown[res.Category] = cat
	}

	for name, cat := range r.CategoryBreakdown {
		cat.Accuracy = float64(cat.Passed) / float64(cat.Total)
		r.CategoryBreakdown[name] = cat
	}

	total := len(results)
	r.Summary.TotalQueries = total
	r.Summary.Failed = total - r.Summary.Passed
	if total > 0 {
		r.Summary.OverallAccuracy = float64(r.Summary.Passed) / float64(total)
		r.Summary.AvgCitationAccuracy = accSum / float64(total)
		r.Summary.AvgResponseTimeMs = timeSum / float64(total)
	}
	return r
}
