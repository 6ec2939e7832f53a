package driving

import (
	"context"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// EvaluationOptions filters and labels an evaluation run.
type EvaluationOptions struct {
	// Category restricts the run to one category when non-empty.
	Category string

	// CaseIDs restricts the run to specific case ids when non-empty.
	CaseIDs []int

	// PromptVersion labels the report.
	PromptVersion string
}

// EvaluationService runs gold cases through retrieval and generation.
type EvaluationService interface {
	// Run executes the cases and returns the report.
	Run(ctx context.Context, cases []domain.EvaluationCase, opts EvaluationOptions) (*domain.Report, error)
}
