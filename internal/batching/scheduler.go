// Package batching groups texts into embedding requests that respect an
// item-count ceiling and a per-request token budget.
package batching

import (
	"fmt"
	"sort"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

// Limits bounds each batch.
type Limits struct {
	MaxItems  int
	MaxTokens int
}

// Batch is a contiguous run of the input texts.
type Batch struct {
	// Start is the index of the first text in the input sequence.
	Start  int
	Texts  []string
	Tokens int
}

// Plan is the output of Schedule.
type Plan struct {
	Batches []Batch

	// Truncated lists the input indexes that were cut to fit MaxTokens.
	Truncated []int

	Diagnostics []domain.Diagnostic
}

// Schedule groups texts into order-preserving batches. Any single text whose
// own count exceeds MaxTokens is cut to its longest prefix that fits, so
// every text lands in exactly one batch. Flattening the batches yields the
// input sequence, modulo truncation.
func Schedule(texts []string, limits Limits, counter driven.TokenCounter) (Plan, error) {
	if limits.MaxItems <= 0 || limits.MaxTokens <= 0 {
		return Plan{}, fmt.Errorf("%w: batch limits must be positive, got %d items, %d tokens",
			domain.ErrInvalidInput, limits.MaxItems, limits.MaxTokens)
	}

	var (
		plan Plan
		cur  Batch
	)

	for i, t := range texts {
		n := counter.Count(t)
		if n > limits.MaxTokens {
			t = truncate(t, limits.MaxTokens, counter)
			plan.Truncated = append(plan.Truncated, i)
			plan.Diagnostics = append(plan.Diagnostics, domain.Diagnostic{
				Kind:    domain.DiagnosticLimitExceeded,
				Message: fmt.Sprintf("text %d truncated to fit the batch token budget", i),
				Count:   n,
				Limit:   limits.MaxTokens,
			})
			n = counter.Count(t)
		}

		if len(cur.Texts) > 0 && (len(cur.Texts) == limits.MaxItems || cur.Tokens+n > limits.MaxTokens) {
			plan.Batches = append(plan.Batches, cur)
			cur = Batch{}
		}
		if len(cur.Texts) == 0 {
			cur.Start = i
		}
		cur.Texts = append(cur.Texts, t)
		cur.Tokens += n
	}

	if len(cur.Texts) > 0 {
		plan.Batches = append(plan.Batches, cur)
	}
	return plan, nil
}

// truncate returns the longest character prefix of t whose count fits max.
// The counter is assumed non-decreasing over prefixes.
func truncate(t string, max int, counter driven.TokenCounter) string {
	rs := []rune(t)
	n := sort.Search(len(rs)+1, func(i int) bool {
		return counter.Count(string(rs[:i])) > max
	})
	return string(rs[:n-1])
}
