// Package tokens provides token counting for chunk and batch budgets.
package tokens

import (
	"unicode/utf8"

	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

// CharsPerToken is the average characters per token for English prose
// under OpenAI's BPE vocabularies.
const CharsPerToken = 4

// Heuristic estimates tokens as characters divided by CharsPerToken.
// It never undercounts non-empty text to zero.
type Heuristic struct{}

var _ driven.TokenCounter = Heuristic{}

// Count returns the estimated token count of text.
func (Heuristic) Count(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if n < CharsPerToken {
		return 1
	}
	return n / CharsPerToken
}
