package evaluation

import (
	"strings"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// Classifier decides response intent from keyword occurrence.
type Classifier struct {
	refuse  []string
	clarify []string
}

// NewClassifier lowercases the keyword lists once.
func NewClassifier(refuse, clarify []string) Classifier {
	return Classifier{refuse: lowerAll(refuse), clarify: lowerAll(clarify)}
}

// Classify returns REFUSE if any refuse keyword occurs, else CLARIFY if any
// clarify keyword occurs, else ANSWER.
func (c Classifier) Classify(text string) domain.ResponseType {
	lower := strings.ToLower(text)
	if containsAny(lower, c.refuse) {
		return domain.ResponseRefuse
	}
	if containsAny(lower, c.clarify) {
		return domain.ResponseClarify
	}
	return domain.ResponseAnswer
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
