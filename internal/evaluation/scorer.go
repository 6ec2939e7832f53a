package evaluation

import (
	"strings"
	"unicode"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

// DefaultPassThreshold is the minimum citation accuracy for an ordinary case to pass.
const DefaultPassThreshold = 0.8

// ResponsePreviewLimit bounds EvaluationResult.Response in characters.
const ResponsePreviewLimit = 500

// NormalizeCitation lowercases and strips whitespace, periods, and section
// signs. Whitespace is any Unicode space, so CRLF and no-break spaces vanish too.
func NormalizeCitation(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '.' || r == '§' {
			return -1
		}
		return r
	}, strings.ToLower(s))
}

// ScoreCitation returns 1.0 or 0.0. Sentinel expectations match on the
// classified response type; literal expectations match when the normalised
// expected citation contains, or is contained by, any normalised found citation.
func ScoreCitation(expected string, found []string, responseType domain.ResponseType) float64 {
	if sentinel, ok := (domain.EvaluationCase{ExpectedCitation: expected}).Sentinel(); ok {
		if responseType == sentinel {
			return 1.0
		}
		return 0.0
	}

	want := NormalizeCitation(expected)
	if want == "" {
		return 0.0
	}
	for _, f := range found {
		got := NormalizeCitation(f)
		if got == "" {
			continue
		}
		if strings.Contains(got, want) || strings.Contains(want, got) {
			return 1.0
		}
	}
	return 0.0
}

// Scorer bundles the extractor, classifier, and pass threshold.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	extractor  *Extractor
	classifier Classifier
	threshold  float64
}

// NewScorer builds a scorer from evaluation settings.
func NewScorer(s domain.EvaluationSettings) (*Scorer, error) {
	ex, err := NewExtractor(s.Grammars)
	if err != nil {
		return nil, err
	}
	threshold := s.PassThreshold
	if threshold <= 0 {
		threshold = DefaultPassThreshold
	}
	return &Scorer{
		extractor:  ex,
		classifier: NewClassifier(s.RefuseKeywords, s.ClarifyKeywords),
		threshold:  threshold,
	}, nil
}

// ExtractCitations returns the distinct citations in text.
func (s *Scorer) ExtractCitations(text string) []string {
	return s.extractor.Extract(text)
}

// Classify returns the response intent.
func (s *Scorer) Classify(text string) domain.ResponseType {
	return s.classifier.Classify(text)
}

// Passed reports whether a case passed given its accuracy and response type.
func (s *Scorer) Passed(c domain.EvaluationCase, accuracy float64, responseType domain.ResponseType) bool {
	if sentinel, ok := c.Sentinel(); ok {
		return responseType == sentinel
	}
	return accuracy >= s.threshold
}

// Score evaluates a generated response against a case.
func (s *Scorer) Score(c domain.EvaluationCase, response string) domain.EvaluationResult {
	found := s.ExtractCitations(response)
	rt := s.Classify(response)
	acc := ScoreCitation(c.ExpectedCitation, found, rt)

	return domain.EvaluationResult{
		CaseID:           c.ID,
		Category:         c.Category,
		Query:            c.Query,
		ExpectedCitation: c.ExpectedCitation,
		FoundCitations:   found,
		CitationAccuracy: acc,
		ResponseType:     rt,
		Passed:           s.Passed(c, acc, rt),
		Response:         preview(response, ResponsePreviewLimit),
	}
}

func preview(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
