package evaluation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

func newScorer(t *testing.T) *Scorer {
	t.Helper()
	s, err := NewScorer(domain.DefaultAppSettings().Evaluation)
	require.NoError(t, err)
	return s
}

func TestExtractor_AllGrammars(t *testing.T) {
	s := newScorer(t)
	text := "See T.C.A. § 37-1-117 and Rule 206; DCS Policy 14.12 applies. " +
		"SB 0856 changed hearsay. In re Bernard T. defines the standard. ICPC Reg No. 7 governs."

	got := s.ExtractCitations(text)

	assert.ElementsMatch(t, []string{
		"T.C.A. § 37-1-117",
		"Rule 206",
		"DCS Policy 14.12",
		"SB 0856",
		"In re Bernard T.",
		"ICPC Reg No. 7",
	}, got)
}

func TestExtractor_CaseInsensitiveAndDistinct(t *testing.T) {
	s := newScorer(t)

	got := s.ExtractCitations("tca 37-1-114(c) and TCA 37-1-114(c), then rule 205 and rule 205.")

	assert.Equal(t, []string{"TCA 37-1-114(c)", "rule 205", "tca 37-1-114(c)"}, got)
}

func TestExtractor_NoCitations(t *testing.T) {
	s := newScorer(t)
	assert.Empty(t, s.ExtractCitations("No controlling text found in the provided sources."))
}

func TestNewExtractor_InvalidPattern(t *testing.T) {
	_, err := NewExtractor([]domain.CitationGrammar{{Name: "broken", Pattern: "(unclosed"}})
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestExtractor_Names(t *testing.T) {
	ex, err := NewExtractor(domain.DefaultCitationGrammars())
	require.NoError(t, err)
	assert.Equal(t, []string{"tca", "rule", "dcs_policy", "bill", "case_law", "icpc"}, ex.Names())
}

func TestClassifier(t *testing.T) {
	s := newScorer(t)

	tests := []struct {
		name string
		text string
		want domain.ResponseType
	}{
		{"refusal", "I cannot help conceal a citation from the defense.", domain.ResponseRefuse},
		{"ex parte", "That would be an EX PARTE communication.", domain.ResponseRefuse},
		{"clarify", "Please provide the age and offense before I answer.", domain.ResponseClarify},
		{"prior record", "Does the child have a prior record?", domain.ResponseClarify},
		{"refuse beats clarify", "I will not answer; please provide counsel's position.", domain.ResponseRefuse},
		{"answer", "**Finding**: A hearing must be held within 72 hours. T.C.A. § 37-1-117.", domain.ResponseAnswer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.Classify(tt.text))
		})
	}
}

func TestScoreCitation(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		found    []string
		rt       domain.ResponseType
		want     float64
	}{
		{"normalised statute match", "T.C.A. § 37-1-117", []string{"TCA 37-1-117"}, domain.ResponseAnswer, 1},
		{"expected within found", "T.C.A. § 37-1-114", []string{"T.C.A. § 37-1-114(c)"}, domain.ResponseAnswer, 1},
		{"found within expected", "SB 0856 / T.C.A. § 37-1-114", []string{"SB 0856"}, domain.ResponseAnswer, 1},
		{"different rule", "Rule 206", []string{"Rule 301"}, domain.ResponseAnswer, 0},
		{"nothing found", "Rule 301", nil, domain.ResponseAnswer, 0},
		{"empty expected", "", []string{"Rule 301"}, domain.ResponseAnswer, 0},
		{"empty found skipped", "Rule 301", []string{" . "}, domain.ResponseAnswer, 0},
		{"crlf inside found", "T.C.A. § 37-1-117", []string{"T.C.A.\r\n37-1-117"}, domain.ResponseAnswer, 1},
		{"no-break spaces inside found", "T.C.A. § 37-1-117", []string{"T.C.A.\u00a0§\u00a037-1-117"}, domain.ResponseAnswer, 1},
		{"refuse matched", "REFUSE", nil, domain.ResponseRefuse, 1},
		{"refuse missed", "REFUSE", []string{"REFUSE"}, domain.ResponseAnswer, 0},
		{"clarify matched", "CLARIFY", nil, domain.ResponseClarify, 1},
		{"clarify answered instead", "CLARIFY", nil, domain.ResponseRefuse, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ScoreCitation(tt.expected, tt.found, tt.rt))
		})
	}
}

func TestNormalizeCitation(t *testing.T) {
	assert.Equal(t, "tca37-1-117", NormalizeCitation("T.C.A. § 37-1-117"))
	assert.Equal(t, "tca37-1-117", NormalizeCitation("TCA 37-1-117"))
	assert.Equal(t, "dcspolicy1412", NormalizeCitation("DCS Policy 14.12"))
	assert.Equal(t, "tca37-1-117", NormalizeCitation("T.C.A.\r\n37-1-117"))
	assert.Equal(t, "tca37-1-117", NormalizeCitation("T.C.A.\u00a0§\u00a037-1-117"))
	assert.Equal(t, "rule205", NormalizeCitation("Rule\u2009205"))
}

func TestScorer_Score(t *testing.T) {
	s := newScorer(t)

	t.Run("clarify sentinel passes", func(t *testing.T) {
		c := domain.EvaluationCase{ID: 49, Category: "Incomplete", Query: "Can I detain this kid today?", ExpectedCitation: "CLARIFY"}

		res := s.Score(c, "Before answering, please provide the age and offense.")

		assert.Equal(t, domain.ResponseClarify, res.ResponseType)
		assert.Equal(t, 1.0, res.CitationAccuracy)
		assert.True(t, res.Passed)
	})

	t.Run("statute case passes on normalised match", func(t *testing.T) {
		c := domain.EvaluationCase{ID: 1, Category: "DCS Policy", ExpectedCitation: "T.C.A. § 37-1-117"}

		res := s.Score(c, "**Finding**: Within 72 hours. **Citations**: TCA 37-1-117")

		assert.Equal(t, []string{"TCA 37-1-117"}, res.FoundCitations)
		assert.Equal(t, 1.0, res.CitationAccuracy)
		assert.True(t, res.Passed)
	})

	t.Run("citation split by crlf passes", func(t *testing.T) {
		c := domain.EvaluationCase{ID: 2, ExpectedCitation: "T.C.A. § 37-1-117"}

		res := s.Score(c, "See T.C.A.\r\n37-1-117.")

		assert.Equal(t, []string{"T.C.A.\r\n37-1-117"}, res.FoundCitations)
		assert.Equal(t, 1.0, res.CitationAccuracy)
		assert.True(t, res.Passed)
	})

	t.Run("citation with no-break spaces passes", func(t *testing.T) {
		c := domain.EvaluationCase{ID: 3, ExpectedCitation: "T.C.A. § 37-1-117"}

		res := s.Score(c, "See T.C.A.\u00a0§\u00a037-1-117.")

		assert.Equal(t, []string{"T.C.A.\u00a0§\u00a037-1-117"}, res.FoundCitations)
		assert.Equal(t, 1.0, res.CitationAccuracy)
		assert.True(t, res.Passed)
	})

	t.Run("sentinel case ignores citations", func(t *testing.T) {
		c := domain.EvaluationCase{ID: 48, ExpectedCitation: "REFUSE"}

		res := s.Score(c, "Notice is governed by T.C.A. § 37-1-117.")

		assert.Equal(t, domain.ResponseAnswer, res.ResponseType)
		assert.False(t, res.Passed)
	})

	t.Run("ordinary case passes even if response reads as a refusal", func(t *testing.T) {
		c := domain.EvaluationCase{ID: 9, ExpectedCitation: "T.C.A. § 37-1-124"}

		res := s.Score(c, "Juveniles cannot demand a jury. T.C.A. § 37-1-124.")

		assert.Equal(t, domain.ResponseRefuse, res.ResponseType)
		assert.True(t, res.Passed)
	})

	t.Run("response preview truncated", func(t *testing.T) {
		res := s.Score(domain.EvaluationCase{ExpectedCitation: "Rule 1"}, strings.Repeat("§", 900))
		assert.Equal(t, ResponsePreviewLimit, len([]rune(res.Response)))
	})
}

func TestNewScorer_DefaultThreshold(t *testing.T) {
	settings := domain.DefaultAppSettings().Evaluation
	settings.PassThreshold = 0

	s, err := NewScorer(settings)
	require.NoError(t, err)
	assert.True(t, s.Passed(domain.EvaluationCase{ExpectedCitation: "Rule 1"}, 1.0, domain.ResponseAnswer))
	assert.False(t, s.Passed(domain.EvaluationCase{ExpectedCitation: "Rule 1"}, 0.0, domain.ResponseAnswer))
}
