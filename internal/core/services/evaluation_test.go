package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/benchbook/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/evaluation"
)

func evaluationCases() []domain.EvaluationCase {
	return []domain.EvaluationCase{
		{ID: 1, Category: "jurisdiction", Query: "Which court hears delinquency cases?", ExpectedCitation: "T.C.A. § 37-1-103"},
		{ID: 2, Category: "ethics", Query: "Can I talk to the prosecutor privately about the case?", ExpectedCitation: domain.SentinelRefuse},
		{ID: 3, Category: "sentencing", Query: "What disposition should I order?", ExpectedCitation: domain.SentinelClarify},
		{ID: 4, Category: "jurisdiction", Query: "Where is an appeal heard?", ExpectedCitation: "T.C.A. § 37-1-159"},
	}
}

type evalFixture struct {
	svc     *EvaluationService
	search  *fakeSearch
	llm     *fakeLLM
	reports *memory.ReportStore
}

func newEvalFixture(t *testing.T) *evalFixture {
	t.Helper()
	settings := domain.DefaultAppSettings().Evaluation
	settings.Concurrency = 2
	scorer, err := evaluation.NewScorer(settings)
	require.NoError(t, err)

	f := &evalFixture{
		search: &fakeSearch{results: []domain.SearchResult{{
			ChunkID: "abc",
			Score:   0.9,
			Metadata: domain.RecordMetadata{
				SourceTag: "TCA37",
				SectionID: "37-1-103",
				Title:     "Exclusive original jurisdiction",
				Text:      "The juvenile court shall have exclusive original jurisdiction.",
			},
		}}},
		llm: &fakeLLM{answers: map[string]string{
			"Which court hears delinquency cases?":                   "The juvenile court, under T.C.A. § 37-1-103.",
			"Can I talk to the prosecutor privately about the case?": "I cannot assist with ex parte communication.",
			"What disposition should I order?":                       "Please provide the prior record before I answer.",
			"Where is an appeal heard?":                              "In circuit court under T.C.A. § 37-1-103.",
		}},
		reports: memory.NewReportStore(),
	}
	f.svc = NewEvaluationService(EvaluationConfig{
		Search:   f.search,
		LLM:      f.llm,
		Prompts:  testPrompts(),
		Scorer:   scorer,
		Reports:  f.reports,
		Settings: settings,
		LLMOpts:  driven.ChatOptions{Temperature: 0.1, MaxTokens: 1000},
		Now:      func() time.Time { return fixedNow },
	})
	return f
}

func TestEvaluationService_Run(t *testing.T) {
	f := newEvalFixture(t)
	ctx := context.Background()

	report, err := f.svc.Run(ctx, evaluationCases(), driving.EvaluationOptions{PromptVersion: "v2.1"})

	require.NoError(t, err)
	assert.Equal(t, "eval_20260314_093000", report.EvaluationID)
	assert.Equal(t, "v2.1", report.PromptVersion)
	assert.Equal(t, 4, report.Summary.TotalQueries)
	assert.Equal(t, 3, report.Summary.Passed)
	assert.InDelta(t, 0.75, report.Summary.OverallAccuracy, 1e-9)

	require.Len(t, report.Results, 4)
	for i, res := range report.Results {
		assert.Equal(t, i+1, res.CaseID, "results keep case order")
	}
	assert.Equal(t, domain.ResponseRefuse, report.Results[1].ResponseType)
	assert.Equal(t, domain.ResponseClarify, report.Results[2].ResponseType)
	require.Len(t, report.FailedQueries, 1)
	assert.Equal(t, 4, report.FailedQueries[0].ID)

	assert.Equal(t, 2, report.CategoryBreakdown["jurisdiction"].Total)
	assert.Equal(t, 1, report.CategoryBreakdown["jurisdiction"].Passed)

	saved, err := f.reports.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, report.EvaluationID, saved.EvaluationID)
}

func TestEvaluationService_Run_BuildsPrompts(t *testing.T) {
	f := newEvalFixture(t)

	_, err := f.svc.Run(context.Background(), evaluationCases(), driving.EvaluationOptions{CaseIDs: []int{1}})
	require.NoError(t, err)

	require.Len(t, f.llm.seen, 1)
	msgs := f.llm.seen[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "system "+DefaultPromptVersion, msgs[0].Content)
	assert.Equal(t, "user", msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "\n---\nSOURCE: TCA37 | 37-1-103\nTITLE: Exclusive original jurisdiction\nTEXT: The juvenile court")
	assert.True(t, strings.HasSuffix(msgs[1].Content, "QUESTION: Which court hears delinquency cases?"))

	assert.Equal(t, []int{5}, f.search.limits)
	assert.InDelta(t, 0.1, f.llm.opts[0].Temperature, 1e-9)
	assert.Equal(t, 1000, f.llm.opts[0].MaxTokens)
}

func TestEvaluationService_Run_Filters(t *testing.T) {
	f := newEvalFixture(t)

	report, err := f.svc.Run(context.Background(), evaluationCases(), driving.EvaluationOptions{Category: "jurisdiction"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Summary.TotalQueries)

	_, err = f.svc.Run(context.Background(), evaluationCases(), driving.EvaluationOptions{Category: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEvaluationService_Run_CaseFailureIsRecorded(t *testing.T) {
	f := newEvalFixture(t)
	f.search.failFor = map[string]error{
		"Which court hears delinquency cases?": domain.ErrVectorIndexUnavailable,
	}

	report, err := f.svc.Run(context.Background(), evaluationCases(), driving.EvaluationOptions{})

	require.NoError(t, err)
	first := report.Results[0]
	assert.False(t, first.Passed)
	assert.Contains(t, first.Error, "retrieve")
	assert.Empty(t, first.FoundCitations)
	assert.Equal(t, 2, report.Summary.Passed)
}

func TestEvaluationService_Run_Cancelled(t *testing.T) {
	f := newEvalFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	f.search.failFor = map[string]error{}
	for _, c := range evaluationCases() {
		f.search.failFor[c.Query] = context.Canceled
	}

	_, err := f.svc.Run(ctx, evaluationCases(), driving.EvaluationOptions{})

	assert.ErrorIs(t, err, context.Canceled)
	_, err = f.reports.Latest(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEvaluationService_Run_RequiresLLM(t *testing.T) {
	svc := NewEvaluationService(EvaluationConfig{})

	_, err := svc.Run(context.Background(), evaluationCases(), driving.EvaluationOptions{})

	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
}

func TestEvaluationService_Run_MissingPrompt(t *testing.T) {
	f := newEvalFixture(t)
	f.svc.cfg.Prompts = fakePrompts{}

	_, err := f.svc.Run(context.Background(), evaluationCases(), driving.EvaluationOptions{})

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFormatSources(t *testing.T) {
	assert.Empty(t, FormatSources(nil))

	got := FormatSources([]domain.SearchResult{
		{Metadata: domain.RecordMetadata{SourceTag: "DCS", SectionID: "14.7", Title: "Placement", Text: "Foster placement."}},
		{Metadata: domain.RecordMetadata{SourceTag: "TRJPP", SectionID: "Rule 2", Title: "Definitions", Text: "Child means."}},
	})
	want := "\n---\nSOURCE: DCS | 14.7\nTITLE: Placement\nTEXT: Foster placement.\n" +
		"\n---\nSOURCE: TRJPP | Rule 2\nTITLE: Definitions\nTEXT: Child means.\n"
	assert.Equal(t, want, got)
}

func TestEvaluationID(t *testing.T) {
	assert.Equal(t, "eval_20260314_093000", EvaluationID(fixedNow))
}
