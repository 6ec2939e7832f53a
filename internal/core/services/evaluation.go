package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/evaluation"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/metrics"
)

// Ensure EvaluationService implements the interface.
var _ driving.EvaluationService = (*EvaluationService)(nil)

// DefaultPromptVersion labels runs that do not name a prompt version.
const DefaultPromptVersion = "v1.0"

// EvaluationConfig wires an EvaluationService. Reports may be nil.
type EvaluationConfig struct {
	Search   driving.SearchService
	LLM      driven.LLMService
	Prompts  driven.PromptStore
	Scorer   *evaluation.Scorer
	Reports  driven.ReportStore
	Settings domain.EvaluationSettings
	LLMOpts  driven.ChatOptions

	// Now is the report clock; defaults to time.Now.
	Now func() time.Time
}

// EvaluationService runs gold cases through retrieval and generation and
// scores the answers.
type EvaluationService struct {
	cfg EvaluationConfig
}

// NewEvaluationService creates an evaluation service.
func NewEvaluationService(cfg EvaluationConfig) *EvaluationService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Settings.Concurrency <= 0 {
		cfg.Settings.Concurrency = 1
	}
	if cfg.Settings.TopK <= 0 {
		cfg.Settings.TopK = 5
	}
	return &EvaluationService{cfg: cfg}
}

// Run evaluates the cases selected by opts with bounded concurrency. A case
// whose retrieval or generation fails is recorded as failed and the run
// continues; only cancellation aborts it.
func (s *EvaluationService) Run(
	ctx context.Context,
	cases []domain.EvaluationCase,
	opts driving.EvaluationOptions,
) (*domain.Report, error) {
	if s.cfg.LLM == nil {
		return nil, domain.ErrLLMUnavailable
	}
	if s.cfg.Search == nil || s.cfg.Scorer == nil || s.cfg.Prompts == nil {
		return nil, fmt.Errorf("%w: evaluation service is not fully configured", domain.ErrInvalidInput)
	}

	selected := evaluation.Filter(cases, opts.Category, opts.CaseIDs)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no evaluation cases match the filters", domain.ErrInvalidInput)
	}

	version := opts.PromptVersion
	if version == "" {
		version = DefaultPromptVersion
	}
	system, userTmpl, err := s.templates(version)
	if err != nil {
		return nil, err
	}

	started := s.cfg.Now()
	logger.Info("evaluation_started", "cases", len(selected), "prompt_version", version)

	results := make([]domain.EvaluationResult, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Settings.Concurrency)
	for i, c := range selected {
		g.Go(func() error {
			res, err := s.runCase(gctx, c, system, userTmpl)
			if err != nil {
				return err
			}
			results[i] = res
			metrics.RecordEvaluation(c.Category, res.Passed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := evaluation.BuildReport(results, evaluation.ReportMeta{
		EvaluationID:  EvaluationID(started),
		PromptVersion: version,
		Timestamp:     started,
		Elapsed:       s.cfg.Now().Sub(started),
	})

	if s.cfg.Reports != nil {
		if err := s.cfg.Reports.Save(ctx, report); err != nil {
			logger.Warn("report_save_failed", "evaluation_id", report.EvaluationID, "error", err)
		}
	}

	logger.Info("evaluation_completed", "evaluation_id", report.EvaluationID,
		"passed", report.Summary.Passed, "total", report.Summary.TotalQueries,
		"accuracy", report.Summary.OverallAccuracy)
	return report, nil
}

// EvaluationID formats the run id from its start time.
func EvaluationID(t time.Time) string {
	return "eval_" + t.UTC().Format("20060102_150405")
}

func (s *EvaluationService) templates(version string) (system, user string, err error) {
	sysTmpl, err := s.cfg.Prompts.Load(driven.PromptAnswerSystem)
	if err != nil {
		return "", "", fmt.Errorf("load system prompt: %w", err)
	}
	user, err = s.cfg.Prompts.Load(driven.PromptAnswerUser)
	if err != nil {
		return "", "", fmt.Errorf("load user prompt: %w", err)
	}
	return fmt.Sprintf(sysTmpl, version), user, nil
}

// runCase returns an error only when the run must stop.
func (s *EvaluationService) runCase(
	ctx context.Context,
	c domain.EvaluationCase,
	system, userTmpl string,
) (domain.EvaluationResult, error) {
	start := time.Now()

	answer, err := s.answer(ctx, c.Query, system, userTmpl)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) {
			return domain.EvaluationResult{}, err
		}
		logger.Warn("evaluation_case_failed", "id", c.ID, "error", err, "error_type", domain.ErrorKind(err))
		return domain.EvaluationResult{
			CaseID:             c.ID,
			Category:           c.Category,
			Query:              c.Query,
			ExpectedCitation:   c.ExpectedCitation,
			FoundCitations:     []string{},
			ResponseTimeMillis: elapsedMillis(start),
			Error:              err.Error(),
		}, nil
	}

	res := s.cfg.Scorer.Score(c, answer)
	res.ResponseTimeMillis = elapsedMillis(start)
	logger.Debug("evaluation_case_scored", "id", c.ID, "passed", res.Passed,
		"accuracy", res.CitationAccuracy, "response_type", res.ResponseType)
	return res, nil
}

func (s *EvaluationService) answer(ctx context.Context, query, system, userTmpl string) (string, error) {
	hits, err := s.cfg.Search.Search(ctx, query, domain.SearchOptions{Limit: s.cfg.Settings.TopK})
	if err != nil {
		return "", fmt.Errorf("retrieve: %w", err)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(userTmpl, FormatSources(hits), query)},
	}
	answer, err := s.cfg.LLM.Chat(ctx, messages, s.cfg.LLMOpts)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return answer, nil
}

// FormatSources renders retrieved chunks as the LEGAL SOURCES block.
func FormatSources(hits []domain.SearchResult) string {
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "\n---\nSOURCE: %s | %s\n", h.Metadata.SourceTag, h.Metadata.SectionID)
		fmt.Fprintf(&b, "TITLE: %s\n", h.Metadata.Title)
		fmt.Fprintf(&b, "TEXT: %s\n", h.Metadata.Text)
	}
	return b.String()
}

func elapsedMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000
}
