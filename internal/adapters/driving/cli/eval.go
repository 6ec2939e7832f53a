package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	coreservices "github.com/custodia-labs/benchbook/internal/core/services"
	"github.com/custodia-labs/benchbook/internal/evaluation"
)

var (
	evalCategory      string
	evalIDs           []int
	evalDataset       string
	evalPromptVersion string
	evalOut           string
	evalJSON          bool
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Run the gold evaluation set",
	Long: `Runs each gold query through retrieval and generation, extracts the
citations from the response, and scores them against the expected citation.

Cases expecting REFUSE or CLARIFY pass when the response is classified as a
refusal or a request for clarification. The report is stored and can be
written to a file with --out.`,
	RunE: runEval,
}

var evalLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the most recent evaluation report",
	RunE:  runEvalLatest,
}

func init() {
	evalCmd.Flags().StringVar(&evalCategory, "category", "", "only run cases in this category")
	evalCmd.Flags().IntSliceVar(&evalIDs, "ids", nil, "only run these case ids (comma separated)")
	evalCmd.Flags().StringVar(&evalDataset, "dataset", "", "YAML dataset file (default: built-in gold set)")
	evalCmd.Flags().StringVar(&evalPromptVersion, "prompt-version", coreservices.DefaultPromptVersion, "prompt version label")
	evalCmd.Flags().StringVarP(&evalOut, "out", "o", "", "write the report as JSON to this file")
	evalCmd.Flags().BoolVar(&evalJSON, "json", false, "print the report as JSON")
	evalLatestCmd.Flags().BoolVar(&evalJSON, "json", false, "print the report as JSON")
	evalCmd.AddCommand(evalLatestCmd)
	rootCmd.AddCommand(evalCmd)
}

func runEval(cmd *cobra.Command, _ []string) error {
	cases, err := loadCases(evalDataset)
	if err != nil {
		return err
	}

	svc, release, err := loadServices(cmd, Needs{Embedding: true, LLM: true})
	if err != nil {
		return err
	}
	defer release()
	if svc.Evaluation == nil {
		return errors.New("evaluation service not configured")
	}

	report, err := svc.Evaluation.Run(cmd.Context(), cases, driving.EvaluationOptions{
		Category:      evalCategory,
		CaseIDs:       evalIDs,
		PromptVersion: evalPromptVersion,
	})
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}

	if evalOut != "" {
		if err := writeReport(evalOut, report); err != nil {
			return err
		}
	}
	if evalJSON {
		return printJSON(cmd, report)
	}
	renderReport(cmd, report)
	if evalOut != "" {
		cmd.Printf("\nReport written to %s\n", evalOut)
	}
	return nil
}

func runEvalLatest(cmd *cobra.Command, _ []string) error {
	svc, release, err := loadServices(cmd, Needs{})
	if err != nil {
		return err
	}
	defer release()
	if svc.Catalog == nil {
		return errors.New("catalog not configured")
	}

	report, err := svc.Catalog.LatestReport(cmd.Context())
	if errors.Is(err, domain.ErrNotFound) {
		cmd.Println("No evaluation reports yet. Run 'benchbook eval'.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load report: %w", err)
	}

	if evalJSON {
		return printJSON(cmd, report)
	}
	renderReport(cmd, report)
	return nil
}

func loadCases(path string) ([]domain.EvaluationCase, error) {
	if path == "" {
		return evaluation.DefaultDataset()
	}
	return evaluation.LoadDataset(path)
}

func writeReport(path string, r *domain.Report) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func renderReport(cmd *cobra.Command, r *domain.Report) {
	s := r.Summary
	cmd.Println(headingStyle.Render(fmt.Sprintf("Evaluation %s (prompt %s)", r.EvaluationID, r.PromptVersion)))
	cmd.Println()

	overall := fmt.Sprintf("%.1f%%", s.OverallAccuracy*100)
	if s.Failed == 0 {
		overall = passStyle.Render(overall)
	} else {
		overall = failStyle.Render(overall)
	}
	cmd.Printf("  Passed:             %d/%d (%s)\n", s.Passed, s.TotalQueries, overall)
	cmd.Printf("  Citation accuracy:  %.1f%%\n", s.AvgCitationAccuracy*100)
	cmd.Printf("  Avg response time:  %.0f ms\n", s.AvgResponseTimeMs)
	cmd.Printf("  Processing time:    %.1f s\n", r.ProcessingTimeSeconds)
	cmd.Println()

	cmd.Println(categoryTable(r.CategoryBreakdown))

	if len(r.FailedQueries) == 0 {
		return
	}
	cmd.Println()
	cmd.Println(headingStyle.Render("Failed queries:"))
	for _, f := range r.FailedQueries {
		found := "none"
		if len(f.Actual) > 0 {
			found = strings.Join(f.Actual, ", ")
		}
		cmd.Printf("  #%d %s\n", f.ID, snippet(f.Query, 80))
		cmd.Printf("      expected %s, found %s\n", citeStyle.Render(f.Expected), found)
	}
}

func categoryTable(breakdown map[string]domain.CategoryStats) string {
	names := make([]string, 0, len(breakdown))
	for name := range breakdown {
		names = append(names, name)
	}
	slices.Sort(names)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("CATEGORY", "PASSED", "TOTAL", "ACCURACY").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headingStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, name := range names {
		c := breakdown[name]
		t.Row(name, fmt.Sprint(c.Passed), fmt.Sprint(c.Total), fmt.Sprintf("%.0f%%", c.Accuracy*100))
	}
	return t.String()
}
