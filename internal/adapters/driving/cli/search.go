package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

var (
	searchLimit int
	searchJSON  bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search indexed legal sources",
	Long: `Embeds the query and returns the closest chunks by cosine similarity,
keeping only the best chunk per source section.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "maximum number of results (0 = configured default)")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

// searchResultJSON is the --json shape of one result.
type searchResultJSON struct {
	ChunkID   string  `json:"chunk_id"`
	Source    string  `json:"source"`
	SectionID string  `json:"section_id"`
	Title     string  `json:"title"`
	Score     float64 `json:"score"`
	Text      string  `json:"text"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	svc, release, err := loadServices(cmd, Needs{Embedding: true})
	if err != nil {
		return err
	}
	defer release()
	if svc.Search == nil {
		return fmt.Errorf("search service not configured")
	}

	results, err := svc.Search.Search(cmd.Context(), args[0], domain.SearchOptions{Limit: searchLimit})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

func outputSearchJSON(cmd *cobra.Command, results []domain.SearchResult) error {
	out := make([]searchResultJSON, len(results))
	for i, r := range results {
		out[i] = searchResultJSON{
			ChunkID:   r.ChunkID,
			Source:    r.Metadata.SourceTag,
			SectionID: r.Metadata.SectionID,
			Title:     r.Metadata.Title,
			Score:     r.Score,
			Text:      r.Metadata.Text,
		}
	}
	return printJSON(cmd, out)
}

func outputSearchTable(cmd *cobra.Command, results []domain.SearchResult) error {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return nil
	}

	cmd.Println(headingStyle.Render("Results:"))
	cmd.Println()
	for i, r := range results {
		md := r.Metadata
		title := md.Title
		if title == "" {
			title = md.DocumentKey
		}
		cite := citeStyle.Render(md.SourceTag + " " + md.SectionID)
		cmd.Printf("  [%d] %s  %s (%.2f)\n", i+1, cite, title, r.Score)
		if md.Text != "" {
			cmd.Printf("      %s\n", dimStyle.Render(snippet(md.Text, 200)))
		}
		cmd.Println()
	}
	return nil
}
