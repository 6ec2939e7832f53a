package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
)

var (
	ingestDryRun bool
	ingestWatch  bool
	ingestJSON   bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <corpus-dir>",
	Short: "Chunk, embed, and index a legal corpus",
	Long: `Walks the corpus directory for .html, .htm and .txt files, chunks each
document, embeds the chunks and upserts them into the vector index.
Chunk ids are content addressed, so re-running an ingest is idempotent.

Directories named _processed and dot-files are skipped.

Use --dry-run to chunk and print manifests without calling the embedding
provider, and --watch to keep re-ingesting files as they change.`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "chunk only; do not embed or index")
	ingestCmd.Flags().BoolVar(&ingestWatch, "watch", false, "keep watching the corpus for changes")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output manifests as JSON")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	svc, release, err := loadServices(cmd, Needs{Embedding: !ingestDryRun})
	if err != nil {
		return err
	}
	defer release()
	if svc.Corpus == nil {
		return fmt.Errorf("ingest service not configured")
	}

	corpus := svc.Corpus(args[0])
	opts := driving.IngestOptions{DryRun: ingestDryRun}

	summary, err := corpus.IngestAll(cmd.Context(), opts)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	if ingestJSON {
		if err := printJSON(cmd, summary.Manifests); err != nil {
			return err
		}
	} else {
		printIngestSummary(cmd, summary, ingestDryRun)
	}

	if !ingestWatch {
		return nil
	}
	cmd.Printf("Watching %s for changes (Ctrl+C to stop)...\n", args[0])
	return corpus.Watch(cmd.Context(), opts)
}

func printIngestSummary(cmd *cobra.Command, s *driving.CorpusSummary, dryRun bool) {
	for i := range s.Manifests {
		m := &s.Manifests[i]
		line := fmt.Sprintf("  %s  %-40s %4d chunks", citeStyle.Render(m.SourceTag+" "+m.SectionID),
			snippet(m.Title, 40), m.Stats.TotalChunks)
		if m.Stats.Truncated {
			line += " " + failStyle.Render("(truncated)")
		}
		for _, d := range m.Diagnostics {
			if d.Kind == domain.DiagnosticDegenerate {
				line += " " + dimStyle.Render("(too short)")
			}
		}
		cmd.Println(line)
	}
	if len(s.Manifests) > 0 {
		cmd.Println()
	}

	verb := "Indexed"
	if dryRun {
		verb = "Chunked (dry run)"
	}
	cmd.Printf("%s %d documents from %d files: %d chunks, %d failed.\n",
		verb, s.Documents, s.Files, s.Chunks, s.Failed)
}
