package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/benchbook/internal/core/domain"
)

var manifestCmd = &cobra.Command{
	Use:   "manifest [document-key]",
	Short: "List ingested documents or show one manifest",
	Long: `Without arguments, lists every ingested document with its chunk count.
With a document key, prints that document's ingest manifest as JSON.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runManifest,
}

func init() {
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, args []string) error {
	svc, release, err := loadServices(cmd, Needs{})
	if err != nil {
		return err
	}
	defer release()
	if svc.Catalog == nil {
		return errors.New("catalog not configured")
	}

	if len(args) == 1 {
		m, err := svc.Catalog.Manifest(cmd.Context(), args[0])
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("no manifest for %q", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get manifest: %w", err)
		}
		return printJSON(cmd, m)
	}

	manifests, err := svc.Catalog.Manifests(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list manifests: %w", err)
	}
	if len(manifests) == 0 {
		cmd.Println("No documents ingested yet. Run 'benchbook ingest <corpus-dir>'.")
		return nil
	}

	for i := range manifests {
		m := &manifests[i]
		cmd.Printf("  %s  %s  %d chunks  %s\n",
			citeStyle.Render(m.SourceTag+" "+m.SectionID), m.DocumentKey, m.Stats.TotalChunks,
			dimStyle.Render(m.ProcessedAt.Format("2006-01-02 15:04")))
	}
	cmd.Printf("\n%d documents\n", len(manifests))
	return nil
}
