package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/benchbook/internal/adapters/driving/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP search server",
	Long: `Serves the vector index over HTTP:

  POST /search   {"query": "...", "top_k": 5}
  GET  /health   {"status": "ok", "chunks": N}
  GET  /metrics  Prometheus metrics

top_k defaults to the configured value and is clamped to the configured
maximum. The listen address defaults to [server] addr in config.toml.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	addr, err := cmd.Flags().GetString("addr")
	if err != nil {
		return fmt.Errorf("getting addr flag: %w", err)
	}

	svc, release, err := loadServices(cmd, Needs{Embedding: true})
	if err != nil {
		return err
	}
	defer release()
	if svc.Search == nil {
		return fmt.Errorf("search service not configured")
	}

	if addr == "" {
		addr = svc.ServerAddr
	}
	cmd.Printf("Search server listening on http://%s\n", addr)
	return httpapi.NewServer(svc.Search).Run(cmd.Context(), addr)
}
