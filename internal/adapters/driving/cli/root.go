// Package cli provides the benchbook command-line interface.
package cli

import (
	"context"
	"errors"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/logger"
)

// version is set at build time via -ldflags or by SetVersion.
var version = "dev"

// envFiles are loaded before every command. Variables already set in the
// environment win, and earlier files win over later ones.
var envFiles = []string{"app/.env.local", ".env.local"}

var (
	verbose   bool
	logJSON   bool
	configDir string
)

// Needs lists the providers a command cannot run without.
type Needs struct {
	Embedding bool
	LLM       bool
}

// BootstrapOptions is passed to the bootstrap function.
type BootstrapOptions struct {
	// ConfigDir overrides ~/.benchbook when non-empty.
	ConfigDir string
	Needs     Needs
}

// Services holds the driving ports commands call. A port the command did
// not ask for may be nil.
type Services struct {
	Settings   driving.SettingsService
	Search     driving.SearchService
	Ingest     driving.IngestService
	Evaluation driving.EvaluationService
	Catalog    driving.CatalogService

	// Corpus returns an ingestor over a corpus directory.
	Corpus func(root string) driving.CorpusIngestor

	// ServerAddr is the configured HTTP listen address.
	ServerAddr string

	// Close releases clients and stores. May be nil.
	Close func()
}

// BootstrapFunc builds the services for one command invocation.
type BootstrapFunc func(ctx context.Context, opts BootstrapOptions) (*Services, error)

var (
	bootstrap BootstrapFunc

	// services, when set, is used instead of calling bootstrap.
	services *Services
)

var rootCmd = &cobra.Command{
	Use:   "benchbook",
	Short: "Legal research retrieval for juvenile court benches",
	Long: `BenchBook ingests statutes, court rules, and agency policies into a
vector index and answers questions against them with citations.

Run 'benchbook settings' to configure providers, 'benchbook ingest <dir>'
to index a corpus, then 'benchbook search' or 'benchbook serve'.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		loadEnvFiles()
		logger.SetVerbose(verbose)
		logger.SetJSON(logJSON)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log progress and diagnostics")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON records")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "configuration directory (default ~/.benchbook)")
}

// SetVersion sets the version reported by 'benchbook version'.
func SetVersion(v string) {
	version = v
}

// SetBootstrap installs the function that wires services for commands.
func SetBootstrap(fn BootstrapFunc) {
	bootstrap = fn
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadServices returns the injected services or bootstraps new ones.
// The returned release func is always safe to call.
func loadServices(cmd *cobra.Command, needs Needs) (*Services, func(), error) {
	if services != nil {
		return services, func() {}, nil
	}
	if bootstrap == nil {
		return nil, func() {}, errors.New("services not configured")
	}

	s, err := bootstrap(cmd.Context(), BootstrapOptions{ConfigDir: configDir, Needs: needs})
	if err != nil {
		return nil, func() {}, err
	}
	return s, func() {
		if s.Close != nil {
			s.Close()
		}
	}, nil
}

func loadEnvFiles() {
	for _, f := range envFiles {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			logger.Warn("env_file_unreadable", "path", f, "error", err)
		}
	}
}
