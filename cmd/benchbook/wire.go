package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/custodia-labs/benchbook/internal/adapters/driven/ai"
	"github.com/custodia-labs/benchbook/internal/adapters/driven/config/file"
	"github.com/custodia-labs/benchbook/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/benchbook/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/benchbook/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/benchbook/internal/adapters/driving/cli"
	"github.com/custodia-labs/benchbook/internal/connectors/filesystem"
	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/core/services"
	"github.com/custodia-labs/benchbook/internal/evaluation"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/normalisers"
	"github.com/custodia-labs/benchbook/internal/normalisers/html"
	"github.com/custodia-labs/benchbook/internal/normalisers/plaintext"
	"github.com/custodia-labs/benchbook/internal/postprocessors"
	"github.com/custodia-labs/benchbook/internal/tokens"
)

// closers releases resources in reverse order of acquisition.
type closers struct {
	mu  sync.Mutex
	fns []func() error
}

func (c *closers) add(fn func() error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fns = append(c.fns, fn)
}

func (c *closers) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			logger.Warn("close_failed", "error", err)
		}
	}
	c.fns = nil
}

// stores is the storage a command runs against.
type stores struct {
	index     driven.VectorIndex
	manifests driven.ManifestStore
	reports   driven.ReportStore
}

// bootstrap wires the services a command asked for. Providers are created
// only when opts.Needs requires them, so dry runs and catalog reads work
// without credentials.
func bootstrap(ctx context.Context, opts cli.BootstrapOptions) (_ *cli.Services, err error) {
	var cl closers
	defer func() {
		if err != nil {
			cl.close()
		}
	}()

	configStore, err := file.NewConfigStore(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if verr := settingsService.Validate(); verr != nil {
		logger.Warn("settings_invalid", "error", verr)
	}

	var embedder driven.EmbeddingService
	if opts.Needs.Embedding {
		embedder, err = ai.CreateAndValidateEmbeddingService(&settings.Embedding, settings.Batching)
		if err != nil {
			return nil, err
		}
		cl.add(embedder.Close)
	}

	var llm driven.LLMService
	if opts.Needs.LLM {
		llm, err = ai.CreateAndValidateLLMService(&settings.LLM)
		if err != nil {
			return nil, err
		}
		cl.add(llm.Close)
	}

	st, err := openStores(ctx, settings, opts.ConfigDir, dimensionFor(settings.Embedding, embedder), &cl)
	if err != nil {
		return nil, err
	}

	var promptDir string
	if opts.ConfigDir != "" {
		promptDir = filepath.Join(opts.ConfigDir, "prompts")
	}
	prompts, err := file.NewPromptStore(promptDir)
	if err != nil {
		return nil, fmt.Errorf("opening prompts: %w", err)
	}

	counter := tokens.Heuristic{}
	registry := postprocessors.NewRegistry()
	postprocessors.RegisterDefaults(registry, counter)
	pipeline, err := postprocessors.BuildPipeline(registry, domain.PipelineConfigFor(settings.Chunking))
	if err != nil {
		return nil, err
	}

	ingest := services.NewIngestService(services.IngestConfig{
		Pipeline:    pipeline,
		Registry:    normalisers.NewRegistry(html.New(), plaintext.New(time.Now)),
		Embedder:    embedder,
		Index:       st.index,
		Manifests:   st.manifests,
		Counter:     counter,
		Batching:    settings.Batching,
		UpsertBatch: settings.Storage.UpsertBatch,
	})

	search, err := services.NewSearchService(embedder, st.index, settings.Retrieval)
	if err != nil {
		return nil, err
	}

	scorer, err := evaluation.NewScorer(settings.Evaluation)
	if err != nil {
		return nil, fmt.Errorf("building scorer: %w", err)
	}
	eval := services.NewEvaluationService(services.EvaluationConfig{
		Search:   search,
		LLM:      llm,
		Prompts:  prompts,
		Scorer:   scorer,
		Reports:  st.reports,
		Settings: settings.Evaluation,
		LLMOpts: driven.ChatOptions{
			MaxTokens:   settings.LLM.MaxTokens,
			Temperature: settings.LLM.Temperature,
		},
	})

	return &cli.Services{
		Settings:   settingsService,
		Search:     search,
		Ingest:     ingest,
		Evaluation: eval,
		Catalog:    services.NewCatalogService(st.manifests, st.reports),
		Corpus: func(root string) driving.CorpusIngestor {
			conn := filesystem.New(root)
			cl.add(conn.Close)
			return services.NewCorpusService(conn, ingest)
		},
		ServerAddr: settings.Server.Addr,
		Close:      cl.close,
	}, nil
}

// dimensionFor prefers the configured dimension, then the live provider,
// then the known dimension of the configured model. Zero means unknown.
func dimensionFor(s domain.EmbeddingSettings, embedder driven.EmbeddingService) int {
	if s.Dimensions > 0 {
		return s.Dimensions
	}
	if embedder != nil {
		return embedder.Dimensions()
	}
	return domain.EmbeddingDimensions()[s.Model]
}

// openStores opens the configured backend. Manifests and reports live in
// sqlite for both the sqlite and postgres backends.
func openStores(
	ctx context.Context,
	settings *domain.AppSettings,
	configDir string,
	dimension int,
	cl *closers,
) (*stores, error) {
	backend := settings.Storage.Backend
	if backend == domain.StorageMemory {
		return &stores{
			index:     memory.NewVectorIndex(dimension),
			manifests: memory.NewManifestStore(),
			reports:   memory.NewReportStore(),
		}, nil
	}

	dataDir := settings.Storage.DataDir
	if dataDir == "" && configDir != "" {
		dataDir = filepath.Join(configDir, "data")
	}
	db, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite store: %w", err)
	}
	cl.add(db.Close)

	st := &stores{
		index:     db.VectorIndex(),
		manifests: db.ManifestStore(),
		reports:   db.ReportStore(),
	}

	switch backend {
	case domain.StorageSQLite:
		return st, nil
	case domain.StoragePostgres:
		if settings.Storage.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: postgres backend needs %s", domain.ErrInvalidInput, services.EnvPostgresDSN)
		}
		if dimension <= 0 {
			// Catalog reads and dry runs never touch the index.
			st.index = nil
			return st, nil
		}
		pg, err := postgres.Open(ctx, settings.Storage.PostgresDSN, dimension)
		if err != nil {
			return nil, err
		}
		cl.add(pg.Close)
		st.index = pg
		return st, nil
	default:
		return nil, fmt.Errorf("%w: unknown storage backend %q", domain.ErrInvalidInput, backend)
	}
}
