package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/benchbook/internal/adapters/driven/config/file"
	"github.com/custodia-labs/benchbook/internal/adapters/driving/cli"
	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
)

func setBackend(t *testing.T, dir string, backend domain.StorageBackend) {
	t.Helper()
	store, err := file.NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("storage.backend", string(backend)))
}

func TestBootstrap_WithoutProviders(t *testing.T) {
	dir := t.TempDir()
	setBackend(t, dir, domain.StorageMemory)

	svc, err := bootstrap(context.Background(), cli.BootstrapOptions{ConfigDir: dir})
	require.NoError(t, err)
	defer svc.Close()

	assert.NotNil(t, svc.Settings)
	assert.NotNil(t, svc.Search)
	assert.NotNil(t, svc.Ingest)
	assert.NotNil(t, svc.Evaluation)
	assert.NotNil(t, svc.Catalog)
	assert.NotEmpty(t, svc.ServerAddr)

	manifests, err := svc.Catalog.Manifests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, manifests)
}

func TestBootstrap_DryRunIngest(t *testing.T) {
	dir := t.TempDir()
	corpus := t.TempDir()
	body := strings.Repeat("A person arrested must be brought before a magistrate without delay. ", 20)
	require.NoError(t, os.WriteFile(filepath.Join(corpus, "arrest.txt"), []byte(body), 0o644))

	svc, err := bootstrap(context.Background(), cli.BootstrapOptions{ConfigDir: dir})
	require.NoError(t, err)
	defer svc.Close()

	summary, err := svc.Corpus(corpus).IngestAll(context.Background(), driving.IngestOptions{DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Files)
	assert.Equal(t, 1, summary.Documents)
	assert.Zero(t, summary.Failed)
	assert.Positive(t, summary.Chunks)

	// Dry runs leave the catalog untouched.
	manifests, err := svc.Catalog.Manifests(context.Background())
	require.NoError(t, err)
	assert.Empty(t, manifests)

	_, err = os.Stat(filepath.Join(dir, "data"))
	assert.NoError(t, err)
}

func TestBootstrap_PostgresNeedsDSN(t *testing.T) {
	t.Setenv("BENCHBOOK_POSTGRES_DSN", "")
	dir := t.TempDir()
	setBackend(t, dir, domain.StoragePostgres)

	_, err := bootstrap(context.Background(), cli.BootstrapOptions{ConfigDir: dir})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDimensionFor(t *testing.T) {
	assert.Equal(t, 256, dimensionFor(domain.EmbeddingSettings{Model: "text-embedding-3-small", Dimensions: 256}, nil))
	assert.Equal(t, 1536, dimensionFor(domain.EmbeddingSettings{Model: "text-embedding-3-small"}, nil))
	assert.Zero(t, dimensionFor(domain.EmbeddingSettings{Model: "unknown"}, nil))
}
