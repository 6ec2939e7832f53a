package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigStore_Success(t *testing.T) {
	tmpDir := t.TempDir()

	store, err := NewConfigStore(tmpDir)

	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tmpDir, "config.toml"), store.Path())
}

func TestNewConfigStore_InvalidFile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte("[chunking\n"), 0600))

	_, err := NewConfigStore(tmpDir)

	assert.Error(t, err)
}

func TestConfigStore_ReadsNestedTables(t *testing.T) {
	tmpDir := t.TempDir()
	content := `
[chunking]
target_size = 1200
overlap = 150

[llm]
model = "gpt-4o-mini"
temperature = 0.2

[evaluation]
pass_threshold = 1
refuse_keywords = ["cannot", "decline"]
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "config.toml"), []byte(content), 0600))

	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, 1200, store.GetInt("chunking.target_size"))
	assert.Equal(t, 150, store.GetInt("chunking.overlap"))
	assert.Equal(t, "gpt-4o-mini", store.GetString("llm.model"))
	assert.InDelta(t, 0.2, store.GetFloat("llm.temperature"), 1e-9)
	assert.Equal(t, 1.0, store.GetFloat("evaluation.pass_threshold"))
	assert.Equal(t, []string{"cannot", "decline"}, store.GetStringSlice("evaluation.refuse_keywords"))
}

func TestConfigStore_TypedGettersOnMissingOrWrongType(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("server.addr", "127.0.0.1:9000"))

	assert.Equal(t, "", store.GetString("missing"))
	assert.Equal(t, 0, store.GetInt("server.addr"))
	assert.Equal(t, 0.0, store.GetFloat("server.addr"))
	assert.False(t, store.GetBool("server.addr"))
	assert.Nil(t, store.GetStringSlice("server.addr"))
}

func TestConfigStore_SetPersistsAsTables(t *testing.T) {
	tmpDir := t.TempDir()
	store, err := NewConfigStore(tmpDir)
	require.NoError(t, err)

	require.NoError(t, store.Set("retrieval.default_top_k", 7))
	require.NoError(t, store.Set("storage.backend", "postgres"))
	require.NoError(t, store.Set("server.metrics", true))

	raw, err := os.ReadFile(store.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), "[retrieval]")
	assert.Contains(t, string(raw), "[storage]")

	reopened, err := NewConfigStore(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 7, reopened.GetInt("retrieval.default_top_k"))
	assert.Equal(t, "postgres", reopened.GetString("storage.backend"))
	assert.True(t, reopened.GetBool("server.metrics"))
}

func TestConfigStore_SetConflictingKey(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, store.Set("llm.model", "gpt-4o"))

	err = store.Set("llm", "openai")

	assert.Error(t, err)
}

func TestConfigStore_LoadMissingFileIsEmpty(t *testing.T) {
	store, err := NewConfigStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, store.Load())
	_, ok := store.Get("anything")
	assert.False(t, ok)
}

func TestFlattenAndNestRoundTrip(t *testing.T) {
	nested := map[string]any{
		"a": map[string]any{"b": int64(1), "c": map[string]any{"d": "x"}},
		"e": true,
	}

	flat := flattenMap(nested, "")
	assert.Equal(t, map[string]any{"a.b": int64(1), "a.c.d": "x", "e": true}, flat)

	back, err := nestMap(flat)
	require.NoError(t, err)
	assert.Equal(t, nested, back)
}
