package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
)

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	dir := t.TempDir()

	store, err := NewPromptStore(dir)

	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)

	for _, f := range []string{"answer_system.txt", "answer_user.txt", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}
}

func TestPromptStore_DefaultsFormat(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	system, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	rendered := fmt.Sprintf(system, "v2")
	assert.True(t, strings.HasSuffix(rendered, "Prompt Version: v2"))
	assert.Contains(t, rendered, "CLARIFY")

	user, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	msg := fmt.Sprintf(user, "SOURCE: TCA | 37-1-117", "Removal hearing timeframe?")
	assert.True(t, strings.HasPrefix(msg, "LEGAL SOURCES:\nSOURCE: TCA | 37-1-117\nJUDGE'S QUESTION:\nRemoval hearing timeframe?"))
}

func TestPromptStore_UserEditsAndReload(t *testing.T) {
	dir := t.TempDir()
	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	_, err = store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)

	path := filepath.Join(dir, "answer_user.txt")
	require.NoError(t, os.WriteFile(path, []byte("  Q: %s %s\n"), 0600))

	cached, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	assert.NotEqual(t, "Q: %s %s", cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	assert.Equal(t, "Q: %s %s", fresh)
}

func TestPromptStore_ExistingFilesNotOverwritten(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "answer_system.txt")
	require.NoError(t, os.WriteFile(path, []byte("custom %s"), 0600))

	store, err := NewPromptStore(dir)
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAnswerSystem)
	require.NoError(t, err)
	assert.Equal(t, "custom %s", got)
}

func TestPromptStore_UnknownPrompt(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Load("nope")

	assert.Error(t, err)
}

func TestPromptStore_InitFailureFallsBack(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	store, err := NewPromptStore(filepath.Join(blocker, "prompts"))
	require.NoError(t, err)

	got, err := store.Load(driven.PromptAnswerUser)
	require.NoError(t, err)
	assert.Equal(t, defaultPrompts[driven.PromptAnswerUser], got)

	_, err = store.Load("nope")
	assert.Error(t, err)
}

func TestPromptStore_ConcurrentLoad(t *testing.T) {
	store, err := NewPromptStore(t.TempDir())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Load(driven.PromptAnswerSystem)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}
