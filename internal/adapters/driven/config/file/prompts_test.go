package file

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

var testDefaults = map[string]string{
	driven.PromptOutlineGeneration: "Outline {{.Topic}} to depth {{.MaxDepth}}.\n{{.Context}}",
}

func newTestPromptStore(t *testing.T) (*PromptStore, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)
	return store, dir
}

func TestNewPromptStore_WithCustomDir(t *testing.T) {
	store, dir := newTestPromptStore(t)

	assert.Equal(t, dir, store.Dir())
	assert.Equal(t, filepath.Join(dir, "outline_generation.tmpl"), store.Path(driven.PromptOutlineGeneration))
}

func TestNewPromptStore_NoIOBeforeLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "prompts")

	_, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestPromptStore_Load_CreatesDefaultFiles(t *testing.T) {
	store, dir := newTestPromptStore(t)

	_, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)

	for _, f := range []string{"outline_generation.tmpl", "README.md"} {
		_, err := os.Stat(filepath.Join(dir, f))
		assert.NoError(t, err, "expected file %s to exist", f)
	}

	readme, err := os.ReadFile(filepath.Join(dir, "README.md"))
	require.NoError(t, err)
	assert.Contains(t, string(readme), "{{.Topic}}")
}

func TestPromptStore_Load_ReturnsDefaultContent(t *testing.T) {
	store, _ := newTestPromptStore(t)

	prompt, err := store.Load(driven.PromptOutlineGeneration)

	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.Topic}}")
}

func TestPromptStore_Load_ReturnsCustomContent(t *testing.T) {
	dir := t.TempDir()
	custom := "Custom outline for {{.Topic}}"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "outline_generation.tmpl"), []byte(custom+"\n\n"), 0600))

	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)
	assert.Equal(t, custom, prompt)
}

func TestPromptStore_Load_DoesNotOverwriteExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "outline_generation.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("mine"), 0600))

	store, err := NewPromptStore(dir, testDefaults)
	require.NoError(t, err)
	_, err = store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "mine", string(data))
}

func TestPromptStore_Load_UnknownPrompt(t *testing.T) {
	store, _ := newTestPromptStore(t)

	_, err := store.Load("nonexistent")

	assert.Error(t, err)
}

func TestPromptStore_Load_FallsBackWhenFileDeleted(t *testing.T) {
	store, dir := newTestPromptStore(t)
	_, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(dir, "outline_generation.tmpl")))
	store.Reload()

	prompt, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptOutlineGeneration], prompt)
}

func TestPromptStore_Load_FallsBackWhenInitFails(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts", testDefaults)
	require.NoError(t, err)

	prompt, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)
	assert.Equal(t, testDefaults[driven.PromptOutlineGeneration], prompt)

	_, err = store.Load("nonexistent")
	assert.Error(t, err)
}

func TestPromptStore_Reload(t *testing.T) {
	store, dir := newTestPromptStore(t)
	path := filepath.Join(dir, "outline_generation.tmpl")

	first, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(path, []byte("edited {{.Topic}}"), 0600))

	cached, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	store.Reload()
	fresh, err := store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)
	assert.Equal(t, "edited {{.Topic}}", fresh)
}

func TestPromptStore_DefaultsAreCopied(t *testing.T) {
	defaults := map[string]string{"p": "one"}
	store, err := NewPromptStore(filepath.Join(t.TempDir(), "x"), defaults)
	require.NoError(t, err)

	defaults["p"] = "two"

	prompt, err := store.Load("p")
	require.NoError(t, err)
	assert.Equal(t, "one", prompt)
}

func TestPromptStore_ConcurrentAccess(t *testing.T) {
	store, _ := newTestPromptStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%5 == 0 {
				store.Reload()
			}
			_, err := store.Load(driven.PromptOutlineGeneration)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
}
