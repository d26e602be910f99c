package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prism/internal/core/ports/driven"
)

func TestWatchPrompts_ReloadsOnWrite(t *testing.T) {
	store, dir := newTestPromptStore(t)
	reloaded := make(chan string, 16)

	w, err := watchPrompts(context.Background(), store, func(name string) { reloaded <- name })
	require.NoError(t, err)
	defer w.Close()

	_, err = store.Load(driven.PromptOutlineGeneration)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "outline_generation.tmpl"), []byte("live {{.Topic}}"), 0600))

	select {
	case name := <-reloaded:
		assert.Equal(t, driven.PromptOutlineGeneration, name)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload")
	}

	assert.Eventually(t, func() bool {
		prompt, err := store.Load(driven.PromptOutlineGeneration)
		return err == nil && prompt == "live {{.Topic}}"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestWatchPrompts_IgnoresOtherFiles(t *testing.T) {
	store, dir := newTestPromptStore(t)
	reloaded := make(chan string, 16)

	w, err := watchPrompts(context.Background(), store, func(name string) { reloaded <- name })
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0600))

	select {
	case name := <-reloaded:
		t.Fatalf("unexpected reload for %s", name)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatchPrompts_StopsOnContextCancel(t *testing.T) {
	store, _ := newTestPromptStore(t)
	ctx, cancel := context.WithCancel(context.Background())

	w, err := WatchPrompts(ctx, store)
	require.NoError(t, err)

	cancel()
	select {
	case <-w.done:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestWatchPrompts_InitFailure(t *testing.T) {
	store, err := NewPromptStore("/dev/null/prompts", testDefaults)
	require.NoError(t, err)

	_, err = WatchPrompts(context.Background(), store)
	assert.Error(t, err)
}
