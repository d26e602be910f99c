package file

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/prism/internal/logger"
)

var log = logger.For("prompts")

// PromptWatcher reloads a PromptStore whenever a prompt file changes.
type PromptWatcher struct {
	store   *PromptStore
	watcher *fsnotify.Watcher
	done    chan struct{}
	// onReload runs after each reload; tests use it to synchronise.
	onReload func(name string)
}

// WatchPrompts starts watching the store's directory until ctx is
// cancelled or Close is called. The directory is created if missing.
func WatchPrompts(ctx context.Context, store *PromptStore) (*PromptWatcher, error) {
	return watchPrompts(ctx, store, nil)
}

func watchPrompts(ctx context.Context, store *PromptStore, onReload func(string)) (*PromptWatcher, error) {
	// Seed the directory so there is something to watch.
	store.initOnce.Do(store.initialise)
	if store.initErr != nil {
		return nil, store.initErr
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create prompt watcher: %w", err)
	}
	if err := w.Add(store.Dir()); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", store.Dir(), err)
	}

	pw := &PromptWatcher{
		store:    store,
		watcher:  w,
		done:     make(chan struct{}),
		onReload: onReload,
	}
	go pw.run(ctx)
	return pw, nil
}

func (pw *PromptWatcher) run(ctx context.Context) {
	defer close(pw.done)
	for {
		select {
		case <-ctx.Done():
			_ = pw.watcher.Close()
			return
		case event, ok := <-pw.watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(event.Name, promptExt) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			name := strings.TrimSuffix(filepath.Base(event.Name), promptExt)
			pw.store.Reload()
			log.Debug("reloaded prompts after change to %s", name)
			if pw.onReload != nil {
				pw.onReload(name)
			}
		case err, ok := <-pw.watcher.Errors:
			if !ok {
				return
			}
			log.Warn("prompt watcher: %v", err)
		}
	}
}

// Close stops the watcher and waits for its goroutine to exit.
func (pw *PromptWatcher) Close() error {
	err := pw.watcher.Close()
	<-pw.done
	return err
}
