// Command prism generates document outlines and tracks draft references.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/prism/internal/adapters/driven/ai"
	"github.com/custodia-labs/prism/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prism/internal/adapters/driven/storage/bolt"
	"github.com/custodia-labs/prism/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/prism/internal/adapters/driven/storage/redis"
	"github.com/custodia-labs/prism/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/prism/internal/adapters/driving/cli"
	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/core/services"
	"github.com/custodia-labs/prism/internal/logger"
)

// version is set at build time via -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap wires adapters into services. Everything opened here is
// released by the returned cleanup, in reverse order.
//
// Commands that declare cli.StorageNone get only the settings service,
// so an unreachable reference backend never blocks fixing the config.
// The corpus is opened read-only unless the command writes to it.
func bootstrap(ctx context.Context, opts cli.Options) (*cli.Services, func(), error) {
	dir, err := configDir(opts.ConfigDir)
	if err != nil {
		return nil, nil, err
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*cli.Services, func(), error) {
		cleanup()
		return nil, nil, err
	}

	configStore, err := file.NewConfigStore(dir)
	if err != nil {
		return fail(fmt.Errorf("load config: %w", err))
	}
	settingsService := services.NewSettingsService(configStore, ai.NewConfigValidator())

	if opts.Storage == cli.StorageNone {
		return &cli.Services{Settings: settingsService}, cleanup, nil
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fail(fmt.Errorf("read settings: %w", err))
	}

	logger.Section("AI services")
	aiResult := ai.Init(ctx, settings)
	closers = append(closers, aiResult.Close)

	logger.Section("Storage")
	corpusPath := settings.Corpus.Path
	if corpusPath == "" {
		corpusPath = filepath.Join(dir, "data", "corpus.db")
	}
	index, err := openCorpus(corpusPath, aiResult.EmbeddingService, opts.Storage)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = index.Close() })

	refStore, err := openReferenceStore(ctx, settings.References, filepath.Join(dir, "data"))
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func() { _ = refStore.Close() })

	prompts, err := file.NewPromptStore(filepath.Join(dir, "prompts"), services.DefaultPrompts())
	if err != nil {
		return fail(fmt.Errorf("open prompts: %w", err))
	}

	retrieval := services.NewRetrievalService(index)
	outline := services.NewOutlineService(retrieval, aiResult.LLMService, prompts)
	outline.SetRetryPolicy(services.DefaultRetryPolicy(settings.Outline.MaxRetries))

	return &cli.Services{
		Outline:    outline,
		References: services.NewReferenceService(refStore, index),
		Retrieval:  retrieval,
		Corpus:     services.NewCorpusService(index),
		Settings:   settingsService,
		Prompts:    prompts,
	}, cleanup, nil
}

// openCorpus opens the chunk corpus for the command's storage access.
func openCorpus(path string, embedder driven.EmbeddingService, access cli.StorageAccess) (*bolt.ChunkIndex, error) {
	logger.Debug("corpus: %s (%s)", path, access)
	if access == cli.StorageWrite {
		return bolt.Open(path, embedder)
	}
	return bolt.OpenReadOnly(path, embedder)
}

// openReferenceStore opens the configured reference backend.
func openReferenceStore(ctx context.Context, cfg domain.ReferenceSettings, dataDir string) (driven.ReferenceStore, error) {
	logger.Debug("reference backend: %s", cfg.Backend)

	switch cfg.Backend {
	case domain.ReferenceBackendMemory:
		return memory.NewReferenceStore(), nil
	case domain.ReferenceBackendRedis:
		return redis.NewStore(ctx, redis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	default:
		return sqlite.NewStore(dataDir)
	}
}

func configDir(dir string) (string, error) {
	if dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".prism"), nil
}
