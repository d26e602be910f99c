package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prism/internal/adapters/driven/config/file"
	"github.com/custodia-labs/prism/internal/adapters/driving/cli"
	"github.com/custodia-labs/prism/internal/core/domain"
)

func runBootstrap(t *testing.T, dir string, access cli.StorageAccess) *cli.Services {
	t.Helper()
	svcs, cleanup, err := bootstrap(context.Background(), cli.Options{ConfigDir: dir, Storage: access})
	require.NoError(t, err)
	t.Cleanup(cleanup)
	return svcs
}

func TestBootstrap_SettingsIgnoreUnreachableRedis(t *testing.T) {
	dir := t.TempDir()
	store, err := file.NewConfigStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Set("references.backend", "redis"))
	require.NoError(t, store.Set("references.redis_addr", "127.0.0.1:1"))

	svcs := runBootstrap(t, dir, cli.StorageNone)

	require.NotNil(t, svcs.Settings)
	assert.Nil(t, svcs.References)
	assert.Nil(t, svcs.Corpus)
	require.NoError(t, svcs.Settings.Set("references.backend", "sqlite"))

	reloaded, err := file.NewConfigStore(dir)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", reloaded.GetString("references.backend"))
}

func TestBootstrap_ReadersShareCorpus(t *testing.T) {
	dir := t.TempDir()

	first := runBootstrap(t, dir, cli.StorageRead)
	second := runBootstrap(t, dir, cli.StorageRead)

	for _, svcs := range []*cli.Services{first, second} {
		require.NotNil(t, svcs.References)
		n, err := svcs.Corpus.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, n)
	}
}

func TestBootstrap_ReadOnlyCorpusRejectsImport(t *testing.T) {
	svcs := runBootstrap(t, t.TempDir(), cli.StorageRead)

	_, err := svcs.Corpus.Import(context.Background(), []domain.ChunkRecord{{
		Chunk:     domain.Chunk{ID: "c1", DocumentID: "d1", Content: "Intro"},
		Embedding: []float32{1, 0},
	}})

	assert.Error(t, err)
}

func TestBootstrap_WriterImportsChunks(t *testing.T) {
	svcs := runBootstrap(t, t.TempDir(), cli.StorageWrite)

	n, err := svcs.Corpus.Import(context.Background(), []domain.ChunkRecord{{
		Chunk:     domain.Chunk{ID: "c1", DocumentID: "d1", Content: "Intro"},
		Embedding: []float32{1, 0},
	}})

	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
