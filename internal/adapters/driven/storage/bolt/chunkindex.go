// Package bolt provides a BoltDB-backed chunk corpus.
//
// Chunks and their embeddings are persisted in a single bucket and cached
// in memory on open. Search is a brute-force cosine scan over the cache.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"github.com/custodia-labs/prism/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/prism/internal/core/domain"
	"github.com/custodia-labs/prism/internal/core/ports/driven"
	"github.com/custodia-labs/prism/internal/logger"
)

// Ensure ChunkIndex implements the interface.
var _ driven.ChunkIndex = (*ChunkIndex)(nil)

var bucketChunks = []byte("chunks")

// storedChunk is the on-disk record for a chunk.
type storedChunk struct {
	Chunk  domain.Chunk `json:"c"`
	Vector []float32    `json:"v"`
}

// ChunkIndex implements driven.ChunkIndex using BoltDB for persistence.
type ChunkIndex struct {
	db       *bbolt.DB
	embedder driven.EmbeddingService
	log      *logger.Logger
	readOnly bool

	mu      sync.RWMutex
	entries map[string]similarity.Entry
}

// lockTimeout bounds the wait for another process's file lock.
const lockTimeout = 2 * time.Second

// Open opens or creates the corpus database at path for writing.
// The writer holds an exclusive lock until Close.
// embedder may be nil; text search then reports retrieval unavailable.
func Open(path string, embedder driven.EmbeddingService) (*ChunkIndex, error) {
	return open(path, embedder, false)
}

// OpenReadOnly opens the corpus under a shared lock, so any number of
// readers can run side by side. A missing database is created first.
// Put and Delete fail with bbolt.ErrDatabaseReadOnly.
func OpenReadOnly(path string, embedder driven.EmbeddingService) (*ChunkIndex, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		idx, err := open(path, nil, false)
		if err != nil {
			return nil, err
		}
		if err := idx.Close(); err != nil {
			return nil, fmt.Errorf("close new corpus: %w", err)
		}
	}
	return open(path, embedder, true)
}

func open(path string, embedder driven.EmbeddingService, readOnly bool) (*ChunkIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("create corpus directory: %w", err)
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: lockTimeout, ReadOnly: readOnly})
	if errors.Is(err, bbolt.ErrTimeout) {
		return nil, fmt.Errorf("open corpus %s: locked by another process: %w", path, err)
	}
	if err != nil {
		return nil, fmt.Errorf("open corpus %s: %w", path, err)
	}

	if !readOnly {
		err = db.Update(func(tx *bbolt.Tx) error {
			_, err := tx.CreateBucketIfNotExists(bucketChunks)
			return err
		})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create chunks bucket: %w", err)
		}
	}

	idx := &ChunkIndex{
		db:       db,
		embedder: embedder,
		log:      logger.For("corpus"),
		readOnly: readOnly,
		entries:  make(map[string]similarity.Entry),
	}
	if err := idx.load(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	idx.log.Debug("opened %s with %d chunks (read-only %t)", path, len(idx.entries), readOnly)

	return idx, nil
}

// load reads every stored chunk into the in-memory cache.
func (idx *ChunkIndex) load() error {
	return idx.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var stored storedChunk
			if err := json.Unmarshal(v, &stored); err != nil {
				idx.log.Warn("skipping corrupt chunk %s: %v", k, err)
				return nil
			}
			idx.entries[string(k)] = similarity.Entry{Chunk: stored.Chunk, Vector: stored.Vector}
			return nil
		})
	})
}

// Search ranks stored chunks against the embedded query text.
func (idx *ChunkIndex) Search(ctx context.Context, query domain.RetrievalQuery) ([]domain.Chunk, error) {
	vector, err := similarity.QueryVector(ctx, idx.embedder, query.QueryText)
	if err != nil {
		return nil, err
	}

	idx.mu.RLock()
	entries := make([]similarity.Entry, 0, len(idx.entries))
	for _, e := range idx.entries {
		entries = append(entries, e)
	}
	idx.mu.RUnlock()

	return similarity.Rank(vector, entries, query), nil
}

// FetchContent returns a chunk's content and source label.
func (idx *ChunkIndex) FetchContent(_ context.Context, chunkID string) (domain.ChunkContent, error) {
	idx.mu.RLock()
	e, ok := idx.entries[chunkID]
	idx.mu.RUnlock()
	if !ok {
		return domain.ChunkContent{}, fmt.Errorf("chunk %s: %w", chunkID, domain.ErrNotFound)
	}
	return domain.ChunkContent{
		Content: e.Chunk.Content,
		Source:  similarity.SourceLabel(e.Chunk.Metadata),
	}, nil
}

// Put stores or replaces chunks in a single transaction.
func (idx *ChunkIndex) Put(ctx context.Context, chunks []driven.IndexedChunk) error {
	if idx.readOnly {
		return fmt.Errorf("store chunks: %w", bbolt.ErrDatabaseReadOnly)
	}
	entries, err := similarity.Entries(ctx, idx.embedder, chunks)
	if err != nil {
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	err = idx.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, e := range entries {
			data, err := json.Marshal(storedChunk{Chunk: e.Chunk, Vector: e.Vector})
			if err != nil {
				return fmt.Errorf("encode chunk %s: %w", e.Chunk.ID, err)
			}
			if err := b.Put([]byte(e.Chunk.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("store chunks: %w", err)
	}

	// The cache only changes once the transaction has committed.
	for _, e := range entries {
		idx.entries[e.Chunk.ID] = e
	}
	return nil
}

// Delete removes chunks by ID.
func (idx *ChunkIndex) Delete(_ context.Context, ids []string) error {
	if idx.readOnly {
		return fmt.Errorf("delete chunks: %w", bbolt.ErrDatabaseReadOnly)
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	err := idx.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketChunks)
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete chunks: %w", err)
	}

	for _, id := range ids {
		delete(idx.entries, id)
	}
	return nil
}

// Count returns the number of stored chunks.
func (idx *ChunkIndex) Count(_ context.Context) (int, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries), nil
}

// Close closes the database.
func (idx *ChunkIndex) Close() error {
	return idx.db.Close()
}
