package sqlite

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/prism/internal/core/domain"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) (*Store, string) {
	t.Helper()

	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NotNil(t, store)
	t.Cleanup(func() { _ = store.Close() })

	return store, dir
}

func testReference(id, draftID, chunkID string, paragraph int) domain.Reference {
	return domain.Reference{
		ID:             id,
		DraftID:        draftID,
		ChunkID:        chunkID,
		ParagraphIndex: paragraph,
		Type:           domain.ReferenceQuote,
		CreatedAt:      time.Now().UTC(),
	}
}

// ==================== Store Creation Tests ====================

func TestNewStore_RunsMigrations(t *testing.T) {
	store, dir := setupTestStore(t)

	version, err := store.SchemaVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Contains(t, store.Path(), dir)
}

func TestNewStore_ReopenIsIdempotent(t *testing.T) {
	store, dir := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, testReference("r1", "d1", "c1", 0)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	version, err := reopened.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	refs, err := reopened.List(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "r1", refs[0].ID)
}

// ==================== Reference Tests ====================

func TestStore_InsertAndList(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	first := testReference("r1", "d1", "c1", 0)
	require.NoError(t, store.Insert(ctx, first))
	require.NoError(t, store.Insert(ctx, testReference("r2", "d1", "c2", 3)))

	refs, err := store.List(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, refs, 2)

	assert.Equal(t, "r1", refs[0].ID)
	assert.Equal(t, "d1", refs[0].DraftID)
	assert.Equal(t, "c1", refs[0].ChunkID)
	assert.Equal(t, 0, refs[0].ParagraphIndex)
	assert.Equal(t, domain.ReferenceQuote, refs[0].Type)
	assert.WithinDuration(t, first.CreatedAt, refs[0].CreatedAt, time.Second)

	assert.Equal(t, "r2", refs[1].ID)
	assert.Equal(t, 3, refs[1].ParagraphIndex)
}

func TestStore_InsertDuplicate(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, testReference("r1", "d1", "c1", 0)))
	err := store.Insert(ctx, testReference("r2", "d1", "c1", 0))
	assert.ErrorIs(t, err, domain.ErrDuplicateReference)

	require.NoError(t, store.Insert(ctx, testReference("r3", "d2", "c1", 0)))
	require.NoError(t, store.Insert(ctx, testReference("r4", "d1", "c1", 1)))

	refs, err := store.List(ctx, "d1")
	require.NoError(t, err)
	assert.Len(t, refs, 2)
}

func TestStore_ListUnknownDraft(t *testing.T) {
	store, _ := setupTestStore(t)

	refs, err := store.List(context.Background(), "missing")
	require.NoError(t, err)
	assert.NotNil(t, refs)
	assert.Empty(t, refs)
}

func TestStore_Delete(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()
	require.NoError(t, store.Insert(ctx, testReference("r1", "d1", "c1", 0)))
	require.NoError(t, store.Insert(ctx, testReference("r2", "d1", "c2", 0)))

	require.NoError(t, store.Delete(ctx, "d1", "r1"))

	refs, err := store.List(ctx, "d1")
	require.NoError(t, err)
	require.Len(t, refs, 1)
	assert.Equal(t, "r2", refs[0].ID)
}

func TestStore_DeleteErrors(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	assert.ErrorIs(t, store.Delete(ctx, "missing", "r1"), domain.ErrDraftNotFound)

	require.NoError(t, store.Insert(ctx, testReference("r1", "d1", "c1", 0)))
	require.NoError(t, store.Delete(ctx, "d1", "r1"))

	// The draft outlives its last reference.
	assert.ErrorIs(t, store.Delete(ctx, "d1", "r1"), domain.ErrReferenceNotFound)

	// A reference id from another draft is not found in this one.
	require.NoError(t, store.Insert(ctx, testReference("r2", "d2", "c1", 0)))
	assert.ErrorIs(t, store.Delete(ctx, "d1", "r2"), domain.ErrReferenceNotFound)
}

func TestStore_ConcurrentDuplicateInsert(t *testing.T) {
	store, _ := setupTestStore(t)
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		dupes     atomic.Int32
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.Insert(ctx, testReference(fmt.Sprintf("r%d", n), "d1", "c1", 0))
			if err == nil {
				successes.Add(1)
				return
			}
			if assert.ErrorIs(t, err, domain.ErrDuplicateReference) {
				dupes.Add(1)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(workers-1), dupes.Load())
}
