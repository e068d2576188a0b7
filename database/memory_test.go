package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "docchat/errors"
	"docchat/web/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newRecord(id string, created time.Time) types.StoreRecord {
	return types.StoreRecord{
		ID:         id,
		Filename:   id + ".txt",
		Content:    "content of " + id,
		CreatedAt:  created,
		LastActive: created,
	}
}

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(4, zap.NewNop())
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, store.SaveStore(ctx, newRecord("b", now.Add(time.Second))))
	require.NoError(t, store.SaveStore(ctx, newRecord("a", now)))

	rec, err := store.GetStore(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "content of a", rec.Content)

	stores, err := store.ListStores(ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.StoreInfo{
		{StoreID: "a", Filename: "a.txt"},
		{StoreID: "b", Filename: "b.txt"},
	}, stores)

	require.NoError(t, store.AppendMessages(ctx, "a",
		types.ChatMessage{Role: types.RoleUser, Content: "q"},
		types.ChatMessage{Role: types.RoleAssistant, Content: "a"},
	))
	rec, err = store.GetStore(ctx, "a")
	require.NoError(t, err)
	require.Len(t, rec.Messages, 2)
	assert.Equal(t, "q", rec.Messages[0].Content)
	assert.True(t, rec.LastActive.After(now) || rec.LastActive.Equal(now))

	deleted, err := store.DeleteStore(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", deleted.ID)

	_, err = store.GetStore(ctx, "a")
	assert.True(t, apperrors.IsNotFound(err))
	_, err = store.DeleteStore(ctx, "a")
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(store.AppendMessages(ctx, "a")))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(2, zap.NewNop())
	require.NoError(t, err)

	rec := newRecord("x", time.Now())
	rec.Messages = []types.ChatMessage{{Role: types.RoleUser, Content: "original"}}
	require.NoError(t, store.SaveStore(ctx, rec))

	got, err := store.GetStore(ctx, "x")
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"

	again, err := store.GetStore(ctx, "x")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestMemoryStoreEvictionRemovesFile(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewMemoryStore(1, zap.NewNop())
	require.NoError(t, err)

	path := filepath.Join(dir, "first.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	first := newRecord("first", time.Now())
	first.FilePath = path
	require.NoError(t, store.SaveStore(ctx, first))
	require.NoError(t, store.SaveStore(ctx, newRecord("second", time.Now())))

	_, err = store.GetStore(ctx, "first")
	assert.True(t, apperrors.IsNotFound(err))
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestMemoryStoreStaleStores(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryStore(8, zap.NewNop())
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, store.SaveStore(ctx, newRecord("old", now.Add(-48*time.Hour))))
	require.NoError(t, store.SaveStore(ctx, newRecord("fresh", now)))

	stale, err := store.GetStaleStores(ctx, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{"old"}, stale)

	require.NoError(t, store.Close())
	stores, err := store.ListStores(ctx)
	require.NoError(t, err)
	assert.Empty(t, stores)
}
