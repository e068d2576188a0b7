package database

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	apperrors "docchat/errors"
	"docchat/web/types"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"
)

// MemoryStore keeps documents in a bounded LRU cache. When capacity is
// exceeded the least recently used document is dropped and its saved file
// removed.
type MemoryStore struct {
	cache  *lru.Cache
	mu     sync.Mutex // serializes read-modify-write of records
	logger *zap.Logger
}

func NewMemoryStore(capacity int, logger *zap.Logger) (*MemoryStore, error) {
	ms := &MemoryStore{logger: logger}
	cache, err := lru.NewWithEvict(capacity, ms.onEvict)
	if err != nil {
		return nil, err
	}
	ms.cache = cache
	return ms, nil
}

func (ms *MemoryStore) onEvict(key interface{}, value interface{}) {
	rec, ok := value.(types.StoreRecord)
	if !ok || rec.FilePath == "" {
		return
	}
	if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
		ms.logger.Warn("Failed to remove file of evicted store",
			zap.String("store_id", rec.ID),
			zap.String("path", rec.FilePath),
			zap.Error(err))
		return
	}
	ms.logger.Debug("Store evicted", zap.String("store_id", rec.ID))
}

func (ms *MemoryStore) SaveStore(ctx context.Context, rec types.StoreRecord) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.cache.Add(rec.ID, cloneRecord(rec))
	return nil
}

func (ms *MemoryStore) GetStore(ctx context.Context, id string) (types.StoreRecord, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	value, ok := ms.cache.Get(id)
	if !ok {
		return types.StoreRecord{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "store %s", id)
	}
	return cloneRecord(value.(types.StoreRecord)), nil
}

func (ms *MemoryStore) DeleteStore(ctx context.Context, id string) (types.StoreRecord, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	value, ok := ms.cache.Peek(id)
	if !ok {
		return types.StoreRecord{}, apperrors.WrapErrorf(apperrors.ErrNotFound, "store %s", id)
	}
	ms.cache.Remove(id)
	return value.(types.StoreRecord), nil
}

// ListStores returns all documents, oldest first.
func (ms *MemoryStore) ListStores(ctx context.Context) ([]types.StoreInfo, error) {
	records := ms.snapshot()
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	stores := make([]types.StoreInfo, 0, len(records))
	for _, rec := range records {
		stores = append(stores, types.StoreInfo{StoreID: rec.ID, Filename: rec.Filename})
	}
	return stores, nil
}

func (ms *MemoryStore) AppendMessages(ctx context.Context, id string, msgs ...types.ChatMessage) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	value, ok := ms.cache.Get(id)
	if !ok {
		return apperrors.WrapErrorf(apperrors.ErrNotFound, "store %s", id)
	}
	rec := cloneRecord(value.(types.StoreRecord))
	rec.Messages = append(rec.Messages, msgs...)
	rec.LastActive = time.Now()
	ms.cache.Add(id, rec)
	return nil
}

func (ms *MemoryStore) GetStaleStores(ctx context.Context, cutoff time.Time) ([]string, error) {
	var stale []string
	for _, rec := range ms.snapshot() {
		if rec.LastActive.Before(cutoff) {
			stale = append(stale, rec.ID)
		}
	}
	return stale, nil
}

// Close drops every document. Records do not outlive the process, so their
// saved files are removed as well.
func (ms *MemoryStore) Close() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.cache.Purge()
	return nil
}

func (ms *MemoryStore) snapshot() []types.StoreRecord {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	keys := ms.cache.Keys()
	records := make([]types.StoreRecord, 0, len(keys))
	for _, key := range keys {
		if value, ok := ms.cache.Peek(key); ok {
			records = append(records, value.(types.StoreRecord))
		}
	}
	return records
}

func cloneRecord(rec types.StoreRecord) types.StoreRecord {
	if rec.Messages != nil {
		rec.Messages = append([]types.ChatMessage(nil), rec.Messages...)
	}
	return rec
}
