package database

import (
	"context"
	"time"

	"docchat/web/types"
)

// Store persists uploaded documents and their transcripts.
// Lookups of unknown ids return an error wrapping errors.ErrNotFound.
type Store interface {
	SaveStore(ctx context.Context, rec types.StoreRecord) error
	GetStore(ctx context.Context, id string) (types.StoreRecord, error)
	DeleteStore(ctx context.Context, id string) (types.StoreRecord, error)
	ListStores(ctx context.Context) ([]types.StoreInfo, error)
	AppendMessages(ctx context.Context, id string, msgs ...types.ChatMessage) error
	GetStaleStores(ctx context.Context, cutoff time.Time) ([]string, error)
	Close() error
}
