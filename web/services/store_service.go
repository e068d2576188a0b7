package services

import (
	"context"
	"os"

	"docchat/database"
	"docchat/web/types"

	"go.uber.org/zap"
)

type StoreService struct {
	store  database.Store
	logger *zap.Logger
}

func NewStoreService(store database.Store, logger *zap.Logger) *StoreService {
	return &StoreService{
		store:  store,
		logger: logger,
	}
}

func (ss *StoreService) List(ctx context.Context) ([]types.StoreInfo, error) {
	return ss.store.ListStores(ctx)
}

// Delete removes a store and its saved file. A file that is already gone is
// not an error.
func (ss *StoreService) Delete(ctx context.Context, id string) error {
	rec, err := ss.store.DeleteStore(ctx, id)
	if err != nil {
		return err
	}

	if rec.FilePath != "" {
		if err := os.Remove(rec.FilePath); err != nil && !os.IsNotExist(err) {
			ss.logger.Warn("Failed to delete uploaded file",
				zap.String("store_id", id),
				zap.String("path", rec.FilePath),
				zap.Error(err))
		}
	}

	ss.logger.Info("Store deleted", zap.String("store_id", id))
	return nil
}
