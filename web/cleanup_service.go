package web

import (
	"context"
	"fmt"
	"time"

	"docchat/config"
	"docchat/database"
	"docchat/web/services"

	"go.uber.org/zap"
)

// CleanupService removes documents nobody has used for a while
type CleanupService struct {
	store  database.Store
	stores *services.StoreService
	logger *zap.Logger
}

// NewCleanupService creates a new cleanup service instance
func NewCleanupService(store database.Store, stores *services.StoreService, logger *zap.Logger) *CleanupService {
	return &CleanupService{
		store:  store,
		stores: stores,
		logger: logger,
	}
}

// CleanupStaleStores deletes stores whose last activity is older than maxAge,
// together with their uploaded files.
// Returns the number of stores deleted and any error encountered
func (cs *CleanupService) CleanupStaleStores(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoffTime := time.Now().Add(-maxAge)

	cs.logger.Info("Starting stale store cleanup",
		zap.Time("cutoff_time", cutoffTime),
		zap.Duration("max_age", maxAge))

	staleStores, err := cs.store.GetStaleStores(ctx, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to get stale stores: %w", err)
	}

	if len(staleStores) == 0 {
		cs.logger.Debug("No stale stores found")
		return 0, nil
	}

	deletedCount := 0
	for _, id := range staleStores {
		if err := cs.stores.Delete(ctx, id); err != nil {
			cs.logger.Error("Failed to delete stale store",
				zap.Error(err),
				zap.String("store_id", id))
			// Continue with other stores even if one fails
			continue
		}
		deletedCount++
	}

	cs.logger.Info("Stale store cleanup completed",
		zap.Int("stores_deleted", deletedCount),
		zap.Int("stores_failed", len(staleStores)-deletedCount))

	return deletedCount, nil
}

// StartStoreCleanup runs CleanupStaleStores every CleanupInterval until ctx
// is done. It returns immediately when cleanup is disabled.
func StartStoreCleanup(ctx context.Context, cfg *config.Config, cs *CleanupService, logger *zap.Logger) {
	if !cfg.CleanupEnabled || cfg.CleanupInterval <= 0 {
		logger.Info("Store cleanup disabled")
		return
	}

	logger.Info("Store cleanup scheduled",
		zap.Duration("interval", cfg.CleanupInterval),
		zap.Duration("retention", cfg.StoreRetentionAge))

	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := cs.CleanupStaleStores(ctx, cfg.StoreRetentionAge); err != nil {
				logger.Error("Store cleanup failed", zap.Error(err))
			}
		}
	}
}
