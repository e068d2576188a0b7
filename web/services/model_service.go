package services

import (
	"context"
	"sync"
	"time"

	"docchat/web/types"

	"go.uber.org/zap"
)

// ModelLister lists the models available upstream.
type ModelLister interface {
	ListModels(ctx context.Context) ([]types.Model, error)
}

// ModelService proxies the upstream model list, caching a successful
// response for ttl. A zero ttl disables caching.
type ModelService struct {
	lister ModelLister
	ttl    time.Duration
	logger *zap.Logger

	mu        sync.Mutex
	cached    []types.Model
	fetchedAt time.Time
}

func NewModelService(lister ModelLister, ttl time.Duration, logger *zap.Logger) *ModelService {
	return &ModelService{
		lister: lister,
		ttl:    ttl,
		logger: logger,
	}
}

func (ms *ModelService) List(ctx context.Context) ([]types.Model, error) {
	ms.mu.Lock()
	if ms.ttl > 0 && ms.cached != nil && time.Since(ms.fetchedAt) < ms.ttl {
		models := ms.cached
		ms.mu.Unlock()
		return models, nil
	}
	ms.mu.Unlock()

	models, err := ms.lister.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if models == nil {
		models = []types.Model{}
	}

	ms.mu.Lock()
	ms.cached = models
	ms.fetchedAt = time.Now()
	ms.mu.Unlock()

	ms.logger.Debug("Model list refreshed", zap.Int("count", len(models)))
	return models, nil
}
