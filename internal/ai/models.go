// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/pdiddy/thoughtprint/pkg/types"
)

// ModelCacheTTL is how long a provider's model list is reused.
const ModelCacheTTL = 5 * time.Minute

var modelCache = cache.New(ModelCacheTTL, 2*ModelCacheTTL)

func modelCacheKey(p types.Provider) string {
	return string(p.Type) + "|" + p.BaseURL + "|" + p.Name
}

// ListModels returns the sorted model names for p. Successful results are
// cached per provider for ModelCacheTTL; errors are not cached.
func ListModels(ctx context.Context, p types.Provider) ([]string, error) {
	key := modelCacheKey(p)
	if v, ok := modelCache.Get(key); ok {
		return v.([]string), nil
	}

	lister, err := NewModelLister(p)
	if err != nil {
		return nil, err
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	modelCache.Set(key, models, cache.DefaultExpiration)
	return models, nil
}

// ForgetModels drops the cached model list for p.
func ForgetModels(p types.Provider) {
	modelCache.Delete(modelCacheKey(p))
}
