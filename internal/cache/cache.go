// Package cache short-circuits repeated searches by fingerprint.
package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/store"
)

// ResultCache wraps the store's result cache with the request fingerprint
// scheme. A cache failure is never fatal; the engine just runs the search.
type ResultCache struct {
	store store.Store
	ttl   time.Duration
}

// New creates a ResultCache with the given TTL.
func New(st store.Store, ttl time.Duration) *ResultCache {
	return &ResultCache{store: st, ttl: ttl}
}

// Get looks up a fresh cached result for the request. A miss, an expired
// entry, and a store error all return nil.
func (c *ResultCache) Get(ctx context.Context, req model.SearchRequest) *model.OrchestratorResult {
	if c == nil || c.store == nil {
		return nil
	}

	fp := req.Fingerprint()
	result, err := c.store.GetCachedResult(ctx, fp)
	if err != nil {
		zap.L().Warn("result cache lookup failed", zap.String("fingerprint", fp), zap.Error(err))
		return nil
	}
	return result
}

// Put stores a result under the request fingerprint. Fallback results are
// not cached: a degraded answer should not mask a later healthy run.
func (c *ResultCache) Put(ctx context.Context, req model.SearchRequest, result *model.OrchestratorResult) {
	if c == nil || c.store == nil || result == nil {
		return
	}
	if result.FallbackUsed {
		return
	}

	fp := req.Fingerprint()
	if err := c.store.SetCachedResult(ctx, fp, result, c.ttl); err != nil {
		zap.L().Warn("result cache write failed", zap.String("fingerprint", fp), zap.Error(err))
	}
}

// Purge removes expired entries and returns how many were deleted.
func (c *ResultCache) Purge(ctx context.Context) (int, error) {
	return c.store.DeleteExpiredResults(ctx)
}
