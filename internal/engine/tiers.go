// Package engine runs the search pipeline: discover, deduplicate,
// prioritize, extract, filter, finalize.
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/tier"
)

// TierStats summarizes one discovery fan-out.
type TierStats struct {
	PerTier map[string]int
	Errors  []string
	// AllTiersFailed is set when discovery produced no candidates at all,
	// whether every tier errored or every tier came back empty. PerTier
	// tells the two apart: it only has entries for tiers that responded.
	AllTiersFailed bool
	Truncated      bool
}

// TierExecutor fans a search request out to every discovery tier
// concurrently. Tier order is priority order; the merged candidate list and
// the MaxCandidates cap both respect it.
type TierExecutor struct {
	tiers []tier.Service
}

// NewTierExecutor creates the discovery stage over the given tiers, ordered
// highest priority first.
func NewTierExecutor(tiers ...tier.Service) *TierExecutor {
	return &TierExecutor{tiers: tiers}
}

// ExecuteAll runs every tier with its own timeout and merges results in
// priority order. Tier failures are isolated: they surface in stats, never
// as an error.
func (e *TierExecutor) ExecuteAll(ctx context.Context, req model.SearchRequest) ([]model.CandidateItem, TierStats) {
	stats := TierStats{PerTier: make(map[string]int, len(e.tiers))}
	if len(e.tiers) == 0 {
		stats.AllTiersFailed = true
		return nil, stats
	}

	results := make([][]model.CandidateItem, len(e.tiers))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range e.tiers {
		g.Go(func() error {
			tctx := gctx
			if req.Timeouts.Discovery > 0 {
				var cancel context.CancelFunc
				tctx, cancel = context.WithTimeout(gctx, req.Timeouts.Discovery)
				defer cancel()
			}

			start := time.Now()
			items, err := t.Search(tctx, req)
			if err != nil {
				zap.L().Warn("discovery tier failed",
					zap.String("tier", t.Name()),
					zap.Duration("elapsed", time.Since(start)),
					zap.Error(err),
				)
				mu.Lock()
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", t.Name(), err))
				mu.Unlock()
				// Isolation: a failed tier must not sink the fan-out.
				return nil
			}

			mu.Lock()
			results[i] = items
			stats.PerTier[t.Name()] = len(items)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var merged []model.CandidateItem
	for _, items := range results {
		merged = append(merged, items...)
	}

	if len(merged) == 0 {
		stats.AllTiersFailed = true
	}

	if req.Limits.MaxCandidates > 0 && len(merged) > req.Limits.MaxCandidates {
		merged = merged[:req.Limits.MaxCandidates]
		stats.Truncated = true
	}

	return merged, stats
}
