package engine

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/event-scout/internal/extractor"
	"github.com/sells-group/event-scout/internal/model"
)

const defaultExtractConcurrency = 4

// ExtractStats summarizes one extraction fan-out.
type ExtractStats struct {
	Attempted int
	Succeeded int
	// FallbackCount counts URLs where the primary provider failed and the
	// fallback produced the record.
	FallbackCount int
	Errors        []string
}

// ExtractionEngine runs the provider chain over prioritized URLs with
// bounded concurrency and a shared rate limit.
type ExtractionEngine struct {
	providers []extractor.Provider
	limiter   *rate.Limiter
}

// NewExtractionEngine creates the extraction stage. Providers are tried in
// order per URL. rps bounds outbound page fetches across all workers; zero
// disables the limiter.
func NewExtractionEngine(rps float64, providers ...extractor.Provider) *ExtractionEngine {
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &ExtractionEngine{providers: providers, limiter: limiter}
}

// ExtractAll extracts events for the top prioritized items, bounded by
// req.Limits.MaxExtractions. Per-URL failures are isolated; the output
// keeps prioritization order and carries each item's score.
func (e *ExtractionEngine) ExtractAll(ctx context.Context, items []model.PrioritizedItem, req model.SearchRequest) ([]model.ExtractedEvent, ExtractStats) {
	var stats ExtractStats
	if len(items) == 0 || len(e.providers) == 0 {
		return nil, stats
	}

	if req.Limits.MaxExtractions > 0 && len(items) > req.Limits.MaxExtractions {
		items = items[:req.Limits.MaxExtractions]
	}
	stats.Attempted = len(items)

	concurrency := req.Limits.ExtractConcurrency
	if concurrency <= 0 {
		concurrency = defaultExtractConcurrency
	}

	results := make([]*model.ExtractedEvent, len(items))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, item := range items {
		g.Go(func() error {
			if e.limiter != nil {
				if err := e.limiter.Wait(gctx); err != nil {
					return nil
				}
			}

			event, err := e.extractOne(gctx, item, req)
			if err != nil {
				mu.Lock()
				stats.Errors = append(stats.Errors, fmt.Sprintf("%s: %v", item.URL, err))
				mu.Unlock()
				return nil
			}

			mu.Lock()
			results[i] = &event
			if event.Extractor != e.providers[0].Name() {
				stats.FallbackCount++
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	var events []model.ExtractedEvent
	for _, r := range results {
		if r != nil {
			events = append(events, *r)
		}
	}
	stats.Succeeded = len(events)
	return events, stats
}

// extractOne walks the provider chain for a single URL within the parsing
// timeout.
func (e *ExtractionEngine) extractOne(ctx context.Context, item model.PrioritizedItem, req model.SearchRequest) (model.ExtractedEvent, error) {
	ectx := ctx
	if req.Timeouts.Parsing > 0 {
		var cancel context.CancelFunc
		ectx, cancel = context.WithTimeout(ctx, req.Timeouts.Parsing)
		defer cancel()
	}

	var lastErr error
	for _, p := range e.providers {
		event, err := p.Extract(ectx, item.URL, req)
		if err != nil {
			zap.L().Debug("extraction provider failed",
				zap.String("provider", p.Name()),
				zap.String("url", item.URL),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		event.Score = item.Score
		return event, nil
	}
	return model.ExtractedEvent{}, lastErr
}
