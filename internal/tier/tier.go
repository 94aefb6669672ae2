// Package tier contains the discovery service adapters the engine fans out
// to. Each adapter wraps one external source behind the same Service
// interface; the engine attempts them in a fixed priority order.
package tier

import (
	"context"

	"github.com/sells-group/event-scout/internal/model"
)

// Tier identifiers, in priority order.
const (
	NameCurated    = "curated"
	NameJina       = "jina"
	NamePerplexity = "perplexity"
	NameFirecrawl  = "firecrawl"
)

// Service is one pluggable discovery source.
type Service interface {
	// Name identifies the tier in traces and telemetry.
	Name() string
	// Search returns candidate event pages for the request. Implementations
	// must honor ctx cancellation; an error fails only this tier, never the
	// run.
	Search(ctx context.Context, req model.SearchRequest) ([]model.CandidateItem, error)
}
