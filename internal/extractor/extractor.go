// Package extractor turns candidate URLs into structured event records.
// The primary provider reads the page through Jina and parses it with a
// Claude model; a heuristic provider over a Firecrawl scrape backs it up.
package extractor

import (
	"context"

	"github.com/sells-group/event-scout/internal/model"
)

// Provider extracts a structured event from a single URL. An error means
// the provider could not produce a usable record and the caller should try
// the next provider in the chain.
type Provider interface {
	Name() string
	Extract(ctx context.Context, url string, req model.SearchRequest) (model.ExtractedEvent, error)
}
