package engine

import (
	"context"
	"sync"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/event-scout/internal/model"
)

// stubProvider extracts scripted events keyed by URL.
type stubProvider struct {
	name   string
	events map[string]model.ExtractedEvent
	err    error

	mu    sync.Mutex
	calls []string
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Extract(_ context.Context, url string, _ model.SearchRequest) (model.ExtractedEvent, error) {
	s.mu.Lock()
	s.calls = append(s.calls, url)
	s.mu.Unlock()

	if s.err != nil {
		return model.ExtractedEvent{}, s.err
	}
	if e, ok := s.events[url]; ok {
		e.Extractor = s.name
		return e, nil
	}
	return model.ExtractedEvent{}, eris.Errorf("no event at %s", url)
}

func (s *stubProvider) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func prioritizedItems(urls ...string) []model.PrioritizedItem {
	out := make([]model.PrioritizedItem, len(urls))
	for i, u := range urls {
		// Descending scores so prioritization order is observable.
		out[i] = scored(1.0-float64(i)*0.1, u)
	}
	return out
}

func TestExtractionEngine_PrimarySucceeds(t *testing.T) {
	primary := &stubProvider{name: "anthropic", events: map[string]model.ExtractedEvent{
		"https://a.example": {URL: "https://a.example", Title: "A", Success: true},
		"https://b.example": {URL: "https://b.example", Title: "B", Success: true},
	}}
	fallback := &stubProvider{name: "heuristic"}

	e := NewExtractionEngine(0, primary, fallback)
	events, stats := e.ExtractAll(context.Background(), prioritizedItems("https://a.example", "https://b.example"), model.SearchRequest{})

	require.Len(t, events, 2)
	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 2, stats.Succeeded)
	assert.Zero(t, stats.FallbackCount)
	assert.Zero(t, fallback.callCount())

	// Output keeps prioritization order and carries the scores.
	assert.Equal(t, "https://a.example", events[0].URL)
	assert.InDelta(t, 1.0, events[0].Score, 1e-9)
	assert.InDelta(t, 0.9, events[1].Score, 1e-9)
}

func TestExtractionEngine_FallsBackPerURL(t *testing.T) {
	primary := &stubProvider{name: "anthropic", events: map[string]model.ExtractedEvent{
		"https://a.example": {URL: "https://a.example", Title: "A", Success: true},
	}}
	fallback := &stubProvider{name: "heuristic", events: map[string]model.ExtractedEvent{
		"https://b.example": {URL: "https://b.example", Title: "B", Success: true},
	}}

	e := NewExtractionEngine(0, primary, fallback)
	events, stats := e.ExtractAll(context.Background(), prioritizedItems("https://a.example", "https://b.example"), model.SearchRequest{})

	require.Len(t, events, 2)
	assert.Equal(t, 1, stats.FallbackCount)
	assert.Equal(t, "anthropic", events[0].Extractor)
	assert.Equal(t, "heuristic", events[1].Extractor)
}

func TestExtractionEngine_IsolatesTotalFailures(t *testing.T) {
	primary := &stubProvider{name: "anthropic", events: map[string]model.ExtractedEvent{
		"https://a.example": {URL: "https://a.example", Title: "A", Success: true},
	}}
	fallback := &stubProvider{name: "heuristic"}

	e := NewExtractionEngine(0, primary, fallback)
	events, stats := e.ExtractAll(context.Background(), prioritizedItems("https://a.example", "https://dead.example"), model.SearchRequest{})

	require.Len(t, events, 1)
	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 1, stats.Succeeded)
	require.Len(t, stats.Errors, 1)
	assert.Contains(t, stats.Errors[0], "dead.example")
}

func TestExtractionEngine_MaxExtractionsCap(t *testing.T) {
	primary := &stubProvider{name: "anthropic", events: map[string]model.ExtractedEvent{
		"https://a.example": {URL: "https://a.example", Title: "A", Success: true},
		"https://b.example": {URL: "https://b.example", Title: "B", Success: true},
		"https://c.example": {URL: "https://c.example", Title: "C", Success: true},
	}}

	e := NewExtractionEngine(0, primary)
	req := model.SearchRequest{Limits: model.Limits{MaxExtractions: 2}}
	events, stats := e.ExtractAll(context.Background(), prioritizedItems("https://a.example", "https://b.example", "https://c.example"), req)

	assert.Len(t, events, 2)
	assert.Equal(t, 2, stats.Attempted)
	assert.Equal(t, 2, primary.callCount())

	// The cap keeps the highest-scored prefix.
	assert.Equal(t, "https://a.example", events[0].URL)
	assert.Equal(t, "https://b.example", events[1].URL)
}

func TestExtractionEngine_Empty(t *testing.T) {
	e := NewExtractionEngine(0, &stubProvider{name: "anthropic"})
	events, stats := e.ExtractAll(context.Background(), nil, model.SearchRequest{})
	assert.Empty(t, events)
	assert.Zero(t, stats.Attempted)
}
