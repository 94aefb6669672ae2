package cache

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/store"
)

// mockStore implements store.Store with an in-memory result cache.
type mockStore struct {
	store.Store

	results map[string]*model.OrchestratorResult
	getErr  error
	setErr  error
	sets    int
}

func newMockStore() *mockStore {
	return &mockStore{results: make(map[string]*model.OrchestratorResult)}
}

func (m *mockStore) GetCachedResult(_ context.Context, fingerprint string) (*model.OrchestratorResult, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.results[fingerprint], nil
}

func (m *mockStore) SetCachedResult(_ context.Context, fingerprint string, result *model.OrchestratorResult, _ time.Duration) error {
	if m.setErr != nil {
		return m.setErr
	}
	m.sets++
	m.results[fingerprint] = result
	return nil
}

func (m *mockStore) DeleteExpiredResults(_ context.Context) (int, error) {
	n := len(m.results)
	m.results = make(map[string]*model.OrchestratorResult)
	return n, nil
}

func TestResultCache_RoundTrip(t *testing.T) {
	st := newMockStore()
	c := New(st, time.Hour)
	req := model.SearchRequest{Query: "legal compliance", Country: "DE"}

	assert.Nil(t, c.Get(context.Background(), req))

	result := &model.OrchestratorResult{
		Items: []model.ExtractedEvent{{URL: "https://e.example", Title: "E"}},
	}
	c.Put(context.Background(), req, result)

	hit := c.Get(context.Background(), req)
	require.NotNil(t, hit)
	assert.Equal(t, "E", hit.Items[0].Title)

	// A different query misses.
	other := model.SearchRequest{Query: "fintech", Country: "DE"}
	assert.Nil(t, c.Get(context.Background(), other))
}

func TestResultCache_SkipsFallbackResults(t *testing.T) {
	st := newMockStore()
	c := New(st, time.Hour)
	req := model.SearchRequest{Query: "q"}

	c.Put(context.Background(), req, &model.OrchestratorResult{FallbackUsed: true})
	assert.Zero(t, st.sets)
	assert.Nil(t, c.Get(context.Background(), req))
}

func TestResultCache_ErrorsAreSoft(t *testing.T) {
	st := newMockStore()
	st.getErr = eris.New("db down")
	st.setErr = eris.New("db down")
	c := New(st, time.Hour)
	req := model.SearchRequest{Query: "q"}

	assert.Nil(t, c.Get(context.Background(), req))
	c.Put(context.Background(), req, &model.OrchestratorResult{})
}

func TestResultCache_NilReceiver(t *testing.T) {
	var c *ResultCache
	assert.Nil(t, c.Get(context.Background(), model.SearchRequest{Query: "q"}))
	c.Put(context.Background(), model.SearchRequest{Query: "q"}, &model.OrchestratorResult{})
}

func TestResultCache_Purge(t *testing.T) {
	st := newMockStore()
	c := New(st, time.Hour)

	c.Put(context.Background(), model.SearchRequest{Query: "q"}, &model.OrchestratorResult{})
	n, err := c.Purge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
