package engine

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/rank"
)

// stubRanker is a scriptable ranking strategy.
type stubRanker struct {
	ranking rank.Ranking
	err     error
	calls   int
}

func (s *stubRanker) Rank(_ context.Context, _ model.SearchRequest, _ []model.CandidateItem) (rank.Ranking, error) {
	s.calls++
	if s.err != nil {
		return rank.Ranking{}, s.err
	}
	return s.ranking, nil
}

func scored(score float64, url string) model.PrioritizedItem {
	return model.PrioritizedItem{
		CandidateItem: model.CandidateItem{URL: url},
		Score:         score,
	}
}

func TestPrioritizer_PrimaryRanking(t *testing.T) {
	primary := &stubRanker{ranking: rank.Ranking{
		Items: []model.PrioritizedItem{scored(0.9, "https://a.example"), scored(0.2, "https://b.example")},
	}}
	fallback := &stubRanker{}
	p := NewPrioritizer(primary, fallback)

	req := model.SearchRequest{
		Query:      "q",
		Thresholds: model.Thresholds{Prioritization: 0.4},
	}
	out := p.Prioritize(context.Background(), req, candidatesFor("jina", "https://a.example", "https://b.example"))

	require.Len(t, out.Items, 1)
	assert.Equal(t, "https://a.example", out.Items[0].URL)
	assert.Equal(t, 1, out.Dropped)
	assert.False(t, out.Bypassed)
	assert.False(t, out.FallbackUsed)
	assert.False(t, out.EmptyRanking)
	assert.Zero(t, fallback.calls)
}

func TestPrioritizer_BypassSkipsModel(t *testing.T) {
	primary := &stubRanker{}
	fallback := &stubRanker{ranking: rank.Ranking{
		Items: []model.PrioritizedItem{scored(0.8, "https://a.example")},
	}}
	p := NewPrioritizer(primary, fallback)

	req := model.SearchRequest{
		Query: "q",
		Flags: model.Flags{BypassRanking: true},
	}
	out := p.Prioritize(context.Background(), req, candidatesFor("jina", "https://a.example"))

	assert.True(t, out.Bypassed)
	assert.Zero(t, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	require.Len(t, out.Items, 1)
}

func TestPrioritizer_FallsBackOnModelError(t *testing.T) {
	primary := &stubRanker{err: eris.New("model down")}
	fallback := &stubRanker{ranking: rank.Ranking{
		Items: []model.PrioritizedItem{scored(0.7, "https://a.example")},
	}}
	p := NewPrioritizer(primary, fallback)

	out := p.Prioritize(context.Background(), model.SearchRequest{Query: "q"}, candidatesFor("jina", "https://a.example"))

	assert.True(t, out.FallbackUsed)
	assert.False(t, out.Bypassed)
	require.Len(t, out.Items, 1)
	require.NotEmpty(t, out.Issues)
	assert.Contains(t, out.Issues[0], "model ranker")
}

func TestPrioritizer_EmptyModelOutputDoesNotFallBack(t *testing.T) {
	// The model looked and judged nothing relevant. That is a valid
	// zero-result, not a failure.
	primary := &stubRanker{ranking: rank.Ranking{}}
	fallback := &stubRanker{ranking: rank.Ranking{
		Items: []model.PrioritizedItem{scored(0.9, "https://a.example")},
	}}
	p := NewPrioritizer(primary, fallback)

	out := p.Prioritize(context.Background(), model.SearchRequest{Query: "q"}, candidatesFor("jina", "https://a.example"))

	assert.Empty(t, out.Items)
	assert.False(t, out.FallbackUsed)
	assert.True(t, out.EmptyRanking)
	assert.Zero(t, fallback.calls)
}

func TestPrioritizer_NilPrimaryUsesHeuristic(t *testing.T) {
	fallback := &stubRanker{ranking: rank.Ranking{
		Items: []model.PrioritizedItem{scored(0.5, "https://a.example")},
	}}
	p := NewPrioritizer(nil, fallback)

	out := p.Prioritize(context.Background(), model.SearchRequest{Query: "q"}, candidatesFor("jina", "https://a.example"))
	assert.True(t, out.Bypassed)
	require.Len(t, out.Items, 1)
}

func TestPrioritizer_RepairSurfaced(t *testing.T) {
	primary := &stubRanker{ranking: rank.Ranking{
		Items:      []model.PrioritizedItem{scored(0.9, "https://a.example")},
		RepairUsed: true,
	}}
	p := NewPrioritizer(primary, &stubRanker{})

	out := p.Prioritize(context.Background(), model.SearchRequest{Query: "q"}, candidatesFor("jina", "https://a.example"))
	assert.True(t, out.RepairUsed)
}

func TestPrioritizer_NoCandidates(t *testing.T) {
	primary := &stubRanker{}
	p := NewPrioritizer(primary, &stubRanker{})

	out := p.Prioritize(context.Background(), model.SearchRequest{Query: "q"}, nil)
	assert.Empty(t, out.Items)
	assert.Zero(t, primary.calls)
}
