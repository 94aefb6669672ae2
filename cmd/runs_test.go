package main

import (
	"bytes"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/event-scout/internal/model"
)

func TestRunFilterFromQuery(t *testing.T) {
	r := httptest.NewRequest("GET", "/runs?status=complete&query=fintech&limit=10&offset=20&hours=48", nil)
	filter := runFilterFromQuery(r)

	assert.Equal(t, model.RunStatusComplete, filter.Status)
	assert.Equal(t, "fintech", filter.Query)
	assert.Equal(t, 10, filter.Limit)
	assert.Equal(t, 20, filter.Offset)
	assert.WithinDuration(t, time.Now().Add(-48*time.Hour), filter.CreatedAfter, time.Minute)
}

func TestRunFilterFromQuery_Defaults(t *testing.T) {
	filter := runFilterFromQuery(httptest.NewRequest("GET", "/runs", nil))

	assert.Empty(t, filter.Status)
	assert.Equal(t, 50, filter.Limit)
	assert.Zero(t, filter.Offset)
	assert.True(t, filter.CreatedAfter.IsZero())
}

func TestFormatRunsList(t *testing.T) {
	created := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	completed := created.Add(42 * time.Second)

	runs := []model.Run{
		{
			ID:          "0d4f7a6e-1111-2222-3333-444455556666",
			Query:       "legal compliance",
			Country:     "DE",
			Status:      model.RunStatusComplete,
			CreatedAt:   created,
			CompletedAt: &completed,
			Result: &model.OrchestratorResult{
				Items: []model.ExtractedEvent{{Title: "A"}, {Title: "B"}},
			},
		},
		{
			ID:        "ffffffff-0000-0000-0000-000000000000",
			Query:     "a very long query string that should be cut off somewhere",
			Status:    model.RunStatusDegraded,
			CreatedAt: created,
			Result:    &model.OrchestratorResult{FallbackUsed: true},
		},
	}

	var buf bytes.Buffer
	formatRunsList(&buf, runs)

	out := buf.String()
	assert.Contains(t, out, "0d4f7a6e")
	assert.NotContains(t, out, "444455556666")
	assert.Contains(t, out, "legal compliance")
	assert.Contains(t, out, "42s")
	// Fallback results are flagged with an asterisk.
	assert.Contains(t, out, "0*")
	// Long queries are truncated.
	assert.Contains(t, out, "...")
}

func TestTruncateID(t *testing.T) {
	assert.Equal(t, "0d4f7a6e", truncateID("0d4f7a6e-1111-2222-3333-444455556666"))
	assert.Equal(t, "short", truncateID("short"))
}
