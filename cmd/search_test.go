package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/event-scout/internal/config"
	"github.com/sells-group/event-scout/internal/model"
)

func TestParseDateFlag(t *testing.T) {
	got, err := parseDateFlag("2026-05-11")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC), got)

	got, err = parseDateFlag("")
	require.NoError(t, err)
	assert.True(t, got.IsZero())

	_, err = parseDateFlag("11.05.2026")
	require.Error(t, err)
}

func TestRunStatusFor(t *testing.T) {
	assert.Equal(t, model.RunStatusComplete, runStatusFor(&model.OrchestratorResult{
		Items: []model.ExtractedEvent{{Title: "E"}},
	}))
	assert.Equal(t, model.RunStatusDegraded, runStatusFor(&model.OrchestratorResult{
		FallbackUsed: true,
	}))
	assert.Equal(t, model.RunStatusDegraded, runStatusFor(&model.OrchestratorResult{
		Issues: []string{"discovery: all tiers failed"},
	}))
}

func TestSearchRequestFromFlags(t *testing.T) {
	cfg = &config.Config{}
	cfg.Search.Flags = model.Flags{EnableRelaxation: true}

	require.NoError(t, searchCmd.Flags().Set("country", "DE"))
	require.NoError(t, searchCmd.Flags().Set("from", "2026-05-01"))
	require.NoError(t, searchCmd.Flags().Set("bypass-ranking", "true"))
	defer func() {
		_ = searchCmd.Flags().Set("country", "")
		_ = searchCmd.Flags().Set("from", "")
		_ = searchCmd.Flags().Set("bypass-ranking", "false")
	}()

	req, err := searchRequestFromFlags(searchCmd, "legal compliance")
	require.NoError(t, err)

	assert.Equal(t, "legal compliance", req.Query)
	assert.Equal(t, "DE", req.Country)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), req.DateFrom)
	assert.True(t, req.Flags.BypassRanking)
	// Config flags carry through.
	assert.True(t, req.Flags.EnableRelaxation)
}

func TestPrintResult_Table(t *testing.T) {
	starts := time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC)
	result := &model.OrchestratorResult{
		Items: []model.ExtractedEvent{
			{
				URL:        "https://conf.example",
				Title:      "GDPR Forum",
				StartsAt:   &starts,
				City:       "Berlin",
				Country:    "DE",
				Confidence: 0.85,
			},
		},
		Telemetry: model.Telemetry{TotalDurationMS: 1234},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, result, false))

	out := buf.String()
	assert.Contains(t, out, "GDPR Forum")
	assert.Contains(t, out, "2026-05-11")
	assert.Contains(t, out, "Berlin, DE")
	assert.Contains(t, out, "1 events in 1234ms")
}

func TestPrintResult_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, &model.OrchestratorResult{}, false))
	assert.Contains(t, buf.String(), "No events found.")
}

func TestPrintResult_FallbackNote(t *testing.T) {
	result := &model.OrchestratorResult{
		Items:        []model.ExtractedEvent{{Title: "Curated Conf", URL: "https://c.example"}},
		FallbackUsed: true,
		Issues:       []string{"discovery: all tiers failed"},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, result, false))

	out := buf.String()
	assert.Contains(t, out, "(curated fallback)")
	assert.Contains(t, out, "warning: discovery: all tiers failed")
}

func TestPrintResult_JSON(t *testing.T) {
	result := &model.OrchestratorResult{
		Items: []model.ExtractedEvent{{Title: "E", URL: "https://e.example"}},
	}

	var buf bytes.Buffer
	require.NoError(t, printResult(&buf, result, true))
	assert.Contains(t, buf.String(), `"title": "E"`)
}
