// Package monitoring aggregates health metrics from stored search runs.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/store"
)

// MetricsSnapshot holds a point-in-time view of search health.
type MetricsSnapshot struct {
	// Run counts within the lookback window.
	RunsTotal    int `json:"runs_total"`
	RunsComplete int `json:"runs_complete"`
	RunsDegraded int `json:"runs_degraded"`
	RunsFailed   int `json:"runs_failed"`
	RunsRunning  int `json:"runs_running"`

	// Quality signals.
	FallbackRate    float64 `json:"fallback_rate"`
	AvgEventsPerRun float64 `json:"avg_events_per_run"`
	CacheHits       int     `json:"cache_hits"`

	// Latency, averaged over completed runs.
	AvgTotalMS int64            `json:"avg_total_ms"`
	AvgStageMS map[string]int64 `json:"avg_stage_ms"`

	// Metadata.
	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Collector gathers metrics from the run store.
type Collector struct {
	store store.Store
}

// NewCollector creates a new metrics collector.
func NewCollector(st store.Store) *Collector {
	return &Collector{store: st}
}

// Collect gathers a snapshot of search metrics over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*MetricsSnapshot, error) {
	snap := &MetricsSnapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   time.Now().UTC(),
		AvgStageMS:    make(map[string]int64),
	}

	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.store.ListRuns(ctx, store.RunFilter{
		CreatedAfter: cutoff,
		Limit:        10000,
	})
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}

	snap.RunsTotal = len(runs)

	var fallbackRuns int
	var totalEvents int
	var totalMS int64
	var timedRuns int64
	stageTotals := make(map[string]int64)
	stageCounts := make(map[string]int64)

	for _, r := range runs {
		switch r.Status {
		case model.RunStatusComplete:
			snap.RunsComplete++
		case model.RunStatusDegraded:
			snap.RunsDegraded++
		case model.RunStatusFailed:
			snap.RunsFailed++
		case model.RunStatusRunning:
			snap.RunsRunning++
		}

		if r.Result == nil {
			continue
		}
		if r.Result.FallbackUsed {
			fallbackRuns++
		}
		if r.Result.Telemetry.CacheHit {
			snap.CacheHits++
		}
		totalEvents += len(r.Result.Items)
		totalMS += r.Result.Telemetry.TotalDurationMS
		timedRuns++
		for stage, ms := range r.Result.Telemetry.StageDurationMS {
			stageTotals[stage] += ms
			stageCounts[stage]++
		}
	}

	finished := snap.RunsComplete + snap.RunsDegraded + snap.RunsFailed
	if finished > 0 {
		snap.FallbackRate = float64(fallbackRuns) / float64(finished)
		snap.AvgEventsPerRun = float64(totalEvents) / float64(finished)
	}
	if timedRuns > 0 {
		snap.AvgTotalMS = totalMS / timedRuns
	}
	for stage, total := range stageTotals {
		snap.AvgStageMS[stage] = total / stageCounts[stage]
	}

	return snap, nil
}
