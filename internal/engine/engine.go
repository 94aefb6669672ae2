package engine

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/model"
)

// FallbackSource supplies curated last-resort events for the finalize
// stage. Implemented by the curated tier's dataset.
type FallbackSource interface {
	Fallback(req model.SearchRequest) []model.ExtractedEvent
}

// Orchestrator drives the pipeline stage by stage. It always advances and
// always returns a result envelope; the only error it ever returns is a
// request validation failure.
type Orchestrator struct {
	executor    *TierExecutor
	prioritizer *Prioritizer
	extraction  *ExtractionEngine
	filter      *RelaxationFilter
	fallback    FallbackSource
	defaults    model.SearchRequest
}

// NewOrchestrator wires the pipeline. fallback may be nil when no curated
// dataset is configured.
func NewOrchestrator(
	executor *TierExecutor,
	prioritizer *Prioritizer,
	extraction *ExtractionEngine,
	filter *RelaxationFilter,
	fallback FallbackSource,
	defaults model.SearchRequest,
) *Orchestrator {
	return &Orchestrator{
		executor:    executor,
		prioritizer: prioritizer,
		extraction:  extraction,
		filter:      filter,
		fallback:    fallback,
		defaults:    defaults,
	}
}

// Run executes one search. Degraded runs return a populated envelope with
// FallbackUsed and Issues set, never an error.
func (o *Orchestrator) Run(ctx context.Context, req model.SearchRequest) (*model.OrchestratorResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	req.ApplyDefaults(o.defaults)

	if req.Timeouts.Run > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeouts.Run)
		defer cancel()
	}

	started := time.Now()
	res := &model.OrchestratorResult{
		Telemetry: model.Telemetry{
			SearchID:        uuid.NewString(),
			Query:           req.Query,
			Country:         req.Country,
			Flags:           req.Flags,
			StageDurationMS: make(map[string]int64, 6),
			StartedAt:       started.UTC(),
		},
	}

	log := zap.L().With(
		zap.String("search_id", res.Telemetry.SearchID),
		zap.String("query", req.Query),
	)
	log.Info("search run starting", zap.String("country", req.Country))

	// trackStage runs one stage, timing it into both trace and telemetry.
	trackStage := func(stage string, slot **model.StageRecord, fn func(rec *model.StageRecord)) {
		rec := &model.StageRecord{Stage: stage, Status: model.StageStatusComplete}
		start := time.Now()
		fn(rec)
		rec.DurationMS = time.Since(start).Milliseconds()
		res.Telemetry.StageDurationMS[stage] = rec.DurationMS
		*slot = rec
	}

	skipStage := func(stage string, slot **model.StageRecord, note string) {
		rec := &model.StageRecord{Stage: stage, Status: model.StageStatusSkipped}
		if note != "" {
			rec.Notes = []string{note}
		}
		res.Telemetry.StageDurationMS[stage] = 0
		*slot = rec
	}

	var candidates []model.CandidateItem
	trackStage(model.StageDiscover, &res.Trace.Queries, func(rec *model.StageRecord) {
		var stats TierStats
		candidates, stats = o.executor.ExecuteAll(ctx, req)
		rec.Outputs = len(candidates)
		rec.Errors = stats.Errors
		for name, n := range stats.PerTier {
			rec.Notes = append(rec.Notes, fmt.Sprintf("%s: %d", name, n))
		}
		sort.Strings(rec.Notes)
		if stats.Truncated {
			rec.Notes = append(rec.Notes, fmt.Sprintf("capped at %d candidates", req.Limits.MaxCandidates))
		}
		if stats.AllTiersFailed {
			rec.Status = model.StageStatusDegraded
			if len(stats.PerTier) == 0 {
				res.Issues = append(res.Issues, "discovery: all tiers failed")
			} else {
				rec.Notes = append(rec.Notes, "no candidates from any tier")
			}
		} else if len(stats.Errors) > 0 {
			rec.Status = model.StageStatusDegraded
		}
	})
	res.Telemetry.CandidatesFound = len(candidates)

	var deduped []model.CandidateItem
	if len(candidates) == 0 {
		skipStage(model.StageDeduplicate, &res.Trace.Results, "no candidates")
	} else {
		trackStage(model.StageDeduplicate, &res.Trace.Results, func(rec *model.StageRecord) {
			var removed int
			deduped, removed = Deduplicate(candidates)
			rec.Inputs = len(candidates)
			rec.Outputs = len(deduped)
			res.Telemetry.DuplicatesCut = removed
		})
	}

	var prioritized Prioritization
	if len(deduped) == 0 {
		skipStage(model.StagePrioritize, &res.Trace.Prioritization, "nothing to rank")
	} else {
		trackStage(model.StagePrioritize, &res.Trace.Prioritization, func(rec *model.StageRecord) {
			prioritized = o.prioritizer.Prioritize(ctx, req, deduped)
			rec.Inputs = len(deduped)
			rec.Outputs = len(prioritized.Items)
			rec.Errors = prioritized.Issues
			if prioritized.Bypassed {
				rec.Notes = append(rec.Notes, "ranking bypassed")
			}
			if prioritized.FallbackUsed {
				rec.Status = model.StageStatusDegraded
				rec.Notes = append(rec.Notes, "heuristic fallback")
			}
			if prioritized.RepairUsed {
				rec.Notes = append(rec.Notes, "json repair")
			}
			if prioritized.EmptyRanking {
				rec.Notes = append(rec.Notes, "ranker scored no candidates")
			}
			if prioritized.Dropped > 0 {
				rec.Notes = append(rec.Notes, fmt.Sprintf("%d below threshold", prioritized.Dropped))
			}
			res.Issues = append(res.Issues, prioritized.Issues...)
		})
	}

	var events []model.ExtractedEvent
	if len(prioritized.Items) == 0 {
		skipStage(model.StageExtract, &res.Trace.Extract, "nothing to extract")
	} else {
		trackStage(model.StageExtract, &res.Trace.Extract, func(rec *model.StageRecord) {
			var stats ExtractStats
			events, stats = o.extraction.ExtractAll(ctx, prioritized.Items, req)
			rec.Inputs = stats.Attempted
			rec.Outputs = stats.Succeeded
			rec.Errors = stats.Errors
			if stats.FallbackCount > 0 {
				rec.Notes = append(rec.Notes, fmt.Sprintf("%d via fallback extractor", stats.FallbackCount))
			}
			if stats.Succeeded < stats.Attempted {
				rec.Status = model.StageStatusDegraded
			}
			// Workers finish out of order; put the best candidates first
			// again before filtering.
			sort.SliceStable(events, func(i, j int) bool {
				return events[i].Score > events[j].Score
			})
		})
	}
	res.Telemetry.EventsExtracted = len(events)

	if len(events) == 0 {
		skipStage(model.StageFilter, &res.Trace.Filters, "nothing to filter")
	} else {
		trackStage(model.StageFilter, &res.Trace.Filters, func(rec *model.StageRecord) {
			var relaxed []string
			rec.Inputs = len(events)
			events, relaxed = o.filter.Apply(events, req)
			rec.Outputs = len(events)
			for _, name := range relaxed {
				rec.Notes = append(rec.Notes, "relaxed: "+name)
			}
		})
	}

	trackStage(model.StageFinalize, &res.Trace.Performance, func(rec *model.StageRecord) {
		rec.Inputs = len(events)
		if len(events) == 0 {
			res.FallbackUsed = true
			if req.Flags.DemoFallback && o.fallback != nil {
				events = o.fallback.Fallback(req)
			}
			if len(events) > 0 {
				rec.Status = model.StageStatusDegraded
				rec.Notes = append(rec.Notes, fmt.Sprintf("injected %d curated events", len(events)))
			} else {
				rec.Status = model.StageStatusDegraded
				res.Issues = append(res.Issues, "finalize: no events from any source")
			}
		}
		rec.Outputs = len(events)
	})

	res.Items = events
	res.Telemetry.EventsReturned = len(events)
	res.Telemetry.TotalDurationMS = time.Since(started).Milliseconds()

	log.Info("search run finished",
		zap.Int("events", len(events)),
		zap.Bool("fallback_used", res.FallbackUsed),
		zap.Int64("total_ms", res.Telemetry.TotalDurationMS),
	)
	return res, nil
}
