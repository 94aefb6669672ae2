package model

import "time"

// Stage names, in pipeline order.
const (
	StageDiscover    = "discover"
	StageDeduplicate = "deduplicate"
	StagePrioritize  = "prioritize"
	StageExtract     = "extract"
	StageFilter      = "filter"
	StageFinalize    = "finalize"
)

// Stage statuses recorded in the trace.
const (
	StageStatusComplete = "complete"
	StageStatusDegraded = "degraded"
	StageStatusSkipped  = "skipped"
)

// StageRecord is the verbose per-stage diagnostic record. One record exists
// for every stage the run reached; short-circuited stages are recorded with
// StageStatusSkipped rather than omitted.
type StageRecord struct {
	Stage      string   `json:"stage"`
	Status     string   `json:"status"`
	Inputs     int      `json:"inputs"`
	Outputs    int      `json:"outputs"`
	DurationMS int64    `json:"duration_ms"`
	Errors     []string `json:"errors,omitempty"`
	Notes      []string `json:"notes,omitempty"`
}

// Trace is the per-run debugging record: the cheap, verbose sibling of
// Telemetry, kept for debugging UIs.
type Trace struct {
	Queries        *StageRecord `json:"queries"`
	Results        *StageRecord `json:"results"`
	Prioritization *StageRecord `json:"prioritization"`
	Extract        *StageRecord `json:"extract"`
	Filters        *StageRecord `json:"filters"`
	Performance    *StageRecord `json:"performance"`
}

// Records returns the trace records in pipeline order, skipping nil entries.
func (t *Trace) Records() []*StageRecord {
	var out []*StageRecord
	for _, r := range []*StageRecord{t.Queries, t.Results, t.Prioritization, t.Extract, t.Filters, t.Performance} {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Telemetry is the compact per-run metrics record, kept for dashboards and
// alerting.
type Telemetry struct {
	SearchID        string           `json:"search_id"`
	Query           string           `json:"query"`
	Country         string           `json:"country"`
	Flags           Flags            `json:"flags"`
	StageDurationMS map[string]int64 `json:"stage_duration_ms"`
	TotalDurationMS int64            `json:"total_duration_ms"`
	CandidatesFound int              `json:"candidates_found"`
	DuplicatesCut   int              `json:"duplicates_cut"`
	EventsExtracted int              `json:"events_extracted"`
	EventsReturned  int              `json:"events_returned"`
	CacheHit        bool             `json:"cache_hit"`
	StartedAt       time.Time        `json:"started_at"`
}

// OrchestratorResult is the single envelope returned to callers. The engine
// never fails a degraded run; FallbackUsed and Issues signal how degraded the
// result is.
type OrchestratorResult struct {
	Items        []ExtractedEvent `json:"items"`
	Trace        Trace            `json:"trace"`
	Telemetry    Telemetry        `json:"telemetry"`
	FallbackUsed bool             `json:"fallback_used"`
	Issues       []string         `json:"issues,omitempty"`
}

// RunStatus tracks a stored run's lifecycle.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusDegraded RunStatus = "degraded"
	RunStatusFailed   RunStatus = "failed"
)

// Run is the persisted record of one orchestrator run.
type Run struct {
	ID          string              `json:"id"`
	Fingerprint string              `json:"fingerprint"`
	Query       string              `json:"query"`
	Country     string              `json:"country"`
	Status      RunStatus           `json:"status"`
	Result      *OrchestratorResult `json:"result,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}
