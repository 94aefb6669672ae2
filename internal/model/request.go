package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Flags is the feature-flag snapshot for one search run. It is captured at
// request construction time and never mutated afterwards; no component reads
// ambient flag state mid-run.
type Flags struct {
	BypassRanking    bool `json:"bypass_ranking" mapstructure:"bypass_ranking"`
	RelaxCountry     bool `json:"relax_country" mapstructure:"relax_country"`
	EnableRelaxation bool `json:"enable_relaxation" mapstructure:"enable_relaxation"`
	DemoFallback     bool `json:"demo_fallback" mapstructure:"demo_fallback"`
}

// Thresholds holds per-run score cutoffs.
type Thresholds struct {
	Prioritization float64 `json:"prioritization" mapstructure:"prioritization"`
	Confidence     float64 `json:"confidence" mapstructure:"confidence"`
	ParseQuality   float64 `json:"parse_quality" mapstructure:"parse_quality"`
}

// Limits bounds per-run work.
type Limits struct {
	MaxCandidates      int `json:"max_candidates" mapstructure:"max_candidates"`
	MaxExtractions     int `json:"max_extractions" mapstructure:"max_extractions"`
	ExtractConcurrency int `json:"extract_concurrency" mapstructure:"extract_concurrency"`
}

// Timeouts holds per-stage deadlines plus the overall run deadline.
type Timeouts struct {
	Discovery      time.Duration `json:"discovery" mapstructure:"discovery"`
	Prioritization time.Duration `json:"prioritization" mapstructure:"prioritization"`
	Parsing        time.Duration `json:"parsing" mapstructure:"parsing"`
	Run            time.Duration `json:"run" mapstructure:"run"`
}

// SearchRequest describes one event search run. It is immutable for the
// duration of the run; every entity derived from it is discarded at the end.
type SearchRequest struct {
	Query      string     `json:"query"`
	Country    string     `json:"country"`
	DateFrom   time.Time  `json:"date_from"`
	DateTo     time.Time  `json:"date_to"`
	Flags      Flags      `json:"flags"`
	Thresholds Thresholds `json:"thresholds"`
	Limits     Limits     `json:"limits"`
	Timeouts   Timeouts   `json:"timeouts"`
}

// Validate checks request preconditions. A failing request must be rejected
// before the orchestrator is invoked; this is the only fatal condition the
// engine exposes to callers.
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) == "" {
		return eris.New("request: query is required")
	}
	if r.Country != "" && len(r.Country) != 2 {
		return eris.Errorf("request: country must be a 2-letter code, got %q", r.Country)
	}
	if !r.DateFrom.IsZero() && !r.DateTo.IsZero() && r.DateTo.Before(r.DateFrom) {
		return eris.New("request: date_to precedes date_from")
	}
	if r.Limits.MaxCandidates < 0 || r.Limits.MaxExtractions < 0 {
		return eris.New("request: negative limits")
	}
	return nil
}

// ApplyDefaults fills zero-valued thresholds, limits, and timeouts with the
// given defaults. The request itself stays the source of truth afterwards.
func (r *SearchRequest) ApplyDefaults(d SearchRequest) {
	if r.Thresholds.Prioritization == 0 {
		r.Thresholds.Prioritization = d.Thresholds.Prioritization
	}
	if r.Thresholds.Confidence == 0 {
		r.Thresholds.Confidence = d.Thresholds.Confidence
	}
	if r.Thresholds.ParseQuality == 0 {
		r.Thresholds.ParseQuality = d.Thresholds.ParseQuality
	}
	if r.Limits.MaxCandidates == 0 {
		r.Limits.MaxCandidates = d.Limits.MaxCandidates
	}
	if r.Limits.MaxExtractions == 0 {
		r.Limits.MaxExtractions = d.Limits.MaxExtractions
	}
	if r.Limits.ExtractConcurrency == 0 {
		r.Limits.ExtractConcurrency = d.Limits.ExtractConcurrency
	}
	if r.Timeouts.Discovery == 0 {
		r.Timeouts.Discovery = d.Timeouts.Discovery
	}
	if r.Timeouts.Prioritization == 0 {
		r.Timeouts.Prioritization = d.Timeouts.Prioritization
	}
	if r.Timeouts.Parsing == 0 {
		r.Timeouts.Parsing = d.Timeouts.Parsing
	}
	if r.Timeouts.Run == 0 {
		r.Timeouts.Run = d.Timeouts.Run
	}
}

// Fingerprint returns a stable cache key derived from the normalized request:
// query, country, date window, and flag snapshot. Thresholds and limits are
// deliberately excluded so that runs differing only in operational tuning
// share cached results.
func (r *SearchRequest) Fingerprint() string {
	flagParts := []string{
		fmt.Sprintf("bypass=%t", r.Flags.BypassRanking),
		fmt.Sprintf("relax_country=%t", r.Flags.RelaxCountry),
		fmt.Sprintf("relaxation=%t", r.Flags.EnableRelaxation),
		fmt.Sprintf("demo=%t", r.Flags.DemoFallback),
	}
	sort.Strings(flagParts)

	payload := strings.Join([]string{
		strings.ToLower(strings.TrimSpace(r.Query)),
		strings.ToUpper(r.Country),
		r.DateFrom.UTC().Format("2006-01-02"),
		r.DateTo.UTC().Format("2006-01-02"),
		strings.Join(flagParts, ","),
	}, "|")

	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])
}
