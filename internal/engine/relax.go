package engine

import (
	"strings"
	"time"

	"github.com/sells-group/event-scout/internal/model"
)

// Filter step names as recorded in the trace.
const (
	FilterQuality = "quality"
	FilterDate    = "date-window"
	FilterCountry = "country"
)

// dateRelaxation widens the requested window when the strict window would
// empty the result set.
const dateRelaxation = 30 * 24 * time.Hour

// defaultFilterOrder applies the cheapest-to-relax filter first.
var defaultFilterOrder = []string{FilterQuality, FilterDate, FilterCountry}

// RelaxationFilter applies post-extraction quality, date, and country
// filters. Each filter that would empty the set retries with a weaker
// variant before passing the empty set onward, so one over-strict filter
// cannot single-handedly zero a run.
type RelaxationFilter struct {
	order []string
}

// NewRelaxationFilter creates the filter stage. order picks which filters
// run and in what sequence; nil uses the default.
func NewRelaxationFilter(order []string) *RelaxationFilter {
	if len(order) == 0 {
		order = defaultFilterOrder
	}
	return &RelaxationFilter{order: order}
}

// Apply runs the configured filters in order. relaxed lists the names of
// filters that had to fall back to their weaker variant.
func (f *RelaxationFilter) Apply(events []model.ExtractedEvent, req model.SearchRequest) (kept []model.ExtractedEvent, relaxed []string) {
	kept = events
	for _, name := range f.order {
		if len(kept) == 0 {
			break
		}

		var strict, weak func(model.ExtractedEvent) bool
		switch name {
		case FilterQuality:
			// Confidence doubles as the parse-completeness measure, so the
			// confidence and parse-quality cutoffs both gate on it; the
			// stricter of the two wins.
			cutoff := req.Thresholds.Confidence
			if req.Thresholds.ParseQuality > cutoff {
				cutoff = req.Thresholds.ParseQuality
			}
			strict = qualityFilter(cutoff)
			weak = qualityFilter(cutoff / 2)
		case FilterDate:
			if req.DateFrom.IsZero() && req.DateTo.IsZero() {
				continue
			}
			strict = dateFilter(req.DateFrom, req.DateTo)
			weak = dateFilter(widenWindow(req.DateFrom, req.DateTo))
		case FilterCountry:
			if req.Country == "" {
				continue
			}
			strict = countryFilter(req.Country)
			if req.Flags.RelaxCountry {
				weak = func(model.ExtractedEvent) bool { return true }
			}
		default:
			continue
		}

		passed := filterEvents(kept, strict)
		if len(passed) > 0 {
			kept = passed
			continue
		}

		// Strict variant would empty the set. Relaxation must be enabled,
		// and the filter must have a weaker variant to offer.
		if !req.Flags.EnableRelaxation || weak == nil {
			kept = passed
			continue
		}

		passed = filterEvents(kept, weak)
		if len(passed) > 0 {
			relaxed = append(relaxed, name)
		}
		kept = passed
	}
	return kept, relaxed
}

func filterEvents(events []model.ExtractedEvent, keep func(model.ExtractedEvent) bool) []model.ExtractedEvent {
	var out []model.ExtractedEvent
	for _, e := range events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func qualityFilter(threshold float64) func(model.ExtractedEvent) bool {
	return func(e model.ExtractedEvent) bool {
		return e.Confidence >= threshold
	}
}

// dateFilter keeps events inside the window. Events without a known start
// date pass: an unknown date is not evidence the event is out of range.
func dateFilter(from, to time.Time) func(model.ExtractedEvent) bool {
	return func(e model.ExtractedEvent) bool {
		if e.StartsAt == nil {
			return true
		}
		if !from.IsZero() && e.StartsAt.Before(from) {
			return false
		}
		if !to.IsZero() && e.StartsAt.After(to) {
			return false
		}
		return true
	}
}

func widenWindow(from, to time.Time) (time.Time, time.Time) {
	if !from.IsZero() {
		from = from.Add(-dateRelaxation)
	}
	if !to.IsZero() {
		to = to.Add(dateRelaxation)
	}
	return from, to
}

// countryFilter keeps events in the requested country. Events without a
// known country pass.
func countryFilter(country string) func(model.ExtractedEvent) bool {
	return func(e model.ExtractedEvent) bool {
		return e.Country == "" || strings.EqualFold(e.Country, country)
	}
}
