package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/rank"
)

// Prioritization is the outcome of the ranking stage.
type Prioritization struct {
	Items []model.PrioritizedItem
	// Dropped counts candidates scored below the prioritization threshold.
	Dropped int
	// Bypassed is set when the bypass flag skipped the model ranker.
	Bypassed bool
	// FallbackUsed is set when the model ranker failed and the heuristic
	// scorer produced the ranking instead.
	FallbackUsed bool
	// EmptyRanking is set when the ranker saw candidates but scored none of
	// them, distinguishing a judged zero-result from a threshold wipeout.
	EmptyRanking bool
	RepairUsed   bool
	Issues       []string
}

// Prioritizer ranks deduplicated candidates with a strategy chain: the
// model ranker first, the heuristic scorer when the model fails or is
// bypassed. A model ranking that parses but scores nothing is a valid
// zero-result and does not engage the fallback.
type Prioritizer struct {
	primary  rank.Ranker
	fallback rank.Ranker
}

// NewPrioritizer creates the ranking stage. primary may be nil when no
// model is configured; the heuristic then serves every request.
func NewPrioritizer(primary, fallback rank.Ranker) *Prioritizer {
	return &Prioritizer{primary: primary, fallback: fallback}
}

// Prioritize scores the candidates and applies the prioritization
// threshold. The model call is bounded by req.Timeouts.Prioritization.
func (p *Prioritizer) Prioritize(ctx context.Context, req model.SearchRequest, candidates []model.CandidateItem) Prioritization {
	var out Prioritization

	if len(candidates) == 0 {
		return out
	}

	if req.Flags.BypassRanking || p.primary == nil {
		out.Bypassed = true
		ranking, err := p.fallback.Rank(ctx, req, candidates)
		if err != nil {
			// The heuristic has no external dependencies; an error here
			// still must not sink the run.
			out.Issues = append(out.Issues, "prioritize: heuristic ranker: "+err.Error())
			return out
		}
		out.EmptyRanking = len(ranking.Items) == 0
		out.Items, out.Dropped = applyThreshold(ranking.Items, req.Thresholds.Prioritization)
		return out
	}

	rctx := ctx
	if req.Timeouts.Prioritization > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, req.Timeouts.Prioritization)
		defer cancel()
	}

	ranking, err := p.primary.Rank(rctx, req, candidates)
	if err != nil {
		zap.L().Warn("model ranker failed, using heuristic scorer", zap.Error(err))
		out.Issues = append(out.Issues, "prioritize: model ranker: "+err.Error())
		out.FallbackUsed = true

		ranking, err = p.fallback.Rank(ctx, req, candidates)
		if err != nil {
			out.Issues = append(out.Issues, "prioritize: heuristic ranker: "+err.Error())
			return out
		}
	}

	out.RepairUsed = ranking.RepairUsed
	out.EmptyRanking = len(ranking.Items) == 0
	out.Items, out.Dropped = applyThreshold(ranking.Items, req.Thresholds.Prioritization)
	return out
}

// applyThreshold drops items scored below the cutoff, keeping the count for
// stats. Items arrive sorted, so the kept prefix stays sorted.
func applyThreshold(items []model.PrioritizedItem, threshold float64) ([]model.PrioritizedItem, int) {
	if threshold <= 0 {
		return items, 0
	}
	kept := make([]model.PrioritizedItem, 0, len(items))
	for _, item := range items {
		if item.Score >= threshold {
			kept = append(kept, item)
		}
	}
	return kept, len(items) - len(kept)
}
