// Package rank scores discovery candidates so the engine can spend its
// extraction budget on the most promising URLs first.
package rank

import (
	"context"

	"github.com/sells-group/event-scout/internal/model"
)

// Ranking is the output of a single ranking strategy.
type Ranking struct {
	Items []model.PrioritizedItem
	// RepairUsed marks that the model's JSON had to be salvaged before it
	// parsed. Surfaced in telemetry so prompt regressions are visible.
	RepairUsed bool
}

// Ranker scores a candidate set. An error means the strategy could not
// produce any ranking and the caller should try the next one in the chain.
// A nil error with zero items is a valid outcome: the strategy looked at
// the candidates and judged none relevant.
type Ranker interface {
	Rank(ctx context.Context, req model.SearchRequest, candidates []model.CandidateItem) (Ranking, error)
}
