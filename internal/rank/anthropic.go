package rank

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/resilience"
	"github.com/sells-group/event-scout/pkg/anthropic"
)

const rankSystemPrompt = `You score search results for relevance to an event discovery query.
Given a query and a numbered list of results, return ONLY a JSON array:
[{"index": <result number>, "score": <0.0-1.0>, "reasons": ["<short reason>"]}]
Score how likely each result is a real event page (conference, summit, meetup,
workshop) matching the query, country, and date window. Omit results that are
clearly not event pages. No prose, no markdown fences.`

const rankMaxTokens = 2048

// AnthropicRanker scores candidates with a Claude model. The model sees
// title, snippet, and URL for each candidate and returns per-index scores.
type AnthropicRanker struct {
	client anthropic.Client
	model  string
}

// NewAnthropicRanker creates the model-backed ranking strategy.
func NewAnthropicRanker(client anthropic.Client, modelName string) *AnthropicRanker {
	return &AnthropicRanker{client: client, model: modelName}
}

func (r *AnthropicRanker) Rank(ctx context.Context, req model.SearchRequest, candidates []model.CandidateItem) (Ranking, error) {
	if r.client == nil {
		return Ranking{}, eris.New("rank: no anthropic client configured")
	}
	if len(candidates) == 0 {
		return Ranking{}, nil
	}

	temp := 0.0
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "rank")

	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return r.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       r.model,
			MaxTokens:   rankMaxTokens,
			System:      rankSystemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: buildRankPrompt(req, candidates)}},
			Temperature: &temp,
		})
	})
	if err != nil {
		return Ranking{}, eris.Wrap(err, "rank: anthropic scoring")
	}

	items, repaired, err := parseRankResponse(resp.Text(), candidates)
	if err != nil {
		zap.L().Debug("ranker output did not parse",
			zap.String("model", r.model),
			zap.Error(err),
		)
		return Ranking{}, err
	}

	return Ranking{Items: items, RepairUsed: repaired}, nil
}

// buildRankPrompt renders the query context and numbered candidate list.
func buildRankPrompt(req model.SearchRequest, candidates []model.CandidateItem) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Query: %s\n", req.Query)
	if req.Country != "" {
		fmt.Fprintf(&sb, "Country: %s\n", req.Country)
	}
	if !req.DateFrom.IsZero() || !req.DateTo.IsZero() {
		fmt.Fprintf(&sb, "Date window: %s to %s\n",
			formatDate(req.DateFrom), formatDate(req.DateTo))
	}
	sb.WriteString("\nResults:\n")
	for i, c := range candidates {
		fmt.Fprintf(&sb, "%d. %s\n   %s\n   %s\n", i, c.Title, c.URL, truncate(c.Snippet, 300))
	}
	return sb.String()
}

// parseRankResponse maps model output back onto the candidate slice. Out of
// range or duplicate indexes are dropped rather than failing the whole batch.
func parseRankResponse(text string, candidates []model.CandidateItem) ([]model.PrioritizedItem, bool, error) {
	cleaned, repaired := cleanJSONArray(text)

	var raw []struct {
		Index   int      `json:"index"`
		Score   float64  `json:"score"`
		Reasons []string `json:"reasons"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, repaired, eris.Wrap(err, "rank: parse scoring JSON")
	}

	seen := make(map[int]bool, len(raw))
	items := make([]model.PrioritizedItem, 0, len(raw))
	for _, r := range raw {
		if r.Index < 0 || r.Index >= len(candidates) || seen[r.Index] {
			continue
		}
		seen[r.Index] = true
		items = append(items, model.PrioritizedItem{
			CandidateItem: candidates[r.Index],
			Score:         model.ClampScore(r.Score),
			Reasons:       r.Reasons,
		})
	}

	model.SortByScore(items)
	return items, repaired, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "any"
	}
	return t.Format("2006-01-02")
}
