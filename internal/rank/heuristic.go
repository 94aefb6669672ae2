package rank

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/sells-group/event-scout/internal/model"
)

// Tier weights bias the heuristic toward higher-trust sources when the
// model is unavailable. Curated entries were vetted by hand; broad-crawl
// hits are the noisiest.
var tierWeights = map[string]float64{
	"curated":    0.30,
	"jina":       0.20,
	"perplexity": 0.15,
	"firecrawl":  0.10,
}

// eventWords are terms whose presence in a title or snippet suggests an
// actual event page rather than a listing or news article.
var eventWords = []string{
	"conference", "summit", "meetup", "workshop", "expo",
	"symposium", "convention", "forum", "congress", "webinar",
}

// HeuristicRanker scores candidates without a model call. Used when the
// model strategies fail or ranking is bypassed by flag.
type HeuristicRanker struct {
	now func() time.Time
}

// NewHeuristicRanker creates the lexical fallback ranking strategy.
func NewHeuristicRanker() *HeuristicRanker {
	return &HeuristicRanker{now: time.Now}
}

func (r *HeuristicRanker) Rank(_ context.Context, req model.SearchRequest, candidates []model.CandidateItem) (Ranking, error) {
	tokens := queryTokens(req.Query)

	items := make([]model.PrioritizedItem, 0, len(candidates))
	for _, c := range candidates {
		score, reasons := r.score(c, tokens)
		items = append(items, model.PrioritizedItem{
			CandidateItem: c,
			Score:         score,
			Reasons:       reasons,
		})
	}

	model.SortByScore(items)
	return Ranking{Items: items}, nil
}

// score combines query-token overlap, tier trust, event-term presence, and
// a recency hint into a [0,1] score.
func (r *HeuristicRanker) score(c model.CandidateItem, tokens []string) (float64, []string) {
	var score float64
	var reasons []string

	haystack := strings.ToLower(c.Title + " " + c.Snippet)

	if len(tokens) > 0 {
		matched := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				matched++
			}
		}
		overlap := float64(matched) / float64(len(tokens))
		score += 0.4 * overlap
		if matched > 0 {
			reasons = append(reasons, "query overlap "+strconv.Itoa(matched)+"/"+strconv.Itoa(len(tokens)))
		}
	}

	if w, ok := tierWeights[c.Tier]; ok {
		score += w
		reasons = append(reasons, c.Tier+" tier")
	}

	for _, w := range eventWords {
		if strings.Contains(haystack, w) {
			score += 0.15
			reasons = append(reasons, "event term: "+w)
			break
		}
	}

	// Recency hint: a current or next-year mention suggests an upcoming
	// edition rather than an archive page.
	year := r.now().Year()
	if strings.Contains(haystack, strconv.Itoa(year)) || strings.Contains(haystack, strconv.Itoa(year+1)) {
		score += 0.15
		reasons = append(reasons, "recent year mentioned")
	}

	return model.ClampScore(score), reasons
}

// queryTokens lowercases and splits a query, dropping short tokens.
func queryTokens(query string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		tok = strings.Trim(tok, "\"'.,;:!?()")
		if len(tok) >= 3 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
