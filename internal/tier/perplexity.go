package tier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/pkg/perplexity"
)

const perplexityPrompt = `Find upcoming or recent events matching this search.

Search: %s
Country: %s
Date window: %s to %s

Return ONLY a JSON array, no prose. Each element:
{"url": "<event page url>", "title": "<event title>", "snippet": "<one-line description>"}

List at most 10 events. Only include events with a real, reachable URL.`

// PerplexityService adapts Perplexity chat completions as a web-augmented
// discovery tier. The model is asked for a strict JSON list of event pages;
// if it answers in prose, the response citations are used instead.
type PerplexityService struct {
	client perplexity.Client
}

// NewPerplexityService creates the Perplexity discovery tier.
func NewPerplexityService(client perplexity.Client) *PerplexityService {
	return &PerplexityService{client: client}
}

func (s *PerplexityService) Name() string { return NamePerplexity }

func (s *PerplexityService) Search(ctx context.Context, req model.SearchRequest) ([]model.CandidateItem, error) {
	country := req.Country
	if country == "" {
		country = "any"
	}
	prompt := fmt.Sprintf(perplexityPrompt,
		req.Query, country,
		formatDate(req.DateFrom), formatDate(req.DateTo),
	)

	temp := 0.0
	resp, err := s.client.ChatCompletion(ctx, perplexity.ChatCompletionRequest{
		Messages:    []perplexity.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return nil, eris.Wrap(err, "tier: perplexity search")
	}
	if len(resp.Choices) == 0 {
		return nil, eris.New("tier: perplexity returned no choices")
	}

	items := parsePerplexityList(resp.Choices[0].Message.Content, req.Query)

	// Prose answer: fall back to citation URLs.
	if len(items) == 0 {
		for _, c := range resp.Citations {
			if c == "" {
				continue
			}
			items = append(items, model.CandidateItem{
				URL:         c,
				Tier:        NamePerplexity,
				SourceQuery: req.Query,
			})
		}
	}

	return items, nil
}

// parsePerplexityList extracts candidate items from a JSON array response,
// tolerating surrounding prose and code fences.
func parsePerplexityList(text, sourceQuery string) []model.CandidateItem {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start < 0 || end <= start {
		return nil
	}

	var raw []struct {
		URL     string `json:"url"`
		Title   string `json:"title"`
		Snippet string `json:"snippet"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return nil
	}

	var items []model.CandidateItem
	for _, r := range raw {
		if r.URL == "" {
			continue
		}
		items = append(items, model.CandidateItem{
			URL:         r.URL,
			Title:       r.Title,
			Snippet:     r.Snippet,
			Tier:        NamePerplexity,
			SourceQuery: sourceQuery,
		})
	}
	return items
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "any"
	}
	return t.Format("2006-01-02")
}
