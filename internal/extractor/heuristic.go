package extractor

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/pkg/firecrawl"
)

var (
	isoDateRe = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	// "March 14, 2026" and "14 March 2026".
	longDateRe = regexp.MustCompile(`(?i)\b(?:(January|February|March|April|May|June|July|August|September|October|November|December)\s+(\d{1,2}),?\s+(\d{4})|(\d{1,2})\s+(January|February|March|April|May|June|July|August|September|October|November|December),?\s+(\d{4}))\b`)

	labelRe = regexp.MustCompile(`(?im)^\s*(?:\*\*)?(venue|location|city|where)(?:\*\*)?\s*[:：]\s*(.+)$`)
)

// HeuristicExtractor scrapes a page through Firecrawl and pulls event
// fields out of the markdown with pattern matching. It is the fallback
// when model extraction fails, so it favors partial records over errors.
type HeuristicExtractor struct {
	scraper firecrawl.Client
}

// NewHeuristicExtractor creates the fallback extraction provider.
func NewHeuristicExtractor(scraper firecrawl.Client) *HeuristicExtractor {
	return &HeuristicExtractor{scraper: scraper}
}

func (e *HeuristicExtractor) Name() string { return "heuristic" }

func (e *HeuristicExtractor) Extract(ctx context.Context, url string, _ model.SearchRequest) (model.ExtractedEvent, error) {
	if e.scraper == nil {
		return model.ExtractedEvent{}, eris.New("extractor: heuristic provider not configured")
	}

	resp, err := e.scraper.Scrape(ctx, firecrawl.ScrapeRequest{
		URL:     url,
		Formats: []string{"markdown"},
	})
	if err != nil {
		return model.ExtractedEvent{}, eris.Wrap(err, "extractor: scrape page")
	}
	if !resp.Success || strings.TrimSpace(resp.Data.Markdown) == "" {
		return model.ExtractedEvent{}, eris.Errorf("extractor: no scrape content for %s", url)
	}

	event := parseMarkdown(resp.Data.Markdown, resp.Data.Title, url)
	if event.Title == "" {
		return model.ExtractedEvent{}, eris.Errorf("extractor: no title found at %s", url)
	}

	event.Success = true
	event.Extractor = e.Name()
	event.Confidence = event.DeriveConfidence()
	return event, nil
}

// parseMarkdown pulls title, description, dates, and venue hints from page
// markdown.
func parseMarkdown(markdown, pageTitle, url string) model.ExtractedEvent {
	event := model.ExtractedEvent{URL: url, Title: pageTitle}

	lines := strings.Split(markdown, "\n")
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// First top-level heading wins over the page <title>.
		if event.Title == pageTitle || event.Title == "" {
			if h, ok := strings.CutPrefix(trimmed, "# "); ok {
				event.Title = strings.TrimSpace(h)
				continue
			}
		}

		// First substantial prose paragraph becomes the description.
		if event.Description == "" && len(trimmed) > 60 &&
			!strings.HasPrefix(trimmed, "#") && !strings.HasPrefix(trimmed, "![") &&
			!strings.HasPrefix(trimmed, "|") {
			event.Description = truncateDescription(trimmed)
		}
	}

	for _, m := range labelRe.FindAllStringSubmatch(markdown, -1) {
		value := strings.TrimSpace(m[2])
		switch strings.ToLower(m[1]) {
		case "venue", "location", "where":
			if event.Venue == "" {
				event.Venue = value
			}
		case "city":
			if event.City == "" {
				event.City = value
			}
		}
	}

	dates := findDates(markdown)
	if len(dates) > 0 {
		event.StartsAt = &dates[0]
	}
	if len(dates) > 1 && dates[1].After(dates[0]) {
		event.EndsAt = &dates[1]
	}

	return event
}

// findDates collects parseable dates in document order, deduplicated.
func findDates(markdown string) []time.Time {
	var out []time.Time
	seen := make(map[time.Time]bool)

	add := func(t time.Time) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for _, m := range isoDateRe.FindAllString(markdown, 10) {
		if t, err := time.Parse("2006-01-02", m); err == nil {
			add(t)
		}
	}
	for _, m := range longDateRe.FindAllString(markdown, 10) {
		normalized := strings.ReplaceAll(m, ",", "")
		if t, err := time.Parse("January 2 2006", normalized); err == nil {
			add(t)
			continue
		}
		if t, err := time.Parse("2 January 2006", normalized); err == nil {
			add(t)
		}
	}

	return out
}

func truncateDescription(s string) string {
	const max = 400
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
