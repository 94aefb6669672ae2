package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/internal/resilience"
	"github.com/sells-group/event-scout/pkg/anthropic"
	"github.com/sells-group/event-scout/pkg/jina"
)

const extractSystemPrompt = `You extract structured event details from a web page.
Return ONLY a JSON object, no prose, no markdown fences:
{"title": "", "description": "", "starts_at": "YYYY-MM-DD or null",
 "ends_at": "YYYY-MM-DD or null", "venue": "", "city": "",
 "country": "<2-letter code or empty>", "speakers": ["name", ...]}
Leave a field empty or null when the page does not state it. Never invent
dates or names. If the page is not about a specific event, return
{"not_event": true}.`

const (
	extractMaxTokens = 1024
	// Reader output beyond this adds cost without adding signal.
	maxPageChars = 24000
)

// AnthropicExtractor reads a page through the Jina reader and has a Claude
// model parse the structured event fields out of the markdown.
type AnthropicExtractor struct {
	reader jina.Client
	client anthropic.Client
	model  string
}

// NewAnthropicExtractor creates the primary extraction provider.
func NewAnthropicExtractor(reader jina.Client, client anthropic.Client, modelName string) *AnthropicExtractor {
	return &AnthropicExtractor{reader: reader, client: client, model: modelName}
}

func (e *AnthropicExtractor) Name() string { return "anthropic" }

func (e *AnthropicExtractor) Extract(ctx context.Context, url string, req model.SearchRequest) (model.ExtractedEvent, error) {
	if e.reader == nil || e.client == nil {
		return model.ExtractedEvent{}, eris.New("extractor: anthropic provider not configured")
	}

	page, err := e.reader.Read(ctx, url)
	if err != nil {
		return model.ExtractedEvent{}, eris.Wrap(err, "extractor: read page")
	}
	content := page.Data.Content
	if strings.TrimSpace(content) == "" {
		return model.ExtractedEvent{}, eris.Errorf("extractor: empty page content for %s", url)
	}
	if len(content) > maxPageChars {
		content = content[:maxPageChars]
	}

	prompt := fmt.Sprintf("URL: %s\nSearch query: %s\n\nPage content:\n%s", url, req.Query, content)

	temp := 0.0
	retryCfg := resilience.DefaultRetryConfig()
	retryCfg.OnRetry = resilience.RetryLogger("anthropic", "extract")

	resp, err := resilience.DoVal(ctx, retryCfg, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return e.client.CreateMessage(ctx, anthropic.MessageRequest{
			Model:       e.model,
			MaxTokens:   extractMaxTokens,
			System:      extractSystemPrompt,
			Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
			Temperature: &temp,
		})
	})
	if err != nil {
		return model.ExtractedEvent{}, eris.Wrap(err, "extractor: anthropic parse")
	}

	event, err := parseEventJSON(resp.Text(), url)
	if err != nil {
		return model.ExtractedEvent{}, err
	}
	event.Extractor = e.Name()
	return event, nil
}

// parseEventJSON decodes the model's JSON object into an ExtractedEvent.
func parseEventJSON(text, url string) (model.ExtractedEvent, error) {
	cleaned := cleanJSONObject(text)

	var raw struct {
		NotEvent    bool     `json:"not_event"`
		Title       string   `json:"title"`
		Description string   `json:"description"`
		StartsAt    *string  `json:"starts_at"`
		EndsAt      *string  `json:"ends_at"`
		Venue       string   `json:"venue"`
		City        string   `json:"city"`
		Country     string   `json:"country"`
		Speakers    []string `json:"speakers"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return model.ExtractedEvent{}, eris.Wrap(err, "extractor: parse event JSON")
	}
	if raw.NotEvent {
		return model.ExtractedEvent{}, eris.Errorf("extractor: %s is not an event page", url)
	}
	if raw.Title == "" {
		return model.ExtractedEvent{}, eris.Errorf("extractor: no event title found at %s", url)
	}

	event := model.ExtractedEvent{
		URL:         url,
		Title:       raw.Title,
		Description: raw.Description,
		StartsAt:    parseEventDate(raw.StartsAt),
		EndsAt:      parseEventDate(raw.EndsAt),
		Venue:       raw.Venue,
		City:        raw.City,
		Country:     strings.ToUpper(strings.TrimSpace(raw.Country)),
		Speakers:    raw.Speakers,
		Success:     true,
	}
	event.Confidence = event.DeriveConfidence()
	return event, nil
}

// parseEventDate accepts the date formats models actually emit.
func parseEventDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || strings.EqualFold(v, "null") {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "January 2, 2006", "2 January 2006"} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// cleanJSONObject strips markdown fences and extracts the JSON object.
func cleanJSONObject(text string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}
