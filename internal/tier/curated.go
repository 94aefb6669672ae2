package tier

import (
	"context"
	"strings"

	"github.com/jomei/notionapi"
	"go.uber.org/zap"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/pkg/notion"
)

// CuratedService serves the hand-maintained event list. The list lives in a
// Notion database kept by the research team; a local YAML dataset backs it
// up when no Notion client is configured or the query fails.
type CuratedService struct {
	notion  notion.Client
	dbID    string
	dataset *Dataset
}

// NewCuratedService creates the curated discovery tier. notionClient may be
// nil; dataset may be empty.
func NewCuratedService(notionClient notion.Client, dbID string, dataset *Dataset) *CuratedService {
	if dataset == nil {
		dataset = &Dataset{}
	}
	return &CuratedService{notion: notionClient, dbID: dbID, dataset: dataset}
}

func (s *CuratedService) Name() string { return NameCurated }

func (s *CuratedService) Search(ctx context.Context, req model.SearchRequest) ([]model.CandidateItem, error) {
	if s.notion != nil && s.dbID != "" {
		items, err := s.searchNotion(ctx, req)
		if err == nil {
			return items, nil
		}
		// Notion failure falls through to the local dataset.
		zap.L().Warn("curated tier: notion query failed, using local dataset",
			zap.Error(err),
		)
	}

	matched := s.dataset.Match(req.Query, req.Country)
	items := make([]model.CandidateItem, 0, len(matched))
	for _, e := range matched {
		items = append(items, model.CandidateItem{
			URL:         e.URL,
			Title:       e.Title,
			Snippet:     e.Snippet,
			Tier:        NameCurated,
			SourceQuery: req.Query,
		})
	}
	return items, nil
}

// Fallback returns curated entries as ready-made events for the last-resort
// dataset injection.
func (s *CuratedService) Fallback(req model.SearchRequest) []model.ExtractedEvent {
	matched := s.dataset.Match(req.Query, req.Country)
	if len(matched) == 0 && req.Country != "" {
		// Widen to any country before giving up.
		matched = s.dataset.Match(req.Query, "")
	}

	events := make([]model.ExtractedEvent, 0, len(matched))
	for _, e := range matched {
		events = append(events, e.ToEvent())
	}
	return events
}

// searchNotion queries the curated database and maps rows to candidates.
func (s *CuratedService) searchNotion(ctx context.Context, req model.SearchRequest) ([]model.CandidateItem, error) {
	filter := &notionapi.DatabaseQueryRequest{
		PageSize: 50,
	}
	if req.Country != "" {
		filter.Filter = notionapi.PropertyFilter{
			Property: "Country",
			Select: &notionapi.SelectFilterCondition{
				Equals: req.Country,
			},
		}
	}

	pages, err := notion.QueryAll(ctx, s.notion, s.dbID, filter)
	if err != nil {
		return nil, err
	}

	tokens := queryTokens(req.Query)
	var items []model.CandidateItem
	for _, p := range pages {
		item, ok := pageToCandidate(p)
		if !ok {
			continue
		}
		if !matchesTokens(item.Title+" "+item.Snippet, tokens) {
			continue
		}
		item.SourceQuery = req.Query
		items = append(items, item)
	}
	return items, nil
}

// pageToCandidate extracts URL/Title/Snippet properties from a Notion page.
func pageToCandidate(p notionapi.Page) (model.CandidateItem, bool) {
	item := model.CandidateItem{Tier: NameCurated}

	if prop, ok := p.Properties["URL"].(*notionapi.URLProperty); ok {
		item.URL = prop.URL
	}
	if prop, ok := p.Properties["Name"].(*notionapi.TitleProperty); ok {
		item.Title = richTextPlain(prop.Title)
	}
	if prop, ok := p.Properties["Snippet"].(*notionapi.RichTextProperty); ok {
		item.Snippet = richTextPlain(prop.RichText)
	}

	if item.URL == "" {
		return model.CandidateItem{}, false
	}
	return item, true
}

func richTextPlain(rts []notionapi.RichText) string {
	var out string
	for _, rt := range rts {
		out += rt.PlainText
	}
	return out
}

func matchesTokens(text string, tokens []string) bool {
	if len(tokens) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, tok := range tokens {
		if strings.Contains(lower, tok) {
			return true
		}
	}
	return false
}
