package tier

import (
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/event-scout/internal/model"
)

// CuratedEvent is one hand-maintained dataset entry. Entries carry enough
// fields to serve both as discovery candidates and as last-resort fallback
// events.
type CuratedEvent struct {
	URL      string     `yaml:"url"`
	Title    string     `yaml:"title"`
	Snippet  string     `yaml:"snippet"`
	Country  string     `yaml:"country"`
	City     string     `yaml:"city"`
	Venue    string     `yaml:"venue"`
	StartsAt *time.Time `yaml:"starts_at"`
	EndsAt   *time.Time `yaml:"ends_at"`
	Keywords []string   `yaml:"keywords"`
}

// Dataset is the curated event list.
type Dataset struct {
	Events []CuratedEvent `yaml:"events"`
}

// LoadDataset reads the curated dataset from a YAML file. A missing file is
// not an error; it yields an empty dataset so the curated tier degrades to a
// no-op.
func LoadDataset(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Dataset{}, nil
		}
		return nil, eris.Wrapf(err, "tier: read curated dataset %s", path)
	}

	var ds Dataset
	if err := yaml.Unmarshal(data, &ds); err != nil {
		return nil, eris.Wrap(err, "tier: parse curated dataset")
	}
	return &ds, nil
}

// Match returns entries relevant to the query and country. Relevance is
// keyword/token overlap against title, snippet, and keywords; country
// filtering is exact when both sides specify one.
func (d *Dataset) Match(query, country string) []CuratedEvent {
	tokens := queryTokens(query)
	if len(tokens) == 0 {
		return nil
	}

	var out []CuratedEvent
	for _, e := range d.Events {
		if country != "" && e.Country != "" && !strings.EqualFold(e.Country, country) {
			continue
		}
		haystack := strings.ToLower(e.Title + " " + e.Snippet + " " + strings.Join(e.Keywords, " "))
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

// ToEvent converts a curated entry to an ExtractedEvent for the fallback
// path. Curated entries are trusted, so they carry full confidence.
func (e CuratedEvent) ToEvent() model.ExtractedEvent {
	ev := model.ExtractedEvent{
		URL:         e.URL,
		Title:       e.Title,
		Description: e.Snippet,
		StartsAt:    e.StartsAt,
		EndsAt:      e.EndsAt,
		Venue:       e.Venue,
		City:        e.City,
		Country:     e.Country,
		Success:     true,
		Extractor:   NameCurated,
	}
	ev.Confidence = ev.DeriveConfidence()
	return ev
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
