package tier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/pkg/firecrawl"
)

// firecrawlSearchLimit caps hits per firecrawl search. The broad-crawl tier
// runs last and mostly fills gaps, so it stays small.
const firecrawlSearchLimit = 15

// FirecrawlService adapts the Firecrawl search API as the broad-crawl tier.
type FirecrawlService struct {
	client firecrawl.Client
}

// NewFirecrawlService creates the Firecrawl discovery tier.
func NewFirecrawlService(client firecrawl.Client) *FirecrawlService {
	return &FirecrawlService{client: client}
}

func (s *FirecrawlService) Name() string { return NameFirecrawl }

func (s *FirecrawlService) Search(ctx context.Context, req model.SearchRequest) ([]model.CandidateItem, error) {
	query := req.Query + " conference event"
	fcReq := firecrawl.SearchRequest{
		Query: query,
		Limit: firecrawlSearchLimit,
	}
	if req.Country != "" {
		fcReq.Location = req.Country
	}

	resp, err := s.client.Search(ctx, fcReq)
	if err != nil {
		return nil, eris.Wrap(err, "tier: firecrawl search")
	}
	if !resp.Success {
		return nil, eris.New("tier: firecrawl search unsuccessful")
	}

	items := make([]model.CandidateItem, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.URL == "" {
			continue
		}
		items = append(items, model.CandidateItem{
			URL:         r.URL,
			Title:       r.Title,
			Snippet:     r.Description,
			Tier:        NameFirecrawl,
			SourceQuery: query,
		})
	}
	return items, nil
}
