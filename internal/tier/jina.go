package tier

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/event-scout/internal/model"
	"github.com/sells-group/event-scout/pkg/jina"
)

// JinaService adapts the Jina Search API as a discovery tier. This is the
// primary search tier: broad web coverage with snippets.
type JinaService struct {
	client jina.Client
}

// NewJinaService creates the Jina discovery tier.
func NewJinaService(client jina.Client) *JinaService {
	return &JinaService{client: client}
}

func (s *JinaService) Name() string { return NameJina }

func (s *JinaService) Search(ctx context.Context, req model.SearchRequest) ([]model.CandidateItem, error) {
	query := req.Query + " event"
	var opts []jina.SearchOption
	if req.Country != "" {
		opts = append(opts, jina.WithCountry(req.Country))
	}

	resp, err := s.client.Search(ctx, query, opts...)
	if err != nil {
		return nil, eris.Wrap(err, "tier: jina search")
	}

	items := make([]model.CandidateItem, 0, len(resp.Data))
	for _, r := range resp.Data {
		if r.URL == "" {
			continue
		}
		snippet := r.Description
		if snippet == "" {
			snippet = r.Content
		}
		items = append(items, model.CandidateItem{
			URL:         r.URL,
			Title:       r.Title,
			Snippet:     snippet,
			Tier:        NameJina,
			SourceQuery: query,
		})
	}
	return items, nil
}
