package model

import "sort"

// CandidateItem is one discovered event page candidate. URL is the
// deduplication key; Name/Organization are used for person-like candidates
// that carry no profile link.
type CandidateItem struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Snippet      string `json:"snippet,omitempty"`
	Name         string `json:"name,omitempty"`
	Organization string `json:"organization,omitempty"`
	Tier         string `json:"tier"`
	SourceQuery  string `json:"source_query,omitempty"`
}

// PrioritizedItem is a candidate with a ranking score in [0,1] and the
// human-readable reasons behind it.
type PrioritizedItem struct {
	CandidateItem
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons,omitempty"`
}

// ClampScore forces a ranking score into [0,1]. Out-of-range values from a
// ranking strategy are clamped here rather than propagated.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// SortByScore orders items by descending score. The sort is stable, so ties
// keep discovery order and earlier-discovered candidates win.
func SortByScore(items []PrioritizedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
}
