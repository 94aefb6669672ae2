package model

import (
	"strings"
	"time"
)

// ExtractedEvent is the structured result of parsing one candidate page.
type ExtractedEvent struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	StartsAt    *time.Time `json:"starts_at,omitempty"`
	EndsAt      *time.Time `json:"ends_at,omitempty"`
	Venue       string     `json:"venue,omitempty"`
	City        string     `json:"city,omitempty"`
	Country     string     `json:"country,omitempty"`
	Speakers    []string   `json:"speakers,omitempty"`
	Success     bool       `json:"success"`
	Confidence  float64    `json:"confidence"`
	Extractor   string     `json:"extractor,omitempty"`
	Score       float64    `json:"score,omitempty"`
}

// DeriveConfidence computes a confidence score from how many of the expected
// fields are populated. Title and start date carry the most weight.
func (e *ExtractedEvent) DeriveConfidence() float64 {
	var score float64
	if strings.TrimSpace(e.Title) != "" {
		score += 0.3
	}
	if e.StartsAt != nil {
		score += 0.25
	}
	if strings.TrimSpace(e.Description) != "" {
		score += 0.15
	}
	if e.Venue != "" || e.City != "" {
		score += 0.15
	}
	if e.Country != "" {
		score += 0.1
	}
	if len(e.Speakers) > 0 {
		score += 0.05
	}
	return score
}
