package engine

import (
	"net/url"
	"strings"

	"github.com/sells-group/event-scout/internal/model"
)

// trackingParams are query parameters that vary per click without changing
// the page identity.
var trackingParams = map[string]bool{
	"gclid":  true,
	"fbclid": true,
	"ref":    true,
	"mc_cid": true,
	"mc_eid": true,
}

// Deduplicate collapses candidates that point at the same event. Identity is
// the normalized URL; candidates without a usable URL fall back to a
// name-based key (organization disambiguates when present), and candidates
// with neither a URL nor a name are dropped as unidentifiable. First
// occurrence wins, preserving tier priority order. The operation is
// idempotent.
func Deduplicate(items []model.CandidateItem) (kept []model.CandidateItem, removed int) {
	seen := make(map[string]bool, len(items))

	for _, item := range items {
		key := dedupeKey(item)
		if key == "" || seen[key] {
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, item)
	}
	return kept, removed
}

func dedupeKey(item model.CandidateItem) string {
	if u := normalizeURL(item.URL); u != "" {
		return "url:" + u
	}
	name := strings.ToLower(strings.TrimSpace(item.Name))
	if name == "" {
		return ""
	}
	org := strings.ToLower(strings.TrimSpace(item.Organization))
	return "name:" + name + "|" + org
}

// normalizeURL reduces a URL to its identity: scheme-insensitive,
// case-insensitive host without "www.", tracking parameters and fragments
// stripped, no trailing slash. Returns "" when the URL cannot identify a
// page.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}

	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")

	path := strings.TrimRight(u.Path, "/")

	q := u.Query()
	for param := range q {
		if trackingParams[param] || strings.HasPrefix(strings.ToLower(param), "utm_") {
			q.Del(param)
		}
	}

	normalized := host + path
	if encoded := q.Encode(); encoded != "" {
		normalized += "?" + encoded
	}
	return normalized
}
