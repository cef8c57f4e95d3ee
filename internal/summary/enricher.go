// Package summary provides AI enrichment for articles: a short summary and a
// category drawn from a fixed list. Enrichment is best-effort everywhere; the
// ingestion pipeline treats any failure here as "no enrichment".
package summary

import (
	"context"
	"strings"
	"unicode/utf8"
)

// Enricher generates a summary and a category for article text. An empty
// string result means the input was not worth enriching (too short, or
// enrichment disabled); an error means the remote call failed.
type Enricher interface {
	Summarize(ctx context.Context, content string) (string, error)
	Categorize(ctx context.Context, content, title string) (string, error)
}

// Content shorter than this is too thin to summarize or categorize.
const minContentLength = 50

// Categories an article may be filed under. Anything a model returns outside
// this list is normalized to CategoryOther.
var Categories = []string{
	"Politics", "Business", "Technology", "Science", "Health",
	"Entertainment", "Sports", "Environment", "Education",
	"Travel", "Opinion", "Culture", "Economy", "International",
}

const CategoryOther = "Other"

// NormalizeCategory maps a raw model response onto the fixed category list:
// case-insensitive exact match first, then substring containment in either
// direction, then CategoryOther. An empty response stays empty.
func NormalizeCategory(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	lower := strings.ToLower(raw)
	for _, category := range Categories {
		if strings.ToLower(category) == lower {
			return category
		}
	}
	for _, category := range Categories {
		cl := strings.ToLower(category)
		if strings.Contains(lower, cl) || strings.Contains(cl, lower) {
			return category
		}
	}

	return CategoryOther
}

// Thresholds are in characters, not bytes: Telegram content is mostly
// multibyte.
func tooShort(content string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(content)) < minContentLength
}

// truncate limits s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// Disabled is the null enricher used when no AI credentials are configured.
type Disabled struct{}

func (Disabled) Summarize(context.Context, string) (string, error) { return "", nil }

func (Disabled) Categorize(context.Context, string, string) (string, error) { return "", nil }
