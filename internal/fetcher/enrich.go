package fetcher

import (
	"context"
	"log"
)

const fallbackSummaryLength = 150

// enrich asks the enricher for a summary and a category independently.
// Failures are absorbed: a failed summarization falls back to truncating the
// content, a failed categorization simply leaves the category empty. Absent
// enrichment is a valid terminal state for an article.
func (f *Fetcher) enrich(ctx context.Context, content, title string) (summary, category *string) {
	s, err := f.enricher.Summarize(ctx, content)
	if err != nil {
		log.Printf("[ERROR] summarize %q: %v", title, err)
		s = fallbackSummary(content)
	}
	if s != "" {
		summary = &s
	}

	c, err := f.enricher.Categorize(ctx, content, title)
	if err != nil {
		log.Printf("[ERROR] categorize %q: %v", title, err)
		c = ""
	}
	if c != "" {
		category = &c
	}

	return summary, category
}

// fallbackSummary is the naive summary used when the AI call fails: the
// leading part of the content with an ellipsis.
func fallbackSummary(content string) string {
	runes := []rune(content)
	if len(runes) <= fallbackSummaryLength {
		return content
	}
	return string(runes[:fallbackSummaryLength]) + "..."
}
