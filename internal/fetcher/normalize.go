package fetcher

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// Entries whose normalized text is shorter than this many characters are too
// thin to be useful articles and are skipped.
const minContentLength = 50

var (
	stripPolicy        = bluemonday.StrictPolicy()
	redundantNewLines  = regexp.MustCompile(`\n{3,}`)
	redundantSpaceRuns = regexp.MustCompile(`[ \t]{2,}`)
)

// NormalizeContent strips HTML markup from a feed entry description,
// collapsing it to trimmed plain text.
func NormalizeContent(description string) string {
	text := stripPolicy.Sanitize(description)
	text = html.UnescapeString(text)
	text = redundantNewLines.ReplaceAllString(text, "\n\n")
	text = redundantSpaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
