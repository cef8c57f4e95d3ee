package fetcher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContentStripsMarkup(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain paragraph", "<p>Hello world</p>", "Hello world"},
		{"nested tags", "<div><b>Bold</b> and <i>italic</i></div>", "Bold and italic"},
		{"entities", "Fish &amp; chips &lt;tonight&gt;", "Fish & chips <tonight>"},
		{"script dropped", `<script>alert("x")</script>Safe text`, "Safe text"},
		{"surrounding whitespace", "  \n <p>trimmed</p> \n ", "trimmed"},
		{"space runs collapsed", "one    two\tthree", "one two three"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeContent(tc.in))
		})
	}
}

func TestNormalizeContentCollapsesNewlineRuns(t *testing.T) {
	got := NormalizeContent("first\n\n\n\n\nsecond")
	assert.Equal(t, "first\n\nsecond", got)
}

func TestFallbackSummary(t *testing.T) {
	short := "short content"
	assert.Equal(t, short, fallbackSummary(short))

	long := strings.Repeat("x", 200)
	got := fallbackSummary(long)
	assert.Equal(t, strings.Repeat("x", 150)+"...", got)

	// Rune-safe truncation for non-ASCII content.
	cyrillic := strings.Repeat("я", 200)
	assert.Equal(t, strings.Repeat("я", 150)+"...", fallbackSummary(cyrillic))
}
