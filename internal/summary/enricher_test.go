package summary

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCategory(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"exact", "Technology", "Technology"},
		{"case insensitive", "tEcHnOlOgY", "Technology"},
		{"response contains category", "The category is: Sports", "Sports"},
		{"category contains response", "Tech", "Technology"},
		{"whitespace trimmed", "  Health  ", "Health"},
		{"no match falls back", "Quantum Gastronomy", "Other"},
		{"empty stays empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NormalizeCategory(tc.in))
		})
	}
}

func TestTooShort(t *testing.T) {
	assert.True(t, tooShort("tiny"))
	assert.True(t, tooShort("   "+strings.Repeat("a", 49)+"   "))
	assert.False(t, tooShort(strings.Repeat("a", 50)))

	// The floor counts characters, not bytes: 49 Cyrillic letters are 98
	// bytes but still too short.
	assert.True(t, tooShort(strings.Repeat("я", 49)))
	assert.False(t, tooShort(strings.Repeat("я", 50)))
}

func TestDisabledEnricherReturnsNothing(t *testing.T) {
	var e Disabled

	summary, err := e.Summarize(context.Background(), strings.Repeat("a", 100))
	assert.NoError(t, err)
	assert.Empty(t, summary)

	category, err := e.Categorize(context.Background(), strings.Repeat("a", 100), "title")
	assert.NoError(t, err)
	assert.Empty(t, category)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab", truncate("abcd", 2))
	assert.Equal(t, "яб", truncate("ябвг", 2))
}
