package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>channel</title>
<item>
	<title>First</title>
	<link>https://t.me/s/channel/1</link>
	<description><![CDATA[<p>Some body text</p>]]></description>
	<pubDate>Mon, 06 Jan 2025 12:30:00 GMT</pubDate>
</item>
<item>
	<title>No date</title>
	<link>https://t.me/s/channel/2</link>
	<description>second body</description>
	<pubDate>not a date at all</pubDate>
</item>
</channel></rss>`

func TestFeedURLStripsLeadingAt(t *testing.T) {
	src := NewRSSSource("@some_channel", "https://rsshub.app", 0)
	assert.Equal(t, "https://rsshub.app/telegram/channel/some_channel", src.FeedURL())
	assert.Equal(t, "some_channel", src.Alias())

	bare := NewRSSSource("other", "https://rsshub.app", 0)
	assert.Equal(t, "https://rsshub.app/telegram/channel/other", bare.FeedURL())
}

func TestFetchReturnsStatusAndBody(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		assert.Equal(t, "/telegram/channel/news", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("payload"))
	}))
	defer ts.Close()

	src := NewRSSSource("@news", ts.URL, time.Second)
	res, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, []byte("payload"), res.Body)
	assert.Zero(t, res.RetryAfter)
	assert.Contains(t, gotUA, "Mozilla/5.0")
}

func TestFetchParsesRetryAfter(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	src := NewRSSSource("news", ts.URL, time.Second)
	res, err := src.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
	assert.Equal(t, 7*time.Second, res.RetryAfter)
}

func TestFetchNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	ts.Close() // connection refused

	src := NewRSSSource("news", ts.URL, time.Second)
	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestParseRetryAfter(t *testing.T) {
	assert.Equal(t, 5*time.Second, parseRetryAfter("5"))
	assert.Zero(t, parseRetryAfter(""))
	assert.Zero(t, parseRetryAfter("soon"))
	assert.Zero(t, parseRetryAfter("-3"))
}

func TestParseFeed(t *testing.T) {
	items := Parse([]byte(sampleFeed))
	require.Len(t, items, 2)

	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, "https://t.me/s/channel/1", items[0].Link)
	assert.Contains(t, items[0].Description, "Some body text")
	assert.True(t, items[0].DateValid)
	assert.Equal(t, time.Date(2025, 1, 6, 12, 30, 0, 0, time.UTC), items[0].Date.UTC())

	// Unparseable dates fall back to the current time.
	assert.False(t, items[1].DateValid)
	assert.WithinDuration(t, time.Now().UTC(), items[1].Date, time.Minute)
}

func TestParseMalformedFeed(t *testing.T) {
	assert.Empty(t, Parse([]byte("definitely not xml")))
	assert.Empty(t, Parse(nil))
}
