// Package source implements the RSS feed-proxy client for Telegram channels:
// building the proxy URL for a channel alias, fetching the raw feed, and
// parsing it into feed items.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/SlyMarbo/rss"
	"github.com/samber/lo"

	"newsline/internal/model"
)

// A realistic browser User-Agent; the feed proxy rejects obvious bots.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

const DefaultTimeout = 15 * time.Second

// RSSSource fetches one Telegram channel's feed through an RSS proxy.
// It owns transport only: status interpretation and retries belong to the
// ingestion orchestrator.
type RSSSource struct {
	alias   string
	baseURL string
	client  *http.Client
}

func NewRSSSource(alias, baseURL string, timeout time.Duration) *RSSSource {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &RSSSource{
		alias:   model.NormalizeAlias(alias),
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

func (s *RSSSource) Alias() string {
	return s.alias
}

func (s *RSSSource) FeedURL() string {
	return fmt.Sprintf("%s/telegram/channel/%s", s.baseURL, s.alias)
}

// FetchResult is the raw outcome of one feed request. RetryAfter is the
// parsed Retry-After header, zero when absent or unparsable.
type FetchResult struct {
	StatusCode int
	Body       []byte
	RetryAfter time.Duration
}

// Fetch performs a single GET against the feed proxy and returns the status
// and body unconditionally. Only network-level failures produce an error.
func (s *RSSSource) Fetch(ctx context.Context) (*FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.FeedURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", s.FeedURL(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}

	return &FetchResult{
		StatusCode: resp.StatusCode,
		Body:       body,
		RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
	}, nil
}

func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	secs, err := strconv.Atoi(value)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Parse turns a raw feed body into items in feed order. A malformed feed
// yields an empty slice, never an error; items whose publication date the
// feed library could not parse get the current time instead.
func Parse(body []byte) []model.Item {
	feed, err := rss.Parse(body)
	if err != nil {
		return nil
	}

	return lo.Map(feed.Items, func(item *rss.Item, _ int) model.Item {
		date := item.Date
		if !item.DateValid {
			date = time.Now().UTC()
		}
		return model.Item{
			Title:       item.Title,
			Link:        item.Link,
			Description: itemText(item),
			Date:        date,
			DateValid:   item.DateValid,
		}
	})
}

// itemText returns the richest available text for an item, preferring the
// full Content body over the Summary excerpt.
func itemText(item *rss.Item) string {
	if item.Content != "" {
		return item.Content
	}
	return item.Summary
}
