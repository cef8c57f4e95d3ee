package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsline/internal/model"
	"newsline/internal/source"
)

type fakeArticleStore struct {
	mu       sync.Mutex
	byURL    map[string]model.Article
	nextID   int64
	upserts  int
	failNext error
}

func newFakeArticleStore() *fakeArticleStore {
	return &fakeArticleStore{byURL: map[string]model.Article{}}
}

func (s *fakeArticleStore) ExistsByURL(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byURL[url]
	return ok, nil
}

func (s *fakeArticleStore) Upsert(_ context.Context, article model.Article) (model.Article, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return model.Article{}, false, err
	}

	s.upserts++
	existing, ok := s.byURL[article.URL]
	if ok {
		article.ID = existing.ID
		s.byURL[article.URL] = article
		return article, false, nil
	}

	s.nextID++
	article.ID = s.nextID
	s.byURL[article.URL] = article
	return article, true, nil
}

type fakeEnricher struct {
	summary       string
	category      string
	summarizeErr  error
	categorizeErr error
	calls         int
}

func (e *fakeEnricher) Summarize(context.Context, string) (string, error) {
	e.calls++
	return e.summary, e.summarizeErr
}

func (e *fakeEnricher) Categorize(context.Context, string, string) (string, error) {
	e.calls++
	return e.category, e.categorizeErr
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Notify(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

// scriptedSource replays a fixed sequence of fetch outcomes.
type scriptedSource struct {
	alias   string
	results []*source.FetchResult
	errs    []error
	fetches int
}

func (s *scriptedSource) Alias() string   { return s.alias }
func (s *scriptedSource) FeedURL() string { return "https://rsshub.test/telegram/channel/" + s.alias }

func (s *scriptedSource) Fetch(context.Context) (*source.FetchResult, error) {
	i := s.fetches
	s.fetches++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	return s.results[i], s.errs[i]
}

func newTestFetcher(t *testing.T, store *fakeArticleStore, enricher Enricher, src *scriptedSource) (*Fetcher, *[]time.Duration) {
	t.Helper()

	f := New(store, enricher, nil, func(string) Source { return src }, Config{
		MaxArticles: 90,
		MaxRetries:  3,
	})

	var slept []time.Duration
	f.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		return nil
	}

	return f, &slept
}

func feedXML(items ...string) []byte {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><rss version="2.0"><channel><title>test</title>`)
	for _, item := range items {
		b.WriteString(item)
	}
	b.WriteString(`</channel></rss>`)
	return []byte(b.String())
}

func feedItem(title, link, description string) string {
	return fmt.Sprintf(
		`<item><title>%s</title><link>%s</link><description><![CDATA[%s]]></description><pubDate>Mon, 01 Jan 2025 12:00:00 GMT</pubDate></item>`,
		title, link, description)
}

var longText = strings.Repeat("Latin text for the entry body. ", 10)

func ok(body []byte) *source.FetchResult {
	return &source.FetchResult{StatusCode: 200, Body: body}
}

func TestRunStoresValidEntrySkipsLinkless(t *testing.T) {
	store := newFakeArticleStore()
	eightyChars := strings.Repeat("abcdefgh", 10)
	src := &scriptedSource{
		alias: "test_channel",
		results: []*source.FetchResult{ok(feedXML(
			feedItem("Entry A", "https://x/1", "<p>"+eightyChars+"</p>"),
			`<item><title>Entry B</title><description>short</description></item>`,
		))},
		errs: []error{nil},
	}

	f, _ := newTestFetcher(t, store, &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "test_channel"})

	require.Len(t, store.byURL, 1)
	article := store.byURL["https://x/1"]
	assert.Equal(t, "Entry A", article.Title)
	assert.Equal(t, eightyChars, article.Content)
	assert.Equal(t, "@test_channel", article.Source)
	assert.Equal(t, 2025, article.PublishedAt.Year())
}

func TestRunIsIdempotent(t *testing.T) {
	store := newFakeArticleStore()
	body := feedXML(feedItem("Entry", "https://x/1", longText))
	src := &scriptedSource{alias: "ch", results: []*source.FetchResult{ok(body)}, errs: []error{nil}}

	f, _ := newTestFetcher(t, store, &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Len(t, store.byURL, 1)
	// The second run must not even reach the upsert: the dedup gate skips
	// entries whose URL is already stored.
	assert.Equal(t, 1, store.upserts)
}

func TestRunRespectsArticleCap(t *testing.T) {
	store := newFakeArticleStore()
	var items []string
	for i := 0; i < 10; i++ {
		items = append(items, feedItem(fmt.Sprintf("Entry %d", i), fmt.Sprintf("https://x/%d", i), longText))
	}
	src := &scriptedSource{alias: "ch", results: []*source.FetchResult{ok(feedXML(items...))}, errs: []error{nil}}

	f, _ := newTestFetcher(t, store, &fakeEnricher{}, src)
	f.cfg.MaxArticles = 4
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Len(t, store.byURL, 4)
}

func TestRunContentFloorCountsCharacters(t *testing.T) {
	store := newFakeArticleStore()
	// Both bodies are over 50 bytes; only the second is over 50 characters.
	thin := strings.TrimSpace(strings.Repeat("новости дня ", 3))
	full := strings.TrimSpace(strings.Repeat("новости дня ", 5))
	src := &scriptedSource{
		alias: "ch",
		results: []*source.FetchResult{ok(feedXML(
			feedItem("Thin", "https://x/1", thin),
			feedItem("Full", "https://x/2", full),
		))},
		errs: []error{nil},
	}

	f, _ := newTestFetcher(t, store, &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})

	require.Len(t, store.byURL, 1)
	assert.Contains(t, store.byURL, "https://x/2")
}

func TestRunRetryBoundOnNetworkErrors(t *testing.T) {
	netErr := errors.New("connection refused")
	src := &scriptedSource{
		alias:   "ch",
		results: []*source.FetchResult{nil, nil, nil},
		errs:    []error{netErr, netErr, netErr},
	}

	f, slept := newTestFetcher(t, newFakeArticleStore(), &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Equal(t, 3, src.fetches)
	// Backoff grows per attempt; no sleep after the final attempt.
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second}, *slept)
}

func TestRunRateLimitHonorsRetryAfter(t *testing.T) {
	store := newFakeArticleStore()
	src := &scriptedSource{
		alias: "ch",
		results: []*source.FetchResult{
			{StatusCode: 429, RetryAfter: time.Second},
			ok(feedXML()),
		},
		errs: []error{nil, nil},
	}

	f, slept := newTestFetcher(t, store, &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Equal(t, 2, src.fetches)
	assert.Equal(t, []time.Duration{time.Second}, *slept)
	assert.Empty(t, store.byURL)
}

func TestRunRateLimitDefaultBackoff(t *testing.T) {
	src := &scriptedSource{
		alias: "ch",
		results: []*source.FetchResult{
			{StatusCode: 429},
			ok(feedXML()),
		},
		errs: []error{nil, nil},
	}

	f, slept := newTestFetcher(t, newFakeArticleStore(), &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Equal(t, []time.Duration{5 * time.Second}, *slept)
}

func TestRunRetriesNonOKStatus(t *testing.T) {
	store := newFakeArticleStore()
	src := &scriptedSource{
		alias: "ch",
		results: []*source.FetchResult{
			{StatusCode: 503},
			ok(feedXML(feedItem("Entry", "https://x/1", longText))),
		},
		errs: []error{nil, nil},
	}

	f, slept := newTestFetcher(t, store, &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Equal(t, 2, src.fetches)
	require.NotEmpty(t, *slept)
	assert.Equal(t, 3*time.Second, (*slept)[0])
	assert.Len(t, store.byURL, 1)
}

func TestRunEnrichmentFailureIsNotFatal(t *testing.T) {
	store := newFakeArticleStore()
	src := &scriptedSource{
		alias:   "ch",
		results: []*source.FetchResult{ok(feedXML(feedItem("Entry", "https://x/1", longText)))},
		errs:    []error{nil},
	}
	enricher := &fakeEnricher{
		summarizeErr:  errors.New("model overloaded"),
		categorizeErr: errors.New("model overloaded"),
	}

	f, _ := newTestFetcher(t, store, enricher, src)
	f.run(context.Background(), Job{Alias: "ch"})

	require.Len(t, store.byURL, 1)
	article := store.byURL["https://x/1"]
	assert.Nil(t, article.Category)
	// Summaries degrade to a truncation of the content instead of vanishing.
	require.NotNil(t, article.Summary)
	assert.True(t, strings.HasPrefix(article.Content, strings.TrimSuffix(*article.Summary, "...")))
}

func TestRunStoresEnrichment(t *testing.T) {
	store := newFakeArticleStore()
	src := &scriptedSource{
		alias:   "ch",
		results: []*source.FetchResult{ok(feedXML(feedItem("Entry", "https://x/1", longText)))},
		errs:    []error{nil},
	}
	enricher := &fakeEnricher{summary: "a short summary", category: "Technology"}

	f, _ := newTestFetcher(t, store, enricher, src)
	f.run(context.Background(), Job{Alias: "ch"})

	article := store.byURL["https://x/1"]
	require.NotNil(t, article.Summary)
	require.NotNil(t, article.Category)
	assert.Equal(t, "a short summary", *article.Summary)
	assert.Equal(t, "Technology", *article.Category)
}

func TestRunEmptyFeedEndsSuccessfully(t *testing.T) {
	src := &scriptedSource{alias: "ch", results: []*source.FetchResult{ok(feedXML())}, errs: []error{nil}}

	f, _ := newTestFetcher(t, newFakeArticleStore(), &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Equal(t, 1, src.fetches)
}

func TestRunMalformedFeedEndsSuccessfully(t *testing.T) {
	src := &scriptedSource{
		alias:   "ch",
		results: []*source.FetchResult{ok([]byte("this is not xml"))},
		errs:    []error{nil},
	}

	f, _ := newTestFetcher(t, newFakeArticleStore(), &fakeEnricher{}, src)
	f.run(context.Background(), Job{Alias: "ch"})

	assert.Equal(t, 1, src.fetches)
}

func TestRunStoreFailureAbortsRun(t *testing.T) {
	store := newFakeArticleStore()
	store.failNext = errors.New("disk full")
	src := &scriptedSource{
		alias: "ch",
		results: []*source.FetchResult{ok(feedXML(
			feedItem("Entry 1", "https://x/1", longText),
			feedItem("Entry 2", "https://x/2", longText),
		))},
		errs: []error{nil},
	}

	f, _ := newTestFetcher(t, store, &fakeEnricher{}, src)
	notifier := &fakeNotifier{}
	f.reporter = notifier
	f.run(context.Background(), Job{Alias: "ch"})

	// The failed entry aborts the run; no retry, nothing else processed.
	assert.Equal(t, 1, src.fetches)
	assert.Empty(t, store.byURL)
	assert.Len(t, notifier.msgs, 1)
}

func TestRunShutdownDuringThrottleStaysQuiet(t *testing.T) {
	store := newFakeArticleStore()
	src := &scriptedSource{
		alias:   "ch",
		results: []*source.FetchResult{ok(feedXML(feedItem("Entry", "https://x/1", longText)))},
		errs:    []error{nil},
	}

	f, _ := newTestFetcher(t, store, &fakeEnricher{}, src)
	notifier := &fakeNotifier{}
	f.reporter = notifier
	f.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	f.run(context.Background(), Job{Alias: "ch"})

	// Entries stored before the shutdown stay stored; nobody gets paged.
	assert.Len(t, store.byURL, 1)
	assert.Empty(t, notifier.msgs)
}

func TestEnqueueAndWorkers(t *testing.T) {
	store := newFakeArticleStore()
	src := &scriptedSource{
		alias:   "ch",
		results: []*source.FetchResult{ok(feedXML(feedItem("Entry", "https://x/1", longText)))},
		errs:    []error{nil},
	}

	f, _ := newTestFetcher(t, store, &fakeEnricher{}, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Start(ctx)
	}()

	f.Enqueue("@ch", 0)

	require.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.byURL) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-done
}

func TestEnqueueAllStopsOnShutdown(t *testing.T) {
	src := &scriptedSource{alias: "ch", results: []*source.FetchResult{ok(feedXML())}, errs: []error{nil}}
	f, _ := newTestFetcher(t, newFakeArticleStore(), &fakeEnricher{}, src)
	f.cfg.StaggerDelay = time.Millisecond
	f.sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = f.Start(ctx)
	}()
	cancel()
	<-done

	f.EnqueueAll([]string{"a", "b", "c"}, 0)

	// The first channel is queued before the stagger loop notices the pool
	// is gone; the rest are not.
	require.Eventually(t, func() bool { return len(f.jobs) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Len(t, f.jobs, 1)
}
