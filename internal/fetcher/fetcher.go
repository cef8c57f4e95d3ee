// Package fetcher implements the channel ingestion pipeline: a worker pool
// that fetches a channel's RSS feed through the proxy, deduplicates entries
// by URL, enriches them with an AI summary and category, and persists the
// results. One job is one run for one channel; runs for different channels
// are independent.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"newsline/internal/model"
	"newsline/internal/source"
)

type ArticleStore interface {
	ExistsByURL(ctx context.Context, url string) (bool, error)
	Upsert(ctx context.Context, article model.Article) (model.Article, bool, error)
}

type Enricher interface {
	Summarize(ctx context.Context, content string) (string, error)
	Categorize(ctx context.Context, content, title string) (string, error)
}

// Notifier receives failure notices for terminally failed runs.
type Notifier interface {
	Notify(msg string)
}

// Source is one channel's feed endpoint.
type Source interface {
	Alias() string
	FeedURL() string
	Fetch(ctx context.Context) (*source.FetchResult, error)
}

type SourceFactory func(alias string) Source

// Job is one queued ingestion run. A MaxArticles of 0 uses the configured
// default.
type Job struct {
	Alias       string
	MaxArticles int
}

type Config struct {
	Workers     int
	QueueSize   int
	MaxArticles int
	MaxRetries  int
	// EntryDelay is the self-throttle after each stored entry, protecting
	// the AI service and the feed proxy's rate limiter.
	EntryDelay   time.Duration
	StaggerDelay time.Duration
}

func (c *Config) applyDefaults() {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 64
	}
	if c.MaxArticles <= 0 {
		c.MaxArticles = 90
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.EntryDelay <= 0 {
		c.EntryDelay = time.Second
	}
}

type Fetcher struct {
	articles  ArticleStore
	enricher  Enricher
	reporter  Notifier
	newSource SourceFactory

	cfg  Config
	jobs chan Job

	mu     sync.Mutex
	runCtx context.Context

	// sleep is context-aware and swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func New(
	articles ArticleStore,
	enricher Enricher,
	reporter Notifier,
	newSource SourceFactory,
	cfg Config,
) *Fetcher {
	cfg.applyDefaults()

	return &Fetcher{
		articles:  articles,
		enricher:  enricher,
		reporter:  reporter,
		newSource: newSource,
		cfg:       cfg,
		jobs:      make(chan Job, cfg.QueueSize),
		runCtx:    context.Background(),
		sleep:     sleepCtx,
	}
}

// Start runs the worker pool until ctx is cancelled.
func (f *Fetcher) Start(ctx context.Context) error {
	f.mu.Lock()
	f.runCtx = ctx
	f.mu.Unlock()

	log.Printf("[INFO] ingest pool started with %d workers", f.cfg.Workers)

	var wg sync.WaitGroup
	for i := 0; i < f.cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-f.jobs:
					f.run(ctx, job)
				}
			}
		}()
	}

	wg.Wait()
	return ctx.Err()
}

// Enqueue schedules one ingestion run. It never blocks the caller: when the
// queue is full the job is dropped with a warning, since triggers are
// fire-and-forget and the next update will pick the channel up again.
func (f *Fetcher) Enqueue(alias string, maxArticles int) {
	select {
	case f.jobs <- Job{Alias: model.NormalizeAlias(alias), MaxArticles: maxArticles}:
	default:
		log.Printf("[WARN] ingest queue full, dropping job for channel @%s", model.NormalizeAlias(alias))
	}
}

// EnqueueAll schedules a run per channel, staggered to avoid hammering the
// feed proxy with a burst of simultaneous fetches. The stagger loop stops
// once the pool is shut down.
func (f *Fetcher) EnqueueAll(aliases []string, maxArticles int) {
	f.mu.Lock()
	ctx := f.runCtx
	f.mu.Unlock()

	go func() {
		for i, alias := range aliases {
			if i > 0 {
				if err := f.sleep(ctx, f.cfg.StaggerDelay); err != nil {
					return
				}
			}
			f.Enqueue(alias, maxArticles)
		}
	}()
}

// run executes the retry loop for one channel. Transport-level problems
// (network errors, 429, other non-200 statuses) are retried with backoff up
// to MaxRetries attempts; a successful parse ends the loop regardless of
// attempt count.
func (f *Fetcher) run(ctx context.Context, job Job) {
	src := f.newSource(job.Alias)

	maxArticles := job.MaxArticles
	if maxArticles <= 0 {
		maxArticles = f.cfg.MaxArticles
	}

	for attempt := 0; attempt < f.cfg.MaxRetries; attempt++ {
		res, err := src.Fetch(ctx)
		if err != nil {
			log.Printf("[ERROR] fetch attempt %d for channel @%s: %v", attempt+1, src.Alias(), err)
			if !f.backoff(ctx, attempt, time.Duration(5*(attempt+1))*time.Second) {
				f.fail(fmt.Sprintf("giving up on channel @%s after %d attempts: %v", src.Alias(), attempt+1, err))
				return
			}
			continue
		}

		switch {
		case res.StatusCode == http.StatusTooManyRequests:
			wait := res.RetryAfter
			if wait <= 0 {
				wait = time.Duration((attempt+1)*5) * time.Second
			}
			log.Printf("[WARN] channel @%s rate limited, backing off %s", src.Alias(), wait)
			if !f.backoff(ctx, attempt, wait) {
				f.fail(fmt.Sprintf("giving up on channel @%s: still rate limited after %d attempts", src.Alias(), attempt+1))
				return
			}
			continue

		case res.StatusCode != http.StatusOK:
			log.Printf("[WARN] channel @%s responded with status %d", src.Alias(), res.StatusCode)
			if !f.backoff(ctx, attempt, time.Duration(3+2*attempt)*time.Second) {
				f.fail(fmt.Sprintf("giving up on channel @%s: last status %d after %d attempts", src.Alias(), res.StatusCode, attempt+1))
				return
			}
			continue
		}

		items := source.Parse(res.Body)
		if len(items) == 0 {
			log.Printf("[INFO] channel @%s: feed has no entries", src.Alias())
			return
		}

		if err := f.processItems(ctx, src.Alias(), items, maxArticles); err != nil {
			// Shutdown mid-run is not a failure: whatever was stored stays
			// stored and the channel is picked up on the next update.
			if errors.Is(err, context.Canceled) {
				log.Printf("[INFO] channel @%s: run stopped, shutting down", src.Alias())
				return
			}
			// Other entry-stage failures are not retried either; whatever
			// was stored before the failure stays stored.
			log.Printf("[ERROR] processing entries for channel @%s: %v", src.Alias(), err)
			f.fail(fmt.Sprintf("ingest run for channel @%s aborted: %v", src.Alias(), err))
		}
		return
	}
}

// backoff sleeps before the next attempt. It reports false when the attempt
// budget is exhausted or the context was cancelled.
func (f *Fetcher) backoff(ctx context.Context, attempt int, wait time.Duration) bool {
	if attempt+1 >= f.cfg.MaxRetries {
		return false
	}
	if err := f.sleep(ctx, wait); err != nil {
		return false
	}
	return true
}

func (f *Fetcher) fail(msg string) {
	log.Printf("[ERROR] %s", msg)
	if f.reporter != nil {
		f.reporter.Notify(msg)
	}
}

func (f *Fetcher) processItems(ctx context.Context, alias string, items []model.Item, maxArticles int) error {
	if len(items) > maxArticles {
		items = items[:maxArticles]
	}

	displayAlias := "@" + alias
	var processed, created int

	for _, item := range items {
		if item.Link == "" {
			log.Printf("[WARN] channel %s: skipping entry %q without link", displayAlias, item.Title)
			continue
		}

		exists, err := f.articles.ExistsByURL(ctx, item.Link)
		if err != nil {
			return fmt.Errorf("dedup check for %s: %w", item.Link, err)
		}
		if exists {
			continue
		}

		content := NormalizeContent(item.Description)
		if utf8.RuneCountInString(content) < minContentLength {
			log.Printf("[WARN] channel %s: skipping thin entry %s", displayAlias, item.Link)
			continue
		}

		summary, category := f.enrich(ctx, content, item.Title)

		_, isNew, err := f.articles.Upsert(ctx, model.Article{
			Title:       item.Title,
			Content:     content,
			URL:         item.Link,
			Source:      displayAlias,
			PublishedAt: item.Date,
			Summary:     summary,
			Category:    category,
		})
		if err != nil {
			return fmt.Errorf("upsert %s: %w", item.Link, err)
		}

		processed++
		if isNew {
			created++
		}

		if err := f.sleep(ctx, f.cfg.EntryDelay); err != nil {
			return err
		}
	}

	log.Printf("[INFO] channel %s: run finished, processed %d entries (%d new)", displayAlias, processed, created)
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
