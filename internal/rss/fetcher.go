// Package rss keeps activity subscriptions up to date from their public Atom feeds.
package rss

import (
	"context"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/database"
	"github.com/bryan-buckman/feedcolumns/internal/document"
	"github.com/bryan-buckman/feedcolumns/internal/model"
	"github.com/bryan-buckman/feedcolumns/internal/state"
	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"
)

// Fetch fan-out limits.
const (
	// MaxConcurrencyPostgres is the worker count when results are written to PostgreSQL.
	MaxConcurrencyPostgres = 10
	// MaxConcurrencySQLite keeps fetches sequential; SQLite has a single writer.
	MaxConcurrencySQLite = 1
	// MaxConcurrencyPerDomain caps in-flight requests to one feed host.
	MaxConcurrencyPerDomain = 2
	// DelayBetweenDomainRequests spaces consecutive requests to one feed host.
	DelayBetweenDomainRequests = 500 * time.Millisecond
)

// domainLimiter bounds and spaces requests per feed host.
type domainLimiter struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
	last  map[string]time.Time
	delay time.Duration
}

func newDomainLimiter(delay time.Duration) *domainLimiter {
	return &domainLimiter{
		slots: make(map[string]chan struct{}),
		last:  make(map[string]time.Time),
		delay: delay,
	}
}

// acquire blocks until host has a free slot and its delay has elapsed.
func (dl *domainLimiter) acquire(ctx context.Context, host string) error {
	dl.mu.Lock()
	sem, ok := dl.slots[host]
	if !ok {
		sem = make(chan struct{}, MaxConcurrencyPerDomain)
		dl.slots[host] = sem
	}
	dl.mu.Unlock()

	select {
	case sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	dl.mu.Lock()
	prev := dl.last[host]
	dl.mu.Unlock()

	if !prev.IsZero() {
		if elapsed := time.Since(prev); elapsed < dl.delay {
			select {
			case <-time.After(dl.delay - elapsed):
			case <-ctx.Done():
				<-sem
				return ctx.Err()
			}
		}
	}

	return nil
}

func (dl *domainLimiter) release(host string) {
	dl.mu.Lock()
	defer dl.mu.Unlock()

	dl.last[host] = time.Now()
	if sem, ok := dl.slots[host]; ok {
		<-sem
	}
}

func feedHost(feedURL string) string {
	if u, err := url.Parse(feedURL); err == nil && u.Host != "" {
		return u.Host
	}
	return feedURL
}

// Fetcher pulls subscription feeds into the state store.
type Fetcher struct {
	logger      *zap.Logger
	store       *state.Store
	parser      *gofeed.Parser
	baseURL     string
	concurrency int
	limiter     *domainLimiter
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithDomainDelay overrides DelayBetweenDomainRequests.
func WithDomainDelay(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.limiter.delay = d }
}

// NewFetcher creates a fetcher. Concurrency follows the database backend since every
// fetch result is written through it.
func NewFetcher(logger *zap.Logger, store *state.Store, db database.Store, baseURL string, opts ...FetcherOption) *Fetcher {
	concurrency := MaxConcurrencySQLite
	if db.SupportsHighConcurrency() {
		concurrency = MaxConcurrencyPostgres
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	f := &Fetcher{
		logger:      logger.With(zap.String("component", "fetcher")),
		store:       store,
		parser:      gofeed.NewParser(),
		baseURL:     baseURL,
		concurrency: concurrency,
		limiter:     newDomainLimiter(DelayBetweenDomainRequests),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// BaseURL returns the feed host the fetcher reads from.
func (f *Fetcher) BaseURL() string {
	return f.baseURL
}

// FetchSubscription fetches one subscription's feed and records the outcome in the
// store. It returns the number of items stored.
func (f *Fetcher) FetchSubscription(ctx context.Context, sub *model.Subscription) (int, error) {
	feedURL, err := FeedURL(f.baseURL, sub)
	if err != nil {
		return 0, err
	}

	host := feedHost(feedURL)
	if err := f.limiter.acquire(ctx, host); err != nil {
		return 0, fmt.Errorf("wait for %s: %w", host, err)
	}
	defer f.limiter.release(host)

	if err := f.store.SetLoading(ctx, sub.ID); err != nil {
		return 0, err
	}

	parsed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		fetchErr := fmt.Errorf("parse feed %s: %w", feedURL, err)
		if storeErr := f.store.ApplyFetchResult(ctx, sub.ID, nil, err); storeErr != nil {
			f.logger.Error("Error recording fetch failure", zap.String("subscription_id", sub.ID), zap.Error(storeErr))
		}
		return 0, fetchErr
	}

	events := make([]document.Object, 0, len(parsed.Items))
	for _, item := range parsed.Items {
		if event := entryToEvent(item); event != nil {
			events = append(events, event)
		}
	}
	if err := f.store.ApplyFetchResult(ctx, sub.ID, events, nil); err != nil {
		return 0, fmt.Errorf("store fetch result: %w", err)
	}
	return len(events), nil
}

// FetchResult holds the result of fetching a single subscription.
type FetchResult struct {
	SubscriptionID string
	Items          int
	Error          error
}

// FetchAll fetches every subscription that has a feed and returns the stored item count
// per subscription id. Failed subscriptions are logged and left out of the result.
func (f *Fetcher) FetchAll(ctx context.Context) (map[string]int, error) {
	st, err := f.store.State()
	if err != nil {
		return nil, err
	}

	var subs []*model.Subscription
	for _, id := range st.Subscriptions.AllIDs {
		sub := st.Subscriptions.ByID[id]
		if _, err := FeedURL(f.baseURL, sub); err != nil {
			continue
		}
		subs = append(subs, sub)
	}

	if len(subs) == 0 {
		return make(map[string]int), nil
	}

	f.logger.Info("Fetching subscriptions",
		zap.Int("subscription_count", len(subs)),
		zap.Int("concurrency", f.concurrency))

	if f.concurrency <= 1 {
		return f.fetchSequential(ctx, subs)
	}
	return f.fetchParallel(ctx, subs)
}

// fetchSequential fetches subscriptions one at a time (for SQLite).
func (f *Fetcher) fetchSequential(ctx context.Context, subs []*model.Subscription) (map[string]int, error) {
	results := make(map[string]int)

	for i, sub := range subs {
		select {
		case <-ctx.Done():
			f.logger.Warn("FetchAll cancelled", zap.Int("fetched", i), zap.Int("total", len(subs)))
			return results, ctx.Err()
		default:
		}

		count, err := f.FetchSubscription(ctx, sub)
		if err != nil {
			f.logger.Warn("Failed to fetch subscription", zap.String("subscription_id", sub.ID), zap.Error(err))
			continue
		}
		results[sub.ID] = count
	}

	return results, nil
}

// fetchParallel fetches subscriptions using a worker pool (for PostgreSQL).
func (f *Fetcher) fetchParallel(ctx context.Context, subs []*model.Subscription) (map[string]int, error) {
	var wg sync.WaitGroup

	results := make(map[string]int)
	subChan := make(chan *model.Subscription, len(subs))
	resultChan := make(chan FetchResult, len(subs))

	for i := 0; i < f.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				count, err := f.FetchSubscription(ctx, sub)
				resultChan <- FetchResult{SubscriptionID: sub.ID, Items: count, Error: err}
			}
		}()
	}

	for _, sub := range subs {
		subChan <- sub
	}
	close(subChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	for result := range resultChan {
		if result.Error != nil {
			f.logger.Warn("Failed to fetch subscription", zap.String("subscription_id", result.SubscriptionID), zap.Error(result.Error))
			continue
		}
		results[result.SubscriptionID] = result.Items
	}

	return results, ctx.Err()
}
