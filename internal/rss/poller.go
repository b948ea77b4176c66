package rss

import (
	"context"
	"sync"
	"time"

	"github.com/bryan-buckman/feedcolumns/internal/database"
	"go.uber.org/zap"
)

// MinPollingIntervalMinutes is the floor applied to the stored interval.
const MinPollingIntervalMinutes = 5

// fetchTimeout bounds a single polling round.
const fetchTimeout = 10 * time.Minute

// Poller refreshes all feed subscriptions at the stored polling interval.
type Poller struct {
	logger   *zap.Logger
	fetcher  *Fetcher
	db       database.Store
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewPoller creates a background poller.
func NewPoller(logger *zap.Logger, fetcher *Fetcher, db database.Store) *Poller {
	return &Poller{
		logger:   logger.With(zap.String("component", "poller")),
		fetcher:  fetcher,
		db:       db,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop.
func (p *Poller) Start() {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			interval := p.interval()
			p.poll(interval)

			select {
			case <-p.stopChan:
				return
			case <-time.After(interval):
			}
		}
	}()
}

func (p *Poller) interval() time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mins, err := p.db.GetPollingInterval(ctx)
	if err != nil {
		p.logger.Warn("Error reading polling interval", zap.Error(err))
	}
	if mins < MinPollingIntervalMinutes {
		mins = MinPollingIntervalMinutes
	}
	return time.Duration(mins) * time.Minute
}

func (p *Poller) poll(interval time.Duration) {
	p.logger.Info("Fetching all subscriptions", zap.Duration("interval", interval))

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	go func() {
		select {
		case <-p.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	results, err := p.fetcher.FetchAll(ctx)
	if err != nil {
		p.logger.Error("Poller error", zap.Error(err))
		return
	}
	total := 0
	for _, c := range results {
		total += c
	}
	p.logger.Info("Fetched subscriptions",
		zap.Int("item_count", total),
		zap.Int("subscription_count", len(results)))
}

// Stop stops the poller gracefully.
func (p *Poller) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}
