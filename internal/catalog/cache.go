package catalog

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/soprim/pricebot/internal/model"
	"github.com/soprim/pricebot/internal/resilience"
)

// DefaultTTL is how long a loaded snapshot stays fresh.
const DefaultTTL = 5 * time.Minute

// Cache holds the catalog snapshot and refreshes it from the feed when the
// TTL lapses. A failed refresh degrades to the stale snapshot instead of
// failing the lookup, because an out-of-date price beats no answer.
type Cache struct {
	feed  Feed
	ttl   time.Duration
	retry resilience.RetryConfig

	mu        sync.RWMutex
	entries   []model.CatalogEntry
	fetchedAt time.Time

	nowFunc func() time.Time
}

// NewCache creates a cache over the given feed. A non-positive ttl falls
// back to DefaultTTL.
func NewCache(feed Feed, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		feed: feed,
		ttl:  ttl,
		retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Second,
			Operation:      "catalog refresh",
		},
		nowFunc: time.Now,
	}
}

// WithNow overrides the clock. Test hook.
func (c *Cache) WithNow(now func() time.Time) *Cache {
	c.nowFunc = now
	return c
}

// WithRetry overrides the feed retry policy. Test hook.
func (c *Cache) WithRetry(cfg resilience.RetryConfig) *Cache {
	c.retry = cfg
	return c
}

// Entries returns the current snapshot, refreshing it first when stale.
func (c *Cache) Entries(ctx context.Context) ([]model.CatalogEntry, error) {
	c.mu.RLock()
	fresh := c.entries != nil && c.nowFunc().Sub(c.fetchedAt) < c.ttl
	entries := c.entries
	c.mu.RUnlock()

	if fresh {
		return entries, nil
	}
	return c.refresh(ctx)
}

// Refresh forces a reload regardless of TTL.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
	_, err := c.refresh(ctx)
	return err
}

func (c *Cache) refresh(ctx context.Context) ([]model.CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Another caller may have refreshed while we waited for the lock.
	if c.entries != nil && c.nowFunc().Sub(c.fetchedAt) < c.ttl {
		return c.entries, nil
	}

	loaded, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) ([]model.CatalogEntry, error) {
		return c.feed.Load(ctx)
	})
	if err != nil {
		if c.entries != nil {
			zap.L().Warn("catalog refresh failed, serving stale snapshot",
				zap.Time("fetched_at", c.fetchedAt),
				zap.Error(err),
			)
			return c.entries, nil
		}
		return nil, eris.Wrap(err, "catalog: refresh")
	}

	c.entries = loaded
	c.fetchedAt = c.nowFunc()
	return c.entries, nil
}
