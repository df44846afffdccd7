package trackingapi

import (
	"container/list"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps a HistorySource with an in-memory LRU cache whose entries
// expire after ttl.
type CachedSource struct {
	inner   domain.HistorySource
	cache   *lruCache
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
}

// NewCachedSource creates a cache decorator around a history source.
func NewCachedSource(inner domain.HistorySource, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		ttl:     ttl,
		clock:   clockwork.NewRealClock(),
		metrics: metrics,
	}
}

func (c *CachedSource) StateDaily(ctx context.Context, code string) ([]domain.DailyRecord, error) {
	key := strings.ToUpper(strings.TrimSpace(code))
	now := c.clock.Now()
	if e, ok := c.cache.get(key); ok && (c.ttl <= 0 || now.Before(e.expires)) {
		c.metrics.HistoryCache.WithLabelValues("hit").Inc()
		return slices.Clone(e.records), nil
	}
	c.metrics.HistoryCache.WithLabelValues("miss").Inc()

	records, err := c.inner.StateDaily(ctx, key)
	if err != nil {
		return nil, err
	}
	// Only cache non-empty results so a region the API has not published yet
	// is retried.
	if len(records) > 0 {
		c.cache.put(key, cacheEntry{records: slices.Clone(records), expires: now.Add(c.ttl)})
	}
	return records, nil
}

type cacheEntry struct {
	records []domain.DailyRecord
	expires time.Time
}

// lruCache is a thread-safe LRU of history responses keyed by region code.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	order      *list.List // front is most recently used
	entries    map[string]*list.Element
}

type lruItem struct {
	key   string
	value cacheEntry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *lruCache) get(key string) (cacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return cacheEntry{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*lruItem).value, true
}

func (c *lruCache) put(key string, value cacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*lruItem).value = value
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&lruItem{key: key, value: value})
	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*lruItem).key)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
