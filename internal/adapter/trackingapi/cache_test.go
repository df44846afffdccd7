package trackingapi

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/covid-state-etl/internal/domain"
	"github.com/couchcryptid/covid-state-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mock for cache tests ---

type countingSource struct {
	calls   int
	records []domain.DailyRecord
	err     error
}

func (m *countingSource) StateDaily(_ context.Context, _ string) ([]domain.DailyRecord, error) {
	m.calls++
	return m.records, m.err
}

func someRecords() []domain.DailyRecord {
	return []domain.DailyRecord{{Date: time.Date(2020, time.April, 15, 0, 0, 0, 0, time.UTC), State: "NY", PositiveIncrease: 5}}
}

// --- CachedSource tests ---

func TestCachedSource_Hit(t *testing.T) {
	inner := &countingSource{records: someRecords()}
	metrics := observability.NewMetricsForTesting()
	cached := NewCachedSource(inner, 10, time.Hour, metrics)

	r1, err := cached.StateDaily(context.Background(), "NY")
	require.NoError(t, err)
	r2, err := cached.StateDaily(context.Background(), " ny ")
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HistoryCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.HistoryCache.WithLabelValues("miss")))
}

func TestCachedSource_ReturnsCopies(t *testing.T) {
	inner := &countingSource{records: someRecords()}
	cached := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())

	r1, err := cached.StateDaily(context.Background(), "NY")
	require.NoError(t, err)
	r1[0].PositiveIncrease = 999

	r2, err := cached.StateDaily(context.Background(), "NY")
	require.NoError(t, err)
	assert.Equal(t, int64(5), r2[0].PositiveIncrease)
}

func TestCachedSource_Expiry(t *testing.T) {
	inner := &countingSource{records: someRecords()}
	cached := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())
	fake := clockwork.NewFakeClock()
	cached.clock = fake

	_, err := cached.StateDaily(context.Background(), "NY")
	require.NoError(t, err)
	fake.Advance(59 * time.Minute)
	_, err = cached.StateDaily(context.Background(), "NY")
	require.NoError(t, err)
	assert.Equal(t, 1, inner.calls)

	fake.Advance(2 * time.Minute)
	_, err = cached.StateDaily(context.Background(), "NY")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)
}

func TestCachedSource_EmptyAndErrorsNotCached(t *testing.T) {
	inner := &countingSource{}
	cached := NewCachedSource(inner, 10, time.Hour, observability.NewMetricsForTesting())

	_, err := cached.StateDaily(context.Background(), "GU")
	require.NoError(t, err)
	_, err = cached.StateDaily(context.Background(), "GU")
	require.NoError(t, err)
	assert.Equal(t, 2, inner.calls)

	inner.err = errors.New("boom")
	_, err = cached.StateDaily(context.Background(), "GU")
	assert.Error(t, err)
	assert.Equal(t, 0, cached.cache.len())
}

// --- lruCache tests ---

func entryOf(n int64) cacheEntry {
	return cacheEntry{records: []domain.DailyRecord{{PositiveIncrease: n}}}
}

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(2)
	c.put("NY", entryOf(1))

	got, ok := c.get("NY")
	require.True(t, ok)
	assert.Equal(t, int64(1), got.records[0].PositiveIncrease)

	_, ok = c.get("VT")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)
	c.put("NY", entryOf(1))
	c.put("VT", entryOf(2))
	c.put("DC", entryOf(3))

	_, ok := c.get("NY")
	assert.False(t, ok, "oldest entry evicted")
	assert.Equal(t, 2, c.len())
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)
	c.put("NY", entryOf(1))
	c.put("VT", entryOf(2))
	c.get("NY")
	c.put("DC", entryOf(3))

	_, ok := c.get("NY")
	assert.True(t, ok)
	_, ok = c.get("VT")
	assert.False(t, ok)
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)
	c.put("NY", entryOf(1))
	c.put("NY", entryOf(10))

	got, ok := c.get("NY")
	require.True(t, ok)
	assert.Equal(t, int64(10), got.records[0].PositiveIncrease)
	assert.Equal(t, 1, c.len())
}
