package cache_test

import (
	"sync"
	"testing"
	"time"

	"qrpay/pkg/cache"
	"qrpay/pkg/logger"
	mock_metric "qrpay/pkg/metric/mock"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func quietMetrics(ctrl *gomock.Controller, name string) *mock_metric.MockCache {
	m := mock_metric.NewMockCache(ctrl)
	m.EXPECT().Hit(name).AnyTimes()
	m.EXPECT().Miss(name).AnyTimes()
	m.EXPECT().Eviction(name, gomock.Any()).AnyTimes()
	m.EXPECT().Size(name, gomock.Any()).AnyTimes()
	return m
}

func newVendorCache(
	t *testing.T,
	capacity int,
	opts ...cache.Option[uuid.UUID, string],
) *cache.LRUCache[uuid.UUID, string] {
	t.Helper()

	ctrl := gomock.NewController(t)
	c, err := cache.NewLRUCache[uuid.UUID, string](
		"vendors", capacity, logger.NewNop(), quietMetrics(ctrl, "vendors"), opts...,
	)
	require.NoError(t, err)
	return c
}

func TestNewLRUCache(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc     string
		name     string
		capacity int
		wantErr  bool
	}{
		{desc: "valid", name: "users", capacity: 8},
		{desc: "zero capacity", name: "users", capacity: 0, wantErr: true},
		{desc: "negative capacity", name: "users", capacity: -3, wantErr: true},
		{desc: "empty name", name: "", capacity: 8, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			c, err := cache.NewLRUCache[uuid.UUID, string](
				tc.name, tc.capacity, logger.NewNop(), mock_metric.NewMockCache(ctrl),
			)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.capacity, c.Capacity())
			assert.Zero(t, c.Len())
		})
	}
}

func TestLRUCache_Recency(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()

	tests := []struct {
		desc     string
		capacity int
		run      func(*cache.LRUCache[uuid.UUID, string])
		present  map[uuid.UUID]string
		absent   []uuid.UUID
	}{
		{
			desc:     "read refreshes recency",
			capacity: 2,
			run: func(lru *cache.LRUCache[uuid.UUID, string]) {
				lru.Put(a, "acme", 0)
				lru.Put(b, "globex", 0)
				lru.Get(a)
				lru.Put(c, "initech", 0)
			},
			present: map[uuid.UUID]string{a: "acme", c: "initech"},
			absent:  []uuid.UUID{b},
		},
		{
			desc:     "overwrite refreshes recency",
			capacity: 2,
			run: func(lru *cache.LRUCache[uuid.UUID, string]) {
				lru.Put(a, "acme", 0)
				lru.Put(b, "globex", 0)
				lru.Put(a, "acme corp", 0)
				lru.Put(c, "initech", 0)
			},
			present: map[uuid.UUID]string{a: "acme corp", c: "initech"},
			absent:  []uuid.UUID{b},
		},
		{
			desc:     "single slot keeps the newest",
			capacity: 1,
			run: func(lru *cache.LRUCache[uuid.UUID, string]) {
				lru.Put(a, "acme", 0)
				lru.Put(b, "globex", 0)
			},
			present: map[uuid.UUID]string{b: "globex"},
			absent:  []uuid.UUID{a},
		},
		{
			desc:     "delete frees a slot",
			capacity: 2,
			run: func(lru *cache.LRUCache[uuid.UUID, string]) {
				lru.Put(a, "acme", 0)
				lru.Put(b, "globex", 0)
				lru.Delete(a)
				lru.Delete(uuid.New())
				lru.Put(c, "initech", 0)
			},
			present: map[uuid.UUID]string{b: "globex", c: "initech"},
			absent:  []uuid.UUID{a},
		},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			lru := newVendorCache(t, tc.capacity)
			tc.run(lru)

			for key, want := range tc.present {
				got, ok := lru.Get(key)
				require.True(t, ok, "key %s should be cached", key)
				assert.Equal(t, want, got)
			}
			for _, key := range tc.absent {
				_, ok := lru.Get(key)
				assert.False(t, ok, "key %s should be gone", key)
			}
			assert.Equal(t, len(tc.present), lru.Len())
		})
	}
}

func TestLRUCache_Expiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		desc    string
		ttl     time.Duration
		advance time.Duration
		wantOK  bool
	}{
		{desc: "fresh", ttl: time.Minute, advance: 59 * time.Second, wantOK: true},
		{desc: "expired at deadline", ttl: time.Minute, advance: time.Minute},
		{desc: "expired past deadline", ttl: time.Minute, advance: time.Hour},
		{desc: "no ttl never expires", ttl: 0, advance: 24 * time.Hour, wantOK: true},
	}

	for _, tc := range tests {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			clock := newFakeClock()
			lru := newVendorCache(t, 4, cache.WithClock[uuid.UUID, string](clock.Now))

			id := uuid.New()
			lru.Put(id, "acme", tc.ttl)
			clock.Advance(tc.advance)

			got, ok := lru.Get(id)
			assert.Equal(t, tc.wantOK, ok)
			if tc.wantOK {
				assert.Equal(t, "acme", got)
				return
			}
			assert.Zero(t, lru.Len(), "expired entry must be dropped on read")
		})
	}
}

func TestLRUCache_EvictionReporting(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	metrics := mock_metric.NewMockCache(ctrl)
	metrics.EXPECT().Size("users", gomock.Any()).AnyTimes()
	metrics.EXPECT().Miss("users").Times(1)
	metrics.EXPECT().Eviction("users", "lru").Times(1)
	metrics.EXPECT().Eviction("users", "expired").Times(1)
	metrics.EXPECT().Eviction("users", "purged").Times(1)

	clock := newFakeClock()
	var (
		mu      sync.Mutex
		evicted []string
	)
	lru, err := cache.NewLRUCache[string, int](
		"users", 1, logger.NewNop(), metrics,
		cache.WithClock[string, int](clock.Now),
		cache.WithOnEvicted(func(key string, _ int) {
			mu.Lock()
			defer mu.Unlock()
			evicted = append(evicted, key)
		}),
	)
	require.NoError(t, err)

	lru.Put("+15550000001", 1, 0)
	lru.Put("+15550000002", 2, time.Second)
	clock.Advance(2 * time.Second)
	_, ok := lru.Get("+15550000002")
	require.False(t, ok)

	lru.Put("+15550000003", 3, 0)
	lru.Delete("+15550000003")
	lru.Put("+15550000004", 4, 0)
	lru.Purge()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"+15550000001", "+15550000002", "+15550000004"}, evicted)
	assert.Zero(t, lru.Len())
}

func TestLRUCache_Cleanup(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	lru := newVendorCache(t, 8, cache.WithClock[uuid.UUID, string](clock.Now))

	stale, live := uuid.New(), uuid.New()
	lru.Put(stale, "acme", time.Minute)
	lru.Put(live, "globex", time.Hour)
	clock.Advance(2 * time.Minute)

	lru.StartCleanup(5 * time.Millisecond)
	t.Cleanup(lru.StopCleanup)

	require.Eventually(t, func() bool { return lru.Len() == 1 }, time.Second, 5*time.Millisecond)

	got, ok := lru.Get(live)
	require.True(t, ok)
	assert.Equal(t, "globex", got)

	lru.StopCleanup()
	lru.StopCleanup()
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	lru := newVendorCache(t, 16)
	keys := make([]uuid.UUID, 32)
	for i := range keys {
		keys[i] = uuid.New()
	}

	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, key := range keys {
				if (i+w)%2 == 0 {
					lru.Put(key, key.String(), time.Minute)
					continue
				}
				lru.Get(key)
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, lru.Len(), lru.Capacity())
}
