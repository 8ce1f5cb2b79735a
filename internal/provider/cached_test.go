//go:build !integration

package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bruno-farias/raspi-info-ticker/internal/cache"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func newClockedStore(defaultTTL int, overrides string) (*cache.Store, *testClock, time.Time) {
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	store := cache.NewStore(cache.NewPolicy(defaultTTL, cache.ParseOverrides(overrides)), cache.WithClock(clock.Now))
	return store, clock, start
}

func countingSource(name string, v int, calls *int32) Source[int] {
	return Source[int]{Name: name, Fetch: func(context.Context) (int, error) {
		atomic.AddInt32(calls, 1)
		return v, nil
	}}
}

func TestCached_PrimaryResultUsesCategoryTTL(t *testing.T) {
	store, clock, start := newClockedStore(60, "bitcoin_prices:30")
	var calls int32
	c := NewCached(store, "btc", "bitcoin_prices", countingSource("coingecko", 65000, &calls))
	ctx := context.Background()

	r, ok := c.Fetch(ctx)
	require.True(t, ok)
	assert.Equal(t, 65000, r.Value)
	assert.False(t, r.Cached)
	assert.False(t, r.Fallback)
	assert.Equal(t, "coingecko", r.Source)

	clock.Set(start.Add(30 * time.Second))
	r, ok = c.Fetch(ctx)
	require.True(t, ok)
	assert.True(t, r.Cached)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clock.Set(start.Add(31 * time.Second))
	r, ok = c.Fetch(ctx)
	require.True(t, ok)
	assert.False(t, r.Cached)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCached_FallbackResultUsesHalfTTLAndDistinctKey(t *testing.T) {
	store, clock, start := newClockedStore(60, "bitcoin_prices:45")
	var calls int32
	c := NewCached(store, "btc", "bitcoin_prices",
		failingSource("coingecko", errors.New("503")),
		countingSource("binance", 64000, &calls),
	)
	ctx := context.Background()

	r, ok := c.Fetch(ctx)
	require.True(t, ok)
	assert.True(t, r.Fallback)
	assert.Equal(t, "binance", r.Source)

	_, primaryCached := store.Get("btc")
	assert.False(t, primaryCached)
	_, fallbackCached := store.Get("btc:fallback")
	assert.True(t, fallbackCached)

	// resolve=45 gives a fallback TTL of 22 seconds.
	clock.Set(start.Add(22 * time.Second))
	r, ok = c.Fetch(ctx)
	require.True(t, ok)
	assert.True(t, r.Cached)
	assert.True(t, r.Fallback)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))

	clock.Set(start.Add(23 * time.Second))
	_, ok = c.Fetch(ctx)
	require.True(t, ok)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestCached_FailureIsAbsorbed(t *testing.T) {
	store, _, _ := newClockedStore(60, "")
	c := NewCached(store, "rates", "exchange_rates", failingSource("freecurrencyapi", errors.New("timeout")))

	r, ok := c.Fetch(context.Background())

	assert.False(t, ok)
	assert.Zero(t, r)
	assert.Equal(t, 0, store.Stats().TotalEntries)
}

func TestCached_FailureKeepsExistingEntry(t *testing.T) {
	store, clock, start := newClockedStore(60, "")
	fail := false
	c := NewCached(store, "rates", "exchange_rates", Source[int]{Name: "a", Fetch: func(context.Context) (int, error) {
		if fail {
			return 0, errors.New("down")
		}
		return 5, nil
	}})
	ctx := context.Background()

	_, ok := c.Fetch(ctx)
	require.True(t, ok)

	fail = true
	clock.Set(start.Add(10 * time.Second))
	r, ok := c.Fetch(ctx)
	require.True(t, ok)
	assert.Equal(t, 5, r.Value)
	assert.True(t, r.Cached)
}

func TestCached_IgnoresForeignCacheValue(t *testing.T) {
	store, _, _ := newClockedStore(60, "")
	store.Set("k", "not a result")
	var calls int32
	c := NewCached(store, "k", "x", countingSource("a", 1, &calls))

	r, ok := c.Fetch(context.Background())

	require.True(t, ok)
	assert.Equal(t, 1, r.Value)
	assert.EqualValues(t, 1, calls)
}

func TestCached_ConcurrentMissesShareOneFetch(t *testing.T) {
	store, _, _ := newClockedStore(60, "")
	var calls int32
	release := make(chan struct{})
	c := NewCached(store, "slow", "x", Source[int]{Name: "slow", Fetch: func(context.Context) (int, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return 9, nil
	}})

	var wg sync.WaitGroup
	results := make([]int, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, ok := c.Fetch(context.Background())
			if ok {
				results[i] = r.Value
			}
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
	for _, v := range results {
		assert.Equal(t, 9, v)
	}
}

func TestCached_Keys(t *testing.T) {
	c := NewCached[int](nil, "weather_Vienna_AT", "weather")

	assert.Equal(t, "weather_Vienna_AT", c.Key())
	assert.Equal(t, "weather_Vienna_AT:fallback", c.FallbackKey())
	assert.Equal(t, "weather", c.Category())
}

func TestCached_WeatherEndToEnd(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		_, _ = w.Write([]byte(openWeatherFixture))
	}))
	defer server.Close()

	store, clock, start := newClockedStore(60, "weather:300")
	weather := NewWeatherProvider(NewClient(time.Second), WeatherConfig{
		APIKey:  "key",
		City:    "Vienna",
		Country: "AT",
		BaseURL: server.URL,
	})
	c := NewCached(store, weather.CacheKey(), WeatherCategory, weather.Sources()...)
	ctx := context.Background()

	r, ok := c.Fetch(ctx)
	require.True(t, ok)
	assert.False(t, r.Cached)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	clock.Set(start.Add(100 * time.Second))
	r, ok = c.Fetch(ctx)
	require.True(t, ok)
	assert.True(t, r.Cached)
	assert.Equal(t, "Vienna", r.Value.City)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hits))

	clock.Set(start.Add(301 * time.Second))
	r, ok = c.Fetch(ctx)
	require.True(t, ok)
	assert.False(t, r.Cached)
	assert.EqualValues(t, 2, atomic.LoadInt32(&hits))
}
