package provider

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// FallbackSuffix is appended to the cache key of fallback-sourced data.
const FallbackSuffix = ":fallback"

// Cache is the part of the cache store used by providers.
type Cache interface {
	Get(key string) (any, bool)
	SetWithTTL(key string, value any, ttl int)
	TTLFor(category string) int
	FallbackTTLFor(category string) int
}

// Result is a provider value with its provenance.
type Result[T any] struct {
	Value    T
	Source   string
	Cached   bool
	Fallback bool
}

// Cached serves a value from the cache or, on a miss, from the first source
// that succeeds. The first source is the primary; data from any later source
// is cached under a separate key for half the category TTL.
type Cached[T any] struct {
	cache    Cache
	key      string
	category string
	sources  []Source[T]
	group    singleflight.Group
}

// NewCached creates a cached fetcher for key in category.
func NewCached[T any](cache Cache, key, category string, sources ...Source[T]) *Cached[T] {
	return &Cached[T]{
		cache:    cache,
		key:      key,
		category: category,
		sources:  sources,
	}
}

// Key returns the primary cache key.
func (c *Cached[T]) Key() string {
	return c.key
}

// FallbackKey returns the cache key used for fallback-sourced data.
func (c *Cached[T]) FallbackKey() string {
	return c.key + FallbackSuffix
}

// Category returns the cache category.
func (c *Cached[T]) Category() string {
	return c.category
}

// Fetch returns the value and true, or false when no cached or fresh data is
// available. Upstream failures are logged, never returned. Concurrent calls
// share a single upstream round trip.
func (c *Cached[T]) Fetch(ctx context.Context) (Result[T], bool) {
	if r, ok := c.lookup(c.key); ok {
		return r, true
	}
	if r, ok := c.lookup(c.FallbackKey()); ok {
		return r, true
	}

	v, err, _ := c.group.Do(c.key, func() (interface{}, error) {
		return c.fetch(context.WithoutCancel(ctx))
	})
	if err != nil {
		return Result[T]{}, false
	}
	return v.(Result[T]), true
}

func (c *Cached[T]) lookup(key string) (Result[T], bool) {
	raw, ok := c.cache.Get(key)
	if !ok {
		return Result[T]{}, false
	}
	r, ok := raw.(Result[T])
	if !ok {
		log.Warn().Str("key", key).Msg("Ignoring cache entry of unexpected type")
		return Result[T]{}, false
	}
	log.Debug().Str("key", key).Str("source", r.Source).Msg("Cache hit")
	r.Cached = true
	return r, true
}

func (c *Cached[T]) fetch(ctx context.Context) (Result[T], error) {
	value, index, attempts, err := FetchFirst(ctx, c.sources)
	for _, a := range attempts {
		if !a.OK() {
			log.Warn().Err(a.Err).
				Str("key", c.key).
				Str("source", a.Source).
				Dur("duration", a.Duration).
				Msg("Source fetch failed")
		}
	}
	if err != nil {
		log.Error().Str("key", c.key).Int("attempts", len(attempts)).Msg("No data available from any source")
		return Result[T]{}, err
	}

	r := Result[T]{
		Value:    value,
		Source:   c.sources[index].Name,
		Fallback: index > 0,
	}
	if r.Fallback {
		ttl := c.cache.FallbackTTLFor(c.category)
		c.cache.SetWithTTL(c.FallbackKey(), r, ttl)
		log.Info().Str("key", c.FallbackKey()).Str("source", r.Source).Int("ttl", ttl).Msg("Cached fallback data")
	} else {
		ttl := c.cache.TTLFor(c.category)
		c.cache.SetWithTTL(c.key, r, ttl)
		log.Debug().Str("key", c.key).Str("source", r.Source).Int("ttl", ttl).Msg("Cached fresh data")
	}
	return r, nil
}
