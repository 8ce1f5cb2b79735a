package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/cache"
	"github.com/bruno-farias/raspi-info-ticker/internal/circuitbreaker"
	"github.com/bruno-farias/raspi-info-ticker/internal/metrics"
	"github.com/bruno-farias/raspi-info-ticker/internal/provider"
	"github.com/bruno-farias/raspi-info-ticker/internal/screen"
)

// ScreenComponents holds the cache, the screens built on it and the
// breakers guarding each upstream.
type ScreenComponents struct {
	Store     *cache.Store
	Sequencer *screen.Sequencer
	Breakers  map[string]*circuitbreaker.CircuitBreaker
}

// InitializeScreens builds the providers, wraps every upstream in its own
// circuit breaker and arranges the screens in the configured order.
func InitializeScreens(cfg config.Config) (*ScreenComponents, error) {
	policy := cache.NewPolicy(cfg.Cache.DefaultTTL, cache.ParseOverrides(cfg.Cache.PerScreen))
	store := cache.NewStore(policy)
	client := provider.NewClient(cfg.HTTP.Timeout)
	breakers := newBreakerSet(cfg.Breaker)

	currency := provider.NewCurrencyProvider(client, provider.CurrencyConfig{
		APIKey:  cfg.Currency.APIKey,
		Base:    cfg.Currency.Base,
		Targets: cfg.Currency.Targets,
	})
	if !currency.Configured() {
		log.Warn().Msg("FREE_CURRENCY_API_KEY not set, exchange rates unavailable")
	}

	crypto := provider.NewCryptoProvider(client, provider.CryptoConfig{
		PreferredSource:     cfg.Crypto.PreferredSource,
		CoinGeckoAPIKey:     cfg.Crypto.CoinGeckoAPIKey,
		CoinMarketCapAPIKey: cfg.Crypto.CoinMarketCapAPIKey,
	})

	weather := provider.NewWeatherProvider(client, provider.WeatherConfig{
		APIKey:  cfg.Weather.APIKey,
		City:    cfg.Weather.City,
		State:   cfg.Weather.State,
		Country: cfg.Weather.Country,
	})
	if !weather.Configured() {
		log.Warn().Msg("OpenWeatherMap API key or city not set, weather unavailable")
	}

	screens := []screen.Screen{
		screen.NewExchangeRates(provider.NewCached(store, currency.CacheKey(), screen.IDExchangeRates,
			guard(breakers, currency.Sources())...)),
		screen.NewBitcoinPrices(provider.NewCached(store, crypto.CacheKey(), screen.IDBitcoinPrices,
			guard(breakers, crypto.Sources())...)),
		screen.NewWeather(provider.NewCached(store, weather.CacheKey(), provider.WeatherCategory,
			guard(breakers, weather.Sources())...)),
		screen.NewClock(time.Now),
	}

	order := cfg.Ticker.ScreenOrder
	if len(order) == 0 {
		order = screen.DefaultOrder
	}
	seq, err := screen.NewSequencer(order, screens...)
	if err != nil {
		return nil, err
	}

	return &ScreenComponents{
		Store:     store,
		Sequencer: seq,
		Breakers:  breakers.all,
	}, nil
}

type breakerSet struct {
	cfg config.BreakerConfig
	all map[string]*circuitbreaker.CircuitBreaker
}

func newBreakerSet(cfg config.BreakerConfig) *breakerSet {
	return &breakerSet{cfg: cfg, all: make(map[string]*circuitbreaker.CircuitBreaker)}
}

// get returns the breaker for name, creating it on first use. Its state is
// mirrored to the ticker_circuit_breaker_open gauge.
func (b *breakerSet) get(name string) *circuitbreaker.CircuitBreaker {
	if cb, ok := b.all[name]; ok {
		return cb
	}
	cb := newCircuitBreaker(name, b.cfg)
	b.all[name] = cb
	return cb
}

func newCircuitBreaker(name string, cfg config.BreakerConfig) *circuitbreaker.CircuitBreaker {
	metrics.SetCircuitBreakerOpen(name, false)
	return circuitbreaker.New(circuitbreaker.Config{
		Name:             name,
		FailureThreshold: cfg.FailureThreshold,
		SuccessThreshold: cfg.SuccessThreshold,
		Timeout:          cfg.Timeout,
		OnStateChange: func(name string, _, to circuitbreaker.State) {
			metrics.SetCircuitBreakerOpen(name, to == circuitbreaker.StateOpen)
		},
	})
}

func guard[T any](breakers *breakerSet, sources []provider.Source[T]) []provider.Source[T] {
	guarded := make([]provider.Source[T], len(sources))
	for i, src := range sources {
		guarded[i] = provider.Guarded(src, breakers.get(src.Name))
	}
	return guarded
}
