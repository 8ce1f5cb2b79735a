// Package config loads the ticker configuration from an optional YAML file
// and environment variables. Environment variables win over the file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	valid "github.com/asaskevich/govalidator/v11"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds the complete application configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Ticker   TickerConfig   `yaml:"ticker"`
	Cache    CacheConfig    `yaml:"cache"`
	Display  DisplayConfig  `yaml:"display"`
	Currency CurrencyConfig `yaml:"currency"`
	Crypto   CryptoConfig   `yaml:"crypto"`
	Weather  WeatherConfig  `yaml:"weather"`
	HTTP     HTTPConfig     `yaml:"http"`
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Breaker  BreakerConfig  `yaml:"circuit_breaker"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

type TickerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	ScreenOrder []string      `yaml:"screen_order"`
}

// CacheConfig holds the TTL policy. PerScreen uses the "category:seconds,..." format.
type CacheConfig struct {
	DefaultTTL int    `yaml:"default_ttl"`
	PerScreen  string `yaml:"per_screen"`
	SweepEvery int    `yaml:"sweep_every"`
}

type DisplayConfig struct {
	Simulation        bool   `yaml:"simulation"`
	Output            string `yaml:"output"`
	FullRefreshPeriod int    `yaml:"full_refresh_period"`
	MaxRecoveries     int    `yaml:"max_recoveries"`
}

type CurrencyConfig struct {
	APIKey  string   `yaml:"api_key"`
	Base    string   `yaml:"base"`
	Targets []string `yaml:"targets"`
}

type CryptoConfig struct {
	PreferredSource     string `yaml:"preferred_source"`
	CoinGeckoAPIKey     string `yaml:"coingecko_api_key"`
	CoinMarketCapAPIKey string `yaml:"coinmarketcap_api_key"`
}

type WeatherConfig struct {
	APIKey  string `yaml:"api_key"`
	City    string `yaml:"city"`
	State   string `yaml:"state"`
	Country string `yaml:"country"`
}

type HTTPConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// ServerConfig holds the diagnostics API configuration.
type ServerConfig struct {
	Enabled     bool            `yaml:"enabled"`
	Port        string          `yaml:"port"`
	RateLimit   int             `yaml:"rate_limit"`
	RateWindow  time.Duration   `yaml:"rate_window"`
	CORSOrigins []string        `yaml:"cors_origins"`
	APIKeys     map[string]bool `yaml:"-"`
	RawAPIKeys  []string        `yaml:"api_keys"`
}

// DatabaseConfig holds the optional MongoDB refresh history store.
type DatabaseConfig struct {
	Enabled      bool          `yaml:"enabled"`
	URI          string        `yaml:"uri"`
	DatabaseName string        `yaml:"database"`
	HistoryTTL   time.Duration `yaml:"history_ttl"`
}

// BreakerConfig is shared by every upstream API and the history store.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	SuccessThreshold int           `yaml:"success_threshold"`
	Timeout          time.Duration `yaml:"timeout"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Log:    LogConfig{Level: "info"},
		Ticker: TickerConfig{Interval: 10 * time.Second},
		Cache:  CacheConfig{DefaultTTL: 60, SweepEvery: 10},
		Display: DisplayConfig{
			Simulation:        true,
			Output:            "currency_display_simulation.png",
			FullRefreshPeriod: 20,
			MaxRecoveries:     3,
		},
		Currency: CurrencyConfig{Base: "BRL", Targets: []string{"USD", "EUR"}},
		Crypto:   CryptoConfig{PreferredSource: "coingecko"},
		HTTP:     HTTPConfig{Timeout: 10 * time.Second},
		Server: ServerConfig{
			Port:       "8080",
			RateLimit:  100,
			RateWindow: time.Minute,
		},
		Database: DatabaseConfig{
			URI:          "mongodb://localhost:27017",
			DatabaseName: "raspi_ticker",
			HistoryTTL:   7 * 24 * time.Hour,
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			SuccessThreshold: 2,
			Timeout:          30 * time.Second,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (when
// not empty) and the environment, then drops invalid values.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	cfg.Server.APIKeys = apiKeySet(cfg.Server.RawAPIKeys)
	cfg.Server.CORSOrigins = withDefaultOrigins(cfg.Server.CORSOrigins)
	validate(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Pretty = getEnvBool("LOG_PRETTY", cfg.Log.Pretty)

	cfg.Ticker.Interval = getEnvDuration("TICKER_INTERVAL", cfg.Ticker.Interval)
	cfg.Ticker.ScreenOrder = getEnvList("SCREEN_ORDER", cfg.Ticker.ScreenOrder)

	cfg.Cache.DefaultTTL = getEnvInt("CACHE_DEFAULT_TTL", cfg.Cache.DefaultTTL)
	cfg.Cache.PerScreen = getEnv("CACHE_PER_SCREEN", cfg.Cache.PerScreen)
	cfg.Cache.SweepEvery = getEnvInt("CACHE_SWEEP_EVERY", cfg.Cache.SweepEvery)

	cfg.Display.Simulation = getEnvBool("DISPLAY_SIMULATION", cfg.Display.Simulation)
	cfg.Display.Output = getEnv("DISPLAY_OUTPUT", cfg.Display.Output)
	cfg.Display.FullRefreshPeriod = getEnvInt("DISPLAY_FULL_REFRESH_PERIOD", cfg.Display.FullRefreshPeriod)
	cfg.Display.MaxRecoveries = getEnvInt("DISPLAY_MAX_RECOVERIES", cfg.Display.MaxRecoveries)

	cfg.Currency.APIKey = getEnv("FREE_CURRENCY_API_KEY", cfg.Currency.APIKey)
	cfg.Currency.Base = getEnv("CURRENCY_BASE", cfg.Currency.Base)
	cfg.Currency.Targets = getEnvList("CURRENCY_TARGETS", cfg.Currency.Targets)

	cfg.Crypto.PreferredSource = getEnv("CRYPTO_PREFERRED_SOURCE", cfg.Crypto.PreferredSource)
	cfg.Crypto.CoinGeckoAPIKey = getEnv("COINGECKO_API_KEY", cfg.Crypto.CoinGeckoAPIKey)
	cfg.Crypto.CoinMarketCapAPIKey = getEnv("COINMARKETCAP_API_KEY", cfg.Crypto.CoinMarketCapAPIKey)

	cfg.Weather.APIKey = getEnv("OPEN_WEATHER_API_KEY", cfg.Weather.APIKey)
	cfg.Weather.City = getEnv("OPEN_WEATHER_CITY", cfg.Weather.City)
	cfg.Weather.State = getEnv("OPEN_WEATHER_STATE", cfg.Weather.State)
	cfg.Weather.Country = getEnv("OPEN_WEATHER_COUNTRY", cfg.Weather.Country)

	cfg.HTTP.Timeout = getEnvDuration("HTTP_TIMEOUT", cfg.HTTP.Timeout)

	cfg.Server.Enabled = getEnvBool("DIAGNOSTICS_ENABLED", cfg.Server.Enabled)
	cfg.Server.Port = getEnv("PORT", cfg.Server.Port)
	cfg.Server.RateLimit = getEnvInt("RATE_LIMIT", cfg.Server.RateLimit)
	cfg.Server.RateWindow = getEnvDuration("RATE_WINDOW", cfg.Server.RateWindow)
	cfg.Server.CORSOrigins = getEnvList("CORS_ORIGINS", cfg.Server.CORSOrigins)
	cfg.Server.RawAPIKeys = getEnvList("API_KEYS", cfg.Server.RawAPIKeys)

	cfg.Database.Enabled = getEnvBool("MONGODB_ENABLED", cfg.Database.Enabled)
	cfg.Database.URI = getEnv("MONGODB_URI", cfg.Database.URI)
	cfg.Database.DatabaseName = getEnv("MONGODB_DATABASE", cfg.Database.DatabaseName)
	cfg.Database.HistoryTTL = getEnvDuration("MONGODB_HISTORY_TTL", cfg.Database.HistoryTTL)

	cfg.Breaker.FailureThreshold = getEnvInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", cfg.Breaker.FailureThreshold)
	cfg.Breaker.SuccessThreshold = getEnvInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", cfg.Breaker.SuccessThreshold)
	cfg.Breaker.Timeout = getEnvDuration("CIRCUIT_BREAKER_TIMEOUT", cfg.Breaker.Timeout)
}

// validate drops or resets values that would break the ticker, logging each one.
func validate(cfg *Config) {
	def := Defaults()

	cfg.Currency.Base = strings.ToUpper(cfg.Currency.Base)
	if !valid.IsISO4217(cfg.Currency.Base) {
		log.Warn().Str("currency", cfg.Currency.Base).Msg("Invalid base currency, using default")
		cfg.Currency.Base = def.Currency.Base
	}
	targets := make([]string, 0, len(cfg.Currency.Targets))
	for _, t := range cfg.Currency.Targets {
		t = strings.ToUpper(t)
		if !valid.IsISO4217(t) {
			log.Warn().Str("currency", t).Msg("Invalid target currency skipped")
			continue
		}
		targets = append(targets, t)
	}
	if len(targets) == 0 {
		targets = def.Currency.Targets
	}
	cfg.Currency.Targets = targets

	if c := cfg.Weather.Country; c != "" {
		if !valid.IsISO3166Alpha2(strings.ToUpper(c)) {
			log.Warn().Str("country", c).Msg("Invalid weather country ignored")
			cfg.Weather.Country = ""
		} else {
			cfg.Weather.Country = strings.ToUpper(c)
		}
	}

	if cfg.Ticker.Interval <= 0 {
		log.Warn().Dur("interval", cfg.Ticker.Interval).Msg("Invalid ticker interval, using default")
		cfg.Ticker.Interval = def.Ticker.Interval
	}
	if cfg.Cache.DefaultTTL < 0 {
		log.Warn().Int("ttl", cfg.Cache.DefaultTTL).Msg("Negative cache TTL, using default")
		cfg.Cache.DefaultTTL = def.Cache.DefaultTTL
	}
	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = def.HTTP.Timeout
	}
	if cfg.Display.MaxRecoveries < 0 {
		cfg.Display.MaxRecoveries = 0
	}
	if cfg.Database.Enabled && !valid.IsRequestURL(cfg.Database.URI) {
		log.Warn().Msg("Invalid MongoDB URI, refresh history disabled")
		cfg.Database.Enabled = false
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid integer in environment, ignored")
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Warn().Str("key", key).Str("value", v).Msg("Invalid boolean in environment, ignored")
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("10s") and plain seconds ("10").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second
	}
	log.Warn().Str("key", key).Str("value", v).Msg("Invalid duration in environment, ignored")
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultValue
	}
	return splitList(v)
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func apiKeySet(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	result := make(map[string]bool, len(keys))
	for _, k := range keys {
		if k = strings.TrimSpace(k); k != "" {
			result[k] = true
		}
	}
	return result
}

// withDefaultOrigins prepends the local development origins.
func withDefaultOrigins(origins []string) []string {
	result := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	for _, o := range origins {
		if o = strings.TrimSpace(o); o != "" {
			result = append(result, o)
		}
	}
	return result
}
