package provider

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

// SourceFreeCurrency names the freecurrencyapi.com source.
const SourceFreeCurrency = "freecurrencyapi"

// CurrencyConfig configures the exchange rate provider.
type CurrencyConfig struct {
	APIKey  string
	BaseURL string
	Base    string
	Targets []string
}

// CurrencyProvider fetches fiat exchange rates.
type CurrencyProvider struct {
	client *Client
	cfg    CurrencyConfig
	now    func() time.Time
}

// NewCurrencyProvider creates a provider. Base defaults to BRL and targets to USD and EUR.
func NewCurrencyProvider(client *Client, cfg CurrencyConfig) *CurrencyProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.freecurrencyapi.com"
	}
	if cfg.Base == "" {
		cfg.Base = "BRL"
	}
	if len(cfg.Targets) == 0 {
		cfg.Targets = []string{"USD", "EUR"}
	}
	return &CurrencyProvider{client: client, cfg: cfg, now: time.Now}
}

// Configured reports whether an API key is set.
func (p *CurrencyProvider) Configured() bool {
	return p.cfg.APIKey != ""
}

// CacheKey returns the cache key of the configured pair set.
func (p *CurrencyProvider) CacheKey() string {
	return fmt.Sprintf("rates_%s_%s", p.cfg.Base, strings.Join(p.cfg.Targets, "_"))
}

// Sources returns the upstreams in preference order, skipping unconfigured ones.
func (p *CurrencyProvider) Sources() []Source[model.ExchangeRates] {
	if !p.Configured() {
		return nil
	}
	return []Source[model.ExchangeRates]{{Name: SourceFreeCurrency, Fetch: p.Fetch}}
}

type latestResponse struct {
	Data map[string]float64 `json:"data"`
}

// Fetch returns the value of each target currency expressed in the base
// currency, rounded to 4 decimals. A target missing upstream is reported as 0.
func (p *CurrencyProvider) Fetch(ctx context.Context) (model.ExchangeRates, error) {
	if !p.Configured() {
		return model.ExchangeRates{}, fmt.Errorf("%s: %w", SourceFreeCurrency, ErrNotConfigured)
	}

	query := url.Values{}
	query.Set("apikey", p.cfg.APIKey)
	query.Set("base_currency", p.cfg.Base)
	query.Set("currencies", strings.Join(p.cfg.Targets, ","))

	var resp latestResponse
	if err := p.client.GetJSON(ctx, p.cfg.BaseURL+"/v1/latest", query, nil, &resp); err != nil {
		return model.ExchangeRates{}, err
	}
	if resp.Data == nil {
		return model.ExchangeRates{}, fmt.Errorf("%s: %w", SourceFreeCurrency, ErrNoData)
	}

	rates := make([]model.Rate, 0, len(p.cfg.Targets))
	for _, currency := range p.cfg.Targets {
		rate := model.Rate{
			Currency: currency,
			Pair:     currency + "/" + p.cfg.Base,
		}
		if v, ok := resp.Data[currency]; ok && v != 0 {
			rate.Value = round(1/v, 4)
		} else {
			log.Warn().Str("currency", currency).Msg("No rate data for currency")
		}
		rates = append(rates, rate)
	}

	return model.ExchangeRates{
		Base:      p.cfg.Base,
		Rates:     rates,
		FetchedAt: p.now(),
		Source:    SourceFreeCurrency,
	}, nil
}

func round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	return math.Round(v*pow) / pow
}
