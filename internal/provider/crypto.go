package provider

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

// Crypto source names.
const (
	SourceCoinGecko     = "coingecko"
	SourceCoinMarketCap = "coinmarketcap"
	SourceBinance       = "binance"
)

// CryptoSourceOrder is the fixed order tried after the preferred source.
var CryptoSourceOrder = []string{SourceCoinGecko, SourceCoinMarketCap, SourceBinance}

// CryptoConfig configures the bitcoin price provider.
type CryptoConfig struct {
	PreferredSource     string
	CoinGeckoAPIKey     string
	CoinMarketCapAPIKey string
	CoinGeckoURL        string
	CoinMarketCapURL    string
	BinanceURL          string
}

// CryptoProvider fetches BTC prices from several public APIs.
type CryptoProvider struct {
	client *Client
	cfg    CryptoConfig
	now    func() time.Time
}

// NewCryptoProvider creates a provider with the public API endpoints as defaults.
func NewCryptoProvider(client *Client, cfg CryptoConfig) *CryptoProvider {
	if cfg.PreferredSource == "" {
		cfg.PreferredSource = SourceCoinGecko
	}
	if cfg.CoinGeckoURL == "" {
		cfg.CoinGeckoURL = "https://api.coingecko.com/api/v3"
	}
	if cfg.CoinMarketCapURL == "" {
		cfg.CoinMarketCapURL = "https://pro-api.coinmarketcap.com"
	}
	if cfg.BinanceURL == "" {
		cfg.BinanceURL = "https://api.binance.com"
	}
	return &CryptoProvider{client: client, cfg: cfg, now: time.Now}
}

// CacheKey returns the cache key for BTC prices.
func (p *CryptoProvider) CacheKey() string {
	return "btc_prices"
}

// Sources returns the preferred source followed by the others in
// CryptoSourceOrder. CoinMarketCap is left out without an API key.
func (p *CryptoProvider) Sources() []Source[model.BitcoinPrices] {
	all := map[string]Source[model.BitcoinPrices]{
		SourceCoinGecko: {Name: SourceCoinGecko, Fetch: p.FetchCoinGecko},
		SourceBinance:   {Name: SourceBinance, Fetch: p.FetchBinance},
	}
	if p.cfg.CoinMarketCapAPIKey != "" {
		all[SourceCoinMarketCap] = Source[model.BitcoinPrices]{Name: SourceCoinMarketCap, Fetch: p.FetchCoinMarketCap}
	}

	sources := make([]Source[model.BitcoinPrices], 0, len(all))
	if src, ok := all[p.cfg.PreferredSource]; ok {
		sources = append(sources, src)
	} else {
		log.Warn().Str("source", p.cfg.PreferredSource).Msg("Preferred crypto source unavailable, using default order")
	}
	for _, name := range CryptoSourceOrder {
		if name == p.cfg.PreferredSource {
			continue
		}
		if src, ok := all[name]; ok {
			sources = append(sources, src)
		}
	}
	return sources
}

type coinGeckoResponse struct {
	Bitcoin *struct {
		USD          *float64 `json:"usd"`
		EUR          *float64 `json:"eur"`
		USDChange24h *float64 `json:"usd_24h_change"`
		EURChange24h *float64 `json:"eur_24h_change"`
	} `json:"bitcoin"`
}

// FetchCoinGecko queries the CoinGecko simple price endpoint.
func (p *CryptoProvider) FetchCoinGecko(ctx context.Context) (model.BitcoinPrices, error) {
	query := url.Values{}
	query.Set("ids", "bitcoin")
	query.Set("vs_currencies", "usd,eur")
	query.Set("include_24hr_change", "true")

	var headers map[string]string
	if p.cfg.CoinGeckoAPIKey != "" {
		headers = map[string]string{"x-cg-demo-api-key": p.cfg.CoinGeckoAPIKey}
	}

	var resp coinGeckoResponse
	if err := p.client.GetJSON(ctx, p.cfg.CoinGeckoURL+"/simple/price", query, headers, &resp); err != nil {
		return model.BitcoinPrices{}, err
	}
	if resp.Bitcoin == nil || (resp.Bitcoin.USD == nil && resp.Bitcoin.EUR == nil) {
		return model.BitcoinPrices{}, fmt.Errorf("%s: %w", SourceCoinGecko, ErrNoData)
	}

	prices := model.BitcoinPrices{
		USD:       roundPtr(resp.Bitcoin.USD),
		EUR:       roundPtr(resp.Bitcoin.EUR),
		FetchedAt: p.now(),
		Source:    SourceCoinGecko,
	}
	if c := resp.Bitcoin.USDChange24h; c != nil {
		v := round(*c, 2)
		prices.USDChange24h = &v
	}
	if c := resp.Bitcoin.EURChange24h; c != nil {
		v := round(*c, 2)
		prices.EURChange24h = &v
	}
	return prices, nil
}

type coinMarketCapResponse struct {
	Data map[string]struct {
		Quote map[string]struct {
			Price float64 `json:"price"`
		} `json:"quote"`
	} `json:"data"`
}

// FetchCoinMarketCap queries the CoinMarketCap quotes endpoint. It needs an API key.
func (p *CryptoProvider) FetchCoinMarketCap(ctx context.Context) (model.BitcoinPrices, error) {
	if p.cfg.CoinMarketCapAPIKey == "" {
		return model.BitcoinPrices{}, fmt.Errorf("%s: %w", SourceCoinMarketCap, ErrNotConfigured)
	}

	query := url.Values{}
	query.Set("symbol", "BTC")
	query.Set("convert", "USD,EUR")
	headers := map[string]string{"X-CMC_PRO_API_KEY": p.cfg.CoinMarketCapAPIKey}

	var resp coinMarketCapResponse
	if err := p.client.GetJSON(ctx, p.cfg.CoinMarketCapURL+"/v1/cryptocurrency/quotes/latest", query, headers, &resp); err != nil {
		return model.BitcoinPrices{}, err
	}
	btc, ok := resp.Data["BTC"]
	if !ok || len(btc.Quote) == 0 {
		return model.BitcoinPrices{}, fmt.Errorf("%s: %w", SourceCoinMarketCap, ErrNoData)
	}

	return model.BitcoinPrices{
		USD:       round(btc.Quote["USD"].Price, 2),
		EUR:       round(btc.Quote["EUR"].Price, 2),
		FetchedAt: p.now(),
		Source:    SourceCoinMarketCap,
	}, nil
}

type binanceTicker struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

// FetchBinance queries the Binance ticker for BTCUSDT and, best effort, BTCEUR.
func (p *CryptoProvider) FetchBinance(ctx context.Context) (model.BitcoinPrices, error) {
	endpoint := p.cfg.BinanceURL + "/api/v3/ticker/price"

	usd, err := p.binancePrice(ctx, endpoint, "BTCUSDT")
	if err != nil {
		return model.BitcoinPrices{}, err
	}

	eur, err := p.binancePrice(ctx, endpoint, "BTCEUR")
	if err != nil {
		log.Debug().Err(err).Msg("BTCEUR price unavailable on Binance")
		eur = 0
	}

	return model.BitcoinPrices{
		USD:       usd,
		EUR:       eur,
		FetchedAt: p.now(),
		Source:    SourceBinance,
	}, nil
}

func (p *CryptoProvider) binancePrice(ctx context.Context, endpoint, symbol string) (float64, error) {
	var resp binanceTicker
	if err := p.client.GetJSON(ctx, endpoint, url.Values{"symbol": {symbol}}, nil, &resp); err != nil {
		return 0, err
	}
	if resp.Price == "" {
		return 0, fmt.Errorf("%s %s: %w", SourceBinance, symbol, ErrNoData)
	}
	price, err := strconv.ParseFloat(resp.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("%s %s: parse price %q: %w", SourceBinance, symbol, resp.Price, err)
	}
	return round(price, 2), nil
}

func roundPtr(v *float64) float64 {
	if v == nil {
		return 0
	}
	return round(*v, 2)
}
