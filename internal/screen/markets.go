package screen

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
	"github.com/bruno-farias/raspi-info-ticker/internal/provider"
)

// ExchangeRates shows fiat pairs against the base currency.
type ExchangeRates struct {
	src Fetcher[model.ExchangeRates]
}

func NewExchangeRates(src Fetcher[model.ExchangeRates]) *ExchangeRates {
	return &ExchangeRates{src: src}
}

func (s *ExchangeRates) ID() string    { return IDExchangeRates }
func (s *ExchangeRates) Title() string { return "Exchange Rates" }

func (s *ExchangeRates) Fetch(ctx context.Context) (any, bool) {
	r, ok := s.src.Fetch(ctx)
	if !ok {
		return nil, false
	}
	return r, true
}

func (s *ExchangeRates) Format(data any) Content {
	r, ok := data.(provider.Result[model.ExchangeRates])
	if !ok || len(r.Value.Rates) == 0 {
		return failed(s.Title(), "Failed to fetch rates")
	}

	lines := make([]string, 0, len(r.Value.Rates))
	for _, rate := range r.Value.Rates {
		lines = append(lines, fmt.Sprintf("%s: %s", rate.Pair, formatRate(rate.Value)))
	}
	return Content{
		Title:    s.Title(),
		Lines:    lines,
		DataTime: r.Value.FetchedAt,
		Cached:   r.Cached,
		HasData:  true,
	}
}

// BitcoinPrices shows BTC quotes in USD and EUR.
type BitcoinPrices struct {
	src Fetcher[model.BitcoinPrices]
}

func NewBitcoinPrices(src Fetcher[model.BitcoinPrices]) *BitcoinPrices {
	return &BitcoinPrices{src: src}
}

func (s *BitcoinPrices) ID() string    { return IDBitcoinPrices }
func (s *BitcoinPrices) Title() string { return "Bitcoin Prices" }

func (s *BitcoinPrices) Fetch(ctx context.Context) (any, bool) {
	r, ok := s.src.Fetch(ctx)
	if !ok {
		return nil, false
	}
	return r, true
}

// Format skips a currency the source had no quote for.
func (s *BitcoinPrices) Format(data any) Content {
	r, ok := data.(provider.Result[model.BitcoinPrices])
	if !ok {
		return failed(s.Title(), "Failed to fetch BTC rates")
	}

	var lines, details []string
	if r.Value.USD != 0 {
		lines = append(lines, "BTC/USD: $"+formatPrice(r.Value.USD))
	}
	if r.Value.EUR != 0 {
		lines = append(lines, "BTC/EUR: €"+formatPrice(r.Value.EUR))
	}
	if len(lines) == 0 {
		return failed(s.Title(), "Failed to fetch BTC rates")
	}
	if c := r.Value.USDChange24h; c != nil {
		details = append(details, fmt.Sprintf("24h: %+.2f%%", *c))
	}
	if r.Fallback {
		details = append(details, "via "+r.Source)
	}

	return Content{
		Title:    s.Title(),
		Lines:    lines,
		Details:  details,
		DataTime: r.Value.FetchedAt,
		Cached:   r.Cached,
		HasData:  true,
	}
}

var printer = message.NewPrinter(language.English)

// formatPrice groups thousands and keeps at most two decimals: 65432.1 -> "65,432.1".
func formatPrice(v float64) string {
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(2)))
}

func formatRate(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return printer.Sprint(number.Decimal(v, number.MaxFractionDigits(4)))
}
