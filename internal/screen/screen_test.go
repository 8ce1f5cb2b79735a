//go:build !integration

package screen

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
	"github.com/bruno-farias/raspi-info-ticker/internal/provider"
)

type stubFetcher[T any] struct {
	result provider.Result[T]
	ok     bool
	calls  int
}

func (f *stubFetcher[T]) Fetch(context.Context) (provider.Result[T], bool) {
	f.calls++
	return f.result, f.ok
}

var fetchedAt = time.Date(2024, 5, 1, 10, 30, 15, 0, time.UTC)

func TestExchangeRates_Format(t *testing.T) {
	tests := []struct {
		name     string
		data     any
		expected Content
	}{
		{
			name: "formats each pair",
			data: provider.Result[model.ExchangeRates]{
				Value: model.ExchangeRates{
					Base: "BRL",
					Rates: []model.Rate{
						{Currency: "USD", Pair: "USD/BRL", Value: 5.25},
						{Currency: "EUR", Pair: "EUR/BRL", Value: 5.8824},
					},
					FetchedAt: fetchedAt,
				},
			},
			expected: Content{
				Title:    "Exchange Rates",
				Lines:    []string{"USD/BRL: 5.25", "EUR/BRL: 5.8824"},
				DataTime: fetchedAt,
				HasData:  true,
			},
		},
		{
			name: "missing rate shows N/A",
			data: provider.Result[model.ExchangeRates]{
				Value: model.ExchangeRates{
					Rates:     []model.Rate{{Currency: "EUR", Pair: "EUR/BRL"}},
					FetchedAt: fetchedAt,
				},
				Cached: true,
			},
			expected: Content{
				Title:    "Exchange Rates",
				Lines:    []string{"EUR/BRL: N/A"},
				DataTime: fetchedAt,
				Cached:   true,
				HasData:  true,
			},
		},
		{
			name:     "no data",
			data:     nil,
			expected: Content{Title: "Exchange Rates", Lines: []string{"Failed to fetch rates"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewExchangeRates(&stubFetcher[model.ExchangeRates]{})
			assert.Equal(t, tt.expected, s.Format(tt.data))
		})
	}
}

func TestBitcoinPrices_Format(t *testing.T) {
	change := 1.5
	tests := []struct {
		name            string
		data            any
		expectedLines   []string
		expectedDetails []string
		expectedHasData bool
	}{
		{
			name: "groups thousands",
			data: provider.Result[model.BitcoinPrices]{
				Value: model.BitcoinPrices{USD: 65432.1, EUR: 60123.45, FetchedAt: fetchedAt},
			},
			expectedLines:   []string{"BTC/USD: $65,432.1", "BTC/EUR: €60,123.45"},
			expectedHasData: true,
		},
		{
			name: "fallback source without eur",
			data: provider.Result[model.BitcoinPrices]{
				Value:    model.BitcoinPrices{USD: 64000, USDChange24h: &change, FetchedAt: fetchedAt},
				Source:   "binance",
				Fallback: true,
			},
			expectedLines:   []string{"BTC/USD: $64,000"},
			expectedDetails: []string{"24h: +1.50%", "via binance"},
			expectedHasData: true,
		},
		{
			name:          "no quotes",
			data:          provider.Result[model.BitcoinPrices]{},
			expectedLines: []string{"Failed to fetch BTC rates"},
		},
		{
			name:          "no data",
			data:          nil,
			expectedLines: []string{"Failed to fetch BTC rates"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewBitcoinPrices(&stubFetcher[model.BitcoinPrices]{}).Format(tt.data)

			assert.Equal(t, "Bitcoin Prices", c.Title)
			assert.Equal(t, tt.expectedLines, c.Lines)
			assert.Equal(t, tt.expectedDetails, c.Details)
			assert.Equal(t, tt.expectedHasData, c.HasData)
		})
	}
}

func TestWeather_Format(t *testing.T) {
	s := NewWeather(&stubFetcher[model.Weather]{})

	c := s.Format(provider.Result[model.Weather]{
		Value: model.Weather{
			City:        "Vienna",
			Temperature: 22.5,
			Description: "Clear Sky",
			Icon:        "01d",
			TempMin:     18,
			TempMax:     25,
			Humidity:    65,
			WindSpeed:   3.2,
			FetchedAt:   fetchedAt,
		},
		Cached: true,
	})

	assert.Equal(t, []string{"Vienna: 22.5°C", "Clear Sky"}, c.Lines)
	assert.Equal(t, []string{"Range: 18.0°C - 25.0°C", "Humidity: 65%", "Wind: 3.2m/s"}, c.Details)
	assert.Equal(t, "01d", c.Icon)
	assert.Equal(t, "Data: 10:30:15 (cached)", c.DataLabel())
}

func TestWeather_FormatMissingFields(t *testing.T) {
	s := NewWeather(&stubFetcher[model.Weather]{})

	c := s.Format(provider.Result[model.Weather]{Value: model.Weather{Temperature: 22.5}})

	assert.Equal(t, []string{"Unknown: 22.5°C", "Unknown"}, c.Lines)
	assert.Equal(t, []string{"Range: 0.0°C - 0.0°C", "Humidity: 0%", "Wind: 0.0m/s"}, c.Details)
	assert.Equal(t, "Data: N/A", c.DataLabel())
}

func TestWeather_FormatNoData(t *testing.T) {
	c := NewWeather(&stubFetcher[model.Weather]{}).Format(nil)

	assert.Equal(t, []string{"Failed to fetch weather"}, c.Lines)
	assert.Empty(t, c.Details)
	assert.False(t, c.HasData)
}

func TestScreen_FetchPassesThroughResult(t *testing.T) {
	src := &stubFetcher[model.Weather]{
		result: provider.Result[model.Weather]{Value: model.Weather{City: "Vienna"}},
		ok:     true,
	}
	s := NewWeather(src)

	data, ok := s.Fetch(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Vienna: 0.0°C", s.Format(data).Lines[0])

	src.ok = false
	data, ok = s.Fetch(context.Background())
	assert.False(t, ok)
	assert.Nil(t, data)
	assert.Equal(t, 2, src.calls)
}

func TestClock(t *testing.T) {
	now := time.Date(2024, 12, 24, 18, 5, 0, 0, time.UTC)
	s := NewClock(func() time.Time { return now })

	data, ok := s.Fetch(context.Background())
	require.True(t, ok)

	c := s.Format(data)
	assert.Equal(t, "Clock", c.Title)
	assert.Equal(t, []string{"18:05", "Tue, 24 Dec 2024"}, c.Lines)
	assert.Equal(t, "Data: 18:05:00", c.DataLabel())
}
