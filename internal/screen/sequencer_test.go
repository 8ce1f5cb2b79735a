//go:build !integration

package screen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

func allScreens() []Screen {
	return []Screen{
		NewExchangeRates(&stubFetcher[model.ExchangeRates]{}),
		NewBitcoinPrices(&stubFetcher[model.BitcoinPrices]{}),
		NewWeather(&stubFetcher[model.Weather]{}),
		NewClock(time.Now),
	}
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		raw      string
		expected []string
	}{
		{"weather,bitcoin_prices", []string{"weather", "bitcoin_prices"}},
		{" Weather , CLOCK ,", []string{"weather", "clock"}},
		{"", nil},
		{",,", nil},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseOrder(tt.raw))
		})
	}
}

func TestNewSequencer_Order(t *testing.T) {
	tests := []struct {
		name     string
		order    []string
		expected []string
	}{
		{
			name:     "custom order",
			order:    []string{"bitcoin_prices", "exchange_rates", "weather"},
			expected: []string{"bitcoin_prices", "exchange_rates", "weather"},
		},
		{
			name:     "unknown ids skipped",
			order:    []string{"weather", "stocks", "clock"},
			expected: []string{"weather", "clock"},
		},
		{
			name:     "duplicates skipped",
			order:    []string{"clock", "clock", "weather"},
			expected: []string{"clock", "weather"},
		},
		{
			name:     "empty order uses default",
			order:    nil,
			expected: DefaultOrder,
		},
		{
			name:     "nothing known uses default",
			order:    []string{"stocks"},
			expected: DefaultOrder,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seq, err := NewSequencer(tt.order, allScreens()...)

			require.NoError(t, err)
			assert.Equal(t, tt.expected, seq.IDs())
			assert.Equal(t, len(tt.expected), seq.Total())
		})
	}
}

func TestNewSequencer_NoScreens(t *testing.T) {
	_, err := NewSequencer([]string{"weather"})

	assert.ErrorIs(t, err, ErrNoScreens)
}

func TestSequencer_Cycles(t *testing.T) {
	seq, err := NewSequencer([]string{"bitcoin_prices", "weather"}, allScreens()...)
	require.NoError(t, err)

	assert.Equal(t, IDBitcoinPrices, seq.Current().ID())
	assert.Equal(t, 1, seq.Position())
	assert.Equal(t, IDWeather, seq.Peek().ID())

	assert.Equal(t, IDWeather, seq.Next().ID())
	assert.Equal(t, 2, seq.Position())
	assert.Equal(t, IDBitcoinPrices, seq.Peek().ID())

	assert.Equal(t, IDBitcoinPrices, seq.Next().ID())
	assert.Equal(t, 1, seq.Position())
}

func TestSequencer_SingleScreenPeeksItself(t *testing.T) {
	seq, err := NewSequencer([]string{"clock"}, allScreens()...)
	require.NoError(t, err)

	assert.Equal(t, IDClock, seq.Peek().ID())
	assert.Equal(t, IDClock, seq.Next().ID())
	assert.Equal(t, 1, seq.Position())
}
