// Package screen defines the information screens shown by the ticker and the
// sequencer that cycles through them.
package screen

import (
	"context"
	"time"

	"github.com/bruno-farias/raspi-info-ticker/internal/provider"
)

// Screen identifiers accepted in SCREEN_ORDER.
const (
	IDExchangeRates = "exchange_rates"
	IDBitcoinPrices = "bitcoin_prices"
	IDWeather       = "weather"
	IDClock         = "clock"
)

// Screen is one page of the cycle. Fetch returns false when no data is
// available; Format must accept whatever Fetch returned, including nil.
type Screen interface {
	ID() string
	Title() string
	Fetch(ctx context.Context) (any, bool)
	Format(data any) Content
}

// Fetcher is the cache-aware data source behind a screen.
// *provider.Cached satisfies it.
type Fetcher[T any] interface {
	Fetch(ctx context.Context) (provider.Result[T], bool)
}

// Content is the formatted, render-ready view of a screen.
type Content struct {
	Title    string    `json:"title"`
	Lines    []string  `json:"lines"`
	Details  []string  `json:"details,omitempty"`
	Icon     string    `json:"icon,omitempty"`
	DataTime time.Time `json:"data_time"`
	Cached   bool      `json:"cached"`
	HasData  bool      `json:"has_data"`
}

// DataLabel is the footer text describing when the shown data was fetched.
func (c Content) DataLabel() string {
	if c.DataTime.IsZero() {
		return "Data: N/A"
	}
	label := "Data: " + c.DataTime.Format(time.TimeOnly)
	if c.Cached {
		label += " (cached)"
	}
	return label
}

func failed(title, line string) Content {
	return Content{Title: title, Lines: []string{line}}
}
