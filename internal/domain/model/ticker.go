// Package model defines the data shown on the ticker screens.
package model

import "time"

// Rate is one fiat pair, e.g. USD/BRL.
type Rate struct {
	Currency string  `json:"currency"`
	Pair     string  `json:"pair"`
	Value    float64 `json:"value"`
}

// ExchangeRates holds the value of each target currency in the base currency.
// A Value of 0 means the upstream did not report that currency.
type ExchangeRates struct {
	Base      string    `json:"base_currency"`
	Rates     []Rate    `json:"rates"`
	FetchedAt time.Time `json:"fetched_at"`
	Source    string    `json:"source"`
}

// BitcoinPrices holds BTC spot prices. Zero means the source had no quote.
type BitcoinPrices struct {
	USD          float64   `json:"usd"`
	EUR          float64   `json:"eur"`
	USDChange24h *float64  `json:"usd_24h_change,omitempty"`
	EURChange24h *float64  `json:"eur_24h_change,omitempty"`
	FetchedAt    time.Time `json:"fetched_at"`
	Source       string    `json:"source"`
}

// Weather is the current weather at the configured location, in metric units.
type Weather struct {
	City        string    `json:"city"`
	Country     string    `json:"country"`
	Temperature float64   `json:"temperature"`
	FeelsLike   float64   `json:"feels_like"`
	TempMin     float64   `json:"temp_min"`
	TempMax     float64   `json:"temp_max"`
	Main        string    `json:"weather_main"`
	Description string    `json:"weather_description"`
	Icon        string    `json:"weather_icon"`
	Humidity    int       `json:"humidity"`
	Pressure    int       `json:"pressure"`
	WindSpeed   float64   `json:"wind_speed"`
	FetchedAt   time.Time `json:"fetched_at"`
	Source      string    `json:"source"`
}

// RefreshEvent records one frame pushed (or skipped) by the ticker loop.
type RefreshEvent struct {
	ID                     string    `json:"id"`
	SessionID              string    `json:"session_id"`
	Screen                 string    `json:"screen"`
	ScreenIndex            int       `json:"screen_index"`
	TotalScreens           int       `json:"total_screens"`
	Action                 string    `json:"action"`
	CycleCount             int       `json:"cycle_count"`
	FramesSinceFullRefresh int       `json:"frames_since_full_refresh"`
	HasData                bool      `json:"has_data"`
	Cached                 bool      `json:"cached"`
	DurationMs             int64     `json:"duration_ms"`
	Error                  string    `json:"error,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}
