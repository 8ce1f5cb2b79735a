package provider

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
)

// SourceOpenWeather names the OpenWeatherMap source.
const SourceOpenWeather = "openweathermap"

// WeatherCategory is the cache category of weather data.
const WeatherCategory = "weather"

// WeatherConfig configures the weather provider.
type WeatherConfig struct {
	APIKey  string
	City    string
	State   string
	Country string
	BaseURL string
}

// WeatherProvider fetches current weather from OpenWeatherMap.
type WeatherProvider struct {
	client *Client
	cfg    WeatherConfig
	now    func() time.Time
}

// NewWeatherProvider creates a provider for the configured location.
func NewWeatherProvider(client *Client, cfg WeatherConfig) *WeatherProvider {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openweathermap.org"
	}
	return &WeatherProvider{
		client: client,
		cfg:    cfg,
		now:    time.Now,
	}
}

// Configured reports whether both an API key and a city are set.
func (p *WeatherProvider) Configured() bool {
	return p.cfg.APIKey != "" && p.cfg.City != ""
}

// CacheKey returns the per-location cache key.
func (p *WeatherProvider) CacheKey() string {
	return fmt.Sprintf("weather_%s_%s", p.cfg.City, p.cfg.Country)
}

// Location returns the "city,state,country" query, omitting empty parts.
func (p *WeatherProvider) Location() string {
	parts := []string{p.cfg.City}
	if p.cfg.State != "" {
		parts = append(parts, p.cfg.State)
	}
	if p.cfg.Country != "" {
		parts = append(parts, p.cfg.Country)
	}
	return strings.Join(parts, ",")
}

// Sources returns the upstreams, or none when the provider is not configured.
func (p *WeatherProvider) Sources() []Source[model.Weather] {
	if !p.Configured() {
		return nil
	}
	return []Source[model.Weather]{{Name: SourceOpenWeather, Fetch: p.Fetch}}
}

type openWeatherResponse struct {
	Name string `json:"name"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Sys struct {
		Country string `json:"country"`
	} `json:"sys"`
}

// Fetch returns the current weather in metric units.
func (p *WeatherProvider) Fetch(ctx context.Context) (model.Weather, error) {
	if !p.Configured() {
		return model.Weather{}, fmt.Errorf("%s: %w", SourceOpenWeather, ErrNotConfigured)
	}

	query := url.Values{}
	query.Set("q", p.Location())
	query.Set("appid", p.cfg.APIKey)
	query.Set("units", "metric")

	var resp openWeatherResponse
	if err := p.client.GetJSON(ctx, p.cfg.BaseURL+"/data/2.5/weather", query, nil, &resp); err != nil {
		return model.Weather{}, err
	}
	return p.toModel(resp), nil
}

func (p *WeatherProvider) toModel(resp openWeatherResponse) model.Weather {
	w := model.Weather{
		City:        resp.Name,
		Country:     resp.Sys.Country,
		Temperature: round(resp.Main.Temp, 1),
		FeelsLike:   round(resp.Main.FeelsLike, 1),
		TempMin:     round(resp.Main.TempMin, 1),
		TempMax:     round(resp.Main.TempMax, 1),
		Main:        "Unknown",
		Description: "Unknown",
		Icon:        DefaultIcon,
		Humidity:    resp.Main.Humidity,
		Pressure:    resp.Main.Pressure,
		WindSpeed:   round(resp.Wind.Speed, 1),
		FetchedAt:   p.now(),
		Source:      SourceOpenWeather,
	}
	if w.City == "" {
		w.City = p.cfg.City
	}
	if w.Country == "" {
		w.Country = p.cfg.Country
	}
	if len(resp.Weather) > 0 {
		cond := resp.Weather[0]
		if cond.Main != "" {
			w.Main = cond.Main
		}
		if cond.Description != "" {
			w.Description = cases.Title(language.English).String(cond.Description)
		}
		if cond.Icon != "" {
			w.Icon = cond.Icon
		}
	}
	return w
}
