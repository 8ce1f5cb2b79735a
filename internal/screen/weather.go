package screen

import (
	"context"
	"fmt"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
	"github.com/bruno-farias/raspi-info-ticker/internal/provider"
)

// Weather shows current conditions with a details column on the right.
type Weather struct {
	src Fetcher[model.Weather]
}

func NewWeather(src Fetcher[model.Weather]) *Weather {
	return &Weather{src: src}
}

func (s *Weather) ID() string    { return IDWeather }
func (s *Weather) Title() string { return "Weather" }

func (s *Weather) Fetch(ctx context.Context) (any, bool) {
	r, ok := s.src.Fetch(ctx)
	if !ok {
		return nil, false
	}
	return r, true
}

func (s *Weather) Format(data any) Content {
	r, ok := data.(provider.Result[model.Weather])
	if !ok {
		return failed(s.Title(), "Failed to fetch weather")
	}

	w := r.Value
	city := w.City
	if city == "" {
		city = "Unknown"
	}
	description := w.Description
	if description == "" {
		description = "Unknown"
	}

	return Content{
		Title: s.Title(),
		Lines: []string{
			fmt.Sprintf("%s: %.1f°C", city, w.Temperature),
			description,
		},
		Details: []string{
			fmt.Sprintf("Range: %.1f°C - %.1f°C", w.TempMin, w.TempMax),
			fmt.Sprintf("Humidity: %d%%", w.Humidity),
			fmt.Sprintf("Wind: %.1fm/s", w.WindSpeed),
		},
		Icon:     w.Icon,
		DataTime: w.FetchedAt,
		Cached:   r.Cached,
		HasData:  true,
	}
}
