package app

import (
	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/display"
	"github.com/bruno-farias/raspi-info-ticker/internal/realtime"
)

// DisplayComponents holds the device the ticker drives and the hub that
// fans its frames out to live preview clients.
type DisplayComponents struct {
	Device *display.Broadcasting
	Hub    *realtime.Hub
}

// InitializeDisplay builds the simulated panel. No hardware driver is
// compiled in, so simulation=false falls back to the simulator.
func InitializeDisplay(cfg config.DisplayConfig) *DisplayComponents {
	if !cfg.Simulation {
		log.Warn().Msg("Hardware display driver not available, using simulator")
	}
	log.Info().Str("output", cfg.Output).Msg("Display simulation enabled")

	hub := realtime.NewHub()
	return &DisplayComponents{
		Device: display.NewBroadcasting(display.NewSimulated(cfg.Output), hub),
		Hub:    hub,
	}
}
