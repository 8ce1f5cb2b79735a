// Package app wires the ticker, its display and the optional diagnostics
// server together.
package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/logger"
	"github.com/bruno-farias/raspi-info-ticker/internal/refresh"
	"github.com/bruno-farias/raspi-info-ticker/internal/render"
	"github.com/bruno-farias/raspi-info-ticker/internal/ticker"
)

// App is a fully wired ticker.
type App struct {
	Screens *ScreenComponents
	Display *DisplayComponents
	History *HistoryComponents
	Engine  *refresh.Engine
	Session *ticker.Session
	Server  *Server

	stopRouter func()
}

// InitializeApp creates and wires all application dependencies.
func InitializeApp(cfg config.Config) (*App, error) {
	InitializeLogger(cfg.Log)

	screens, err := InitializeScreens(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Screens: screens,
		Display: InitializeDisplay(cfg.Display),
		History: InitializeHistory(cfg.Database, cfg.Breaker),
	}

	a.Engine = refresh.NewEngine(a.Display.Device,
		refresh.WithFullRefreshPeriod(cfg.Display.FullRefreshPeriod),
		refresh.WithLogger(logger.WithComponent("refresh")),
	)

	a.Session = ticker.New(ticker.Config{
		Interval:             cfg.Ticker.Interval,
		SweepEvery:           cfg.Cache.SweepEvery,
		MaxDisplayRecoveries: cfg.Display.MaxRecoveries,
	}, ticker.Deps{
		Sequencer: screens.Sequencer,
		Renderer:  render.New(),
		Engine:    a.Engine,
		Device:    a.Display.Device,
		Cache:     screens.Store,
		History:   a.History.repo(),
	}, ticker.WithLogger(logger.WithComponent("ticker")))

	if cfg.Server.Enabled {
		router, stop := InitializeRouter(a, cfg)
		a.Server = NewServer(router, cfg.Server.Port)
		a.stopRouter = stop
	}

	return a, nil
}

// Run drives the ticker, and the diagnostics server when enabled, until ctx
// is cancelled or the ticker gives up on the display.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	g, gctx := errgroup.WithContext(ctx)
	runCtx, stop := context.WithCancel(gctx)
	defer stop()

	g.Go(func() error {
		defer stop()
		return a.Session.Run(runCtx)
	})
	if a.Server != nil {
		g.Go(func() error {
			return a.Server.Run(runCtx)
		})
	}

	return g.Wait()
}

// Close releases the hub, the router and the database connection.
func (a *App) Close() {
	a.Display.Hub.Close()
	if a.stopRouter != nil {
		a.stopRouter()
		a.stopRouter = nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.History.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to disconnect from MongoDB")
	}
}
