package app

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/bruno-farias/raspi-info-ticker/config"
	"github.com/bruno-farias/raspi-info-ticker/internal/http"
	"github.com/bruno-farias/raspi-info-ticker/internal/render"
	"github.com/bruno-farias/raspi-info-ticker/internal/ticker"
)

var errTickerStopped = errors.New("ticker is not running")

// InitializeRouter wires the diagnostics handlers. The returned function
// stops the router's background work.
func InitializeRouter(a *App, cfg config.Config) (*gin.Engine, func()) {
	opts := []http.HandlerOption{
		http.WithFrameSource(a.Display.Device, render.New()),
	}
	if repo := a.History.repo(); repo != nil {
		opts = append(opts, http.WithHistory(repo))
	}
	handler := http.NewHandler(a.Screens.Store, a.Engine, a.Session, opts...)

	health := http.NewHealthHandler()
	for name, cb := range a.Screens.Breakers {
		health.RegisterCircuitBreaker(name, cb)
	}
	if a.History != nil {
		health.RegisterCircuitBreaker(historyBreakerName, a.History.CircuitBreaker)
	}
	health.RegisterChecker("ticker", tickerCheck(a.Session))

	routerCfg := http.DefaultRouterConfig()
	routerCfg.RateLimit = cfg.Server.RateLimit
	routerCfg.RateWindow = cfg.Server.RateWindow
	routerCfg.APIKeys = cfg.Server.APIKeys
	routerCfg.CORSOrigins = cfg.Server.CORSOrigins
	routerCfg.Stream = http.NewFrameStream(a.Display.Hub, cfg.Server.CORSOrigins)

	return http.NewRouter(handler, health, routerCfg)
}

func tickerCheck(session *ticker.Session) http.CheckFunc {
	return func() error {
		if !session.Status().Running {
			return errTickerStopped
		}
		return nil
	}
}
