package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bruno-farias/raspi-info-ticker/internal/metrics"
	"github.com/bruno-farias/raspi-info-ticker/internal/middleware"
)

// RouterConfig holds router configuration options.
type RouterConfig struct {
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
	APIKeys        map[string]bool
	CORSOrigins    []string
	Stream         *FrameStream
}

func DefaultRouterConfig() RouterConfig {
	return RouterConfig{
		RateLimit:      100,
		RateWindow:     time.Minute,
		RequestTimeout: middleware.DefaultRequestTimeout,
	}
}

// NewRouter builds the diagnostics router. The returned stop function ends
// the rate limiter's cleanup goroutine.
func NewRouter(handler *Handler, healthHandler *HealthHandler, cfg RouterConfig) (*gin.Engine, func()) {
	router := gin.New()
	stop := configureGlobalMiddleware(router, &cfg)

	healthHandler.Register(router)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	if cfg.Stream != nil {
		router.GET("/ws/frames", cfg.Stream.Handle)
	}

	if handler != nil {
		api := router.Group("/api", middleware.Timeout(cfg.RequestTimeout))
		registerCacheRoutes(api, handler, &cfg)
		registerDisplayRoutes(api, handler)
		registerHistoryRoutes(api, handler)
	}

	return router, stop
}

func configureGlobalMiddleware(router *gin.Engine, cfg *RouterConfig) func() {
	router.Use(
		middleware.CORS(cfg.CORSOrigins),
		middleware.RequestID(),
		middleware.Recovery(),
		metrics.PrometheusMiddleware(),
		middleware.Compression(),
		middleware.RequestLogger(),
		middleware.ErrorHandler(),
	)

	if cfg.RateLimit <= 0 {
		return func() {}
	}
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateWindow)
	router.Use(limiter.RateLimit())
	return limiter.Stop
}
