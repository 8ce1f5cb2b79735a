package http

import (
	"github.com/gin-gonic/gin"

	"github.com/bruno-farias/raspi-info-ticker/internal/middleware"
)

// registerCacheRoutes mounts the cache endpoints. Mutations need an API key
// when keys are configured.
func registerCacheRoutes(api *gin.RouterGroup, h *Handler, cfg *RouterConfig) {
	group := api.Group("/cache")
	group.GET("/stats", h.CacheStats)

	protected := group.Group("", middleware.APIKeyAuth(cfg.APIKeys))
	protected.POST("/sweep", h.SweepCache)
	protected.DELETE("", h.ClearCache)
	protected.DELETE("/:key", h.InvalidateCacheKey)
}

func registerDisplayRoutes(api *gin.RouterGroup, h *Handler) {
	group := api.Group("/display")
	group.GET("/state", h.DisplayStateHandler)
	group.GET("/frame.png", h.DisplayFrame)
}

func registerHistoryRoutes(api *gin.RouterGroup, h *Handler) {
	api.GET("/history", h.History)
}
