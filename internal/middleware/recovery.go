package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/dto"
	"github.com/bruno-farias/raspi-info-ticker/internal/logger"
)

// Recovery turns a handler panic into a 500 response. The ticker loop runs in
// its own goroutine and is not affected.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log := logger.WithComponent("http")
				log.Error().
					Str("request_id", GetRequestID(c)).
					Str("path", c.Request.URL.Path).
					Interface("panic", err).
					Msg("PANIC recovered")

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					dto.NewError(dto.ErrCodeInternal, "An unexpected error occurred").WithRequestID(GetRequestID(c)))
			}
		}()
		c.Next()
	}
}
