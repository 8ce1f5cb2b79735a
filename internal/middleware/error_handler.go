package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/dto"
	"github.com/bruno-farias/raspi-info-ticker/internal/logger"
)

// ErrorHandler logs errors attached with c.Error and answers 500 when the
// handler wrote nothing.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()
		requestID := GetRequestID(c)

		log := logger.WithComponent("http")
		log.Error().
			Str("request_id", requestID).
			Str("error", err.Error()).
			Str("path", c.Request.URL.Path).
			Str("method", c.Request.Method).
			Msg("Request error")

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError,
				dto.NewError(dto.ErrCodeInternal, "An unexpected error occurred").WithRequestID(requestID))
		}
	}
}
