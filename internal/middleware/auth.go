package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/dto"
)

const (
	APIKeyHeader = "X-API-Key"
	APIKeyQuery  = "api_key"
)

// APIKeyAuth guards mutating endpoints. The X-API-Key header is checked
// first, then the api_key query parameter. With no keys configured every
// request passes.
func APIKeyAuth(validKeys map[string]bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(validKeys) == 0 {
			c.Next()
			return
		}

		key := c.GetHeader(APIKeyHeader)
		if key == "" {
			key = c.Query(APIKeyQuery)
		}

		switch {
		case key == "":
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewError(dto.ErrCodeUnauthorized, "API key is required").WithRequestID(GetRequestID(c)))
			return
		case !validKeys[key]:
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				dto.NewError(dto.ErrCodeUnauthorized, "Invalid API key").WithRequestID(GetRequestID(c)))
			return
		}

		c.Next()
	}
}
