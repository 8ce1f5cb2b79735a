package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/bruno-farias/raspi-info-ticker/internal/domain/dto"
)

func TestAPIKeyAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	keys := map[string]bool{"pi-admin": true}

	tests := []struct {
		name           string
		keys           map[string]bool
		header         string
		query          string
		expectedStatus int
		expectedMsg    string
	}{
		{name: "header key", keys: keys, header: "pi-admin", expectedStatus: http.StatusNoContent},
		{name: "query key", keys: keys, query: "pi-admin", expectedStatus: http.StatusNoContent},
		{name: "header wins over query", keys: keys, header: "pi-admin", query: "wrong", expectedStatus: http.StatusNoContent},
		{name: "missing key", keys: keys, expectedStatus: http.StatusUnauthorized, expectedMsg: "API key is required"},
		{name: "unknown key", keys: keys, header: "guest", expectedStatus: http.StatusUnauthorized, expectedMsg: "Invalid API key"},
		{name: "open when no keys configured", keys: nil, expectedStatus: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(RequestID())
			router.DELETE("/api/cache", APIKeyAuth(tt.keys), func(c *gin.Context) {
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/cache", nil)
			if tt.header != "" {
				req.Header.Set(APIKeyHeader, tt.header)
			}
			if tt.query != "" {
				req.URL.RawQuery = APIKeyQuery + "=" + tt.query
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedMsg != "" {
				resp := decodeError(t, w)
				assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error)
				assert.Equal(t, tt.expectedMsg, resp.Message)
				assert.NotEmpty(t, resp.RequestID)
			}
		})
	}
}
