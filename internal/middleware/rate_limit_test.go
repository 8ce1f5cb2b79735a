package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestNewShardedRateLimiter(t *testing.T) {
	tests := []struct {
		name       string
		numShards  int
		window     time.Duration
		wantShards int
		wantWindow time.Duration
	}{
		{"default shards when zero", 0, time.Minute, defaultNumShards, time.Minute},
		{"default shards when negative", -1, time.Minute, defaultNumShards, time.Minute},
		{"custom shard count", 8, time.Second, 8, time.Second},
		{"default window", 4, 0, 4, time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewShardedRateLimiter(10, tt.window, tt.numShards)
			defer rl.Stop()

			assert.Len(t, rl.shards, tt.wantShards)
			assert.Equal(t, tt.wantWindow, rl.window)
		})
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name        string
		rate        int
		requests    int
		wantAllowed int
	}{
		{"all requests allowed under limit", 5, 3, 3},
		{"requests blocked over limit", 3, 5, 3},
		{"exactly at limit", 2, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.rate, time.Minute)
			defer rl.Stop()

			allowed := 0
			for i := 0; i < tt.requests; i++ {
				if ok, _ := rl.allow("10.0.0.1"); ok {
					allowed++
				}
			}
			assert.Equal(t, tt.wantAllowed, allowed)
		})
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)
	defer rl.Stop()

	ok, _ := rl.allow("a")
	assert.True(t, ok)
	ok, _ = rl.allow("a")
	assert.False(t, ok)

	time.Sleep(30 * time.Millisecond)
	ok, _ = rl.allow("a")
	assert.True(t, ok)
}

func TestRateLimiter_RateLimit(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()

	router := gin.New()
	router.Use(RequestID(), rl.RateLimit())
	router.GET("/api/cache/stats", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/cache/stats", nil))
		codes = append(codes, w.Code)
		last = w
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, "2", last.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", last.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", last.Header().Get("Retry-After"))
	assert.Contains(t, last.Body.String(), "rate_limit_exceeded")
}

func TestRateLimiter_CleanupExpired(t *testing.T) {
	rl := NewRateLimiter(5, time.Millisecond)
	defer rl.Stop()

	rl.allow("a")
	rl.allow("b")
	assert.Equal(t, 2, rl.Visitors())

	time.Sleep(5 * time.Millisecond)
	rl.cleanupExpired()
	assert.Zero(t, rl.Visitors())
}

func TestRateLimiter_StopTwice(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	rl.Stop()
	assert.NotPanics(t, rl.Stop)
}
