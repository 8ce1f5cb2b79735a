//go:build !integration

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bruno-farias/raspi-info-ticker/internal/cache"
	"github.com/bruno-farias/raspi-info-ticker/internal/display"
	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
	"github.com/bruno-farias/raspi-info-ticker/internal/mocks"
	"github.com/bruno-farias/raspi-info-ticker/internal/refresh"
	"github.com/bruno-farias/raspi-info-ticker/internal/render"
	"github.com/bruno-farias/raspi-info-ticker/internal/repository"
	"github.com/bruno-farias/raspi-info-ticker/internal/screen"
	"github.com/bruno-farias/raspi-info-ticker/internal/ticker"
)

type staticStatus ticker.Status

func (s staticStatus) Status() ticker.Status { return ticker.Status(s) }

type testEnv struct {
	store   *cache.Store
	device  *display.Simulated
	engine  *refresh.Engine
	history *mocks.MockHistoryRepository
	router  *gin.Engine
	now     time.Time
}

func newTestEnv(t *testing.T, keys map[string]bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := &testEnv{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	env.store = cache.NewStore(cache.NewPolicy(60, map[string]int{"weather": 300}),
		cache.WithClock(func() time.Time { return env.now }))
	env.device = display.NewSimulated("")
	require.NoError(t, env.device.Init(context.Background()))
	env.engine = refresh.NewEngine(env.device)
	env.history = &mocks.MockHistoryRepository{}

	h := NewHandler(env.store, env.engine, staticStatus{SessionID: "session-1", Running: true},
		WithHistory(env.history),
		WithFrameSource(env.device, render.New()),
	)
	cfg := DefaultRouterConfig()
	cfg.RateLimit = 0
	cfg.APIKeys = keys
	router, stop := NewRouter(h, NewHealthHandler(), cfg)
	t.Cleanup(stop)
	env.router = router
	return env
}

func (e *testEnv) do(method, target string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data      T      `json:"data"`
		RequestID string `json:"request_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	assert.NotEmpty(t, resp.RequestID)
	return resp.Data
}

func TestHandler_CacheStats(t *testing.T) {
	env := newTestEnv(t, nil)
	env.store.Set("rates_BRL_USD_EUR", 1)
	env.store.SetWithTTL("weather_x", 2, 10)
	env.now = env.now.Add(30 * time.Second)

	w := env.do(http.MethodGet, "/api/cache/stats", nil)

	require.Equal(t, http.StatusOK, w.Code)
	stats := decodeData[cache.Stats](t, w)
	assert.Equal(t, 2, stats.TotalEntries)
	assert.Equal(t, 1, stats.ValidEntries)
	assert.Equal(t, 1, stats.ExpiredEntries)
	assert.Equal(t, 60, stats.DefaultTTL)
	assert.Equal(t, map[string]int{"weather": 300}, stats.CategoryOverrides)
}

func TestHandler_CacheMutations(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		target      string
		wantRemoved *int
		wantLeft    int
	}{
		{"sweep removes expired", http.MethodPost, "/api/cache/sweep", intPtr(1), 2},
		{"clear removes everything", http.MethodDelete, "/api/cache", intPtr(3), 0},
		{"invalidate removes one key", http.MethodDelete, "/api/cache/btc_prices", nil, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil)
			env.store.Set("btc_prices", 1)
			env.store.Set("rates", 2)
			env.store.SetWithTTL("short", 3, 5)
			env.now = env.now.Add(10 * time.Second)

			w := env.do(tt.method, tt.target, nil)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			if tt.wantRemoved != nil {
				body := decodeData[map[string]int](t, w)
				assert.Equal(t, *tt.wantRemoved, body["removed"])
			}
			assert.Equal(t, tt.wantLeft, env.store.Stats().TotalEntries)
		})
	}
}

func TestHandler_CacheMutationsRequireAPIKey(t *testing.T) {
	env := newTestEnv(t, map[string]bool{"secret": true})
	env.store.Set("rates", 1)

	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/api/cache/stats", nil).Code, "reads stay public")
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodDelete, "/api/cache", nil).Code)
	assert.Equal(t, 1, env.store.Stats().TotalEntries)

	w := env.do(http.MethodDelete, "/api/cache", map[string]string{"X-API-Key": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, env.store.Stats().TotalEntries)
}

func TestHandler_DisplayState(t *testing.T) {
	env := newTestEnv(t, nil)
	frame := render.New().Render(screen.Content{Title: "Weather", HasData: true}, 1, 3)
	_, err := env.engine.OnFrame(context.Background(), frame, 1, 3)
	require.NoError(t, err)

	w := env.do(http.MethodGet, "/api/display/state", nil)

	require.Equal(t, http.StatusOK, w.Code)
	state := decodeData[map[string]any](t, w)
	assert.EqualValues(t, refresh.DefaultFullRefreshPeriod, state["full_refresh_period"])

	rs := state["refresh"].(map[string]any)
	assert.Equal(t, true, rs["initialized"])
	assert.Equal(t, true, rs["partial_baseline_ready"])
	assert.EqualValues(t, 1, rs["last_screen_index"])
	assert.NotContains(t, rs, "BaselineFrame")

	assert.Equal(t, "session-1", state["session"].(map[string]any)["session_id"])
	last := state["last_frame"].(map[string]any)
	assert.Equal(t, display.ModeBaseline, last["mode"])
	assert.EqualValues(t, 2, last["count"])
}

func TestHandler_DisplayFrame(t *testing.T) {
	t.Run("placeholder before the first push", func(t *testing.T) {
		env := newTestEnv(t, nil)

		w := env.do(http.MethodGet, "/api/display/frame.png", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, "none", w.Header().Get("X-Frame-Mode"))
		img, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		require.NoError(t, err)
		assert.Equal(t, render.Width, img.Bounds().Dx())
		assert.Equal(t, render.Height, img.Bounds().Dy())
	})

	t.Run("last pushed frame", func(t *testing.T) {
		env := newTestEnv(t, nil)
		frame := render.New().Render(screen.Content{Title: "Clock"}, 1, 1)
		require.NoError(t, env.device.FullRepaint(context.Background(), frame))

		w := env.do(http.MethodGet, "/api/display/frame.png", map[string]string{"Accept-Encoding": "gzip"})

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, display.ModeFull, w.Header().Get("X-Frame-Mode"))
		assert.Equal(t, "1", w.Header().Get("X-Frame-Count"))
		assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
		assert.Empty(t, w.Header().Get("Content-Encoding"))
		_, err := png.Decode(bytes.NewReader(w.Body.Bytes()))
		assert.NoError(t, err)
	})
}

func TestHandler_DisplayFrameWithoutSource(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(cache.NewStore(cache.NewPolicy(60, nil)), refresh.NewEngine(&mocks.MockDisplay{}), staticStatus{})
	router, stop := NewRouter(h, NewHealthHandler(), RouterConfig{})
	defer stop()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/display/frame.png", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestHandler_History(t *testing.T) {
	events := []model.RefreshEvent{{ID: "e1", Screen: "weather", Action: "full_repaint"}}

	t.Run("passes filters to the repository", func(t *testing.T) {
		env := newTestEnv(t, nil)
		matchQuery := mock.MatchedBy(func(q repository.HistoryQuery) bool {
			return q.Screen == "weather" && q.Action == "full_repaint" && q.Limit == 10 && q.Skip == 5 &&
				q.Since != nil && q.Since.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) && q.Until == nil
		})
		env.history.On("Query", mock.Anything, matchQuery).Return(events, nil)
		env.history.On("Count", mock.Anything, matchQuery).Return(int64(42), nil)

		w := env.do(http.MethodGet, "/api/history?screen=weather&action=full_repaint&limit=10&skip=5&since=2024-05-01T00:00:00Z", nil)

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		page := decodeData[map[string]any](t, w)
		assert.EqualValues(t, 42, page["total"])
		assert.EqualValues(t, 10, page["limit"])
		assert.Len(t, page["events"], 1)
		env.history.AssertExpectations(t)
	})

	t.Run("rejects invalid filters", func(t *testing.T) {
		env := newTestEnv(t, nil)

		w := env.do(http.MethodGet, "/api/history?limit=0&action=explode&since=yesterday&session_id=abc", nil)

		require.Equal(t, http.StatusBadRequest, w.Code)
		var resp struct {
			Error   string            `json:"error"`
			Details map[string]string `json:"details"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "invalid_request", resp.Error)
		assert.Contains(t, resp.Details, "limit")
		assert.Contains(t, resp.Details, "action")
		assert.Contains(t, resp.Details, "since")
		assert.Contains(t, resp.Details, "session_id")
		env.history.AssertNotCalled(t, "Query", mock.Anything, mock.Anything)
	})

	t.Run("store failure is 503", func(t *testing.T) {
		env := newTestEnv(t, nil)
		env.history.On("Query", mock.Anything, mock.Anything).Return(nil, errors.New("circuit breaker is open"))

		w := env.do(http.MethodGet, "/api/history", nil)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), "unavailable")
	})
}

func TestHandler_HistoryDefaultsToNoop(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHandler(cache.NewStore(cache.NewPolicy(60, nil)), refresh.NewEngine(&mocks.MockDisplay{}), staticStatus{}, WithHistory(nil))
	router, stop := NewRouter(h, NewHealthHandler(), RouterConfig{})
	defer stop()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/history", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":0`)
}

func intPtr(v int) *int { return &v }
