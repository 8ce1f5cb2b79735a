// Package http exposes the ticker's diagnostics API: cache inspection,
// refresh state, the last pushed frame, refresh history and a live frame
// stream.
package http

import (
	"bytes"
	"image"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bruno-farias/raspi-info-ticker/internal/cache"
	"github.com/bruno-farias/raspi-info-ticker/internal/display"
	"github.com/bruno-farias/raspi-info-ticker/internal/refresh"
	"github.com/bruno-farias/raspi-info-ticker/internal/render"
	"github.com/bruno-farias/raspi-info-ticker/internal/repository"
	"github.com/bruno-farias/raspi-info-ticker/internal/ticker"
)

// CacheService is the part of the cache store the API touches.
type CacheService interface {
	Stats() cache.Stats
	SweepExpired() int
	Clear() int
	Invalidate(key string)
}

// RefreshStateSource reports the refresh engine's bookkeeping.
type RefreshStateSource interface {
	State() refresh.State
	FullRefreshPeriod() int
}

// SessionStatusSource reports the ticker loop status.
type SessionStatusSource interface {
	Status() ticker.Status
}

// PlaceholderRenderer draws the frame served before the first push.
type PlaceholderRenderer interface {
	Placeholder(title string, index, total int) *image.Paletted
}

// Handler serves the /api routes.
type Handler struct {
	cache    CacheService
	engine   RefreshStateSource
	session  SessionStatusSource
	frames   display.FrameSource
	renderer PlaceholderRenderer
	history  repository.HistoryRepositoryInterface
}

type HandlerOption func(*Handler)

func WithHistory(history repository.HistoryRepositoryInterface) HandlerOption {
	return func(h *Handler) {
		if history != nil {
			h.history = history
		}
	}
}

func WithFrameSource(frames display.FrameSource, renderer PlaceholderRenderer) HandlerOption {
	return func(h *Handler) {
		h.frames = frames
		h.renderer = renderer
	}
}

func NewHandler(store CacheService, engine RefreshStateSource, session SessionStatusSource, opts ...HandlerOption) *Handler {
	h := &Handler{
		cache:   store,
		engine:  engine,
		session: session,
		history: repository.NoopHistory{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CacheStats handles GET /api/cache/stats.
func (h *Handler) CacheStats(c *gin.Context) {
	NewResponseBuilder(c).SuccessOK(h.cache.Stats())
}

// SweepCache handles POST /api/cache/sweep.
func (h *Handler) SweepCache(c *gin.Context) {
	removed := h.cache.SweepExpired()
	NewResponseBuilder(c).SuccessOK(gin.H{"removed": removed})
}

// ClearCache handles DELETE /api/cache.
func (h *Handler) ClearCache(c *gin.Context) {
	removed := h.cache.Clear()
	NewResponseBuilder(c).SuccessOK(gin.H{"removed": removed})
}

// InvalidateCacheKey handles DELETE /api/cache/:key.
func (h *Handler) InvalidateCacheKey(c *gin.Context) {
	key := c.Param("key")
	h.cache.Invalidate(key)
	NewResponseBuilder(c).SuccessOK(gin.H{"key": key})
}

// FrameInfo describes the last pushed frame without its pixels.
type FrameInfo struct {
	Mode  string    `json:"mode"`
	At    time.Time `json:"at"`
	Count int       `json:"count"`
}

// DisplayState is the body of GET /api/display/state.
type DisplayState struct {
	Refresh           refresh.State `json:"refresh"`
	FullRefreshPeriod int           `json:"full_refresh_period"`
	Session           ticker.Status `json:"session"`
	LastFrame         *FrameInfo    `json:"last_frame,omitempty"`
}

// DisplayStateHandler handles GET /api/display/state.
func (h *Handler) DisplayStateHandler(c *gin.Context) {
	state := DisplayState{
		Refresh:           h.engine.State(),
		FullRefreshPeriod: h.engine.FullRefreshPeriod(),
		Session:           h.session.Status(),
	}
	if h.frames != nil {
		if snap, ok := h.frames.LastFrame(); ok {
			state.LastFrame = &FrameInfo{Mode: snap.Mode, At: snap.At, Count: snap.Count}
		}
	}
	NewResponseBuilder(c).SuccessOK(state)
}

// DisplayFrame handles GET /api/display/frame.png. Before the first push it
// serves a placeholder so dashboards always get an image.
func (h *Handler) DisplayFrame(c *gin.Context) {
	if h.frames == nil {
		NewResponseBuilder(c).Error(http.StatusNotFound, "Frame preview is not available", nil)
		return
	}

	var frame image.Image
	mode := "none"
	snap, ok := h.frames.LastFrame()
	switch {
	case ok:
		frame, mode = snap.Frame, snap.Mode
		c.Header("X-Frame-Count", strconv.Itoa(snap.Count))
		c.Header("Last-Modified", snap.At.UTC().Format(http.TimeFormat))
	case h.renderer != nil:
		frame = h.renderer.Placeholder("Waiting for first frame", 1, 1)
	default:
		NewResponseBuilder(c).Error(http.StatusNotFound, "No frame has been pushed yet", nil)
		return
	}

	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, frame); err != nil {
		NewResponseBuilder(c).Error(http.StatusInternalServerError, "Failed to encode frame", err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Frame-Mode", mode)
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

// HistoryPage is the body of GET /api/history.
type HistoryPage struct {
	Events any   `json:"events"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Skip   int   `json:"skip"`
}

// History handles GET /api/history.
func (h *Handler) History(c *gin.Context) {
	builder := NewResponseBuilder(c)
	q, problems := BuildHistoryQuery(c)
	if problems != nil {
		builder.ErrorWithDetails(http.StatusBadRequest, "Invalid history query", problems, nil)
		return
	}

	ctx := c.Request.Context()
	events, err := h.history.Query(ctx, q)
	if err != nil {
		builder.Error(http.StatusServiceUnavailable, "Refresh history is unavailable", err)
		return
	}
	total, err := h.history.Count(ctx, q)
	if err != nil {
		builder.Error(http.StatusServiceUnavailable, "Refresh history is unavailable", err)
		return
	}
	builder.SuccessOK(HistoryPage{Events: events, Total: total, Limit: q.Limit, Skip: q.Skip})
}
