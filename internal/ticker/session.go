// Package ticker runs the display loop: fetch, format, render, refresh, wait.
package ticker

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/bruno-farias/raspi-info-ticker/internal/display"
	"github.com/bruno-farias/raspi-info-ticker/internal/domain/model"
	"github.com/bruno-farias/raspi-info-ticker/internal/metrics"
	"github.com/bruno-farias/raspi-info-ticker/internal/refresh"
	"github.com/bruno-farias/raspi-info-ticker/internal/repository"
	"github.com/bruno-farias/raspi-info-ticker/internal/screen"
)

// DefaultInterval is the time each screen stays up.
const DefaultInterval = 10 * time.Second

const (
	historyTimeout  = 2 * time.Second
	shutdownTimeout = 5 * time.Second
)

// ErrTooManyDisplayFailures is returned by Run once recoveries are exhausted.
var ErrTooManyDisplayFailures = errors.New("display kept failing")

// Config controls the loop.
type Config struct {
	Interval             time.Duration
	SweepEvery           int
	MaxDisplayRecoveries int
}

// Renderer turns formatted content into a frame.
type Renderer interface {
	Render(c screen.Content, index, total int) *image.Paletted
}

// Sweeper removes expired cache entries.
type Sweeper interface {
	SweepExpired() int
}

// Deps are the collaborators of a Session.
type Deps struct {
	Sequencer *screen.Sequencer
	Renderer  Renderer
	Engine    *refresh.Engine
	Device    display.Device
	Cache     Sweeper
	History   repository.HistoryRepositoryInterface
}

type Option func(*Session)

// WithAfter replaces time.After, letting tests drive the interval.
func WithAfter(after func(time.Duration) <-chan time.Time) Option {
	return func(s *Session) { s.after = after }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

func WithSessionID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Status is a snapshot of the loop for diagnostics.
type Status struct {
	SessionID           string    `json:"session_id"`
	Running             bool      `json:"running"`
	StartedAt           time.Time `json:"started_at"`
	Iterations          int       `json:"iterations"`
	Screen              string    `json:"screen,omitempty"`
	ScreenIndex         int       `json:"screen_index"`
	TotalScreens        int       `json:"total_screens"`
	LastAction          string    `json:"last_action,omitempty"`
	LastFrameAt         time.Time `json:"last_frame_at"`
	LastError           string    `json:"last_error,omitempty"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	CacheSweeps         int       `json:"cache_sweeps"`
}

// Session owns one run of the display loop. Only Run and Step drive the
// display; Status may be called from any goroutine.
type Session struct {
	id     string
	cfg    Config
	deps   Deps
	after  func(time.Duration) <-chan time.Time
	logger zerolog.Logger

	mu     sync.RWMutex
	status Status
}

func New(cfg Config, deps Deps, opts ...Option) *Session {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.MaxDisplayRecoveries < 0 {
		cfg.MaxDisplayRecoveries = 0
	}
	if deps.History == nil {
		deps.History = repository.NoopHistory{}
	}
	s := &Session{
		id:     uuid.NewString(),
		cfg:    cfg,
		deps:   deps,
		after:  time.After,
		logger: log.Logger.With().Str("component", "ticker").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.status.SessionID = s.id
	s.status.TotalScreens = deps.Sequencer.Total()
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Run initialises the display and cycles through the screens until ctx is
// cancelled. A display failure resets the refresh state and reinitialises the
// display; after MaxDisplayRecoveries consecutive failures Run returns the
// error. The display is always put to sleep before Run returns, including
// when the first initialisation fails.
func (s *Session) Run(ctx context.Context) error {
	defer s.shutdown(ctx)
	if err := s.initDisplay(ctx); err != nil {
		return fmt.Errorf("init display: %w", err)
	}
	s.update(func(st *Status) {
		st.Running = true
		st.StartedAt = time.Now()
	})

	s.logger.Info().
		Str("session_id", s.id).
		Strs("screens", s.deps.Sequencer.IDs()).
		Dur("interval", s.cfg.Interval).
		Msg("Ticker started")

	failures := 0
	for iteration := 1; ; iteration++ {
		if ctx.Err() != nil {
			return nil
		}

		_, err := s.Step(ctx)
		switch {
		case err == nil:
			failures = 0
		case ctx.Err() != nil:
			return nil
		default:
			failures++
			if failures > s.cfg.MaxDisplayRecoveries {
				return fmt.Errorf("%w: %d consecutive failures: %w", ErrTooManyDisplayFailures, failures, err)
			}
			s.logger.Warn().Err(err).Int("attempt", failures).Msg("Recovering display")
			if initErr := s.initDisplay(ctx); initErr != nil {
				s.logger.Error().Err(initErr).Msg("Display reinitialisation failed")
			}
		}
		s.update(func(st *Status) {
			st.Iterations = iteration
			st.ConsecutiveFailures = failures
		})

		if s.cfg.SweepEvery > 0 && iteration%s.cfg.SweepEvery == 0 && s.deps.Cache != nil {
			removed := s.deps.Cache.SweepExpired()
			s.update(func(st *Status) { st.CacheSweeps++ })
			s.logger.Debug().Int("removed", removed).Msg("Cache swept")
		}

		if !s.wait(ctx) {
			return nil
		}
		s.deps.Sequencer.Next()
	}
}

// wait keeps the current frame up for the interval while the next screen's
// data is fetched. It reports false when ctx was cancelled.
func (s *Session) wait(ctx context.Context) bool {
	g, gctx := errgroup.WithContext(ctx)
	current, next := s.deps.Sequencer.Current(), s.deps.Sequencer.Peek()
	if next.ID() != current.ID() {
		g.Go(func() error {
			if _, ok := next.Fetch(gctx); !ok {
				s.logger.Debug().Str("screen", next.ID()).Msg("Prefetch returned no data")
			}
			return nil
		})
	}

	select {
	case <-ctx.Done():
		_ = g.Wait()
		return false
	case <-s.after(s.cfg.Interval):
		_ = g.Wait()
		return true
	}
}

// Step shows the current screen once. The returned error is a display
// failure; missing data only produces a placeholder.
func (s *Session) Step(ctx context.Context) (refresh.Action, error) {
	scr := s.deps.Sequencer.Current()
	index, total := s.deps.Sequencer.Position(), s.deps.Sequencer.Total()
	start := time.Now()

	data, ok := scr.Fetch(ctx)
	if !ok {
		data = nil
	}
	content, frame := s.draw(scr, data, index, total)
	metrics.RecordScreenRendered(scr.ID(), content.HasData)

	action, err := s.deps.Engine.OnFrame(ctx, frame, index, total)
	state := s.deps.Engine.State()

	s.record(ctx, model.RefreshEvent{
		SessionID:              s.id,
		Screen:                 scr.ID(),
		ScreenIndex:            index,
		TotalScreens:           total,
		Action:                 action.String(),
		CycleCount:             state.CycleCount,
		FramesSinceFullRefresh: state.FramesSinceFullRefresh,
		HasData:                content.HasData,
		Cached:                 content.Cached,
		DurationMs:             time.Since(start).Milliseconds(),
		Error:                  errString(err),
	})

	s.update(func(st *Status) {
		st.Screen = scr.ID()
		st.ScreenIndex = index
		st.TotalScreens = total
		st.LastAction = action.String()
		st.LastError = errString(err)
		if err == nil && action != refresh.Skipped {
			st.LastFrameAt = time.Now()
		}
	})

	s.logger.Info().
		Str("screen", scr.ID()).
		Int("screen_index", index).
		Int("total_screens", total).
		Str("action", action.String()).
		Bool("has_data", content.HasData).
		Bool("cached", content.Cached).
		Msg("Screen shown")
	return action, err
}

// draw formats and renders a screen. A panic in either step yields a nil
// frame, which the engine skips.
func (s *Session) draw(scr screen.Screen, data any, index, total int) (content screen.Content, frame image.Image) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Str("screen", scr.ID()).Msg("Rendering failed")
			frame = nil
		}
	}()

	content = scr.Format(data)
	if img := s.deps.Renderer.Render(content, index, total); img != nil {
		frame = img
	}
	return content, frame
}

func (s *Session) record(ctx context.Context, event model.RefreshEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	if err := s.deps.History.Create(ctx, &event); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to record refresh event")
	}
}

func (s *Session) initDisplay(ctx context.Context) error {
	s.deps.Engine.Reset()
	return s.deps.Device.Init(ctx)
}

func (s *Session) shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.deps.Engine.Sleep(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to put display to sleep")
	}
	s.update(func(st *Status) { st.Running = false })
	s.logger.Info().Str("session_id", s.id).Msg("Ticker stopped")
}

func (s *Session) update(fn func(*Status)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.status)
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
