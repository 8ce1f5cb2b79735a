package refresh

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/internal/metrics"
)

var (
	// ErrDisplay wraps every failure reported by the Display.
	ErrDisplay = errors.New("display operation failed")
	// ErrInvalidPosition is returned for a screen index outside 1..total.
	ErrInvalidPosition = errors.New("invalid screen position")
)

// Display is the panel capability driven by the engine. Every call blocks for
// the hardware refresh latency.
type Display interface {
	FullRepaint(ctx context.Context, frame image.Image) error
	SetPartialBaseline(ctx context.Context, frame image.Image) error
	PartialRepaint(ctx context.Context, frame image.Image) error
	Sleep(ctx context.Context) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithFullRefreshPeriod sets the periodic full repaint threshold.
func WithFullRefreshPeriod(period int) Option {
	return func(e *Engine) {
		e.period = period
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// Engine applies refresh decisions to a Display. OnFrame calls are serialized;
// State may be read concurrently.
type Engine struct {
	display Display
	period  int
	logger  zerolog.Logger

	frameMu sync.Mutex
	mu      sync.RWMutex
	state   State
}

// NewEngine creates an engine in the uninitialized state.
func NewEngine(display Display, opts ...Option) *Engine {
	e := &Engine{
		display: display,
		period:  DefaultFullRefreshPeriod,
		logger:  log.Logger.With().Str("component", "refresh").Logger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// OnFrame pushes frame for the screen at the 1-based index of a cycle of
// total screens. A nil frame returns Skipped without touching the display.
// Display failures are returned wrapped in ErrDisplay and leave the state as
// it was, except that a successful full repaint followed by a failed baseline
// commit is recorded so the next frame retries the baseline.
func (e *Engine) OnFrame(ctx context.Context, frame image.Image, index, total int) (Action, error) {
	if frame == nil {
		metrics.RecordRefresh(Skipped.String(), 0, nil)
		e.logger.Debug().Int("screen_index", index).Msg("Skipping frame without data")
		return Skipped, nil
	}
	if total < 1 || index < 1 || index > total {
		return Skipped, fmt.Errorf("%w: %d/%d", ErrInvalidPosition, index, total)
	}

	e.frameMu.Lock()
	defer e.frameMu.Unlock()

	current := e.State()
	next, action := Transition(current, frame, index, total, e.period)

	start := time.Now()
	err := e.apply(ctx, action, frame)
	metrics.RecordRefresh(action.String(), time.Since(start), err)

	if err != nil {
		var baselineErr *baselineError
		if errors.As(err, &baselineErr) {
			e.commit(withoutBaseline(next))
		}
		e.logger.Error().Err(err).
			Str("action", action.String()).
			Int("screen_index", index).
			Int("total_screens", total).
			Msg("Display refresh failed")
		return action, err
	}

	e.commit(next)
	e.logger.Debug().
		Str("action", action.String()).
		Int("screen_index", index).
		Int("total_screens", total).
		Int("cycle_count", next.CycleCount).
		Int("frames_since_full_refresh", next.FramesSinceFullRefresh).
		Dur("duration", time.Since(start)).
		Msg("Frame pushed")
	return action, nil
}

// baselineError marks a failed baseline commit that followed a successful full repaint.
type baselineError struct {
	err error
}

func (b *baselineError) Error() string { return b.err.Error() }
func (b *baselineError) Unwrap() error { return b.err }

func (e *Engine) apply(ctx context.Context, action Action, frame image.Image) error {
	switch action {
	case FullRepaint:
		if err := e.display.FullRepaint(ctx, frame); err != nil {
			return fmt.Errorf("%w: full repaint: %w", ErrDisplay, err)
		}
		if err := e.display.SetPartialBaseline(ctx, frame); err != nil {
			return &baselineError{err: fmt.Errorf("%w: set partial baseline: %w", ErrDisplay, err)}
		}
	case PartialBaselineInit:
		if err := e.display.SetPartialBaseline(ctx, frame); err != nil {
			return fmt.Errorf("%w: set partial baseline: %w", ErrDisplay, err)
		}
	case PartialRepaint:
		if err := e.display.PartialRepaint(ctx, frame); err != nil {
			return fmt.Errorf("%w: partial repaint: %w", ErrDisplay, err)
		}
	}
	return nil
}

func (e *Engine) commit(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Reset returns the engine to the uninitialized state. Call it whenever the
// display has been reinitialized.
func (e *Engine) Reset() {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	e.commit(State{})
	e.logger.Info().Msg("Refresh state reset")
}

// State returns a snapshot of the current refresh state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// FullRefreshPeriod returns the periodic full repaint threshold.
func (e *Engine) FullRefreshPeriod() int {
	return e.period
}

// Sleep puts the display into its low power mode.
func (e *Engine) Sleep(ctx context.Context) error {
	e.frameMu.Lock()
	defer e.frameMu.Unlock()
	if err := e.display.Sleep(ctx); err != nil {
		return fmt.Errorf("%w: sleep: %w", ErrDisplay, err)
	}
	return nil
}
