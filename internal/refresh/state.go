// Package refresh decides how each rendered frame reaches the e-paper panel.
//
// Full repaints clear ghosting but flash the panel; partial repaints are fast
// but accumulate artifacts. The decision is a pure function of State so it can
// be tested without hardware; Engine applies the decision to a Display.
package refresh

import (
	"image"
)

// DefaultFullRefreshPeriod forces a full repaint on every 20th frame.
const DefaultFullRefreshPeriod = 20

// Action is the repaint strategy chosen for a frame.
type Action int

const (
	// Skipped means no display operation ran and the state is unchanged.
	Skipped Action = iota
	// FullRepaint redraws the whole panel and commits the frame as partial baseline.
	FullRepaint
	// PartialBaselineInit commits the frame as partial baseline after a failed commit.
	PartialBaselineInit
	// PartialRepaint updates the panel incrementally against the baseline.
	PartialRepaint
)

// String returns the action name used in logs and metrics.
func (a Action) String() string {
	switch a {
	case Skipped:
		return "skipped"
	case FullRepaint:
		return "full_repaint"
	case PartialBaselineInit:
		return "partial_baseline_init"
	case PartialRepaint:
		return "partial_repaint"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// State is the refresh bookkeeping of one display session. It is a value:
// transitions return a new State and never mutate the receiver.
type State struct {
	Initialized            bool        `json:"initialized"`
	CycleCount             int         `json:"cycle_count"`
	LastScreenIndex        int         `json:"last_screen_index"`
	PartialBaselineReady   bool        `json:"partial_baseline_ready"`
	BaselineFrame          image.Image `json:"-"`
	FramesSinceFullRefresh int         `json:"frames_since_full_refresh"`
}

// IsCycleBoundary reports whether a frame at index closes a full screen cycle.
// With a single screen every frame after the first is a boundary.
func IsCycleBoundary(s State, index, total int) bool {
	return s.Initialized && index == 1 && s.LastScreenIndex == total
}

// Decide picks the action for a non-nil frame at the 1-based index of a
// cycle of total screens. A period <= 0 disables periodic full repaints.
func Decide(s State, index, total, period int) Action {
	switch {
	case !s.Initialized:
		return FullRepaint
	case IsCycleBoundary(s, index, total):
		return FullRepaint
	case !s.PartialBaselineReady:
		return PartialBaselineInit
	case period > 0 && s.FramesSinceFullRefresh+1 >= period:
		return FullRepaint
	default:
		return PartialRepaint
	}
}

// Advance returns the state after action has been applied successfully to
// frame. FramesSinceFullRefresh counts the frame that reset it; only a full
// repaint resets it.
func Advance(s State, action Action, frame image.Image, index, total int) State {
	next := s
	switch action {
	case Skipped:
		return s
	case FullRepaint:
		if IsCycleBoundary(s, index, total) {
			next.CycleCount++
		}
		next.Initialized = true
		next.BaselineFrame = frame
		next.PartialBaselineReady = true
		next.FramesSinceFullRefresh = 1
	case PartialBaselineInit:
		next.BaselineFrame = frame
		next.PartialBaselineReady = true
		next.FramesSinceFullRefresh++
	case PartialRepaint:
		next.FramesSinceFullRefresh++
	}
	next.LastScreenIndex = index
	return next
}

// Transition combines Decide and Advance for a frame. A nil frame is Skipped.
func Transition(s State, frame image.Image, index, total, period int) (State, Action) {
	if frame == nil {
		return s, Skipped
	}
	action := Decide(s, index, total, period)
	return Advance(s, action, frame, index, total), action
}

// withoutBaseline is the state after a full repaint whose baseline commit failed.
func withoutBaseline(s State) State {
	s.PartialBaselineReady = false
	return s
}
