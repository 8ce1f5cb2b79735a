// Package display implements the panel capabilities driven by the refresh
// engine: a PNG-writing simulator and a decorator streaming frames to
// preview clients.
package display

import (
	"context"
	"errors"
	"image"
	"time"

	"github.com/bruno-farias/raspi-info-ticker/internal/refresh"
)

// Refresh modes reported with each pushed frame.
const (
	ModeFull     = "full"
	ModeBaseline = "baseline"
	ModePartial  = "partial"
)

var ErrClosed = errors.New("display is asleep")

// Device is a panel the ticker can (re)initialise and drive.
type Device interface {
	refresh.Display
	Init(ctx context.Context) error
}

// Snapshot is the last frame pushed to a device.
type Snapshot struct {
	Frame image.Image
	Mode  string
	At    time.Time
	Count int
}

// FrameSource exposes the last pushed frame for diagnostics.
type FrameSource interface {
	LastFrame() (Snapshot, bool)
}
