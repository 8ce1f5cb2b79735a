package display

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/internal/render"
)

// Simulated stands in for the e-paper panel. Every pushed frame is kept in
// memory and, when a path is set, written there as PNG.
type Simulated struct {
	path   string
	now    func() time.Time
	logger zerolog.Logger

	mu     sync.RWMutex
	last   Snapshot
	has    bool
	asleep bool
}

// NewSimulated creates a simulator writing to path. An empty path keeps frames in memory only.
func NewSimulated(path string) *Simulated {
	return &Simulated{
		path:   path,
		now:    time.Now,
		logger: log.Logger.With().Str("component", "display").Logger(),
	}
}

// Init clears the simulated panel and wakes it up.
func (d *Simulated) Init(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.last = Snapshot{}
	d.has = false
	d.asleep = false
	d.logger.Info().Str("output", d.path).Msg("Simulated display initialized")
	return nil
}

func (d *Simulated) FullRepaint(ctx context.Context, frame image.Image) error {
	return d.push(ctx, frame, ModeFull)
}

func (d *Simulated) SetPartialBaseline(ctx context.Context, frame image.Image) error {
	return d.push(ctx, frame, ModeBaseline)
}

func (d *Simulated) PartialRepaint(ctx context.Context, frame image.Image) error {
	return d.push(ctx, frame, ModePartial)
}

// Sleep puts the simulated panel to sleep. Frames pushed afterwards fail
// with ErrClosed until Init is called again.
func (d *Simulated) Sleep(context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.asleep = true
	d.logger.Info().Msg("Simulated display put to sleep")
	return nil
}

// LastFrame returns the most recent frame.
func (d *Simulated) LastFrame() (Snapshot, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.last, d.has
}

func (d *Simulated) push(ctx context.Context, frame image.Image, mode string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.asleep {
		return ErrClosed
	}

	if d.path != "" {
		if err := writeAtomic(d.path, frame); err != nil {
			return err
		}
	}
	d.last = Snapshot{Frame: frame, Mode: mode, At: d.now(), Count: d.last.Count + 1}
	d.has = true
	d.logger.Debug().Str("mode", mode).Str("output", d.path).Msg("Frame pushed")
	return nil
}

// writeAtomic encodes frame to a temporary file next to path and renames it
// into place so readers never see a partial PNG.
func writeAtomic(path string, frame image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("create frame file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render.EncodePNG(tmp, frame); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close frame file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace frame file: %w", err)
	}
	return nil
}
