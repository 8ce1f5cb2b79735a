package display

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/bruno-farias/raspi-info-ticker/internal/render"
)

// Publisher delivers messages to live preview clients.
type Publisher interface {
	Broadcast(message []byte) int
	Count() int
}

// FrameMessage is the JSON document sent for every pushed frame. PNG is
// base64 encoded by encoding/json.
type FrameMessage struct {
	Type string    `json:"type"`
	Mode string    `json:"mode"`
	PNG  []byte    `json:"png"`
	At   time.Time `json:"at"`
}

// Broadcasting forwards every successful push to a Publisher.
type Broadcasting struct {
	Device
	pub Publisher
	now func() time.Time
}

func NewBroadcasting(inner Device, pub Publisher) *Broadcasting {
	return &Broadcasting{Device: inner, pub: pub, now: time.Now}
}

func (b *Broadcasting) FullRepaint(ctx context.Context, frame image.Image) error {
	if err := b.Device.FullRepaint(ctx, frame); err != nil {
		return err
	}
	b.publish(frame, ModeFull)
	return nil
}

func (b *Broadcasting) SetPartialBaseline(ctx context.Context, frame image.Image) error {
	if err := b.Device.SetPartialBaseline(ctx, frame); err != nil {
		return err
	}
	b.publish(frame, ModeBaseline)
	return nil
}

func (b *Broadcasting) PartialRepaint(ctx context.Context, frame image.Image) error {
	if err := b.Device.PartialRepaint(ctx, frame); err != nil {
		return err
	}
	b.publish(frame, ModePartial)
	return nil
}

// LastFrame delegates to the wrapped device when it keeps frames.
func (b *Broadcasting) LastFrame() (Snapshot, bool) {
	if src, ok := b.Device.(FrameSource); ok {
		return src.LastFrame()
	}
	return Snapshot{}, false
}

func (b *Broadcasting) publish(frame image.Image, mode string) {
	if b.pub.Count() == 0 {
		return
	}
	var buf bytes.Buffer
	if err := render.EncodePNG(&buf, frame); err != nil {
		log.Warn().Err(err).Msg("Failed to encode preview frame")
		return
	}
	msg, err := json.Marshal(FrameMessage{Type: "frame", Mode: mode, PNG: buf.Bytes(), At: b.now()})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to marshal preview frame")
		return
	}
	b.pub.Broadcast(msg)
}
