// Package render draws screen content onto a 250x122 black and white raster
// sized for a 2.13" e-paper panel.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/bruno-farias/raspi-info-ticker/internal/screen"
)

// Panel size in pixels, landscape.
const (
	Width  = 250
	Height = 122
)

const (
	margin      = 8
	lineHeight  = 15
	titleBase   = 15
	bodyBase    = 35
	footerData  = 103
	footerClock = 116
	detailsX    = 128
	maxLines    = 4
)

// Palette index 0 is white so a fresh frame is blank paper.
var Palette = color.Palette{color.White, color.Black}

var glyphs = strings.NewReplacer("€", "EUR")

type Option func(*Renderer)

// WithClock sets the clock used for the "Screen:" footer.
func WithClock(now func() time.Time) Option {
	return func(r *Renderer) { r.now = now }
}

// Renderer draws screen.Content. It holds no per-frame state and is safe for
// concurrent use.
type Renderer struct {
	face font.Face
	now  func() time.Time
}

func New(opts ...Option) *Renderer {
	r := &Renderer{face: basicfont.Face7x13, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render draws content for the screen at the 1-based index of a cycle of total screens.
func (r *Renderer) Render(c screen.Content, index, total int) *image.Paletted {
	img := image.NewPaletted(image.Rect(0, 0, Width, Height), Palette)

	r.text(img, margin, titleBase, c.Title, Width-2*margin-24)
	hline(img, margin, Width-margin, titleBase+5)
	if c.Icon != "" {
		drawIcon(img, c.Icon, Width-margin-18, 2)
	}

	leftWidth := Width - 2*margin
	if len(c.Details) > 0 {
		leftWidth = detailsX - margin - 4
	}
	for i, line := range limit(c.Lines) {
		r.text(img, margin, bodyBase+i*lineHeight, line, leftWidth)
	}
	for i, line := range limit(c.Details) {
		r.text(img, detailsX, bodyBase+i*lineHeight, line, Width-detailsX-margin)
	}

	r.text(img, margin, footerData, c.DataLabel(), Width-2*margin)
	r.text(img, margin, footerClock, "Screen: "+r.now().Format(time.TimeOnly), Width-2*margin)
	if total > 0 {
		pager := fmt.Sprintf("%d/%d", index, total)
		r.text(img, Width-margin-r.width(pager), footerClock, pager, Width)
	}

	border := 1
	if c.HasData {
		border = 2
	}
	rect(img, border)
	return img
}

// Placeholder draws the "data unavailable" frame for a screen.
func (r *Renderer) Placeholder(title string, index, total int) *image.Paletted {
	return r.Render(screen.Content{Title: title, Lines: []string{"Data unavailable"}}, index, total)
}

func (r *Renderer) width(s string) int {
	return font.MeasureString(r.face, s).Ceil()
}

// text draws s with its baseline at y, cut to fit maxWidth pixels.
func (r *Renderer) text(img *image.Paletted, x, y int, s string, maxWidth int) {
	s = glyphs.Replace(s)
	for s != "" && r.width(s) > maxWidth {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: r.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func limit(lines []string) []string {
	if len(lines) > maxLines {
		return lines[:maxLines]
	}
	return lines
}

func hline(img *image.Paletted, x0, x1, y int) {
	for x := x0; x < x1; x++ {
		img.SetColorIndex(x, y, 1)
	}
}

func rect(img *image.Paletted, width int) {
	for w := 0; w < width; w++ {
		for x := w; x < Width-w; x++ {
			img.SetColorIndex(x, w, 1)
			img.SetColorIndex(x, Height-1-w, 1)
		}
		for y := w; y < Height-w; y++ {
			img.SetColorIndex(w, y, 1)
			img.SetColorIndex(Width-1-w, y, 1)
		}
	}
}

// EncodePNG writes img as PNG.
func EncodePNG(w io.Writer, img image.Image) error {
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}
