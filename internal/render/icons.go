package render

import (
	"image"

	"github.com/bruno-farias/raspi-info-ticker/internal/provider"
)

const iconSize = 16

// drawIcon draws a 16x16 glyph for an OpenWeatherMap icon code with its top
// left corner at (x, y).
func drawIcon(img *image.Paletted, code string, x, y int) {
	kind, night := provider.Icon(code)
	switch kind {
	case provider.IconClear:
		if night {
			moon(img, x+8, y+8)
		} else {
			sun(img, x+8, y+8)
		}
	case provider.IconFewClouds:
		sun(img, x+5, y+5)
		cloud(img, x+2, y+6)
	case provider.IconClouds:
		cloud(img, x, y+3)
	case provider.IconShowerRain, provider.IconRain:
		cloud(img, x, y)
		for i := 0; i < 3; i++ {
			vline(img, x+3+i*5, y+11, y+15)
		}
	case provider.IconThunderstorm:
		cloud(img, x, y)
		bolt(img, x+7, y+9)
	case provider.IconSnow:
		cloud(img, x, y)
		for i := 0; i < 3; i++ {
			dot(img, x+3+i*5, y+13)
		}
	case provider.IconMist:
		for i := 0; i < 4; i++ {
			hline(img, x+(i%2)*2, x+iconSize-(1-i%2)*2, y+3+i*4)
		}
	}
}

func circle(img *image.Paletted, cx, cy, r int, filled bool) {
	for dy := -r; dy <= r; dy++ {
		for dx := -r; dx <= r; dx++ {
			d := dx*dx + dy*dy
			if d > r*r {
				continue
			}
			if filled || d > (r-1)*(r-1) {
				img.SetColorIndex(cx+dx, cy+dy, 1)
			}
		}
	}
}

func sun(img *image.Paletted, cx, cy int) {
	circle(img, cx, cy, 4, true)
	for _, p := range [][2]int{{0, -7}, {0, 7}, {-7, 0}, {7, 0}, {-5, -5}, {5, 5}, {-5, 5}, {5, -5}} {
		img.SetColorIndex(cx+p[0], cy+p[1], 1)
	}
}

func moon(img *image.Paletted, cx, cy int) {
	circle(img, cx, cy, 6, true)
	for dy := -6; dy <= 6; dy++ {
		for dx := -6; dx <= 6; dx++ {
			if (dx-3)*(dx-3)+(dy+2)*(dy+2) <= 25 {
				img.SetColorIndex(cx+dx, cy+dy, 0)
			}
		}
	}
}

// cloud fills a 16x10 area starting at (x, y).
func cloud(img *image.Paletted, x, y int) {
	circle(img, x+5, y+5, 4, true)
	circle(img, x+10, y+4, 4, true)
	for yy := y + 6; yy < y+10; yy++ {
		hline(img, x+2, x+15, yy)
	}
}

func vline(img *image.Paletted, x, y0, y1 int) {
	for y := y0; y < y1; y++ {
		img.SetColorIndex(x, y, 1)
	}
}

func dot(img *image.Paletted, x, y int) {
	img.SetColorIndex(x, y, 1)
	img.SetColorIndex(x+1, y, 1)
	img.SetColorIndex(x, y+1, 1)
	img.SetColorIndex(x+1, y+1, 1)
}

func bolt(img *image.Paletted, x, y int) {
	for i := 0; i < 3; i++ {
		img.SetColorIndex(x-i, y+i, 1)
		img.SetColorIndex(x-i+2, y+i+3, 1)
	}
	hline(img, x-2, x+3, y+3)
}
