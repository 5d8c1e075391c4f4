// Package repair implements the interactive mask repair engine: a
// display-resolution editing surface over a full-resolution segmentation
// result, with brush strokes, bounded undo/redo, and commit back to native
// size. All work happens on down-sampled buffers, so stroke latency does not
// depend on how large the source photo is.
package repair

import (
	"image"
	"math"
)

// Mapping places a full-resolution image inside a letterboxed canvas: the
// image is scaled to fit, never above 1:1, and centered.
type Mapping struct {
	Scale    float64 // display pixels per image pixel, in (0, 1]
	DisplayW int
	DisplayH int
	OffsetX  int // left letterbox margin in canvas pixels
	OffsetY  int // top letterbox margin in canvas pixels
}

// NewMapping computes letterbox geometry for an iw by ih image on a cw by ch
// canvas. Small images are centered unscaled rather than blown up.
func NewMapping(cw, ch, iw, ih int) Mapping {
	scale := math.Min(float64(cw)/float64(iw), float64(ch)/float64(ih))
	if scale > 1 {
		scale = 1
	}
	dw := int(math.Round(float64(iw) * scale))
	dh := int(math.Round(float64(ih) * scale))
	// Extreme aspect ratios can round a dimension away entirely; keep at
	// least one row and column so the display buffer is never empty.
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	return Mapping{
		Scale:    scale,
		DisplayW: dw,
		DisplayH: dh,
		OffsetX:  (cw - dw) / 2,
		OffsetY:  (ch - dh) / 2,
	}
}

// ToDisplay converts a canvas-space point to display-buffer coordinates,
// clamped to the buffer bounds.
func (m Mapping) ToDisplay(p image.Point) image.Point {
	x := p.X - m.OffsetX
	y := p.Y - m.OffsetY
	if x < 0 {
		x = 0
	} else if x >= m.DisplayW {
		x = m.DisplayW - 1
	}
	if y < 0 {
		y = 0
	} else if y >= m.DisplayH {
		y = m.DisplayH - 1
	}
	return image.Point{X: x, Y: y}
}
