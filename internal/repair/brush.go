package repair

import (
	"image"
	"math"
)

// Mode selects what a brush stamp writes.
type Mode int

const (
	// ModeRestore copies the reference photo back into the stamp and makes
	// it fully opaque.
	ModeRestore Mode = iota
	// ModeErase clears alpha inside the stamp. Color channels stay, so the
	// pixel keeps its value under the transparency.
	ModeErase
)

func (m Mode) String() string {
	switch m {
	case ModeRestore:
		return "Restore"
	case ModeErase:
		return "Erase"
	default:
		return "Unknown"
	}
}

// stamp applies one circular brush application at center in display space.
// A pixel belongs to the stamp iff dx*dx+dy*dy <= r*r, a closed disk with no
// anti-aliasing. The iterated box is clamped to the buffer first, so stamps
// partly or fully outside are silently truncated, never an error.
func stamp(buf, ref *image.NRGBA, center image.Point, radius int, mode Mode) {
	b := buf.Bounds()
	minX := center.X - radius
	maxX := center.X + radius
	minY := center.Y - radius
	maxY := center.Y + radius
	if minX < b.Min.X {
		minX = b.Min.X
	}
	if maxX > b.Max.X-1 {
		maxX = b.Max.X - 1
	}
	if minY < b.Min.Y {
		minY = b.Min.Y
	}
	if maxY > b.Max.Y-1 {
		maxY = b.Max.Y - 1
	}

	rr := radius * radius
	for y := minY; y <= maxY; y++ {
		dy := y - center.Y
		for x := minX; x <= maxX; x++ {
			dx := x - center.X
			if dx*dx+dy*dy > rr {
				continue
			}
			i := buf.PixOffset(x, y)
			switch mode {
			case ModeRestore:
				j := ref.PixOffset(x, y)
				buf.Pix[i] = ref.Pix[j]
				buf.Pix[i+1] = ref.Pix[j+1]
				buf.Pix[i+2] = ref.Pix[j+2]
				buf.Pix[i+3] = 0xff
			case ModeErase:
				buf.Pix[i+3] = 0
			}
		}
	}
}

// strokeSegment stamps from just after p0 through p1, interpolating one
// stamp per pixel of travel (minimum one) so fast pointer moves leave no
// gap wider than a display pixel. p0 itself was stamped by the previous
// segment or by the press.
func strokeSegment(buf, ref *image.NRGBA, p0, p1 image.Point, radius int, mode Mode) {
	dx := float64(p1.X - p0.X)
	dy := float64(p1.Y - p0.Y)
	steps := int(math.Round(math.Hypot(dx, dy)))
	if steps < 1 {
		steps = 1
	}
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps)
		p := image.Point{
			X: p0.X + int(math.Round(dx*t)),
			Y: p0.Y + int(math.Round(dy*t)),
		}
		stamp(buf, ref, p, radius, mode)
	}
}
