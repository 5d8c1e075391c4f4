// Package maskstats summarizes the alpha channel of a segmentation result
// for status reporting.
package maskstats

import (
	"image"

	"gonum.org/v1/gonum/stat"
)

// Stats describes the transparency mask of one result image.
type Stats struct {
	Width  int
	Height int

	OpaqueFraction  float64 // share of pixels at alpha 255
	ClearFraction   float64 // share of pixels at alpha 0
	PartialFraction float64 // share of semi-transparent pixels

	MeanAlpha   float64 // 0-255
	StdDevAlpha float64

	// Subject is the bounding box of all pixels with any visibility
	// (alpha > 0). Zero when the mask is fully transparent.
	Subject image.Rectangle
}

// Summary scans img once and computes its mask statistics.
func Summary(img *image.NRGBA) Stats {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	s := Stats{Width: w, Height: h}
	if w == 0 || h == 0 {
		return s
	}

	alphas := make([]float64, 0, w*h)
	var opaque, clear int
	minX, minY := w, h
	maxX, maxY := -1, -1
	for y := 0; y < h; y++ {
		i := img.PixOffset(b.Min.X, b.Min.Y+y) + 3
		for x := 0; x < w; x++ {
			a := img.Pix[i]
			i += 4
			alphas = append(alphas, float64(a))
			switch a {
			case 255:
				opaque++
			case 0:
				clear++
			}
			if a > 0 {
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}

	total := w * h
	s.OpaqueFraction = float64(opaque) / float64(total)
	s.ClearFraction = float64(clear) / float64(total)
	s.PartialFraction = float64(total-opaque-clear) / float64(total)
	s.MeanAlpha = stat.Mean(alphas, nil)
	s.StdDevAlpha = stat.StdDev(alphas, nil)
	if maxX >= 0 {
		s.Subject = image.Rect(minX, minY, maxX+1, maxY+1)
	}
	return s
}
