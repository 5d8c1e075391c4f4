package repair

import (
	"image"

	"cutout-studio/internal/imaging"
)

// displayCache holds the down-sampled editing surfaces for one session: the
// editable result buffer and the read-only reference, always the same size.
type displayCache struct {
	mapping Mapping
	buf     *image.NRGBA // editable result at display resolution
	ref     *image.NRGBA // reference photo at display resolution, opaque
}

// buildDisplayCache resamples the full-resolution result and reference down
// to the mapping's display size. This is the only point where native pixels
// are read during an editing session; every stroke afterwards touches
// display-sized buffers only.
func buildDisplayCache(m Mapping, result, reference *image.NRGBA) *displayCache {
	return &displayCache{
		mapping: m,
		buf:     imaging.Resample(result, m.DisplayW, m.DisplayH, imaging.FilterSmooth),
		ref:     imaging.ToOpaque(imaging.Resample(reference, m.DisplayW, m.DisplayH, imaging.FilterSmooth)),
	}
}
