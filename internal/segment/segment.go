// Package segment produces the initial cutout: an RGBA result carrying the
// photo's color channels under a computed foreground alpha mask.
package segment

import (
	"context"
	"image"
)

// Segmenter turns a photo into a full-resolution RGBA result. The alpha
// channel marks the foreground; color channels are the photo's own.
type Segmenter interface {
	Segment(ctx context.Context, photo *image.NRGBA) (*image.NRGBA, error)
}
