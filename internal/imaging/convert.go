// Package imaging provides pixel-buffer conversion, resampling, and file I/O
// shared by the segmentation pipeline and the repair engine.
package imaging

import (
	"image"
	"image/draw"
)

// ToNRGBA returns src as a straight-alpha NRGBA buffer with zero-origin
// bounds. The result is always a fresh copy, safe for the caller to mutate.
// NRGBA input is copied channel-for-channel, keeping RGB values that sit
// under fully transparent pixels.
func ToNRGBA(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok {
		return Clone(n)
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// ToOpaque returns src as NRGBA with every alpha forced to 255. Reference
// photos are carried this way so restore strokes can copy whole pixels.
func ToOpaque(src image.Image) *image.NRGBA {
	dst := ToNRGBA(src)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}

// Clone returns a deep copy of img with zero-origin bounds.
func Clone(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		di := dst.PixOffset(0, y)
		copy(dst.Pix[di:di+w*4], img.Pix[si:si+w*4])
	}
	return dst
}
