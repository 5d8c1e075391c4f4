package repair

import "image"

// Checkerboard backdrop geometry and tones.
const (
	checkerTile  = 8
	checkerLight = 192
	checkerDark  = 128
)

// contextDim is the opacity applied to the reference photo shown behind the
// buffer in repair-context mode.
const contextDim = 0.70

// RenderCheckerboard alpha-blends buf over a two-tone checkerboard:
// out = fg*a + checker*(1-a) per channel. The frame is a fresh opaque
// buffer; inputs are never written.
func RenderCheckerboard(buf *image.NRGBA) *image.NRGBA {
	b := buf.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var checker uint8 = checkerDark
			if (x/checkerTile+y/checkerTile)%2 == 0 {
				checker = checkerLight
			}
			i := buf.PixOffset(b.Min.X+x, b.Min.Y+y)
			o := out.PixOffset(x, y)
			a := float64(buf.Pix[i+3]) / 255
			inv := 1 - a
			out.Pix[o] = blendChannel(buf.Pix[i], checker, a, inv)
			out.Pix[o+1] = blendChannel(buf.Pix[i+1], checker, a, inv)
			out.Pix[o+2] = blendChannel(buf.Pix[i+2], checker, a, inv)
			out.Pix[o+3] = 0xff
		}
	}
	return out
}

// renderContext alpha-blends buf over the dimmed reference:
// out = fg*a + (ref*contextDim)*(1-a). Erased regions show the faded photo
// underneath, marking what a restore stroke would bring back. buf and ref
// must share dimensions.
func renderContext(buf, ref *image.NRGBA) *image.NRGBA {
	b := buf.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	rb := ref.Bounds()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := buf.PixOffset(b.Min.X+x, b.Min.Y+y)
			j := ref.PixOffset(rb.Min.X+x, rb.Min.Y+y)
			o := out.PixOffset(x, y)
			a := float64(buf.Pix[i+3]) / 255
			inv := 1 - a
			out.Pix[o] = blendChannel(buf.Pix[i], dimmed(ref.Pix[j]), a, inv)
			out.Pix[o+1] = blendChannel(buf.Pix[i+1], dimmed(ref.Pix[j+1]), a, inv)
			out.Pix[o+2] = blendChannel(buf.Pix[i+2], dimmed(ref.Pix[j+2]), a, inv)
			out.Pix[o+3] = 0xff
		}
	}
	return out
}

func dimmed(v uint8) uint8 {
	return uint8(float64(v)*contextDim + 0.5)
}

// blendChannel computes fg*a + bg*(1-a) clamped to one byte.
func blendChannel(fg, bg uint8, a, inv float64) uint8 {
	v := float64(fg)*a + float64(bg)*inv
	if v < 0 {
		v = 0
	} else if v > 255 {
		v = 255
	}
	return uint8(v)
}
