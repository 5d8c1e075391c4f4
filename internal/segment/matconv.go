package segment

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"cutout-studio/internal/imaging"
)

// matFromNRGBA packs an NRGBA image into a BGR Mat. OpenCV expects BGR
// channel order, so red and blue swap; alpha is dropped.
func matFromNRGBA(img *image.NRGBA) (gocv.Mat, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	data := make([]byte, w*h*3)
	di := 0
	for y := 0; y < h; y++ {
		si := img.PixOffset(b.Min.X, b.Min.Y+y)
		for x := 0; x < w; x++ {
			data[di] = img.Pix[si+2]
			data[di+1] = img.Pix[si+1]
			data[di+2] = img.Pix[si]
			di += 3
			si += 4
		}
	}
	return gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, data)
}

// applyAlpha copies the photo and writes the mask into its alpha channel,
// leaving the color channels intact for later restore strokes. It reports
// how many pixels remain visible.
func applyAlpha(photo *image.NRGBA, mask gocv.Mat) (*image.NRGBA, int, error) {
	img, err := mask.ToImage()
	if err != nil {
		return nil, 0, fmt.Errorf("segment: decode mask: %w", err)
	}
	gray, ok := img.(*image.Gray)
	if !ok {
		return nil, 0, fmt.Errorf("segment: unexpected mask type %T", img)
	}

	out := imaging.Clone(photo)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if gray.Bounds().Dx() != w || gray.Bounds().Dy() != h {
		return nil, 0, fmt.Errorf("segment: mask is %dx%d, photo is %dx%d",
			gray.Bounds().Dx(), gray.Bounds().Dy(), w, h)
	}

	visible := 0
	for y := 0; y < h; y++ {
		mi := y * gray.Stride
		oi := y*out.Stride + 3
		for x := 0; x < w; x++ {
			a := gray.Pix[mi+x]
			out.Pix[oi] = a
			if a > 0 {
				visible++
			}
			oi += 4
		}
	}
	return out, visible, nil
}
