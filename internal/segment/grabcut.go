package segment

import (
	"context"
	"fmt"
	"image"
	"math"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"cutout-studio/internal/imaging"
)

// OpenCV GrabCut pixel classes.
const (
	gcBGD   = 0
	gcFGD   = 1
	gcPRBGD = 2
	gcPRFGD = 3
)

// Options configures the GrabCut segmenter.
type Options struct {
	WorkingSize int     // long side of the internal working copy
	Iterations  int     // GrabCut refinement rounds
	BorderInset float64 // fraction of each edge seeded as certain background
	Refine      bool    // post-process the mask edge
}

// DefaultOptions returns the segmentation defaults.
func DefaultOptions() Options {
	return Options{
		WorkingSize: 512,
		Iterations:  5,
		BorderInset: 0.04,
		Refine:      true,
	}
}

// GrabCut segments photos with OpenCV's GrabCut algorithm, initialized from
// a border rectangle: the image frame starts as certain background and the
// interior as probable foreground. It runs on a bounded working copy, so
// cost does not grow with photo resolution.
type GrabCut struct {
	opts Options
	log  zerolog.Logger
}

// NewGrabCut builds a segmenter, filling unset options with defaults.
func NewGrabCut(opts Options, log zerolog.Logger) *GrabCut {
	def := DefaultOptions()
	if opts.WorkingSize <= 0 {
		opts.WorkingSize = def.WorkingSize
	}
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}
	if opts.BorderInset <= 0 {
		opts.BorderInset = def.BorderInset
	}
	return &GrabCut{opts: opts, log: log}
}

// Segment implements Segmenter.
func (g *GrabCut) Segment(ctx context.Context, photo *image.NRGBA) (*image.NRGBA, error) {
	if photo == nil || photo.Bounds().Empty() {
		return nil, fmt.Errorf("segment: empty photo")
	}
	start := time.Now()

	b := photo.Bounds()
	w, h := b.Dx(), b.Dy()

	work := photo
	long := w
	if h > long {
		long = h
	}
	if long > g.opts.WorkingSize {
		scale := float64(g.opts.WorkingSize) / float64(long)
		work = imaging.Resample(photo,
			int(math.Round(float64(w)*scale)),
			int(math.Round(float64(h)*scale)),
			imaging.FilterFast)
	}
	ww, wh := work.Bounds().Dx(), work.Bounds().Dy()

	ix := int(float64(ww) * g.opts.BorderInset)
	if ix < 1 {
		ix = 1
	}
	iy := int(float64(wh) * g.opts.BorderInset)
	if iy < 1 {
		iy = 1
	}
	rect := image.Rect(ix, iy, ww-ix, wh-iy)
	if rect.Empty() {
		return nil, fmt.Errorf("segment: photo too small (%dx%d)", w, h)
	}

	img, err := matFromNRGBA(work)
	if err != nil {
		return nil, fmt.Errorf("segment: convert photo: %w", err)
	}
	defer img.Close()

	classes := gocv.NewMatWithSize(wh, ww, gocv.MatTypeCV8U)
	defer classes.Close()
	bgdModel := gocv.NewMat()
	defer bgdModel.Close()
	fgdModel := gocv.NewMat()
	defer fgdModel.Close()

	gocv.GrabCut(img, &classes, rect, &bgdModel, &fgdModel, g.opts.Iterations, gocv.GCInitWithRect)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bin := foregroundMask(classes)
	defer bin.Close()

	// Upscale the working-size mask back to native resolution; the linear
	// interpolation softens the boundary, which refinement then cleans.
	full := gocv.NewMat()
	defer full.Close()
	gocv.Resize(bin, &full, image.Point{X: w, Y: h}, 0, 0, gocv.InterpolationLinear)

	if g.opts.Refine {
		refineMask(&full)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, visible, err := applyAlpha(photo, full)
	if err != nil {
		return nil, err
	}
	if visible == 0 {
		return nil, fmt.Errorf("segment: no foreground found")
	}

	g.log.Debug().
		Int("width", w).
		Int("height", h).
		Int("working_width", ww).
		Int("working_height", wh).
		Dur("elapsed", time.Since(start)).
		Msg("segmentation finished")

	return result, nil
}

// foregroundMask binarizes GrabCut's class labels: definite and probable
// foreground become 255, everything else 0.
func foregroundMask(classes gocv.Mat) gocv.Mat {
	fgd := gocv.NewMat()
	defer fgd.Close()
	prFgd := gocv.NewMat()
	defer prFgd.Close()
	gocv.InRangeWithScalar(classes,
		gocv.NewScalar(gcFGD, 0, 0, 0), gocv.NewScalar(gcFGD, 0, 0, 0), &fgd)
	gocv.InRangeWithScalar(classes,
		gocv.NewScalar(gcPRFGD, 0, 0, 0), gocv.NewScalar(gcPRFGD, 0, 0, 0), &prFgd)

	bin := gocv.NewMat()
	gocv.BitwiseOr(fgd, prFgd, &bin)
	return bin
}
