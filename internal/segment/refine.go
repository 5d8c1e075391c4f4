package segment

import (
	"image"

	"gocv.io/x/gocv"
)

// Edge cleanup thresholds. The first pair removes interpolation fringe
// before smoothing; the second pair re-hardens the blurred boundary.
const (
	preSnapZero  = 15
	preSnapFull  = 240
	postSnapFull = 200
	postSnapZero = 20
	blurSigma    = 1.2
)

// refineMask cleans the alpha mask in place: near-extreme values snap to
// 0 or 255, a Gaussian blur feathers the boundary, and a final snap keeps
// the feather to a narrow band instead of a wide gradient.
func refineMask(mask *gocv.Mat) {
	snapToZero(mask, preSnapZero)
	snapToFull(mask, preSnapFull)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(*mask, &blurred, image.Point{}, blurSigma, blurSigma, gocv.BorderDefault)
	blurred.CopyTo(mask)

	snapToFull(mask, postSnapFull)
	snapToZero(mask, postSnapZero)
}

// snapToZero forces every value below cutoff to 0.
func snapToZero(mask *gocv.Mat, cutoff float32) {
	gocv.Threshold(*mask, mask, cutoff-1, 255, gocv.ThresholdToZero)
}

// snapToFull forces every value above cutoff to 255.
func snapToFull(mask *gocv.Mat, cutoff float32) {
	hi := gocv.NewMat()
	defer hi.Close()
	gocv.Threshold(*mask, &hi, cutoff, 255, gocv.ThresholdBinary)
	gocv.Max(*mask, hi, mask)
}
