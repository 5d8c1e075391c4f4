// Command segtest runs subject cutout on a photo and reports mask statistics.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"cutout-studio/internal/applog"
	"cutout-studio/internal/imaging"
	"cutout-studio/internal/maskstats"
	"cutout-studio/internal/segment"
)

func main() {
	photoPath := flag.String("photo", "", "Path to photo (PNG, JPEG, or TIFF)")
	outPath := flag.String("out", "cutout.png", "Output PNG path")
	workingSize := flag.Int("size", 512, "Long side of the internal working copy")
	iterations := flag.Int("iters", 5, "GrabCut refinement rounds")
	inset := flag.Float64("inset", 0.04, "Border fraction seeded as certain background")
	noRefine := flag.Bool("no-refine", false, "Skip mask edge refinement")
	timeout := flag.Duration("timeout", 2*time.Minute, "Abort if segmentation runs longer")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *photoPath == "" {
		fmt.Println("Usage: segtest -photo <path> [-out cutout.png] [-size 512] [-iters 5]")
		os.Exit(1)
	}

	log := applog.New(*verbose)

	img, err := imaging.Load(*photoPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load photo: %v\n", err)
		os.Exit(1)
	}
	photo := imaging.ToOpaque(imaging.ToNRGBA(img))
	bounds := photo.Bounds()
	fmt.Printf("Loaded photo: %dx%d pixels\n", bounds.Dx(), bounds.Dy())

	opts := segment.Options{
		WorkingSize: *workingSize,
		Iterations:  *iterations,
		BorderInset: *inset,
		Refine:      !*noRefine,
	}
	fmt.Printf("\nSegmentation parameters:\n")
	fmt.Printf("  Working size: %d px\n", opts.WorkingSize)
	fmt.Printf("  Iterations: %d\n", opts.Iterations)
	fmt.Printf("  Border inset: %.0f%%\n", opts.BorderInset*100)
	fmt.Printf("  Refine edges: %v\n", opts.Refine)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("\nCutting out subject...\n")
	start := time.Now()
	result, err := segment.NewGrabCut(opts, log).Segment(ctx, photo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Segmentation failed: %v\n", err)
		os.Exit(1)
	}
	elapsed := time.Since(start)

	st := maskstats.Summary(result)
	fmt.Printf("\nMask statistics:\n")
	fmt.Printf("  Opaque:  %6.2f%%\n", st.OpaqueFraction*100)
	fmt.Printf("  Clear:   %6.2f%%\n", st.ClearFraction*100)
	fmt.Printf("  Partial: %6.2f%%\n", st.PartialFraction*100)
	fmt.Printf("  Mean alpha: %.1f (stddev %.1f)\n", st.MeanAlpha, st.StdDevAlpha)
	fmt.Printf("  Subject bounds: %v (%dx%d)\n", st.Subject, st.Subject.Dx(), st.Subject.Dy())
	fmt.Printf("  Elapsed: %s\n", elapsed.Round(time.Millisecond))

	if err := imaging.SavePNG(*outPath, result); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to save result: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nSaved cutout to %s\n", *outPath)
}
