package canvas

import (
	"context"
	"image"
	"path/filepath"
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"

	"cutout-studio/internal/app"
	"cutout-studio/internal/imaging"
	"cutout-studio/internal/repair"
)

type stubSegmenter struct {
	result *image.NRGBA
}

func (s stubSegmenter) Segment(context.Context, *image.NRGBA) (*image.NRGBA, error) {
	return s.result, nil
}

func flat(w, h int, r, g, b, a uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = r, g, b, a
	}
	return img
}

// newEditingCanvas opens a repair session over a flat gray result so pointer
// tests can paint on it directly.
func newEditingCanvas(t *testing.T, w, h, cw, ch int) (*RepairCanvas, *app.State) {
	t.Helper()
	st := app.NewState(nil, zerolog.Nop())
	rc := NewRepairCanvas(st)

	result := flat(w, h, 200, 200, 200, 255)
	photo := flat(w, h, 90, 120, 150, 255)
	if err := st.Session().Enter(result, photo, cw, ch); err != nil {
		t.Fatalf("Enter: %v", err)
	}
	return rc, st
}

func TestTappedStampsOnce(t *testing.T) {
	rc, st := newEditingCanvas(t, 100, 100, 100, 100)
	s := st.Session()
	s.SetMode(repair.ModeErase)
	s.SetPreview(repair.PreviewCheckerboard)

	rc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(50, 50)})

	if !s.CanUndo() {
		t.Fatal("expected tap to push an undo entry")
	}
	frame := s.RenderFrame()
	// (50,50) sits on a light checker tile once erased.
	if got := frame.NRGBAAt(50, 50).R; got != 192 {
		t.Errorf("expected checkerboard 192 at tap point, got %d", got)
	}
	if got := frame.NRGBAAt(5, 5).R; got != 200 {
		t.Errorf("expected untouched pixel to stay 200, got %d", got)
	}
}

func TestTappedWhileIdleIsIgnored(t *testing.T) {
	st := app.NewState(nil, zerolog.Nop())
	rc := NewRepairCanvas(st)

	rc.Tapped(&fyne.PointEvent{Position: fyne.NewPos(10, 10)})
	rc.Dragged(&fyne.DragEvent{PointEvent: fyne.PointEvent{Position: fyne.NewPos(10, 10)}})
	rc.DragEnd()
}

func TestDraggedRecoversPressPoint(t *testing.T) {
	rc, st := newEditingCanvas(t, 100, 100, 100, 100)
	s := st.Session()
	s.SetMode(repair.ModeErase)
	s.SetBrushRadius(1)
	s.SetPreview(repair.PreviewCheckerboard)

	// Pointer pressed at (40,50), first event delivered at (60,50).
	rc.Dragged(&fyne.DragEvent{
		PointEvent: fyne.PointEvent{Position: fyne.NewPos(60, 50)},
		Dragged:    fyne.Delta{DX: 20, DY: 0},
	})
	rc.DragEnd()

	frame := s.RenderFrame()
	if got := frame.NRGBAAt(40, 50).R; got == 200 {
		t.Error("expected the stroke to start at the press point (40,50)")
	}
	if got := frame.NRGBAAt(60, 50).R; got == 200 {
		t.Error("expected the stroke to reach the drag point (60,50)")
	}
	if got := frame.NRGBAAt(35, 50).R; got != 200 {
		t.Errorf("expected pixel before the press point untouched, got %d", got)
	}

	// The whole drag is one undo unit.
	if !s.Undo() {
		t.Fatal("expected one undo entry")
	}
	if s.Undo() {
		t.Error("expected exactly one undo entry for the drag")
	}
}

func TestDrawPlacesLetterboxedFrame(t *testing.T) {
	rc, _ := newEditingCanvas(t, 100, 50, 200, 200)

	out := rc.draw(200, 200).(*image.NRGBA)

	// 100x50 at scale 1 centers at offset (50,75).
	if got := out.NRGBAAt(10, 10).R; got != surroundGray {
		t.Errorf("expected surround gray in the margin, got %d", got)
	}
	if got := out.NRGBAAt(55, 80).R; got != 200 {
		t.Errorf("expected frame content inside the letterbox, got %d", got)
	}
}

func TestDrawIdleCompositesResultOverChecker(t *testing.T) {
	result := flat(40, 30, 200, 200, 200, 255)
	for y := 0; y < 30; y++ {
		for x := 20; x < 40; x++ {
			result.Pix[result.PixOffset(x, y)+3] = 0
		}
	}
	st := app.NewState(stubSegmenter{result: result}, zerolog.Nop())
	rc := NewRepairCanvas(st)

	photoPath := filepath.Join(t.TempDir(), "photo.png")
	if err := imaging.SavePNG(photoPath, flat(40, 30, 90, 120, 150, 255)); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	if err := st.LoadPhoto(photoPath); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}

	// Before segmentation the idle frame shows the photo.
	out := rc.draw(40, 30).(*image.NRGBA)
	if got := out.NRGBAAt(5, 5); got.R != 90 || got.G != 120 || got.B != 150 {
		t.Errorf("expected bare photo before segmentation, got %v", got)
	}

	done := make(chan struct{}, 1)
	st.On(app.EventSegmentationDone, func(interface{}) { done <- struct{}{} })
	if err := st.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for segmentation")
	}

	out = rc.draw(40, 30).(*image.NRGBA)
	if got := out.NRGBAAt(5, 5).R; got != 200 {
		t.Errorf("expected opaque result on the left, got %d", got)
	}
	if got := out.NRGBAAt(35, 5).R; got != 192 {
		t.Errorf("expected light checker tile on the erased right, got %d", got)
	}
}

func TestDrawWithNothingLoadedIsBlank(t *testing.T) {
	st := app.NewState(nil, zerolog.Nop())
	rc := NewRepairCanvas(st)

	out := rc.draw(60, 40).(*image.NRGBA)
	if got := out.NRGBAAt(30, 20).R; got != surroundGray {
		t.Errorf("expected blank surround, got %d", got)
	}
}

func TestIdleFrameIsCached(t *testing.T) {
	st := app.NewState(nil, zerolog.Nop())
	rc := NewRepairCanvas(st)
	src := flat(40, 30, 200, 200, 200, 255)

	first := rc.idleFrame(src, 80, 60, true)
	second := rc.idleFrame(src, 80, 60, true)
	if first != second {
		t.Error("expected the cached frame to be reused for an unchanged source")
	}

	resized := rc.idleFrame(src, 100, 60, true)
	if resized == first {
		t.Error("expected a new frame after a size change")
	}

	other := rc.idleFrame(flat(40, 30, 10, 10, 10, 255), 100, 60, true)
	if other == resized {
		t.Error("expected a new frame after the source buffer changed")
	}
}

func TestPixelSizeTracksLayout(t *testing.T) {
	st := app.NewState(nil, zerolog.Nop())
	rc := NewRepairCanvas(st)

	if w, h := rc.PixelSize(); w != 0 || h != 0 {
		t.Errorf("expected (0,0) before layout, got (%d,%d)", w, h)
	}

	a := test.NewApp()
	defer a.Quit()
	win := test.NewWindow(rc)
	defer win.Close()
	win.Resize(fyne.NewSize(600, 400))

	if w, h := rc.PixelSize(); w <= 0 || h <= 0 {
		t.Errorf("expected a positive pixel size after layout, got (%d,%d)", w, h)
	}
}
