package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"cutout-studio/internal/imaging"
	"cutout-studio/internal/repair"
)

type fakeSegmenter struct {
	result *image.NRGBA
	err    error
}

func (f *fakeSegmenter) Segment(_ context.Context, _ *image.NRGBA) (*image.NRGBA, error) {
	return f.result, f.err
}

// blockingSegmenter parks until released, so tests can observe the busy state.
type blockingSegmenter struct {
	release chan struct{}
	result  *image.NRGBA
}

func (b *blockingSegmenter) Segment(_ context.Context, _ *image.NRGBA) (*image.NRGBA, error) {
	<-b.release
	return b.result, nil
}

func opaqueNRGBA(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 120, 130, 140, 255
	}
	return img
}

func savePhoto(t *testing.T, w, h int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := imaging.SavePNG(path, opaqueNRGBA(w, h)); err != nil {
		t.Fatalf("SavePNG: %v", err)
	}
	return path
}

func signalOn(s *State, event EventType) <-chan struct{} {
	ch := make(chan struct{}, 8)
	s.On(event, func(interface{}) {
		ch <- struct{}{}
	})
	return ch
}

func waitSignal(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestLoadPhotoResetsResult(t *testing.T) {
	s := NewState(&fakeSegmenter{result: opaqueNRGBA(8, 8)}, zerolog.Nop())
	loaded := signalOn(s, EventPhotoLoaded)

	path := savePhoto(t, 40, 30)
	if err := s.LoadPhoto(path); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	waitSignal(t, loaded, "photo loaded event")

	photo := s.Photo()
	if photo == nil {
		t.Fatal("expected a photo after load")
	}
	if photo.Bounds().Dx() != 40 || photo.Bounds().Dy() != 30 {
		t.Errorf("expected 40x30 photo, got %dx%d", photo.Bounds().Dx(), photo.Bounds().Dy())
	}
	if s.Result() != nil {
		t.Error("expected result to be cleared on load")
	}
	if s.PhotoPath() != path {
		t.Errorf("expected photo path %q, got %q", path, s.PhotoPath())
	}
	if s.Modified() {
		t.Error("fresh load should not be modified")
	}
}

func TestLoadPhotoRejectsMissingFile(t *testing.T) {
	s := NewState(&fakeSegmenter{}, zerolog.Nop())
	if err := s.LoadPhoto(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunSegmentationPublishesResult(t *testing.T) {
	want := opaqueNRGBA(40, 30)
	s := NewState(&fakeSegmenter{result: want}, zerolog.Nop())
	done := signalOn(s, EventSegmentationDone)

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, done, "segmentation done event")

	if s.Result() != want {
		t.Error("expected the segmenter's result to be published")
	}
	if !s.Modified() {
		t.Error("expected state to be modified after segmentation")
	}
	if s.Busy() {
		t.Error("expected busy to clear after segmentation")
	}
}

func TestRunSegmentationFailureKeepsResult(t *testing.T) {
	s := NewState(&fakeSegmenter{err: fmt.Errorf("boom")}, zerolog.Nop())
	failed := signalOn(s, EventSegmentationFailed)

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, failed, "segmentation failed event")

	if s.Result() != nil {
		t.Error("failed segmentation must not publish a result")
	}
	if s.Busy() {
		t.Error("expected busy to clear after failure")
	}
}

func TestRunSegmentationRequiresPhoto(t *testing.T) {
	s := NewState(&fakeSegmenter{}, zerolog.Nop())
	if err := s.RunSegmentation(context.Background()); err == nil {
		t.Error("expected error without a photo")
	}
}

func TestRunSegmentationRejectsOverlap(t *testing.T) {
	seg := &blockingSegmenter{release: make(chan struct{}), result: opaqueNRGBA(40, 30)}
	s := NewState(seg, zerolog.Nop())
	done := signalOn(s, EventSegmentationDone)

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	if !s.Busy() {
		t.Error("expected busy while the worker runs")
	}
	if err := s.RunSegmentation(context.Background()); err == nil {
		t.Error("expected error for overlapping run")
	}
	if err := s.BeginRepair(100, 100); err == nil {
		t.Error("expected error beginning repair while busy")
	}

	close(seg.release)
	waitSignal(t, done, "segmentation done event")
	if s.Result() == nil {
		t.Error("expected a result once the worker finishes")
	}
}

func TestRepairLifecycle(t *testing.T) {
	s := NewState(&fakeSegmenter{result: opaqueNRGBA(40, 30)}, zerolog.Nop())
	done := signalOn(s, EventSegmentationDone)
	changed := signalOn(s, EventResultChanged)

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	<-changed // load clears the result
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, done, "segmentation done event")
	waitSignal(t, changed, "result changed event")

	if err := s.BeginRepair(100, 100); err != nil {
		t.Fatalf("BeginRepair: %v", err)
	}
	if !s.Session().Editing() {
		t.Fatal("expected an editing session after BeginRepair")
	}
	if err := s.BeginRepair(100, 100); err != nil {
		t.Errorf("BeginRepair while editing should be a no-op, got %v", err)
	}

	before := s.Result()
	if err := s.CommitRepair(); err != nil {
		t.Fatalf("CommitRepair: %v", err)
	}
	waitSignal(t, changed, "result changed event")
	if s.Session().Editing() {
		t.Error("expected session to be idle after commit")
	}
	after := s.Result()
	if after == nil || after == before {
		t.Error("expected commit to publish a new result buffer")
	}
	if after.Bounds().Dx() != 40 || after.Bounds().Dy() != 30 {
		t.Errorf("expected 40x30 result, got %dx%d", after.Bounds().Dx(), after.Bounds().Dy())
	}
	if !s.Modified() {
		t.Error("expected state to be modified after commit")
	}
}

func TestBeginRepairErrors(t *testing.T) {
	s := NewState(&fakeSegmenter{result: opaqueNRGBA(40, 30)}, zerolog.Nop())
	done := signalOn(s, EventSegmentationDone)

	if err := s.BeginRepair(100, 100); !errors.Is(err, repair.ErrNoResult) {
		t.Errorf("expected ErrNoResult without a result, got %v", err)
	}

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, done, "segmentation done event")

	if err := s.BeginRepair(0, 0); !errors.Is(err, repair.ErrCanvasNotReady) {
		t.Errorf("expected ErrCanvasNotReady for zero canvas, got %v", err)
	}
}

func TestDiscardRepairKeepsResult(t *testing.T) {
	s := NewState(&fakeSegmenter{result: opaqueNRGBA(40, 30)}, zerolog.Nop())
	done := signalOn(s, EventSegmentationDone)

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, done, "segmentation done event")

	before := s.Result()
	if err := s.BeginRepair(100, 100); err != nil {
		t.Fatalf("BeginRepair: %v", err)
	}
	s.Session().Press(image.Pt(50, 50))
	s.Session().Release()
	s.DiscardRepair()

	if s.Session().Editing() {
		t.Error("expected session to be idle after discard")
	}
	if s.Result() != before {
		t.Error("discard must leave the result untouched")
	}

	// DiscardRepair while idle is a no-op.
	s.DiscardRepair()
}

func TestRunSegmentationDiscardsActiveRepair(t *testing.T) {
	s := NewState(&fakeSegmenter{result: opaqueNRGBA(40, 30)}, zerolog.Nop())
	done := signalOn(s, EventSegmentationDone)
	ended := signalOn(s, EventRepairEnded)

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, done, "segmentation done event")

	if err := s.BeginRepair(100, 100); err != nil {
		t.Fatalf("BeginRepair: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, ended, "repair ended event")
	if s.Session().Editing() {
		t.Error("expected repair to be discarded before segmentation")
	}
	waitSignal(t, done, "segmentation done event")
}

func TestExportResultRoundTrip(t *testing.T) {
	s := NewState(&fakeSegmenter{result: opaqueNRGBA(40, 30)}, zerolog.Nop())
	done := signalOn(s, EventSegmentationDone)

	if err := s.ExportResult(filepath.Join(t.TempDir(), "out.png")); err == nil {
		t.Error("expected error exporting without a result")
	}

	if err := s.LoadPhoto(savePhoto(t, 40, 30)); err != nil {
		t.Fatalf("LoadPhoto: %v", err)
	}
	if err := s.RunSegmentation(context.Background()); err != nil {
		t.Fatalf("RunSegmentation: %v", err)
	}
	waitSignal(t, done, "segmentation done event")

	out := filepath.Join(t.TempDir(), "out.png")
	if err := s.ExportResult(out); err != nil {
		t.Fatalf("ExportResult: %v", err)
	}
	if s.Modified() {
		t.Error("expected modified to clear after export")
	}

	img, err := imaging.Load(out)
	if err != nil {
		t.Fatalf("Load exported file: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 30 {
		t.Errorf("expected 40x30 export, got %dx%d", img.Bounds().Dx(), img.Bounds().Dy())
	}
}
