package repair

import (
	"image"
	"testing"
)

// marker makes a 1x1 buffer tagged with v for identity checks.
func marker(v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0] = v
	return img
}

func TestHistoryEvictsOldestPastLimit(t *testing.T) {
	h := newHistory(3)
	for v := uint8(1); v <= 5; v++ {
		h.Push(marker(v))
	}

	// Snapshots 1 and 2 were evicted; unwinding yields 5, 4, 3.
	current := marker(99)
	for _, want := range []uint8{5, 4, 3} {
		snap, ok := h.Undo(current)
		if !ok {
			t.Fatalf("expected undo to succeed down to snapshot %d", want)
		}
		if snap.Pix[0] != want {
			t.Errorf("expected snapshot %d, got %d", want, snap.Pix[0])
		}
		current = snap
	}
	if _, ok := h.Undo(current); ok {
		t.Error("expected undo to fail past the retained window")
	}
}

func TestHistoryPushClearsRedo(t *testing.T) {
	h := newHistory(10)
	h.Push(marker(1))
	if _, ok := h.Undo(marker(2)); !ok {
		t.Fatal("undo should succeed")
	}
	if !h.CanRedo() {
		t.Fatal("expected redo to be available after undo")
	}

	h.Push(marker(3))
	if h.CanRedo() {
		t.Error("expected push to invalidate redo")
	}
}

func TestHistoryUndoRedoRoundTrip(t *testing.T) {
	h := newHistory(10)
	h.Push(marker(1))

	current := marker(2)
	snap, ok := h.Undo(current)
	if !ok || snap.Pix[0] != 1 {
		t.Fatalf("undo: expected snapshot 1, got %v %v", snap, ok)
	}

	back, ok := h.Redo(snap)
	if !ok {
		t.Fatal("redo should succeed after undo")
	}
	if back != current {
		t.Error("redo should hand back the exact buffer undo displaced")
	}
}

func TestHistoryEmptyStacksAreNoOps(t *testing.T) {
	h := newHistory(10)
	if _, ok := h.Undo(marker(1)); ok {
		t.Error("undo on empty history should report false")
	}
	if _, ok := h.Redo(marker(1)); ok {
		t.Error("redo on empty history should report false")
	}
}

func TestHistoryResetDropsBothStacks(t *testing.T) {
	h := newHistory(10)
	h.Push(marker(1))
	h.Push(marker(2))
	h.Undo(marker(3))

	h.Reset()
	if h.CanUndo() || h.CanRedo() {
		t.Error("expected both stacks empty after reset")
	}
}
