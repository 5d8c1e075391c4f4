package repair

import "image"

// historyLimit bounds how many strokes can be undone.
const historyLimit = 20

// history holds the undo/redo snapshot stacks for the display buffer.
// Capacity is enforced on the undo side: pushing past the limit drops the
// oldest snapshot, so a long session can always step back the same bounded
// number of strokes. The redo side never grows beyond what undo released.
type history struct {
	limit int
	undo  []*image.NRGBA
	redo  []*image.NRGBA
}

func newHistory(limit int) *history {
	return &history{limit: limit}
}

// Push records snap as the newest undo state and invalidates redo.
func (h *history) Push(snap *image.NRGBA) {
	if len(h.undo) >= h.limit {
		copy(h.undo, h.undo[1:])
		h.undo[len(h.undo)-1] = snap
	} else {
		h.undo = append(h.undo, snap)
	}
	h.redo = nil
}

// Undo trades current for the newest undo snapshot. Reports false when
// there is nothing to undo; current is untouched in that case.
func (h *history) Undo(current *image.NRGBA) (*image.NRGBA, bool) {
	if len(h.undo) == 0 {
		return nil, false
	}
	snap := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = append(h.redo, current)
	return snap, true
}

// Redo trades current for the newest redo snapshot. Reports false when
// there is nothing to redo.
func (h *history) Redo(current *image.NRGBA) (*image.NRGBA, bool) {
	if len(h.redo) == 0 {
		return nil, false
	}
	snap := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, current)
	return snap, true
}

// Reset drops both stacks.
func (h *history) Reset() {
	h.undo = nil
	h.redo = nil
}

func (h *history) CanUndo() bool { return len(h.undo) > 0 }
func (h *history) CanRedo() bool { return len(h.redo) > 0 }
