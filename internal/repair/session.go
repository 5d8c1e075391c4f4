package repair

import (
	"errors"
	"fmt"
	"image"

	"cutout-studio/internal/imaging"
)

var (
	// ErrNoResult is returned by Enter when there is no segmentation result
	// to repair yet.
	ErrNoResult = errors.New("repair: no result to edit")
	// ErrNoReference is returned by Enter when the original photo is
	// missing.
	ErrNoReference = errors.New("repair: no reference photo")
	// ErrCanvasNotReady is returned while the canvas has not been laid out;
	// callers retry once it has a size.
	ErrCanvasNotReady = errors.New("repair: canvas size not known yet")
)

// DefaultBrushRadius is the stamp radius a fresh session starts with.
const DefaultBrushRadius = 12

// Preview selects the backdrop RenderFrame composites the buffer over.
type Preview int

const (
	// PreviewContext shows the dimmed reference photo behind the buffer.
	PreviewContext Preview = iota
	// PreviewCheckerboard shows the plain transparency checkerboard.
	PreviewCheckerboard
)

// Session owns everything editable during one repair pass: the display
// cache, stroke state, and undo history. Idle until Enter succeeds; editing
// operations while idle are a caller bug and panic. Not safe for concurrent
// use; drive it from the event loop only.
type Session struct {
	editing bool

	fullRes   *image.NRGBA // current best result at native resolution
	reference *image.NRGBA // original photo at native resolution, read-only

	cache   *displayCache
	history *history

	mode    Mode
	radius  int
	preview Preview

	stroke struct {
		active bool
		last   image.Point // display space
	}
}

// NewSession returns an idle session with the default brush.
func NewSession() *Session {
	return &Session{
		mode:    ModeRestore,
		radius:  DefaultBrushRadius,
		history: newHistory(historyLimit),
	}
}

// Enter moves the session from Idle to Editing over the given result and
// its reference photo, building the display cache for a cw by ch canvas with
// empty history. The session takes ownership of result until Exit; the
// reference is only ever read. Returns ErrNoResult or ErrNoReference when
// an input is missing, ErrCanvasNotReady when the canvas has no size yet.
func (s *Session) Enter(result, reference *image.NRGBA, cw, ch int) error {
	if s.editing {
		panic("repair: Enter while already editing")
	}
	if result == nil || result.Bounds().Empty() {
		return ErrNoResult
	}
	if reference == nil || reference.Bounds().Empty() {
		return ErrNoReference
	}
	if cw <= 0 || ch <= 0 {
		return ErrCanvasNotReady
	}
	rb, pb := result.Bounds(), reference.Bounds()
	if rb.Dx() != pb.Dx() || rb.Dy() != pb.Dy() {
		return fmt.Errorf("repair: result %dx%d and reference %dx%d differ",
			rb.Dx(), rb.Dy(), pb.Dx(), pb.Dy())
	}

	m := NewMapping(cw, ch, rb.Dx(), rb.Dy())
	s.fullRes = result
	s.reference = reference
	s.cache = buildDisplayCache(m, s.fullRes, s.reference)
	s.history.Reset()
	s.stroke.active = false
	s.preview = PreviewContext
	s.editing = true
	return nil
}

// Press begins a stroke at a canvas-space point: snapshots the buffer for
// undo, then stamps once, uninterpolated.
func (s *Session) Press(p image.Point) {
	s.mustEdit("Press")
	dp := s.cache.mapping.ToDisplay(p)
	s.history.Push(imaging.Clone(s.cache.buf))
	stamp(s.cache.buf, s.cache.ref, dp, s.radius, s.mode)
	s.stroke.active = true
	s.stroke.last = dp
}

// Drag extends the active stroke to a new canvas-space point, stamping
// along the path so no gaps are left. A drag with no stroke in progress
// starts one, exactly as a press would.
func (s *Session) Drag(p image.Point) {
	s.mustEdit("Drag")
	if !s.stroke.active {
		s.Press(p)
		return
	}
	dp := s.cache.mapping.ToDisplay(p)
	strokeSegment(s.cache.buf, s.cache.ref, s.stroke.last, dp, s.radius, s.mode)
	s.stroke.last = dp
}

// Release ends the active stroke; the next press or drag starts a new one.
func (s *Session) Release() {
	s.mustEdit("Release")
	s.stroke.active = false
}

// Undo steps the buffer back one stroke. Reports false, and changes
// nothing, when there is no stroke to undo.
func (s *Session) Undo() bool {
	s.mustEdit("Undo")
	snap, ok := s.history.Undo(s.cache.buf)
	if !ok {
		return false
	}
	s.cache.buf = snap
	s.stroke.active = false
	return true
}

// Redo reapplies the most recently undone stroke. Reports false, and
// changes nothing, when there is nothing to redo.
func (s *Session) Redo() bool {
	s.mustEdit("Redo")
	snap, ok := s.history.Redo(s.cache.buf)
	if !ok {
		return false
	}
	s.cache.buf = snap
	s.stroke.active = false
	return true
}

// Exit leaves Editing. With commit, the display buffer is upscaled back to
// native resolution and replaces the result wholesale; without, every edit
// is dropped. Either way the display cache and history are destroyed.
// Returns the session's result, updated only on commit.
func (s *Session) Exit(commit bool) *image.NRGBA {
	s.mustEdit("Exit")
	if commit && s.cache != nil {
		fb := s.fullRes.Bounds()
		s.fullRes = imaging.Resample(s.cache.buf, fb.Dx(), fb.Dy(), imaging.FilterSmooth)
	}
	out := s.fullRes
	s.fullRes = nil
	s.reference = nil
	s.cache = nil
	s.history.Reset()
	s.stroke.active = false
	s.editing = false
	return out
}

// Resize recomputes the letterbox mapping for a new canvas size and
// rebuilds the display cache from the full-resolution sources, dropping
// history as every rebuild does. A call that does not change the mapping is
// a no-op, so redraw-driven callers cannot wipe history by accident.
func (s *Session) Resize(cw, ch int) error {
	s.mustEdit("Resize")
	if cw <= 0 || ch <= 0 {
		return ErrCanvasNotReady
	}
	m := NewMapping(cw, ch, s.fullRes.Bounds().Dx(), s.fullRes.Bounds().Dy())
	if m == s.cache.mapping {
		return nil
	}
	s.cache = buildDisplayCache(m, s.fullRes, s.reference)
	s.history.Reset()
	s.stroke.active = false
	return nil
}

// RenderFrame composites the current buffer over the selected backdrop and
// returns a fresh opaque frame at display size. Callers re-request a frame
// after every mutating call.
func (s *Session) RenderFrame() *image.NRGBA {
	s.mustEdit("RenderFrame")
	if s.preview == PreviewCheckerboard {
		return RenderCheckerboard(s.cache.buf)
	}
	return renderContext(s.cache.buf, s.cache.ref)
}

// SetMode selects what subsequent strokes do. Allowed in any state; pixels
// already painted are unaffected.
func (s *Session) SetMode(m Mode) {
	s.mode = m
}

// SetBrushRadius sets the stamp radius for subsequent strokes. Values below
// 1 clamp to 1. Allowed in any state.
func (s *Session) SetBrushRadius(r int) {
	if r < 1 {
		r = 1
	}
	s.radius = r
}

// SetPreview switches the backdrop used by RenderFrame.
func (s *Session) SetPreview(p Preview) {
	s.preview = p
}

// Editing reports whether the session is in the Editing state.
func (s *Session) Editing() bool { return s.editing }

// Mode returns the current brush mode.
func (s *Session) Mode() Mode { return s.mode }

// BrushRadius returns the current stamp radius.
func (s *Session) BrushRadius() int { return s.radius }

// Preview returns the current backdrop selection.
func (s *Session) Preview() Preview { return s.preview }

// CanUndo reports whether an undo would change the buffer.
func (s *Session) CanUndo() bool { return s.history.CanUndo() }

// CanRedo reports whether a redo would change the buffer.
func (s *Session) CanRedo() bool { return s.history.CanRedo() }

// Mapping returns the active letterbox geometry. Editing state only.
func (s *Session) Mapping() Mapping {
	s.mustEdit("Mapping")
	return s.cache.mapping
}

// mustEdit panics when an editing operation arrives while the session is
// idle. Callers gate input on Editing(), so reaching this is a bug.
func (s *Session) mustEdit(op string) {
	if !s.editing {
		panic(fmt.Sprintf("repair: %s while not editing", op))
	}
}
