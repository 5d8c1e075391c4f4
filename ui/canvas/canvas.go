// Package canvas provides the interactive preview canvas: a letterboxed view
// of the cutout that doubles as the painting surface during repair.
package canvas

import (
	"image"
	"image/draw"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"cutout-studio/internal/app"
	"cutout-studio/internal/imaging"
	"cutout-studio/internal/repair"
)

// surroundGray fills the letterbox margins, matching the theme background.
const surroundGray = 0x26

// RepairCanvas displays the current photo or cutout and, while a repair
// session is active, maps pointer input onto brush strokes. The raster draws
// at device pixels, so brush geometry is exact on any display scale.
type RepairCanvas struct {
	widget.BaseWidget

	state  *app.State
	raster *fynecanvas.Raster

	dragging bool

	// Cached idle preview, rebuilt when the source buffer or size changes.
	idle struct {
		src  *image.NRGBA
		w, h int
		out  *image.NRGBA
	}

	onStroke func()
}

var _ fyne.Tappable = (*RepairCanvas)(nil)
var _ fyne.Draggable = (*RepairCanvas)(nil)

// NewRepairCanvas creates the preview canvas over the given state.
func NewRepairCanvas(state *app.State) *RepairCanvas {
	rc := &RepairCanvas{state: state}
	rc.raster = fynecanvas.NewRaster(rc.draw)
	rc.raster.ScaleMode = fynecanvas.ImageScalePixels
	rc.raster.SetMinSize(fyne.NewSize(480, 360))
	rc.ExtendBaseWidget(rc)
	return rc
}

// CreateRenderer implements fyne.Widget.
func (rc *RepairCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(rc.raster)
}

// Refresh redraws the canvas.
func (rc *RepairCanvas) Refresh() {
	rc.raster.Refresh()
	rc.BaseWidget.Refresh()
}

// OnStroke sets a callback invoked after pointer input changes the buffer,
// so the owner can refresh undo/redo affordances.
func (rc *RepairCanvas) OnStroke(callback func()) {
	rc.onStroke = callback
}

// PixelSize returns the canvas size in device pixels, the coordinate space
// repair sessions are opened with. (0,0) until the widget has been laid out.
func (rc *RepairCanvas) PixelSize() (int, int) {
	size := rc.Size()
	scale := rc.displayScale()
	return int(size.Width * scale), int(size.Height * scale)
}

// Tapped paints a single stamp: a press and release at one point.
func (rc *RepairCanvas) Tapped(ev *fyne.PointEvent) {
	s := rc.state.Session()
	if !s.Editing() {
		return
	}
	s.Press(rc.toPixel(ev.Position))
	s.Release()
	rc.Refresh()
	rc.notifyStroke()
}

// Dragged extends the current stroke. The first drag event arrives after the
// pointer has already moved, so the press point is recovered from the
// accumulated delta and the stroke starts there.
func (rc *RepairCanvas) Dragged(ev *fyne.DragEvent) {
	s := rc.state.Session()
	if !s.Editing() {
		return
	}
	if !rc.dragging {
		rc.dragging = true
		start := fyne.NewPos(ev.Position.X-ev.Dragged.DX, ev.Position.Y-ev.Dragged.DY)
		s.Press(rc.toPixel(start))
	}
	s.Drag(rc.toPixel(ev.Position))
	rc.Refresh()
	rc.notifyStroke()
}

// DragEnd finishes the current stroke.
func (rc *RepairCanvas) DragEnd() {
	if !rc.dragging {
		return
	}
	rc.dragging = false
	s := rc.state.Session()
	if s.Editing() {
		s.Release()
	}
	rc.notifyStroke()
}

func (rc *RepairCanvas) notifyStroke() {
	if rc.onStroke != nil {
		rc.onStroke()
	}
}

// displayScale returns device pixels per point for the canvas showing this
// widget, or 1 when it is not attached yet.
func (rc *RepairCanvas) displayScale() float32 {
	a := fyne.CurrentApp()
	if a == nil {
		return 1
	}
	c := a.Driver().CanvasForObject(rc)
	if c == nil {
		return 1
	}
	return c.Scale()
}

func (rc *RepairCanvas) toPixel(pos fyne.Position) image.Point {
	scale := rc.displayScale()
	return image.Pt(int(pos.X*scale), int(pos.Y*scale))
}

// draw is the raster drawing function. During repair it renders the session
// frame; idle it shows the cutout over a checkerboard, or the bare photo
// before any segmentation has run.
func (rc *RepairCanvas) draw(w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return image.NewNRGBA(image.Rect(0, 0, 1, 1))
	}

	s := rc.state.Session()
	if s.Editing() {
		// The raster learns about size changes first; follow them before
		// rendering so strokes and pixels stay aligned.
		if err := s.Resize(w, h); err != nil {
			return blank(w, h)
		}
		return placeFrame(s.RenderFrame(), s.Mapping(), w, h)
	}

	if result := rc.state.Result(); result != nil {
		return rc.idleFrame(result, w, h, true)
	}
	if photo := rc.state.Photo(); photo != nil {
		return rc.idleFrame(photo, w, h, false)
	}
	return blank(w, h)
}

// idleFrame letterboxes src into a w by h frame, over a checkerboard when the
// source carries transparency. Cached, since idle frames only change when
// the source buffer is replaced.
func (rc *RepairCanvas) idleFrame(src *image.NRGBA, w, h int, checker bool) *image.NRGBA {
	if rc.idle.out != nil && rc.idle.src == src && rc.idle.w == w && rc.idle.h == h {
		return rc.idle.out
	}

	m := repair.NewMapping(w, h, src.Bounds().Dx(), src.Bounds().Dy())
	scaled := imaging.Resample(src, m.DisplayW, m.DisplayH, imaging.FilterSmooth)
	if checker {
		scaled = repair.RenderCheckerboard(scaled)
	}
	out := placeFrame(scaled, m, w, h)

	rc.idle.src = src
	rc.idle.w = w
	rc.idle.h = h
	rc.idle.out = out
	return out
}

// placeFrame copies an opaque display frame into its letterbox position on a
// freshly filled w by h background.
func placeFrame(frame *image.NRGBA, m repair.Mapping, w, h int) *image.NRGBA {
	out := blank(w, h)
	r := image.Rect(m.OffsetX, m.OffsetY, m.OffsetX+m.DisplayW, m.OffsetY+m.DisplayH)
	draw.Draw(out, r, frame, frame.Bounds().Min, draw.Src)
	return out
}

func blank(w, h int) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = surroundGray
		out.Pix[i+1] = surroundGray
		out.Pix[i+2] = surroundGray
		out.Pix[i+3] = 0xff
	}
	return out
}
