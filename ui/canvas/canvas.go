// Package canvas provides the course editing canvas with pan, zoom, and
// mode-aware pointer handling.
package canvas

import (
	"image"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"course-setter/internal/editor"
	"course-setter/internal/mask"
	"course-setter/internal/render"
	"course-setter/pkg/geometry"
)

// CourseCanvas displays the rendered course and feeds pointer events into
// the editing session.
type CourseCanvas struct {
	widget.BaseWidget

	session  *editor.Session
	renderer *render.Renderer
	raster   *fynecanvas.Raster

	// mu guards the renderer's map and mask buffers. The prediction
	// worker swaps them in from its own goroutine while the paint
	// goroutine reads them.
	mu sync.Mutex

	// Pointer state. A press only becomes a pan after the grab delay,
	// so quick clicks place points instead of nudging the view.
	pressed   bool
	pressedAt time.Time
	lastDrag  fyne.Position
	painting  bool

	spinnerStart time.Time
	spinnerDone  chan struct{}

	// OnEdit is called after any change that panels should reflect.
	OnEdit func()
	// OnStrokeEnd is called when a mask paint stroke finishes, so each
	// stroke can be reconciled and persisted immediately.
	OnStrokeEnd func()
	// OnError surfaces rejected operations, route limit overruns mostly.
	OnError func(error)
}

// New creates a canvas bound to a session.
func New(session *editor.Session) *CourseCanvas {
	cc := &CourseCanvas{
		session:  session,
		renderer: render.New(session),
	}
	cc.raster = fynecanvas.NewRaster(cc.draw)
	cc.raster.ScaleMode = fynecanvas.ImageScalePixels
	cc.ExtendBaseWidget(cc)

	session.On(editor.EventDocumentChanged, func(interface{}) {
		cc.Refresh()
	})
	session.On(editor.EventLoadingChanged, func(data interface{}) {
		if loading, ok := data.(bool); ok && loading {
			cc.animateSpinner()
		}
	})
	return cc
}

// CreateRenderer implements fyne.Widget.
func (cc *CourseCanvas) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(cc.raster)
}

// Refresh redraws the raster.
func (cc *CourseCanvas) Refresh() {
	cc.raster.Refresh()
	cc.BaseWidget.Refresh()
}

// SetMap replaces the background map image.
func (cc *CourseCanvas) SetMap(img image.Image) {
	cc.mu.Lock()
	cc.renderer.MapImage = img
	cc.mu.Unlock()
	cc.Refresh()
}

// MapImage returns the current background map, nil before an upload.
func (cc *CourseCanvas) MapImage() image.Image {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.renderer.MapImage
}

// SetMaskEdits replaces the mask edit buffer. Safe to call from the
// prediction worker.
func (cc *CourseCanvas) SetMaskEdits(buf *image.RGBA) {
	cc.mu.Lock()
	cc.renderer.MaskEdits = buf
	cc.mu.Unlock()
	cc.Refresh()
}

// SetPreviewSuppressed pauses cursor previews while a form entry is
// focused.
func (cc *CourseCanvas) SetPreviewSuppressed(suppressed bool) {
	cc.renderer.SuppressPreview = suppressed
	cc.Refresh()
}

// MaskEdits returns the mask edit buffer, creating it lazily from the map
// size the first time mask editing needs it.
func (cc *CourseCanvas) MaskEdits() *image.RGBA {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.maskEditsLocked()
}

func (cc *CourseCanvas) maskEditsLocked() *image.RGBA {
	if cc.renderer.MaskEdits == nil && cc.renderer.MapImage != nil {
		b := cc.renderer.MapImage.Bounds()
		cc.renderer.MaskEdits = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	}
	return cc.renderer.MaskEdits
}

func (cc *CourseCanvas) draw(w, h int) image.Image {
	if cc.session.Loading() {
		return cc.renderer.SpinnerFrame(w, h, time.Since(cc.spinnerStart).Seconds())
	}
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.renderer.Frame(w, h)
}

// animateSpinner refreshes the raster until loading clears.
func (cc *CourseCanvas) animateSpinner() {
	cc.spinnerStart = time.Now()
	if cc.spinnerDone != nil {
		close(cc.spinnerDone)
	}
	done := make(chan struct{})
	cc.spinnerDone = done

	go func() {
		ticker := time.NewTicker(33 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if !cc.session.Loading() {
					cc.Refresh()
					return
				}
				cc.raster.Refresh()
			}
		}
	}()
}

func (cc *CourseCanvas) screenPoint(pos fyne.Position) geometry.Point2D {
	return geometry.Point2D{X: float64(pos.X), Y: float64(pos.Y)}
}

// Scrolled zooms around the wheel position, or resizes the brush while a
// mask tool is active.
func (cc *CourseCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if cc.session.Loading() {
		return
	}
	if cc.session.Mode() == editor.ModeEditMask && cc.session.MaskTool() != mask.ToolNone {
		cc.session.Brush.Adjust(ev.Scrolled.DY > 0)
		if cc.OnEdit != nil {
			cc.OnEdit()
		}
		return
	}
	cc.session.View.ZoomAt(cc.screenPoint(ev.Position), ev.Scrolled.DY > 0)
	cc.Refresh()
}

// MouseDown starts a potential pan, placement, or mask stroke.
func (cc *CourseCanvas) MouseDown(ev *desktop.MouseEvent) {
	if cc.session.Loading() || ev.Button != desktop.MouseButtonPrimary {
		return
	}
	cc.pressed = true
	cc.pressedAt = time.Now()
	cc.lastDrag = ev.Position
	cc.session.PointerDown()

	if cc.session.Mode() == editor.ModeEditMask && cc.session.MaskTool() != mask.ToolNone {
		cc.painting = true
		cc.paintAt(ev.Position)
	}
}

// MouseUp commits a placement when the press was not a pan.
func (cc *CourseCanvas) MouseUp(ev *desktop.MouseEvent) {
	if !cc.pressed {
		return
	}
	cc.pressed = false

	if cc.painting {
		cc.painting = false
		if cc.OnStrokeEnd != nil {
			cc.OnStrokeEnd()
		}
		cc.notifyEdit()
		return
	}

	if err := cc.session.PointerUp(cc.screenPoint(ev.Position)); err != nil && cc.OnError != nil {
		cc.OnError(err)
	}
	cc.notifyEdit()
	cc.Refresh()
}

// Dragged pans the view or continues a mask stroke.
func (cc *CourseCanvas) Dragged(ev *fyne.DragEvent) {
	if cc.session.Loading() {
		return
	}
	if cc.painting {
		cc.paintAt(ev.Position)
		cc.updateCursor(ev.Position)
		return
	}
	if !cc.pressed || time.Since(cc.pressedAt) < editor.GrabDelay {
		return
	}
	dx := float64(ev.Position.X - cc.lastDrag.X)
	dy := float64(ev.Position.Y - cc.lastDrag.Y)
	cc.lastDrag = ev.Position
	cc.session.View.Pan(dx, dy)
	cc.renderer.Dragging = true
	cc.updateCursor(ev.Position)
}

// DragEnd implements fyne.Draggable.
func (cc *CourseCanvas) DragEnd() {
	cc.renderer.Dragging = false
	cc.Refresh()
}

// MouseIn implements desktop.Hoverable.
func (cc *CourseCanvas) MouseIn(ev *desktop.MouseEvent) {
	cc.updateCursor(ev.Position)
}

// MouseMoved tracks the cursor for placement previews.
func (cc *CourseCanvas) MouseMoved(ev *desktop.MouseEvent) {
	cc.updateCursor(ev.Position)
}

// MouseOut clears the cursor preview.
func (cc *CourseCanvas) MouseOut() {
	cc.renderer.Cursor = nil
	cc.Refresh()
}

func (cc *CourseCanvas) updateCursor(pos fyne.Position) {
	world := cc.session.View.ToWorld(cc.screenPoint(pos))
	cc.renderer.Cursor = &world
	cc.Refresh()
}

// paintAt applies the active brush at a screen position.
func (cc *CourseCanvas) paintAt(pos fyne.Position) {
	cc.mu.Lock()
	buf := cc.maskEditsLocked()
	if buf == nil {
		cc.mu.Unlock()
		return
	}
	world := cc.session.View.ToWorld(cc.screenPoint(pos))
	x, y := int(world.X), int(world.Y)
	switch cc.session.MaskTool() {
	case mask.ToolAdd:
		mask.PaintCircle(buf, x, y, cc.session.Brush.Radius)
	case mask.ToolRemove:
		mask.EraseCircle(buf, x, y, cc.session.Brush.Radius)
	}
	cc.mu.Unlock()
	cc.Refresh()
}

func (cc *CourseCanvas) notifyEdit() {
	if cc.OnEdit != nil {
		cc.OnEdit()
	}
}
