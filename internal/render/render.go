// Package render paints editor frames: the background map, routes, control
// markers, mode-specific live previews, the mask overlay, and the loading
// spinner. Everything is drawn into a plain RGBA raster the canvas widget
// displays, so the pipeline is testable without a display.
package render

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"

	"course-setter/internal/editor"
	"course-setter/internal/mask"
	"course-setter/internal/view"
	"course-setter/pkg/colorutil"
	"course-setter/pkg/geometry"
)

const (
	// ControlRadius is the control ring radius in world units; it doubles
	// as the snap threshold.
	ControlRadius = 25.0

	// connectionGap keeps connection lines clear of the control rings.
	connectionGap = ControlRadius + 10

	// markerLen is the half-size of the cursor crosshair, world units.
	markerLen = 5.0

	arrowSize  = 25.0
	arrowAngle = math.Pi / 6

	tickSpacing     = 20.0
	smallTickLength = 20.0
	largeTickLength = 40.0
)

var (
	routeMuted    = color.RGBA{R: 96, G: 96, B: 96, A: 255}
	routeCasing   = colorutil.White
	routeCurrent  = colorutil.Black
	routeDrawing  = colorutil.Yellow
	controlStroke = colorutil.ControlViolet
)

// Renderer draws frames from the current session state.
type Renderer struct {
	Session *editor.Session

	// MapImage is the background map raster, nil before an upload.
	MapImage image.Image

	// MaskEdits is the mask edit buffer shown as overlay in mask mode.
	MaskEdits *image.RGBA

	// Cursor is the live world-space cursor position, nil when the
	// pointer is outside the canvas.
	Cursor *geometry.Point2D

	// Dragging suppresses the placement preview while panning.
	Dragging bool

	// SuppressPreview pauses all cursor previews, set while a text
	// entry owns the focus.
	SuppressPreview bool
}

// New creates a renderer over a session.
func New(s *editor.Session) *Renderer {
	return &Renderer{Session: s}
}

// Frame performs one full redraw at the given canvas size.
func (r *Renderer) Frame(w, h int) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(out, colorutil.White)

	r.drawMap(out)
	r.drawRoutes(out)
	r.drawControls(out)
	r.drawConnections(out)
	r.drawLivePreview(out)
	r.drawMaskOverlay(out)
	return out
}

// SpinnerFrame draws only the loading spinner: three concentric arcs
// rotating at independent speeds, driven by elapsed wall-clock seconds.
func (r *Renderer) SpinnerFrame(w, h int, elapsed float64) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	fill(out, colorutil.White)

	centerX := float64(w) / 2
	centerY := float64(h) / 2
	base := float64(h) / 20
	radii := []float64{base - 10, base, base + 10}
	speeds := []float64{1, 0.7, 0.4} // revolutions per second

	for i := 0; i < 3; i++ {
		start := elapsed * speeds[i] * 2 * math.Pi
		drawArc(out, centerX, centerY, radii[i], start, start+math.Pi*1.2, colorutil.SpinnerGrays[i], 4)
	}
	return out
}

func (r *Renderer) drawMap(out *image.RGBA) {
	if r.MapImage == nil {
		return
	}
	v := r.Session.View
	doc := r.Session.Doc
	bounds := r.MapImage.Bounds()

	// The map is stretched by the document scale factor; routes and
	// controls live in the stretched pixel space.
	worldW := float64(bounds.Dx()) * doc.Scale
	worldH := float64(bounds.Dy()) * doc.Scale
	dst := screenRect(v, worldW, worldH)
	xdraw.ApproxBiLinear.Scale(out, dst, r.MapImage, bounds, xdraw.Over, nil)
}

func (r *Renderer) drawMaskOverlay(out *image.RGBA) {
	if r.Session.Mode() != editor.ModeEditMask || r.MaskEdits == nil {
		return
	}
	v := r.Session.View
	bounds := r.MaskEdits.Bounds()
	dst := screenRect(v, float64(bounds.Dx()), float64(bounds.Dy()))
	xdraw.ApproxBiLinear.Scale(out, dst, r.MaskEdits, bounds, xdraw.Over, nil)
}

func (r *Renderer) drawRoutes(out *image.RGBA) {
	s := r.Session
	v := s.View

	// All routes of non-current pairs, muted.
	for i, cp := range s.Doc.Pairs {
		if i == s.PairIndex() {
			continue
		}
		for _, route := range cp.Routes {
			r.drawPolyline(out, v, route.Points, routeMuted, 2)
		}
	}

	// The current pair's routes, emphasized with a casing.
	cp := s.Doc.Pair(s.PairIndex())
	if cp == nil {
		return
	}
	for _, route := range cp.Routes {
		r.drawPolyline(out, v, route.Points, routeCasing, 4)
	}
	for _, route := range cp.Routes {
		r.drawPolyline(out, v, route.Points, routeCurrent, 2)
	}

	// The current route on top in its own color.
	if route := cp.Route(s.RouteIndex()); route != nil {
		r.drawPolyline(out, v, route.Points, routeDrawing, 2)
	}
}

func (r *Renderer) drawControls(out *image.RGBA) {
	s := r.Session
	v := s.View
	for i, cp := range s.Doc.Pairs {
		width := 3
		if i == s.PairIndex() {
			width = 5
		}
		if cp.Start != nil {
			startWidth := width
			if i == s.PairIndex() && s.PlacingFinish() {
				startWidth = 3
			}
			sc := v.ToScreen(*cp.Start)
			drawRing(out, sc.X, sc.Y, ControlRadius*v.Scale, controlStroke, startWidth)
		}
		if cp.Finish != nil {
			sc := v.ToScreen(*cp.Finish)
			drawRing(out, sc.X, sc.Y, ControlRadius*v.Scale, controlStroke, width)
		}
	}
}

func (r *Renderer) drawConnections(out *image.RGBA) {
	s := r.Session
	v := s.View
	for i, cp := range s.Doc.Pairs {
		if cp.Start == nil || cp.Finish == nil {
			continue
		}
		width := 3
		if i == s.PairIndex() {
			width = 5
		}
		if r.drawConnection(out, v, *cp.Start, *cp.Finish, controlStroke, width) && i == s.PairIndex() {
			r.drawConnectionArrow(out, v, *cp.Start, *cp.Finish)
		}
	}
}

// drawConnection draws the start→finish line, offset clear of both rings.
// Returns false when the controls sit too close for a visible line.
func (r *Renderer) drawConnection(out *image.RGBA, v *view.Viewport, start, finish geometry.Point2D, col color.RGBA, width int) bool {
	delta := finish.Sub(start)
	if delta.Norm() <= 2*connectionGap {
		return false
	}
	unit := delta.Unit()
	from := v.ToScreen(start.Add(unit.Scale(connectionGap)))
	to := v.ToScreen(finish.Sub(unit.Scale(connectionGap)))
	drawLine(out, int(from.X), int(from.Y), int(to.X), int(to.Y), col, width)
	return true
}

// drawConnectionArrow draws the direction arrow at the line midpoint.
func (r *Renderer) drawConnectionArrow(out *image.RGBA, v *view.Viewport, start, finish geometry.Point2D) {
	angle := finish.Sub(start).Angle()
	mid := geometry.Point2D{X: (start.X + finish.X) / 2, Y: (start.Y + finish.Y) / 2}

	left := geometry.Point2D{
		X: mid.X - math.Cos(angle-arrowAngle)*arrowSize,
		Y: mid.Y - math.Sin(angle-arrowAngle)*arrowSize,
	}
	right := geometry.Point2D{
		X: mid.X - math.Cos(angle+arrowAngle)*arrowSize,
		Y: mid.Y - math.Sin(angle+arrowAngle)*arrowSize,
	}

	m := v.ToScreen(mid)
	l := v.ToScreen(left)
	rr := v.ToScreen(right)
	drawLine(out, int(m.X), int(m.Y), int(l.X), int(l.Y), controlStroke, 5)
	drawLine(out, int(m.X), int(m.Y), int(rr.X), int(rr.Y), controlStroke, 5)
}

// drawLivePreview draws the mode-specific cursor affordances.
func (r *Renderer) drawLivePreview(out *image.RGBA) {
	if r.Cursor == nil || r.SuppressPreview {
		return
	}
	s := r.Session
	v := s.View
	cursor := s.ResolveCursor(*r.Cursor)
	sc := v.ToScreen(cursor)

	switch s.Mode() {
	case editor.ModePlaceControls:
		if r.Dragging {
			return
		}
		drawRing(out, sc.X, sc.Y, ControlRadius*v.Scale, controlStroke, 3)
		r.drawCrosshair(out, v, cursor)
		if s.PlacingFinish() {
			if cp := s.Doc.Pair(s.PairIndex()); cp != nil && cp.Start != nil {
				r.drawConnection(out, v, *cp.Start, cursor, controlStroke, 2)
			}
		}
	case editor.ModeDrawRoutes:
		r.drawCrosshair(out, v, cursor)
		if s.DrawingRoute() {
			cp := s.Doc.Pair(s.PairIndex())
			if cp == nil {
				return
			}
			route := cp.Route(s.RouteIndex())
			if route == nil || len(route.Points) == 0 {
				return
			}
			last := v.ToScreen(route.Points[len(route.Points)-1])
			drawLine(out, int(last.X), int(last.Y), int(sc.X), int(sc.Y), routeDrawing, 1)
		}
	case editor.ModeScaleMap:
		r.drawCrosshair(out, v, cursor)
		if s.CalibrationHasFirst() && s.Doc.ScalePair.P1 != nil {
			r.drawCalibrationRuler(out, v, *s.Doc.ScalePair.P1, cursor)
		}
	case editor.ModeEditMask:
		r.drawCrosshair(out, v, cursor)
		switch s.MaskTool() {
		case mask.ToolAdd:
			drawRing(out, sc.X, sc.Y, float64(s.Brush.Radius)*v.Scale, colorutil.Red, 2)
		case mask.ToolRemove:
			drawRing(out, sc.X, sc.Y, float64(s.Brush.Radius)*v.Scale, colorutil.Black, 2)
		}
	}
}

// drawCalibrationRuler draws the calibration line with perpendicular tick
// marks; every fifth tick is long.
func (r *Renderer) drawCalibrationRuler(out *image.RGBA, v *view.Viewport, p1, cursor geometry.Point2D) {
	delta := cursor.Sub(p1)
	length := delta.Norm()
	if length == 0 {
		return
	}
	unit := delta.Unit()
	perp := geometry.Point2D{X: -unit.Y, Y: unit.X}

	from := v.ToScreen(p1)
	to := v.ToScreen(cursor)
	drawLine(out, int(from.X), int(from.Y), int(to.X), int(to.Y), colorutil.Black, 5)

	for i, d := 0, 0.0; d <= length; i, d = i+1, d+tickSpacing {
		tick := p1.Add(unit.Scale(d))
		tickLen := smallTickLength
		if i%5 == 0 {
			tickLen = largeTickLength
		}
		half := perp.Scale(tickLen / 2)
		a := v.ToScreen(tick.Sub(half))
		b := v.ToScreen(tick.Add(half))
		drawLine(out, int(a.X), int(a.Y), int(b.X), int(b.Y), colorutil.Black, 2)
	}
}

func (r *Renderer) drawCrosshair(out *image.RGBA, v *view.Viewport, world geometry.Point2D) {
	a := v.ToScreen(geometry.Point2D{X: world.X - markerLen, Y: world.Y - markerLen})
	b := v.ToScreen(geometry.Point2D{X: world.X + markerLen, Y: world.Y + markerLen})
	c := v.ToScreen(geometry.Point2D{X: world.X - markerLen, Y: world.Y + markerLen})
	d := v.ToScreen(geometry.Point2D{X: world.X + markerLen, Y: world.Y - markerLen})
	drawLine(out, int(a.X), int(a.Y), int(b.X), int(b.Y), colorutil.Black, 1)
	drawLine(out, int(c.X), int(c.Y), int(d.X), int(d.Y), colorutil.Black, 1)
}

func (r *Renderer) drawPolyline(out *image.RGBA, v *view.Viewport, points []geometry.Point2D, col color.RGBA, width int) {
	for i := 1; i < len(points); i++ {
		a := v.ToScreen(points[i-1])
		b := v.ToScreen(points[i])
		drawLine(out, int(a.X), int(a.Y), int(b.X), int(b.Y), col, width)
	}
}

// screenRect maps the world rectangle (0,0)-(w,h) to screen space.
func screenRect(v *view.Viewport, worldW, worldH float64) image.Rectangle {
	tl := v.ToScreen(geometry.Point2D{})
	br := v.ToScreen(geometry.Point2D{X: worldW, Y: worldH})
	return image.Rect(int(tl.X), int(tl.Y), int(br.X), int(br.Y))
}

func fill(out *image.RGBA, col color.RGBA) {
	bounds := out.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.SetRGBA(x, y, col)
		}
	}
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(out *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	bounds := out.Bounds()

	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				px, py := x1+s, y1+t
				if px >= bounds.Min.X && px < bounds.Max.X && py >= bounds.Min.Y && py < bounds.Max.Y {
					out.SetRGBA(px, py, col)
				}
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// drawRing draws a circle outline centered at (cx, cy).
func drawRing(out *image.RGBA, cx, cy, radius float64, col color.RGBA, width int) {
	bounds := out.Bounds()
	outer := radius + float64(width)/2
	inner := radius - float64(width)/2
	if inner < 0 {
		inner = 0
	}
	outer2 := outer * outer
	inner2 := inner * inner

	minX := int(cx - outer - 1)
	maxX := int(cx + outer + 1)
	minY := int(cy - outer - 1)
	maxY := int(cy + outer + 1)

	for y := minY; y <= maxY; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := minX; x <= maxX; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist2 := dx*dx + dy*dy
			if dist2 <= outer2 && dist2 >= inner2 {
				out.SetRGBA(x, y, col)
			}
		}
	}
}

// drawArc draws a stroked arc by stepping along it at sub-pixel intervals.
func drawArc(out *image.RGBA, cx, cy, radius, from, to float64, col color.RGBA, width int) {
	if radius <= 0 {
		return
	}
	step := 0.5 / radius
	half := float64(width) / 2
	bounds := out.Bounds()
	for a := from; a <= to; a += step {
		px := cx + radius*math.Cos(a)
		py := cy + radius*math.Sin(a)
		for dy := -half; dy <= half; dy++ {
			for dx := -half; dx <= half; dx++ {
				x, y := int(px+dx), int(py+dy)
				if x >= bounds.Min.X && x < bounds.Max.X && y >= bounds.Min.Y && y < bounds.Max.Y {
					out.SetRGBA(x, y, col)
				}
			}
		}
	}
}
