package render

import (
	"testing"

	"course-setter/internal/editor"
	"course-setter/internal/mask"
	"course-setter/pkg/colorutil"
	"course-setter/pkg/geometry"
)

func TestFrameDrawsControlRing(t *testing.T) {
	s := editor.NewSession()
	if err := s.Click(geometry.Point2D{X: 100, Y: 100}); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if err := s.Click(geometry.Point2D{X: 300, Y: 100}); err != nil {
		t.Fatalf("Click: %v", err)
	}

	frame := New(s).Frame(400, 300)

	// The start control ring has radius 25 at identity zoom, so a pixel
	// 25 to the right of the center sits on the stroke.
	if got := frame.RGBAAt(125, 100); got != colorutil.ControlViolet {
		t.Errorf("ring pixel = %v; want control stroke", got)
	}
	// The ring interior stays background.
	if got := frame.RGBAAt(100, 100); got == colorutil.ControlViolet {
		t.Error("ring interior filled with stroke color")
	}
}

func TestFrameDrawsRoute(t *testing.T) {
	s := editor.NewSession()
	s.Doc.Pairs = nil
	if err := s.Click(geometry.Point2D{X: 50, Y: 50}); err != nil {
		t.Fatalf("Click: %v", err)
	}
	if err := s.Click(geometry.Point2D{X: 250, Y: 50}); err != nil {
		t.Fatalf("Click: %v", err)
	}
	s.SelectPair(0)
	s.SetMode(editor.ModeDrawRoutes)
	if err := s.Click(geometry.Point2D{X: 150, Y: 150}); err != nil {
		t.Fatalf("route click: %v", err)
	}
	if err := s.Click(geometry.Point2D{X: 250, Y: 50}); err != nil {
		t.Fatalf("closing click: %v", err)
	}

	frame := New(s).Frame(400, 300)

	// A closed route of the current pair is cased white over a black
	// core; sample the midpoint of its only segment.
	if got := frame.RGBAAt(200, 100); got != routeCurrent && got != routeCasing && got != routeDrawing {
		t.Errorf("route pixel = %v; want a route stroke color", got)
	}
}

func TestMaskModeDrawsBrushRing(t *testing.T) {
	s := editor.NewSession()
	s.SetMode(editor.ModeEditMask)
	s.SetMaskTool(mask.ToolAdd)
	s.Brush.Radius = 10

	r := New(s)
	r.Cursor = &geometry.Point2D{X: 200, Y: 150}
	frame := r.Frame(400, 300)

	// The brush indicator is a ring of the brush radius at identity
	// zoom, so pixels 10 away from the cursor on each axis carry it.
	for _, p := range []struct{ x, y int }{
		{210, 150}, {190, 150}, {200, 160}, {200, 140},
	} {
		if got := frame.RGBAAt(p.x, p.y); got != colorutil.Red {
			t.Errorf("brush ring pixel (%d,%d) = %v; want red", p.x, p.y, got)
		}
	}

	// Zooming scales the indicator with the view.
	s.View.Scale = 2
	r2 := New(s)
	r2.Cursor = &geometry.Point2D{X: 100, Y: 75}
	frame = r2.Frame(400, 300)
	if got := frame.RGBAAt(220, 150); got != colorutil.Red {
		t.Errorf("zoomed brush ring pixel = %v; want red", got)
	}

	// Without an active tool only the crosshair is drawn.
	s.View.Scale = 1
	s.SetMaskTool(mask.ToolNone)
	r3 := New(s)
	r3.Cursor = &geometry.Point2D{X: 200, Y: 150}
	frame = r3.Frame(400, 300)
	if got := frame.RGBAAt(210, 150); got == colorutil.Red {
		t.Error("brush ring drawn with no mask tool active")
	}
}

func TestSpinnerFrameDrawsArcs(t *testing.T) {
	frame := New(editor.NewSession()).SpinnerFrame(400, 400, 0.25)

	found := 0
	bounds := frame.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if frame.RGBAAt(x, y) != colorutil.White {
				found++
			}
		}
	}
	if found == 0 {
		t.Error("spinner frame is blank")
	}
}

func TestScreenRectFollowsViewport(t *testing.T) {
	s := editor.NewSession()
	s.View.Scale = 2
	s.View.TransX = 10
	s.View.TransY = 20

	rect := screenRect(s.View, 100, 50)
	if rect.Min.X != 10 || rect.Min.Y != 20 || rect.Max.X != 210 || rect.Max.Y != 120 {
		t.Errorf("screenRect = %v; want (10,20)-(210,120)", rect)
	}
}
