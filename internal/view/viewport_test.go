package view

import (
	"math"
	"testing"

	"course-setter/pkg/geometry"
)

func TestRoundTrip(t *testing.T) {
	v := &Viewport{Scale: 2, TransX: 30, TransY: -40}
	world := geometry.Point2D{X: 17, Y: 23}
	back := v.ToWorld(v.ToScreen(world))
	if math.Abs(back.X-world.X) > 1e-9 || math.Abs(back.Y-world.Y) > 1e-9 {
		t.Errorf("round trip = %+v; want %+v", back, world)
	}
}

func TestZoomAtKeepsAnchorFixed(t *testing.T) {
	v := New()
	anchor := geometry.Point2D{X: 100, Y: 80}
	before := v.ToWorld(anchor)

	v.ZoomAt(anchor, true)

	if v.Scale != ZoomStep {
		t.Errorf("Scale = %f; want %f", v.Scale, ZoomStep)
	}
	after := v.ToWorld(anchor)
	if math.Abs(after.X-before.X) > 1e-9 || math.Abs(after.Y-before.Y) > 1e-9 {
		t.Errorf("anchor world point moved: %+v -> %+v", before, after)
	}
}

func TestZoomAtRejectsOutOfRangeSteps(t *testing.T) {
	v := &Viewport{Scale: 9.9, TransX: 5, TransY: 7}
	v.ZoomAt(geometry.Point2D{}, true)
	if v.Scale != 9.9 || v.TransX != 5 || v.TransY != 7 {
		t.Errorf("viewport changed on rejected zoom-in: %+v", v)
	}

	v = &Viewport{Scale: 0.105, TransX: 5, TransY: 7}
	v.ZoomAt(geometry.Point2D{}, false)
	if v.Scale != 0.105 {
		t.Errorf("viewport changed on rejected zoom-out: %+v", v)
	}
}

func TestPan(t *testing.T) {
	v := New()
	v.Pan(10, -5)
	v.Pan(2, 3)
	if v.TransX != 12 || v.TransY != -2 {
		t.Errorf("Pan result = (%f, %f); want (12, -2)", v.TransX, v.TransY)
	}
}

func TestSnap(t *testing.T) {
	target := geometry.Point2D{X: 100, Y: 100}

	near := geometry.Point2D{X: 110, Y: 110}
	if got := Snap(near, &target, SnapThreshold); got != target {
		t.Errorf("Snap(near) = %+v; want %+v", got, target)
	}

	far := geometry.Point2D{X: 130, Y: 100}
	if got := Snap(far, &target, SnapThreshold); got != far {
		t.Errorf("Snap(far) = %+v; want %+v", got, far)
	}

	if got := Snap(near, nil, SnapThreshold); got != near {
		t.Errorf("Snap(nil target) = %+v; want %+v", got, near)
	}
}
