package mask

import (
	"image"
	"image/color"
	"testing"

	"course-setter/pkg/colorutil"
)

func TestBrushAdjustClamps(t *testing.T) {
	b := NewBrush()
	if b.Radius != DefaultBrushRadius {
		t.Fatalf("default radius = %d; want %d", b.Radius, DefaultBrushRadius)
	}
	for i := 0; i < 20; i++ {
		b.Adjust(true)
	}
	if b.Radius != MaxBrushRadius {
		t.Errorf("radius after growing = %d; want %d", b.Radius, MaxBrushRadius)
	}
	for i := 0; i < 20; i++ {
		b.Adjust(false)
	}
	if b.Radius != MinBrushRadius {
		t.Errorf("radius after shrinking = %d; want %d", b.Radius, MinBrushRadius)
	}
}

func TestFromPrediction(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 2, 1))
	src.SetRGBA(0, 0, colorutil.Black)
	src.SetRGBA(1, 0, colorutil.White)

	buf := FromPrediction(src)

	if got := buf.RGBAAt(0, 0); got != colorutil.Red {
		t.Errorf("blocked pixel = %v; want red", got)
	}
	if got := buf.RGBAAt(1, 0); got != (color.RGBA{}) {
		t.Errorf("open pixel = %v; want transparent", got)
	}
}

func TestPaintCircleInclusiveAndClipped(t *testing.T) {
	buf := image.NewRGBA(image.Rect(0, 0, 10, 10))
	PaintCircle(buf, 0, 0, 2)

	// On the boundary: dx=2, dy=0 satisfies dx²+dy² ≤ r².
	if buf.RGBAAt(2, 0) != colorutil.Red {
		t.Error("boundary pixel (2,0) not painted")
	}
	// Outside: dx=2, dy=1 is 5 > 4.
	if buf.RGBAAt(2, 1) == colorutil.Red {
		t.Error("pixel (2,1) outside radius painted")
	}
	// Negative coordinates are clipped, not wrapped.
	if buf.RGBAAt(9, 9) == colorutil.Red {
		t.Error("clipping failed, far pixel painted")
	}
}

func TestEraseCircle(t *testing.T) {
	buf := image.NewRGBA(image.Rect(0, 0, 5, 5))
	PaintCircle(buf, 2, 2, 2)
	EraseCircle(buf, 2, 2, 1)

	if buf.RGBAAt(2, 2) != (color.RGBA{}) {
		t.Error("center pixel not erased")
	}
	if buf.RGBAAt(4, 2) != colorutil.Red {
		t.Error("pixel outside erase radius was cleared")
	}
}

func TestReconcile(t *testing.T) {
	source := image.NewRGBA(image.Rect(0, 0, 3, 1))
	source.SetRGBA(0, 0, colorutil.White) // open, operator adds
	source.SetRGBA(1, 0, colorutil.Black) // blocked, operator removes
	source.SetRGBA(2, 0, colorutil.Black) // blocked, untouched

	edits := FromPrediction(source)
	PaintCircle(edits, 0, 0, 0)
	EraseCircle(edits, 1, 0, 0)

	out := Reconcile(source, edits)

	if got := out.RGBAAt(0, 0); got != colorutil.Black {
		t.Errorf("added pixel = %v; want black", got)
	}
	if got := out.RGBAAt(1, 0); got != colorutil.MaskOpen {
		t.Errorf("removed pixel = %v; want open gray", got)
	}
	if got := out.RGBAAt(2, 0); got != colorutil.Black {
		t.Errorf("untouched blocked pixel = %v; want black", got)
	}
}

func TestToolString(t *testing.T) {
	if ToolAdd.String() != "add" || ToolRemove.String() != "remove" || ToolNone.String() != "none" {
		t.Errorf("Tool strings = %q %q %q", ToolAdd, ToolRemove, ToolNone)
	}
}
