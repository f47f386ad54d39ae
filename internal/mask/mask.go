// Package mask implements the passability-mask raster editor: converting a
// predicted mask into an edit buffer, circular paint/erase strokes, and the
// reconciliation of operator edits against the original prediction.
//
// The package works on plain image buffers and is independent of any
// rendering surface.
package mask

import (
	"image"
	"image/color"

	"course-setter/pkg/colorutil"
)

// Brush radius limits, adjusted one step per scroll notch.
const (
	MinBrushRadius     = 1
	MaxBrushRadius     = 10
	DefaultBrushRadius = 2
)

// Tool selects the active raster operation.
type Tool int

const (
	ToolNone Tool = iota
	ToolAdd       // paint blocked pixels
	ToolRemove    // erase operator-added (or predicted) blocked pixels
)

func (t Tool) String() string {
	switch t {
	case ToolAdd:
		return "add"
	case ToolRemove:
		return "remove"
	default:
		return "none"
	}
}

// Brush holds the shared brush radius of both raster tools.
type Brush struct {
	Radius int
}

// NewBrush returns a brush at the default radius.
func NewBrush() *Brush {
	return &Brush{Radius: DefaultBrushRadius}
}

// Adjust grows or shrinks the radius by one step, clamped to the limits.
func (b *Brush) Adjust(grow bool) {
	if grow {
		if b.Radius < MaxBrushRadius {
			b.Radius++
		}
	} else if b.Radius > MinBrushRadius {
		b.Radius--
	}
}

// FromPrediction converts a predicted mask into an edit buffer: every opaque
// black pixel (blocked) becomes opaque red, everything else fully
// transparent. The buffer represents blocked additions relative to the
// source, not the full mask.
func FromPrediction(src image.Image) *image.RGBA {
	bounds := src.Bounds()
	buf := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if isBlocked(src.At(x, y)) {
				buf.SetRGBA(x-bounds.Min.X, y-bounds.Min.Y, colorutil.Red)
			}
		}
	}
	return buf
}

// PaintCircle marks every pixel within radius of the center as blocked
// (opaque red) in the edit buffer. The boundary test is inclusive.
func PaintCircle(buf *image.RGBA, centerX, centerY, radius int) {
	forEachInCircle(buf.Bounds(), centerX, centerY, radius, func(x, y int) {
		buf.SetRGBA(x, y, colorutil.Red)
	})
}

// EraseCircle clears every pixel within radius of the center to fully
// transparent in the edit buffer.
func EraseCircle(buf *image.RGBA, centerX, centerY, radius int) {
	forEachInCircle(buf.Bounds(), centerX, centerY, radius, func(x, y int) {
		buf.SetRGBA(x, y, color.RGBA{})
	})
}

// Reconcile merges operator edits back against the source mask and returns
// the new mask raster: red edits over non-blocked source become blocked
// (opaque black); blocked source pixels no longer covered by red become open
// (a fixed light gray, kept opaque so the stored mask stays a flat raster);
// all other pixels keep their source value.
func Reconcile(source image.Image, edits *image.RGBA) *image.RGBA {
	bounds := source.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			ox, oy := x-bounds.Min.X, y-bounds.Min.Y
			srcCol := source.At(x, y)
			wasBlocked := isBlocked(srcCol)
			isRed := edits.RGBAAt(ox, oy) == colorutil.Red
			switch {
			case isRed && !wasBlocked:
				out.SetRGBA(ox, oy, colorutil.Black)
			case !isRed && wasBlocked:
				out.SetRGBA(ox, oy, colorutil.MaskOpen)
			default:
				out.Set(ox, oy, srcCol)
			}
		}
	}
	return out
}

// isBlocked reports whether a mask pixel is opaque black.
func isBlocked(c color.Color) bool {
	r, g, b, a := c.RGBA()
	return r == 0 && g == 0 && b == 0 && a > 0
}

// forEachInCircle visits every buffer pixel inside the inclusive circle
// dx²+dy² ≤ r², clipped to the buffer bounds.
func forEachInCircle(bounds image.Rectangle, centerX, centerY, radius int, visit func(x, y int)) {
	r2 := radius * radius
	for y := centerY - radius; y <= centerY+radius; y++ {
		if y < bounds.Min.Y || y >= bounds.Max.Y {
			continue
		}
		for x := centerX - radius; x <= centerX+radius; x++ {
			if x < bounds.Min.X || x >= bounds.Max.X {
				continue
			}
			dx, dy := x-centerX, y-centerY
			if dx*dx+dy*dy <= r2 {
				visit(x, y)
			}
		}
	}
}
