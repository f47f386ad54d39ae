// Package view maintains the screen↔world transform of the editor canvas
// and the snapping of live cursor positions onto existing controls.
package view

import (
	"course-setter/pkg/geometry"
)

const (
	// MinZoom and MaxZoom clamp the viewport scale.
	MinZoom = 0.1
	MaxZoom = 10.0

	// ZoomStep is the multiplicative factor of one wheel notch.
	ZoomStep = 1.1
)

// SnapThreshold is the world-unit distance below which the cursor snaps onto
// a control target. Matches the control ring radius.
const SnapThreshold = 25.0

// RouteSnapDivisor tightens the threshold when closing a route onto the
// finish control, so dense route points near the control stay placeable.
const RouteSnapDivisor = 5.0

// Viewport holds the pan/zoom state of the canvas. The world→screen mapping
// is the affine matrix [scale 0 0 scale tx ty].
type Viewport struct {
	Scale  float64
	TransX float64
	TransY float64
}

// New returns a viewport at identity: scale 1, no translation.
func New() *Viewport {
	return &Viewport{Scale: 1}
}

// Reset restores the identity transform.
func (v *Viewport) Reset() {
	v.Scale = 1
	v.TransX = 0
	v.TransY = 0
}

// ToWorld converts a screen position to world coordinates.
func (v *Viewport) ToWorld(screen geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: (screen.X - v.TransX) / v.Scale,
		Y: (screen.Y - v.TransY) / v.Scale,
	}
}

// ToScreen converts a world position to screen coordinates.
func (v *Viewport) ToScreen(world geometry.Point2D) geometry.Point2D {
	return geometry.Point2D{
		X: world.X*v.Scale + v.TransX,
		Y: world.Y*v.Scale + v.TransY,
	}
}

// ZoomAt applies one zoom step at the given screen-space anchor, keeping the
// world point under the anchor fixed. in selects zoom-in vs zoom-out.
// Steps that would leave the scale clamp range are ignored.
func (v *Viewport) ZoomAt(anchor geometry.Point2D, in bool) {
	factor := ZoomStep
	if !in {
		factor = 1 / ZoomStep
	}
	scaled := v.Scale * factor
	if scaled > MaxZoom || scaled < MinZoom {
		return
	}
	v.Scale = scaled
	v.TransX = anchor.X - (anchor.X-v.TransX)*factor
	v.TransY = anchor.Y - (anchor.Y-v.TransY)*factor
}

// Pan shifts the viewport by a screen-space delta.
func (v *Viewport) Pan(dx, dy float64) {
	v.TransX += dx
	v.TransY += dy
}

// Snap resolves a live world position against a target point: positions
// within threshold world units collapse exactly onto the target, so a
// near-miss click cannot produce non-closing geometry.
func Snap(live geometry.Point2D, target *geometry.Point2D, threshold float64) geometry.Point2D {
	if target == nil {
		return live
	}
	if live.Distance(*target) < threshold {
		return *target
	}
	return live
}
