// Package metrics computes derived route figures: length, sharp-turn count,
// left/right side weight, and grade-adjusted run time.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"course-setter/internal/course"
	"course-setter/pkg/geometry"
)

// Calibration constants. MetersPerPixel ties pixel distance to real distance
// at the reference map rendering scale; its derivation is not documented in
// the source material, so it is kept as a named constant rather than derived.
const (
	MetersPerPixel = 0.48
	BaseRunSpeed   = 4.75 // meters per second on flat ground

	// SharpTurnDeg is the turn angle above which a vertex counts as sharp.
	SharpTurnDeg = 60.0
)

// Length returns the route length in meters: the polyline length scaled by
// MetersPerPixel and rounded to the nearest integer.
func Length(points []geometry.Point2D) int {
	return int(math.Round(geometry.PolylineLength(points) * MetersPerPixel))
}

// SharpTurns counts inner vertices whose turn angle exceeds SharpTurnDeg.
// Vertices on zero-length segments have no defined angle and never count.
func SharpTurns(points []geometry.Point2D) int {
	threshold := SharpTurnDeg * math.Pi / 180
	count := 0
	for _, a := range geometry.TurnAngles(points) {
		if a > threshold {
			count++
		}
	}
	return count
}

// SideWeight returns the mean signed cross product of each route point
// (relative to start) against the start→finish axis. A positive value means
// the route predominantly lies on one side of the direct line, negative the
// other; the magnitude is not normalized. An empty route weighs zero.
func SideWeight(start, finish geometry.Point2D, points []geometry.Point2D) float64 {
	if len(points) == 0 {
		return 0
	}
	axis := finish.Sub(start)
	crosses := make([]float64, len(points))
	for i, p := range points {
		crosses[i] = axis.Cross(p.Sub(start))
	}
	return stat.Mean(crosses, nil)
}

// RunTime estimates the seconds needed to run a route of the given length
// and total elevation change, using a grade-adjusted pace model: climbs and
// descents are penalized symmetrically relative to flat ground.
func RunTime(lengthMeters int, elevationMeters float64) float64 {
	if lengthMeters <= 0 {
		return 0
	}
	length := float64(lengthMeters)
	gradient := elevationMeters / length * 100
	gapUp := 0.0017*gradient*gradient + 0.02901*gradient + 0.99387
	gapDown := 0.0017*gradient*gradient - 0.02901*gradient + 0.99387
	pace := BaseRunSpeed / ((gapUp + gapDown) / 2)
	return length / pace
}

// Close computes and stores the derived figures of a just-closed route:
// length, sharp-turn count, and side weight. Run times are filled in
// separately at save time by UpdateRunTimes.
func Close(cp *course.ControlPair, r *course.Route) {
	length := Length(r.Points)
	turns := SharpTurns(r.Points)
	r.Length = &length
	r.SharpTurns = &turns
	if cp.Start != nil && cp.Finish != nil {
		w := SideWeight(*cp.Start, *cp.Finish, r.Points)
		r.SideWeight = &w
	}
}

// UpdateRunTimes recomputes the run-time estimate of every measured route
// in the document. Called once per save so stored estimates always match
// the stored elevations.
func UpdateRunTimes(doc *course.Document) {
	for _, cp := range doc.Pairs {
		for _, r := range cp.Routes {
			if r.Length == nil {
				continue
			}
			t := RunTime(*r.Length, r.Elevation)
			r.RunTime = &t
		}
	}
}
