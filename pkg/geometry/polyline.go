package geometry

import "math"

// PolylineLength returns the total length of the polyline through the points.
func PolylineLength(points []Point2D) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += points[i].Distance(points[i-1])
	}
	return total
}

// TurnAngles returns the turn angle in radians at each inner vertex of the
// polyline: the angle between the incoming and outgoing segment vectors.
// Vertices adjacent to a zero-length segment are skipped, since the angle is
// undefined there.
func TurnAngles(points []Point2D) []float64 {
	var angles []float64
	for i := 1; i < len(points)-1; i++ {
		in := points[i].Sub(points[i-1])
		out := points[i+1].Sub(points[i])
		a, ok := AngleBetween(in, out)
		if !ok {
			continue
		}
		angles = append(angles, a)
	}
	return angles
}

// AngleBetween returns the unsigned angle between two vectors in radians.
// ok is false when either vector has zero length.
func AngleBetween(a, b Point2D) (angle float64, ok bool) {
	na, nb := a.Norm(), b.Norm()
	if na == 0 || nb == 0 {
		return 0, false
	}
	cos := a.Dot(b) / (na * nb)
	// Clamp against floating-point drift before acos.
	if cos > 1 {
		cos = 1
	} else if cos < -1 {
		cos = -1
	}
	return math.Acos(cos), true
}
