package geometry

import (
	"math"
	"testing"
)

func TestPolylineLength(t *testing.T) {
	points := []Point2D{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 3, Y: 14}}
	got := PolylineLength(points)
	if got != 15 {
		t.Errorf("PolylineLength = %f; want 15", got)
	}
	if PolylineLength(nil) != 0 {
		t.Errorf("PolylineLength(nil) = %f; want 0", PolylineLength(nil))
	}
	if PolylineLength(points[:1]) != 0 {
		t.Errorf("PolylineLength(single point) = %f; want 0", PolylineLength(points[:1]))
	}
}

func TestAngleBetween(t *testing.T) {
	a := Point2D{X: 1, Y: 0}
	b := Point2D{X: 0, Y: 1}
	angle, ok := AngleBetween(a, b)
	if !ok {
		t.Fatal("AngleBetween(unit vectors) not ok")
	}
	if math.Abs(angle-math.Pi/2) > 1e-9 {
		t.Errorf("AngleBetween = %f; want pi/2", angle)
	}

	if _, ok := AngleBetween(Point2D{}, b); ok {
		t.Error("AngleBetween with zero vector should not be ok")
	}
}

func TestTurnAnglesSkipsZeroLengthSegments(t *testing.T) {
	points := []Point2D{
		{X: 0, Y: 0},
		{X: 10, Y: 0},
		{X: 10, Y: 0}, // duplicate vertex
		{X: 20, Y: 0},
	}
	if angles := TurnAngles(points); len(angles) != 0 {
		t.Errorf("TurnAngles = %v; want no defined angles", angles)
	}
}

func TestTurnAnglesRightAngle(t *testing.T) {
	points := []Point2D{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}}
	angles := TurnAngles(points)
	if len(angles) != 1 {
		t.Fatalf("len(TurnAngles) = %d; want 1", len(angles))
	}
	if math.Abs(angles[0]-math.Pi/2) > 1e-9 {
		t.Errorf("TurnAngles[0] = %f; want pi/2", angles[0])
	}
}
