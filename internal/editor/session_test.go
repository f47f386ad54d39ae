package editor

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"

	"course-setter/internal/course"
	"course-setter/pkg/geometry"
)

func place(t *testing.T, s *Session, x, y float64) {
	t.Helper()
	if err := s.Click(geometry.Point2D{X: x, Y: y}); err != nil {
		t.Fatalf("Click(%f, %f): %v", x, y, err)
	}
}

func placePair(t *testing.T, s *Session, sx, sy, fx, fy float64) {
	t.Helper()
	place(t, s, sx, sy)
	place(t, s, fx, fy)
}

func TestPlaceControlsAdvancesPair(t *testing.T) {
	s := NewSession()

	place(t, s, 10, 20)
	if !s.PlacingFinish() {
		t.Fatal("start click must leave the finish pending")
	}
	if cp := s.Doc.Pair(0); cp == nil || cp.Start == nil || cp.Finish != nil {
		t.Fatal("pair 0 should have only its start placed")
	}

	place(t, s, 50, 60)
	if s.PlacingFinish() {
		t.Error("finish click must clear the pending state")
	}
	if s.PairIndex() != 1 {
		t.Errorf("PairIndex = %d; want 1", s.PairIndex())
	}
	if cp := s.Doc.Pair(0); !cp.Placed() {
		t.Error("pair 0 should be fully placed")
	}
}

func TestNextPairStartSnapsToPreviousFinish(t *testing.T) {
	s := NewSession()
	placePair(t, s, 10, 10, 50, 50)

	s.PointerDown()
	if err := s.PointerUp(geometry.Point2D{X: 60, Y: 55}); err != nil {
		t.Fatalf("PointerUp: %v", err)
	}

	cp := s.Doc.Pair(1)
	if cp == nil || cp.Start == nil {
		t.Fatal("second pair start not placed")
	}
	if *cp.Start != (geometry.Point2D{X: 50, Y: 50}) {
		t.Errorf("second start = %+v; want snapped to (50, 50)", *cp.Start)
	}
}

func TestPanSuppressesPlacement(t *testing.T) {
	s := NewSession()
	s.PointerDown()
	s.View.Pan(5, 0)
	if err := s.PointerUp(geometry.Point2D{X: 10, Y: 10}); err != nil {
		t.Fatalf("PointerUp: %v", err)
	}
	if len(s.Doc.Pairs) != 0 {
		t.Errorf("pan gesture placed a control: %d pairs", len(s.Doc.Pairs))
	}
}

func TestRouteDrawingWithoutPairFails(t *testing.T) {
	s := NewSession()
	s.SetMode(ModeDrawRoutes)
	if err := s.Click(geometry.Point2D{X: 1, Y: 1}); err != ErrNoPair {
		t.Errorf("Click = %v; want ErrNoPair", err)
	}
}

func TestRouteCloseComputesMetrics(t *testing.T) {
	s := NewSession()
	placePair(t, s, 0, 0, 300, 400)
	s.SelectPair(0)
	s.SetMode(ModeDrawRoutes)

	place(t, s, 0, 0)
	if !s.DrawingRoute() {
		t.Fatal("first route click must open the route")
	}
	place(t, s, 300, 400)

	if s.DrawingRoute() {
		t.Error("closing click must end the drawing state")
	}
	if s.RouteIndex() != 1 {
		t.Errorf("RouteIndex = %d; want 1", s.RouteIndex())
	}
	r := s.Doc.Pair(0).Route(0)
	if r.Length == nil || *r.Length != 240 {
		t.Errorf("route length = %v; want 240", r.Length)
	}
	if r.SideWeight == nil {
		t.Error("side weight not computed on close")
	}
}

func TestRouteLimitOnSimplePair(t *testing.T) {
	s := NewSession()
	placePair(t, s, 0, 0, 100, 0)
	s.SelectPair(0)
	if err := s.Doc.Pair(0).SetComplex(false); err != nil {
		t.Fatalf("SetComplex: %v", err)
	}
	s.SetMode(ModeDrawRoutes)

	for i := 0; i < course.MaxSimpleRoutes; i++ {
		place(t, s, 50, 20)
		place(t, s, 100, 0)
	}
	if err := s.Click(geometry.Point2D{X: 50, Y: 20}); err != course.ErrRouteLimit {
		t.Errorf("third route click = %v; want ErrRouteLimit", err)
	}
}

func TestScaleCalibrationFlow(t *testing.T) {
	s := NewSession()
	var captured float64
	s.On(EventScaleCaptured, func(data interface{}) {
		captured, _ = data.(float64)
	})

	s.BeginScaleCalibration()
	if s.Mode() != ModeScaleMap || !s.Calibrating() {
		t.Fatal("calibration did not enter scale mode")
	}

	place(t, s, 0, 0)
	if !s.CalibrationHasFirst() {
		t.Fatal("first calibration point not recorded")
	}
	place(t, s, 0, 100)
	if captured != 100 {
		t.Fatalf("captured distance = %f; want 100", captured)
	}

	// 48 real meters across 100 pixels at 0.48 m/px is exactly scale 1.
	if err := s.SubmitScale(48); err != nil {
		t.Fatalf("SubmitScale: %v", err)
	}
	if math.Abs(s.Doc.Scale-1) > 1e-9 {
		t.Errorf("Scale = %f; want 1", s.Doc.Scale)
	}
	if !s.Doc.Scaled {
		t.Error("document not marked scaled")
	}
	if s.Mode() != ModePlaceControls {
		t.Errorf("mode after calibration = %v; want placeControls", s.Mode())
	}
}

func TestSubmitScaleValidation(t *testing.T) {
	s := NewSession()
	if err := s.SubmitScale(10); err != ErrNotCalibrated {
		t.Errorf("SubmitScale without calibration = %v; want ErrNotCalibrated", err)
	}
	s.BeginScaleCalibration()
	place(t, s, 0, 0)
	place(t, s, 0, 100)
	if err := s.SubmitScale(-5); err != ErrInvalidScale {
		t.Errorf("SubmitScale(-5) = %v; want ErrInvalidScale", err)
	}
}

func TestSelectPairBlockedWhilePlacing(t *testing.T) {
	s := NewSession()
	placePair(t, s, 0, 0, 10, 10)
	place(t, s, 20, 20) // second pair start, finish pending

	s.SelectPair(0)
	if s.PairIndex() != 1 {
		t.Errorf("PairIndex = %d; pair switch must be blocked mid-placement", s.PairIndex())
	}
}

func TestDeletePopsRoutePointWhileDrawing(t *testing.T) {
	s := NewSession()
	placePair(t, s, 0, 0, 100, 100)
	s.SelectPair(0)
	s.SetMode(ModeDrawRoutes)
	place(t, s, 10, 10)
	place(t, s, 20, 20)

	s.Delete()
	r := s.Doc.Pair(0).Route(0)
	if len(r.Points) != 1 {
		t.Fatalf("len(Points) after delete = %d; want 1", len(r.Points))
	}
	if !s.DrawingRoute() {
		t.Error("drawing must continue while points remain")
	}

	s.Delete()
	if s.DrawingRoute() {
		t.Error("deleting the last point must end the drawing state")
	}
}

func TestDeleteRemovesCurrentPair(t *testing.T) {
	s := NewSession()
	placePair(t, s, 0, 0, 10, 10)
	placePair(t, s, 20, 20, 30, 30)

	s.SelectPair(1)
	s.Delete()
	if len(s.Doc.Pairs) != 1 {
		t.Fatalf("len(Pairs) = %d; want 1", len(s.Doc.Pairs))
	}
	if s.PairIndex() != 0 {
		t.Errorf("PairIndex = %d; want 0", s.PairIndex())
	}
}

func TestResetForNewMap(t *testing.T) {
	s := NewSession()
	placePair(t, s, 0, 0, 10, 10)
	s.Doc.Scale = 2.5

	s.ResetForNewMap("woods.png", true)

	if s.Doc.MapFile != "woods.png" || !s.Doc.Scaled {
		t.Errorf("map state = %q scaled=%v", s.Doc.MapFile, s.Doc.Scaled)
	}
	if s.Doc.Scale != 1 || len(s.Doc.Pairs) != 0 {
		t.Errorf("document not reset: scale=%f pairs=%d", s.Doc.Scale, len(s.Doc.Pairs))
	}
}

func TestLoadingFlagCrossGoroutine(t *testing.T) {
	s := NewSession()

	var events int64
	s.On(EventLoadingChanged, func(interface{}) {
		atomic.AddInt64(&events, 1)
	})

	// Prediction workers flip the flag from their own goroutines while
	// the spinner loop polls it; hammer both sides concurrently.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s.SetLoading(j%2 == 0)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				_ = s.Loading()
			}
		}()
	}
	wg.Wait()

	s.SetLoading(false)
	if s.Loading() {
		t.Error("Loading() = true after final SetLoading(false)")
	}
	if atomic.LoadInt64(&events) == 0 {
		t.Error("no loading-changed events observed")
	}
}
