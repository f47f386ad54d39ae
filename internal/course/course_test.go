package course

import (
	"strings"
	"testing"

	"course-setter/pkg/geometry"
)

func TestDecodeNormalizesEmptyDocument(t *testing.T) {
	doc, err := Decode([]byte(`{"published":false}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if doc.Scale != 1 {
		t.Errorf("Scale = %f; want 1", doc.Scale)
	}
	if doc.Pairs == nil {
		t.Error("Pairs not normalized to empty slice")
	}
}

func TestDecodeNormalizesNestedNils(t *testing.T) {
	doc, err := Decode([]byte(`{"cP":[{"start":null,"ziel":null,"complex":true,"route":[{"length":null}]}]}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	cp := doc.Pair(0)
	if cp == nil || cp.Routes == nil {
		t.Fatal("pair routes not normalized")
	}
	if cp.Routes[0].Points == nil {
		t.Error("route points not normalized to empty slice")
	}
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	if _, err := Decode([]byte(`{"cP":`)); err == nil {
		t.Error("Decode(malformed) should fail")
	}
}

func TestEncodeFieldNames(t *testing.T) {
	doc := New()
	cp := NewControlPair()
	start := geometry.Point2D{X: 1, Y: 2}
	finish := geometry.Point2D{X: 3, Y: 4}
	cp.Start = &start
	cp.Finish = &finish
	r := NewRoute()
	r.AppendPoint(start)
	cp.Routes = append(cp.Routes, r)
	doc.Pairs = append(doc.Pairs, cp)

	data, err := doc.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// The stored format is shared with other tooling; the field names
	// must not drift.
	for _, key := range []string{`"cP"`, `"sP"`, `"ziel"`, `"rP"`, `"noA"`, `"pos"`, `"runTime"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("encoded document missing %s:\n%s", key, data)
		}
	}
}

func TestOpenRouteReplacesAtIndex(t *testing.T) {
	cp := NewControlPair()
	first, err := cp.OpenRoute(0)
	if err != nil {
		t.Fatalf("OpenRoute(0): %v", err)
	}
	first.AppendPoint(geometry.Point2D{X: 1, Y: 1})

	replacement, err := cp.OpenRoute(0)
	if err != nil {
		t.Fatalf("OpenRoute(0) again: %v", err)
	}
	if len(replacement.Points) != 0 {
		t.Error("replacement route should start empty")
	}
	if len(cp.Routes) != 1 {
		t.Errorf("len(Routes) = %d; want 1", len(cp.Routes))
	}
}

func TestOpenRouteCapOnSimplePair(t *testing.T) {
	cp := NewControlPair()
	if err := cp.SetComplex(false); err != nil {
		t.Fatalf("SetComplex: %v", err)
	}
	for i := 0; i < MaxSimpleRoutes; i++ {
		if _, err := cp.OpenRoute(i); err != nil {
			t.Fatalf("OpenRoute(%d): %v", i, err)
		}
	}
	if _, err := cp.OpenRoute(MaxSimpleRoutes); err != ErrRouteLimit {
		t.Errorf("OpenRoute beyond cap = %v; want ErrRouteLimit", err)
	}
	if len(cp.Routes) != MaxSimpleRoutes {
		t.Errorf("len(Routes) = %d; want %d", len(cp.Routes), MaxSimpleRoutes)
	}
}

func TestSetComplexRejectsNarrowingWithThreeRoutes(t *testing.T) {
	cp := NewControlPair()
	for i := 0; i < 3; i++ {
		if _, err := cp.OpenRoute(i); err != nil {
			t.Fatalf("OpenRoute(%d): %v", i, err)
		}
	}
	if err := cp.SetComplex(false); err != ErrComplexRequired {
		t.Errorf("SetComplex(false) = %v; want ErrComplexRequired", err)
	}
	if !cp.Complex {
		t.Error("pair must stay complex after rejected narrowing")
	}
}

func TestRouteClosed(t *testing.T) {
	finish := geometry.Point2D{X: 10, Y: 10}
	cp := NewControlPair()
	cp.Finish = &finish

	r := NewRoute()
	if r.Closed(cp) {
		t.Error("empty route must not be closed")
	}
	r.AppendPoint(geometry.Point2D{X: 5, Y: 5})
	if r.Closed(cp) {
		t.Error("route not ending on finish must not be closed")
	}
	r.AppendPoint(finish)
	if !r.Closed(cp) {
		t.Error("route ending exactly on finish must be closed")
	}
}

func TestPopPoint(t *testing.T) {
	r := NewRoute()
	if _, ok := r.PopPoint(); ok {
		t.Error("PopPoint on empty route should report !ok")
	}
	p := geometry.Point2D{X: 1, Y: 2}
	r.AppendPoint(p)
	got, ok := r.PopPoint()
	if !ok || got != p {
		t.Errorf("PopPoint = %+v, %v; want %+v, true", got, ok, p)
	}
	if len(r.Points) != 0 {
		t.Errorf("len(Points) = %d; want 0", len(r.Points))
	}
}
