// Package course defines the course document: control pairs, candidate
// routes, and the scale calibration that binds map pixels to meters.
package course

import (
	"encoding/json"
	"errors"

	"course-setter/pkg/geometry"
)

// MaxSimpleRoutes is the route cap for a non-complex ("left/right") pair.
const MaxSimpleRoutes = 2

// ErrRouteLimit is returned when a third route is added to a non-complex pair.
var ErrRouteLimit = errors.New("course: left/right pair allows at most 2 routes")

// ErrComplexRequired is returned when a pair holding more than two routes is
// switched to left/right semantics.
var ErrComplexRequired = errors.New("course: pair has more than 2 routes, cannot mark left/right")

// Document is the root course document. The JSON field names match the
// persisted project format and must stay stable.
type Document struct {
	Published bool             `json:"published"`
	MapFile   string           `json:"mapFile,omitempty"`
	Scaled    bool             `json:"scaled"`
	ScalePair ScaleCalibration `json:"sP"`
	Scale     float64          `json:"scale"`
	Pairs     []*ControlPair   `json:"cP"`
}

// ScaleCalibration records the two reference clicks of a scale calibration
// and their pixel distance. Points are nil until clicked.
type ScaleCalibration struct {
	P1   *geometry.Point2D `json:"p1"`
	P2   *geometry.Point2D `json:"p2"`
	Dist *float64          `json:"dist"`
}

// ControlPair is a start/finish marker pair. Finish is nil while the pair is
// still being placed. A non-complex pair carries left/right semantics and
// caps at two routes.
type ControlPair struct {
	Start   *geometry.Point2D `json:"start"`
	Finish  *geometry.Point2D `json:"ziel"`
	Complex bool              `json:"complex"`
	Routes  []*Route          `json:"route"`
}

// Route is one candidate path between a pair's controls. Length, SharpTurns,
// RunTime and SideWeight are derived; nil until computed.
type Route struct {
	Length     *int               `json:"length"`
	SharpTurns *int               `json:"noA"`
	Elevation  float64            `json:"elevation"`
	RunTime    *float64           `json:"runTime"`
	SideWeight *float64           `json:"pos"`
	Points     []geometry.Point2D `json:"rP"`
}

// New creates an empty, unscaled document.
func New() *Document {
	return &Document{
		Scale: 1,
		Pairs: []*ControlPair{},
	}
}

// NewControlPair creates an unplaced control pair. New pairs default to
// complex; the operator narrows them to left/right explicitly.
func NewControlPair() *ControlPair {
	return &ControlPair{
		Complex: true,
		Routes:  []*Route{},
	}
}

// NewRoute creates an empty route with zero elevation.
func NewRoute() *Route {
	return &Route{
		Points: []geometry.Point2D{},
	}
}

// Decode parses a persisted document. The in-memory document is only swapped
// by callers after Decode succeeds.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Scale == 0 {
		doc.Scale = 1
	}
	if doc.Pairs == nil {
		doc.Pairs = []*ControlPair{}
	}
	for _, cp := range doc.Pairs {
		if cp.Routes == nil {
			cp.Routes = []*Route{}
		}
		for _, r := range cp.Routes {
			if r.Points == nil {
				r.Points = []geometry.Point2D{}
			}
		}
	}
	return &doc, nil
}

// Encode serializes the document for persistence.
func (d *Document) Encode() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Pair returns the pair at index i, or nil when out of range.
func (d *Document) Pair(i int) *ControlPair {
	if i < 0 || i >= len(d.Pairs) {
		return nil
	}
	return d.Pairs[i]
}

// RemovePair deletes the pair at index i together with all its routes.
func (d *Document) RemovePair(i int) {
	if i < 0 || i >= len(d.Pairs) {
		return
	}
	d.Pairs = append(d.Pairs[:i], d.Pairs[i+1:]...)
}

// Placed reports whether both controls of the pair have been placed.
func (cp *ControlPair) Placed() bool {
	return cp.Start != nil && cp.Finish != nil
}

// Route returns the route at index i, or nil when out of range.
func (cp *ControlPair) Route(i int) *Route {
	if i < 0 || i >= len(cp.Routes) {
		return nil
	}
	return cp.Routes[i]
}

// OpenRoute prepares the route slot at index i for drawing: an existing
// route at that index is replaced with a fresh one, a new slot is appended
// otherwise. Appending beyond the cap of a non-complex pair fails with
// ErrRouteLimit and leaves the pair unchanged.
func (cp *ControlPair) OpenRoute(i int) (*Route, error) {
	if i < len(cp.Routes) {
		r := NewRoute()
		cp.Routes[i] = r
		return r, nil
	}
	if !cp.Complex && len(cp.Routes) >= MaxSimpleRoutes {
		return nil, ErrRouteLimit
	}
	r := NewRoute()
	cp.Routes = append(cp.Routes, r)
	return r, nil
}

// RemoveRoute deletes the route at index i and its points.
func (cp *ControlPair) RemoveRoute(i int) {
	if i < 0 || i >= len(cp.Routes) {
		return
	}
	cp.Routes = append(cp.Routes[:i], cp.Routes[i+1:]...)
}

// SetComplex switches the pair between complex and left/right semantics.
// Narrowing to left/right is rejected while more than two routes exist.
func (cp *ControlPair) SetComplex(complex bool) error {
	if !complex && len(cp.Routes) > MaxSimpleRoutes {
		return ErrComplexRequired
	}
	cp.Complex = complex
	return nil
}

// AppendPoint adds a point to the end of the route.
func (r *Route) AppendPoint(p geometry.Point2D) {
	r.Points = append(r.Points, p)
}

// PopPoint removes and returns the last point of the route.
// ok is false when the route has no points.
func (r *Route) PopPoint() (p geometry.Point2D, ok bool) {
	if len(r.Points) == 0 {
		return geometry.Point2D{}, false
	}
	p = r.Points[len(r.Points)-1]
	r.Points = r.Points[:len(r.Points)-1]
	return p, true
}

// Closed reports whether the route terminates exactly on the pair's finish
// control. Derived metrics are computed at the moment this becomes true.
func (r *Route) Closed(cp *ControlPair) bool {
	if cp.Finish == nil || len(r.Points) == 0 {
		return false
	}
	last := r.Points[len(r.Points)-1]
	return last == *cp.Finish
}
