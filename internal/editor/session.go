// Package editor implements the tool-mode state machine of the course
// setter. A Session owns the course document, the viewport, the current
// pair/route indices, and the in-progress sub-state of multi-click
// operations, so every pointer or key event resolves to an explicit,
// testable transition.
package editor

import (
	"errors"
	"sync"
	"time"

	"course-setter/internal/course"
	"course-setter/internal/mask"
	"course-setter/internal/metrics"
	"course-setter/internal/view"
	"course-setter/pkg/geometry"
)

// Mode is the active editor tool.
type Mode int

const (
	ModePlaceControls Mode = iota
	ModeDrawRoutes
	ModeScaleMap
	ModeEditMask
)

func (m Mode) String() string {
	switch m {
	case ModePlaceControls:
		return "placeControls"
	case ModeDrawRoutes:
		return "drawRoutes"
	case ModeScaleMap:
		return "scaleMap"
	case ModeEditMask:
		return "editMask"
	default:
		return "unknown"
	}
}

// GrabDelay is how long a pointer button must stay down before the canvas
// shows the grab cursor; quicker presses read as placement clicks.
const GrabDelay = 150 * time.Millisecond

// User-input rejections surfaced as messages; the document stays unchanged.
var (
	ErrNoPair        = errors.New("editor: no placed control pair to draw routes for")
	ErrInvalidScale  = errors.New("editor: scale distance must be a positive number")
	ErrNotCalibrated = errors.New("editor: no calibration distance captured")
)

// EventType identifies session events the UI subscribes to.
type EventType int

const (
	EventDocumentChanged EventType = iota
	EventModeChanged
	EventLoadingChanged
	EventScaleCaptured
)

// Listener is called when an event is emitted.
type Listener func(data interface{})

// Session is the single mutable editor state. Mutations happen on the UI
// event loop; only the loading flag and the listener table are touched by
// background workers, so those two live behind the mutex.
type Session struct {
	Doc   *course.Document
	View  *view.Viewport
	Brush *mask.Brush

	mode     Mode
	maskTool mask.Tool

	// Current indices. Both may sit one past the end of their slice,
	// denoting "about to create new".
	pairIndex  int
	routeIndex int

	// In-progress sub-states.
	placingFinish bool // start placed, waiting for the finish click
	drawingRoute  bool // route open, clicks append points
	calibStep     int  // 0 idle, 1 waiting for p1, 2 waiting for p2

	// Pan discrimination: translation at pointer-down. A pointer-up is a
	// commit only when the translation is unchanged.
	downTransX, downTransY float64

	mu        sync.RWMutex // guards loading and listeners
	loading   bool
	listeners map[EventType][]Listener
}

// NewSession creates a session over an empty document at identity view.
func NewSession() *Session {
	return &Session{
		Doc:       course.New(),
		View:      view.New(),
		Brush:     mask.NewBrush(),
		mode:      ModePlaceControls,
		listeners: make(map[EventType][]Listener),
	}
}

// On registers a listener for an event type.
func (s *Session) On(event EventType, l Listener) {
	s.mu.Lock()
	s.listeners[event] = append(s.listeners[event], l)
	s.mu.Unlock()
}

func (s *Session) emit(event EventType, data interface{}) {
	s.mu.RLock()
	ls := s.listeners[event]
	s.mu.RUnlock()
	for _, l := range ls {
		l(data)
	}
}

// Mode returns the active tool mode.
func (s *Session) Mode() Mode { return s.mode }

// MaskTool returns the active mask sub-mode.
func (s *Session) MaskTool() mask.Tool { return s.maskTool }

// PairIndex returns the current control-pair index.
func (s *Session) PairIndex() int { return s.pairIndex }

// RouteIndex returns the current route index within the current pair.
func (s *Session) RouteIndex() int { return s.routeIndex }

// PlacingFinish reports whether a pair's start is placed and the finish
// click is pending.
func (s *Session) PlacingFinish() bool { return s.placingFinish }

// DrawingRoute reports whether a route is open for point appends.
func (s *Session) DrawingRoute() bool { return s.drawingRoute }

// Calibrating reports whether a scale calibration is in progress.
func (s *Session) Calibrating() bool { return s.calibStep > 0 }

// CalibrationHasFirst reports whether the first calibration point is set.
func (s *Session) CalibrationHasFirst() bool { return s.calibStep == 2 }

// Loading reports whether an asynchronous operation is outstanding. Safe
// to call from any goroutine.
func (s *Session) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// SetLoading flips the loading flag and notifies the UI, which switches
// between the spinner frame loop and normal redraws. Safe to call from
// any goroutine; prediction workers clear it when they finish.
func (s *Session) SetLoading(loading bool) {
	s.mu.Lock()
	if s.loading == loading {
		s.mu.Unlock()
		return
	}
	s.loading = loading
	s.mu.Unlock()
	s.emit(EventLoadingChanged, loading)
}

// SetMode switches the tool mode. Entering route drawing rewinds to the
// first route of the current pair; leaving mask mode clears the sub-mode.
func (s *Session) SetMode(m Mode) {
	if m == ModeDrawRoutes {
		s.routeIndex = 0
	}
	if m != ModeEditMask {
		s.maskTool = mask.ToolNone
	}
	if m != ModeScaleMap {
		s.calibStep = 0
	}
	s.mode = m
	s.emit(EventModeChanged, m)
}

// SetMaskTool selects the paint or erase brush; only meaningful in mask mode.
func (s *Session) SetMaskTool(t mask.Tool) {
	s.maskTool = t
	s.emit(EventModeChanged, s.mode)
}

// SelectPair jumps to the control pair at index i (which may be one past the
// end, meaning "new pair"). Ignored while a pair is being placed. Switching
// pairs rewinds to the first route.
func (s *Session) SelectPair(i int) {
	if !s.placingFinish && i >= 0 && i <= len(s.Doc.Pairs) {
		s.pairIndex = i
	}
	s.routeIndex = 0
	s.emit(EventDocumentChanged, nil)
}

// SelectRoute jumps to the route at index i within the current pair.
// Ignored while a route is being drawn.
func (s *Session) SelectRoute(i int) {
	cp := s.Doc.Pair(s.pairIndex)
	if !s.drawingRoute && cp != nil && i >= 0 && i <= len(cp.Routes) {
		s.routeIndex = i
	}
	s.emit(EventDocumentChanged, nil)
}

// NextPair advances to the next pair, as the "n" shortcut does.
func (s *Session) NextPair() {
	if s.pairIndex < len(s.Doc.Pairs) {
		s.pairIndex++
		s.routeIndex = 0
	}
	s.emit(EventDocumentChanged, nil)
}

// PointerDown records the viewport translation so the matching pointer-up
// can tell a click from a pan.
func (s *Session) PointerDown() {
	s.downTransX = s.View.TransX
	s.downTransY = s.View.TransY
}

// PointerUp commits a click at the given screen position unless the
// viewport was panned since PointerDown. The returned error, if any, is a
// user-input rejection to surface as a message.
func (s *Session) PointerUp(screen geometry.Point2D) error {
	if s.View.TransX != s.downTransX || s.View.TransY != s.downTransY {
		return nil // pan gesture, not a placement click
	}
	world := s.ResolveCursor(s.View.ToWorld(screen))
	return s.Click(world)
}

// ResolveCursor applies mode-dependent snapping to a live world position.
func (s *Session) ResolveCursor(live geometry.Point2D) geometry.Point2D {
	switch s.mode {
	case ModePlaceControls:
		// Snap a new pair's start onto the previous pair's finish so
		// consecutive legs can share a control.
		if s.pairIndex > 0 && !s.placingFinish {
			if prev := s.Doc.Pair(s.pairIndex - 1); prev != nil {
				return view.Snap(live, prev.Finish, view.SnapThreshold)
			}
		}
	case ModeDrawRoutes:
		cp := s.Doc.Pair(s.pairIndex)
		if cp == nil {
			break
		}
		if !s.drawingRoute {
			return view.Snap(live, cp.Start, view.SnapThreshold)
		}
		return view.Snap(live, cp.Finish, view.SnapThreshold/view.RouteSnapDivisor)
	}
	return live
}

// Click dispatches a committed click at a world position to the active mode.
func (s *Session) Click(world geometry.Point2D) error {
	var err error
	switch s.mode {
	case ModePlaceControls:
		s.placeControl(world)
	case ModeDrawRoutes:
		err = s.placeRoutePoint(world)
	case ModeScaleMap:
		s.placeScalePoint(world)
	case ModeEditMask:
		// Mask painting happens on pointer-move, not on commit clicks.
	}
	s.emit(EventDocumentChanged, nil)
	return err
}

// placeControl stores the start of a new pair, or completes the pair with
// its finish and advances to the next one.
func (s *Session) placeControl(world geometry.Point2D) {
	if s.placingFinish {
		cp := s.Doc.Pair(s.pairIndex)
		finish := world
		cp.Finish = &finish
		s.placingFinish = false
		s.pairIndex++
		return
	}
	if s.pairIndex >= len(s.Doc.Pairs) {
		s.Doc.Pairs = append(s.Doc.Pairs, course.NewControlPair())
		s.pairIndex = len(s.Doc.Pairs) - 1
	} else {
		// Re-placing an existing pair discards its old controls.
		cp := s.Doc.Pair(s.pairIndex)
		cp.Start = nil
		cp.Finish = nil
	}
	start := world
	s.Doc.Pair(s.pairIndex).Start = &start
	s.placingFinish = true
}

// placeRoutePoint opens a route if none is in progress and appends the
// clicked point. A point landing exactly on the pair's finish (post-snap)
// closes the route and computes its derived metrics.
func (s *Session) placeRoutePoint(world geometry.Point2D) error {
	cp := s.Doc.Pair(s.pairIndex)
	if cp == nil || !cp.Placed() {
		return ErrNoPair
	}
	if !s.drawingRoute {
		if _, err := cp.OpenRoute(s.routeIndex); err != nil {
			return err
		}
		s.drawingRoute = true
	}
	r := cp.Route(s.routeIndex)
	r.AppendPoint(world)

	if r.Closed(cp) {
		metrics.Close(cp, r)
		s.routeIndex++
		s.drawingRoute = false
	}
	return nil
}

// placeScalePoint records the two calibration clicks. The second click
// computes the pixel distance and hands off to the scale-entry step via
// EventScaleCaptured.
func (s *Session) placeScalePoint(world geometry.Point2D) {
	switch s.calibStep {
	case 1:
		p := world
		s.Doc.ScalePair.P1 = &p
		s.calibStep = 2
	case 2:
		p := world
		s.Doc.ScalePair.P2 = &p
		dist := s.Doc.ScalePair.P1.Distance(p)
		s.Doc.ScalePair.Dist = &dist
		s.calibStep = 0
		s.emit(EventScaleCaptured, dist)
	}
}

// BeginScaleCalibration enters calibration mode, waiting for two reference
// clicks on the map.
func (s *Session) BeginScaleCalibration() {
	s.placingFinish = false
	s.SetMode(ModeScaleMap)
	s.calibStep = 1
}

// SubmitScale completes calibration: the operator-entered real distance and
// the captured pixel distance fix the document scale factor.
func (s *Session) SubmitScale(realDistance float64) error {
	if realDistance <= 0 {
		return ErrInvalidScale
	}
	if s.Doc.ScalePair.Dist == nil || *s.Doc.ScalePair.Dist == 0 {
		return ErrNotCalibrated
	}
	s.Doc.Scale = realDistance / *s.Doc.ScalePair.Dist / metrics.MetersPerPixel
	s.Doc.Scaled = true
	s.View.Reset()
	s.SetMode(ModePlaceControls)
	s.emit(EventDocumentChanged, nil)
	return nil
}

// Delete performs the mode-dependent delete action: dropping the current
// pair or route, aborting an in-progress placement, or popping the last
// point of a route being drawn.
func (s *Session) Delete() {
	switch s.mode {
	case ModePlaceControls:
		if len(s.Doc.Pairs) == 0 {
			break
		}
		s.Doc.RemovePair(s.pairIndex)
		if s.placingFinish {
			s.placingFinish = false
		} else if s.pairIndex > 0 {
			s.pairIndex--
		}
		s.routeIndex = 0
	case ModeDrawRoutes:
		cp := s.Doc.Pair(s.pairIndex)
		if cp == nil || len(cp.Routes) == 0 {
			break
		}
		if !s.drawingRoute {
			cp.RemoveRoute(s.routeIndex)
			if s.routeIndex > 0 {
				s.routeIndex--
			}
			break
		}
		r := cp.Route(s.routeIndex)
		if r == nil {
			break
		}
		if _, ok := r.PopPoint(); ok && len(r.Points) == 0 {
			s.drawingRoute = false
		}
	}
	s.emit(EventDocumentChanged, nil)
}

// ReplaceDocument swaps in a freshly loaded document and rewinds all
// editing state, as a project load does.
func (s *Session) ReplaceDocument(doc *course.Document) {
	s.Doc = doc
	s.pairIndex = 0
	s.routeIndex = 0
	s.placingFinish = false
	s.drawingRoute = false
	s.calibStep = 0
	s.View.Reset()
	s.SetMode(ModePlaceControls)
	s.emit(EventDocumentChanged, nil)
}

// ResetForNewMap clears pairs and scale state after a new map upload,
// keeping the freshly assigned map reference.
func (s *Session) ResetForNewMap(mapFile string, scaled bool) {
	s.Doc.MapFile = mapFile
	s.Doc.Scaled = scaled
	s.Doc.Scale = 1
	s.Doc.Pairs = []*course.ControlPair{}
	s.Doc.ScalePair = course.ScaleCalibration{}
	s.pairIndex = 0
	s.routeIndex = 0
	s.placingFinish = false
	s.drawingRoute = false
	s.emit(EventDocumentChanged, nil)
}
