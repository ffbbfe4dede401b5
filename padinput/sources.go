package padinput

// PointerKind enumerates the raw mouse/pen signals.
type PointerKind uint8

const (
	PointerDown PointerKind = iota
	PointerMove
	PointerUp
	PointerLeave // the pointer left the canvas
)

// PointerEvent is a raw pointer signal. Offsets are
// already relative to the canvas origin.
type PointerEvent struct {
	Kind             PointerKind
	OffsetX, OffsetY float64
}

// PointerSource translates pointer signals.
type PointerSource struct {
	Target Handler
}

// Pointer forwards `e` to the target, collapsing
// up and leave to End.
func (s PointerSource) Pointer(e PointerEvent) {
	switch e.Kind {
	case PointerDown:
		s.Target.HandleEvent(Event{Phase: Start, X: e.OffsetX, Y: e.OffsetY})
	case PointerMove:
		s.Target.HandleEvent(Event{Phase: Move, X: e.OffsetX, Y: e.OffsetY})
	case PointerUp, PointerLeave:
		s.Target.HandleEvent(Event{Phase: End})
	}
}

// TouchKind enumerates the raw touch signals.
type TouchKind uint8

const (
	TouchStart TouchKind = iota
	TouchMove
	TouchEnd
	TouchCancel
)

// Touch is one contact point, in viewport coordinates.
type Touch struct {
	ClientX, ClientY float64
}

// TouchEvent is a raw touch signal. Only the first
// active touch is used.
type TouchEvent struct {
	Kind    TouchKind
	Touches []Touch
}

// Rect is an on-screen bounding box, in viewport coordinates.
type Rect struct {
	Left, Top, Width, Height float64
}

// Bounder gives the current on-screen position of the canvas.
// It is queried on every event, since scrolling or layout
// changes move the canvas.
type Bounder interface {
	BoundingClientRect() Rect
}

// TouchSource translates touch signals, subtracting
// the canvas origin from the viewport coordinates.
type TouchSource struct {
	Target Handler
	Canvas Bounder
}

// gesture is implemented by targets tracking whether a stroke
// is in progress, such as Adapter.
type gesture interface {
	Drawing() bool
}

// Touch forwards `e` to the target and returns true when the host
// must suppress the default browser behavior (scrolling, zooming):
// always for a start, and for a move only while a stroke is in progress,
// when the target reports it.
func (s TouchSource) Touch(e TouchEvent) (preventDefault bool) {
	switch e.Kind {
	case TouchStart, TouchMove:
		if len(e.Touches) == 0 {
			return false
		}
		phase := Start
		preventDefault = true
		if e.Kind == TouchMove {
			phase = Move
			if g, ok := s.Target.(gesture); ok {
				preventDefault = g.Drawing()
			}
		}
		r := s.Canvas.BoundingClientRect()
		t := e.Touches[0]
		s.Target.HandleEvent(Event{Phase: phase, X: t.ClientX - r.Left, Y: t.ClientY - r.Top})
		return preventDefault
	case TouchEnd, TouchCancel:
		s.Target.HandleEvent(Event{Phase: End})
	}
	return false
}
