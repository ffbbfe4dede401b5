// Normalizes pointer and touch input into a single
// stream of start/move/end events, expressed in
// canvas local coordinates.
//
// Two producers are provided, PointerSource and TouchSource.
// Both emit the same Event shape into a Handler, usually an Adapter,
// so that the drawing surface never needs to know the input modality.
package padinput

import "log/slog"

// Phase is the step of a gesture.
type Phase uint8

const (
	Start Phase = iota
	Move
	End
)

func (p Phase) String() string {
	switch p {
	case Start:
		return "start"
	case Move:
		return "move"
	case End:
		return "end"
	default:
		return "<unknown Phase>"
	}
}

// Event is a normalized input event. X and Y are
// relative to the canvas origin and are ignored for End.
type Event struct {
	Phase Phase
	X, Y  float64
}

// Handler consumes normalized events.
type Handler interface {
	HandleEvent(ev Event)
}

// Sink is the receiver of a validated event sequence.
// padraster.Surface implements it.
type Sink interface {
	OnStart(x, y float64)
	OnMove(x, y float64)
	OnEnd()
}

// Adapter enforces the gesture grammar before forwarding to a Sink:
// a Move is only forwarded inside an unterminated Start, and
// an End outside of a gesture is dropped.
// A Start received during a gesture re-anchors the stroke.
type Adapter struct {
	sink   Sink
	active bool
	log    *slog.Logger
}

var _ Handler = (*Adapter)(nil) // assert interface conformance

// NewAdapter returns an idle adapter forwarding to `sink`.
// If logger is nil, slog.Default() is used.
func NewAdapter(sink Sink, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{sink: sink, log: logger}
}

// Drawing returns true while a gesture is in progress.
func (a *Adapter) Drawing() bool { return a.active }

func (a *Adapter) HandleEvent(ev Event) {
	switch ev.Phase {
	case Start:
		a.active = true
		a.sink.OnStart(ev.X, ev.Y)
	case Move:
		if !a.active {
			a.log.Debug("dropping move outside of a stroke", "x", ev.X, "y", ev.Y)
			return
		}
		a.sink.OnMove(ev.X, ev.Y)
	case End:
		if !a.active {
			return
		}
		a.active = false
		a.sink.OnEnd()
	}
}
