package view

import (
	"encoding/json"

	"github.com/TFMV/forcegraph/viewport"
	"github.com/pkg/errors"
)

// ErrUnknownEvent is returned by Handle for an unrecognized event type
var ErrUnknownEvent = errors.New("unknown event type")

// Event types accepted by Handle
const (
	EventDragStart = "dragstart"
	EventDrag      = "drag"
	EventDragEnd   = "dragend"
	EventHover     = "hover"
	EventUnhover   = "unhover"
	EventZoom      = "zoom"
	EventPan       = "pan"
	EventReset     = "reset"
	EventFit       = "fit"
)

// Event is a pointer or viewport event from a client. X and Y are in
// surface coordinates, before the viewport transform is inverted.
type Event struct {
	Type      string  `json:"type"`
	Node      int     `json:"node"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	DX        float64 `json:"dx"`
	DY        float64 `json:"dy"`
	DeltaY    float64 `json:"deltaY"`
	DeltaMode int     `json:"deltaMode"`
	Ctrl      bool    `json:"ctrl"`
}

// NoNode is the target of an event that names no node
const NoNode = -1

// UnmarshalJSON decodes an event. A message without a node field targets
// NoNode, so it cannot act on the first node by accident.
func (e *Event) UnmarshalJSON(data []byte) error {
	type plain Event
	ev := plain{Node: NoNode}
	if err := json.Unmarshal(data, &ev); err != nil {
		return err
	}
	*e = Event(ev)
	return nil
}

// Handle applies one event and reports whether it changed anything.
// Events naming an unknown node change nothing.
func (v *View) Handle(ev Event) (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	before := v.viewport.Transform()
	var changed bool
	switch ev.Type {
	case EventDragStart:
		p := v.viewport.Invert(ev.X, ev.Y)
		changed = v.ctl.DragStart(ev.Node, p.X, p.Y)
	case EventDrag:
		p := v.viewport.Invert(ev.X, ev.Y)
		changed = v.ctl.Drag(ev.Node, p.X, p.Y)
	case EventDragEnd:
		changed = v.ctl.DragEnd(ev.Node)
	case EventHover:
		changed = v.ctl.HoverEnter(ev.Node)
	case EventUnhover:
		changed = v.ctl.HoverExit(ev.Node)
	case EventZoom:
		changed = v.viewport.Zoom(viewport.WheelFactor(ev.DeltaY, ev.DeltaMode, ev.Ctrl), ev.X, ev.Y) != before
	case EventPan:
		changed = v.viewport.Pan(ev.DX, ev.DY) != before
	case EventReset:
		changed = v.viewport.Reset() != before
	case EventFit:
		o := v.opts.Render
		changed = v.viewport.Fit(v.positions, o.Width, o.Height, fitPadding) != before
	default:
		return false, errors.Wrapf(ErrUnknownEvent, "%q", ev.Type)
	}

	if changed {
		v.dirty = true
		v.Restart()
	}
	return changed, nil
}
