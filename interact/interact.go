// Package interact turns pointer events into simulation pins and scene focus.
//
// The controller is an explicit state machine:
//
//	Idle --HoverEnter(n)--> Hovering(n) --DragStart(n)--> Dragging(n)
//	Dragging(n) --DragEnd(n)--> Hovering(n) --HoverExit(n)--> Idle
//
// Every handler acts on the node passed to it. Hover events that arrive
// while a drag is in progress are ignored, so the focus stays on the
// dragged node until it is released.
package interact

import "github.com/TFMV/forcegraph/models"

// DefaultReheat is the alpha target held while a node is dragged
const DefaultReheat = 0.3

// Simulation is the part of the force simulation a controller drives
type Simulation interface {
	Len() int
	SetAlphaTarget(target float64)
	Pin(i int, x, y float64) bool
	Unpin(i int) bool
}

// Highlighter is the part of the scene a controller restyles
type Highlighter interface {
	Focus(center int, adj *models.Adjacency) bool
	Unfocus()
}

// State is the interaction mode
type State int

const (
	Idle State = iota
	Hovering
	Dragging
)

func (s State) String() string {
	switch s {
	case Hovering:
		return "hovering"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Controller owns the interaction state of one view.
// It is not safe for concurrent use; the owning view serializes events.
type Controller struct {
	sim     Simulation
	scene   Highlighter
	adj     *models.Adjacency
	reheat  float64
	restart func()

	state State
	node  int
}

// Option configures a Controller
type Option func(*Controller)

// WithReheat sets the alpha target used while dragging
func WithReheat(alpha float64) Option {
	return func(c *Controller) {
		if alpha > 0 {
			c.reheat = alpha
		}
	}
}

// WithRestart registers a callback run when a drag reheats the simulation
func WithRestart(fn func()) Option {
	return func(c *Controller) {
		c.restart = fn
	}
}

// NewController creates a controller in the Idle state
func NewController(sim Simulation, scene Highlighter, adj *models.Adjacency, opts ...Option) *Controller {
	c := &Controller{
		sim:    sim,
		scene:  scene,
		adj:    adj,
		reheat: DefaultReheat,
		node:   -1,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current mode and the node it applies to, -1 when Idle
func (c *Controller) State() (State, int) {
	return c.state, c.node
}

func (c *Controller) valid(i int) bool {
	return i >= 0 && i < c.sim.Len()
}

// DragStart pins node i at (x, y) and reheats the simulation so the rest of
// the graph follows the drag. It reports false when i is unknown or another
// node is already being dragged.
func (c *Controller) DragStart(i int, x, y float64) bool {
	if !c.valid(i) {
		return false
	}
	if c.state == Dragging {
		if c.node != i {
			return false
		}
		return c.sim.Pin(i, x, y)
	}
	if !c.sim.Pin(i, x, y) {
		return false
	}
	c.sim.SetAlphaTarget(c.reheat)
	if c.restart != nil {
		c.restart()
	}
	c.scene.Focus(i, c.adj)
	c.state, c.node = Dragging, i
	return true
}

// Drag moves the pin of the dragged node i to (x, y)
func (c *Controller) Drag(i int, x, y float64) bool {
	if c.state != Dragging || c.node != i {
		return false
	}
	return c.sim.Pin(i, x, y)
}

// DragEnd releases node i back to the simulation and lets it cool down.
// The pointer is still over the node, so the controller moves to Hovering(i).
func (c *Controller) DragEnd(i int) bool {
	if c.state != Dragging || c.node != i {
		return false
	}
	c.sim.Unpin(i)
	c.sim.SetAlphaTarget(0)
	c.state = Hovering
	return true
}

// HoverEnter focuses node i and its neighbors
func (c *Controller) HoverEnter(i int) bool {
	if !c.valid(i) || c.state == Dragging {
		return false
	}
	if !c.scene.Focus(i, c.adj) {
		return false
	}
	c.state, c.node = Hovering, i
	return true
}

// HoverExit restores the scene when the pointer leaves the hovered node i.
// An exit for any other node is stale and ignored.
func (c *Controller) HoverExit(i int) bool {
	if c.state != Hovering || c.node != i {
		return false
	}
	c.scene.Unfocus()
	c.state, c.node = Idle, -1
	return true
}

// Cancel ends any interaction: a dragged node is released and focus cleared
func (c *Controller) Cancel() {
	if c.state == Dragging {
		c.sim.Unpin(c.node)
		c.sim.SetAlphaTarget(0)
	}
	if c.state != Idle {
		c.scene.Unfocus()
	}
	c.state, c.node = Idle, -1
}
