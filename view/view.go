// Package view ties one graph to its simulation, scene, viewport and
// interaction state, and drives the tick loop that keeps them in step.
//
// A View owns its graph: the simulation updates node state in place, so
// every view must be built from its own models.Graph.
package view

import (
	"context"
	"sync"
	"time"

	"github.com/TFMV/forcegraph/interact"
	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/physics"
	"github.com/TFMV/forcegraph/render"
	"github.com/TFMV/forcegraph/viewport"
)

// DefaultTickInterval is the frame cadence of Run
const DefaultTickInterval = 16 * time.Millisecond

// fitPadding is the margin kept around the graph by Fit
const fitPadding = 20

// Options configures a view
type Options struct {
	Physics      physics.Options
	Render       render.Options
	Palette      []string
	MinScale     float64
	MaxScale     float64
	Reheat       float64
	TickInterval time.Duration

	// OnTick, when set, is called after every simulation step with its duration
	OnTick func(time.Duration)
}

// DefaultOptions returns the standard configuration
func DefaultOptions() Options {
	return Options{
		Physics:      physics.DefaultOptions(),
		Render:       render.DefaultOptions(),
		MinScale:     viewport.DefaultMinScale,
		MaxScale:     viewport.DefaultMaxScale,
		Reheat:       interact.DefaultReheat,
		TickInterval: DefaultTickInterval,
	}
}

// View is the context object of one visualization. All of its methods are
// safe for concurrent use: a tick and an interaction event never overlap.
type View struct {
	mu        sync.Mutex
	opts      Options
	sim       *physics.Simulation
	scene     *render.Scene
	viewport  *viewport.Viewport
	ctl       *interact.Controller
	positions []models.Point
	seq       uint64
	dirty     bool
	wake      chan struct{}
}

// New creates a view over graph. The graph must not be shared with another view.
func New(graph *models.Graph, opts Options) *View {
	if opts.TickInterval <= 0 {
		opts.TickInterval = DefaultTickInterval
	}
	v := &View{
		opts:     opts,
		sim:      physics.NewSimulation(graph, opts.Physics),
		viewport: viewport.New(opts.MinScale, opts.MaxScale),
		dirty:    true,
		wake:     make(chan struct{}, 1),
	}
	v.scene = render.NewScene(graph, render.NewColorScale(opts.Palette), opts.Render)
	v.ctl = interact.NewController(v.sim, v.scene, graph.Adjacency,
		interact.WithReheat(opts.Reheat),
		interact.WithRestart(v.Restart),
	)
	v.sync()
	return v
}

func (v *View) sync() {
	v.positions = v.sim.Snapshot(v.positions)
	// Both sides are built from the same graph, so lengths always match.
	_ = v.scene.Sync(v.positions)
}

// Tick advances the simulation one step and resynchronizes the scene.
// It does nothing and reports false while the simulation is idle.
func (v *View) Tick() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.sim.Idle() {
		return false
	}
	start := time.Now()
	v.sim.Tick()
	v.sync()
	v.dirty = true
	if v.opts.OnTick != nil {
		v.opts.OnTick(time.Since(start))
	}
	return true
}

// Settle runs the simulation to convergence, up to maxTicks steps, and
// resynchronizes the scene. It reports the ticks run and whether it converged.
func (v *View) Settle(ctx context.Context, maxTicks int) (int, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ticks, converged := v.sim.Settle(ctx, maxTicks)
	v.sync()
	v.dirty = true
	return ticks, converged
}

// Idle reports whether the simulation has converged with nothing reheating it
func (v *View) Idle() bool {
	return v.sim.Idle()
}

// Alpha returns the simulation temperature
func (v *View) Alpha() float64 {
	return v.sim.Alpha()
}

// Restart wakes an idle Run loop
func (v *View) Restart() {
	select {
	case v.wake <- struct{}{}:
	default:
	}
}

// Positions returns a copy of the current node positions
func (v *View) Positions() []models.Point {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]models.Point(nil), v.positions...)
}

// Transform returns the viewport transform
func (v *View) Transform() viewport.Transform {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.viewport.Transform()
}

// State returns the interaction state
func (v *View) State() (interact.State, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ctl.State()
}

// Focused returns the node the scene is focused on, or -1
func (v *View) Focused() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.scene.Focused()
}

// Render encodes the current scene with r
func (v *View) Render(r render.Renderer) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return r.Render(v.scene, v.viewport.Transform())
}

// Frame fills dst with the scene state when it changed since the last call.
// It reports false, leaving dst untouched, when there is nothing new.
func (v *View) Frame(dst *render.Frame) (*render.Frame, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.dirty {
		return dst, false
	}
	v.dirty = false
	v.seq++
	return v.scene.Frame(dst, v.seq, v.sim.Alpha(), v.viewport.Transform()), true
}

// Close releases any dragged node and clears the focus
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctl.Cancel()
}

// Run ticks the view every TickInterval and passes each changed frame to
// onFrame. While the simulation is idle the loop sleeps until an event
// restarts it. Run returns nil when ctx is done, or the first onFrame error.
// The frame passed to onFrame is reused; it is valid until onFrame returns.
func (v *View) Run(ctx context.Context, onFrame func(*render.Frame) error) error {
	ticker := time.NewTicker(v.opts.TickInterval)
	defer ticker.Stop()

	var frame render.Frame
	for {
		v.Tick()
		if f, ok := v.Frame(&frame); ok {
			if err := onFrame(f); err != nil {
				return err
			}
		}

		if v.Idle() {
			select {
			case <-ctx.Done():
				return nil
			case <-v.wake:
			}
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
