package physics

import (
	"context"
	"math"
	"runtime"
	"sync"

	"github.com/TFMV/forcegraph/models"
)

// Options holds the force and integration parameters of a simulation
type Options struct {
	LinkDistance      float64 // Target separation of linked nodes
	ChargeStrength    float64 // Per-node charge, negative repels
	Theta             float64 // Barnes-Hut approximation criterion
	DistanceMin       float64 // Lower clamp on charge distance
	DistanceMax       float64 // Charge cut-off distance, 0 disables it
	CenterStrength    float64 // Fraction of centroid offset removed per tick
	AxisStrength      float64 // Spring strength toward zero on each axis
	AlphaMin          float64 // Convergence threshold
	AlphaDecay        float64 // Rate at which alpha approaches its target
	MaxAlpha          float64 // Cap for alpha targets
	VelocityDecay     float64 // Fraction of velocity lost per tick
	ParallelThreshold int     // Node count from which charge runs on workers
	Workers           int     // Charge workers, 0 uses GOMAXPROCS
	Seed              int64   // Seed of the jitter noise field
}

// DefaultOptions returns parameters matching the classic d3-force defaults
func DefaultOptions() Options {
	return Options{
		LinkDistance:      25,
		ChargeStrength:    -30,
		Theta:             0.9,
		DistanceMin:       1,
		DistanceMax:       0,
		CenterStrength:    1,
		AxisStrength:      0.1,
		AlphaMin:          0.001,
		AlphaDecay:        1 - math.Pow(0.001, 1.0/300),
		MaxAlpha:          1,
		VelocityDecay:     0.4,
		ParallelThreshold: 512,
		Workers:           0,
		Seed:              1,
	}
}

const (
	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Simulation integrates node positions under link, charge, centering and axis forces.
// It owns the node arena of the graph it was built from; other subsystems read
// positions through Snapshot and write only pins through Pin and Unpin.
type Simulation struct {
	mu          sync.Mutex
	opts        Options
	nodes       []models.Node
	forces      []force
	jiggle      *jiggler
	alpha       float64
	alphaTarget float64
	ticks       int
}

// NewSimulation creates a simulation over the nodes and links of graph.
// Nodes without an initial position are placed on a phyllotaxis spiral.
func NewSimulation(graph *models.Graph, opts Options) *Simulation {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	if opts.MaxAlpha <= 0 {
		opts.MaxAlpha = 1
	}

	s := &Simulation{
		opts:   opts,
		nodes:  graph.Nodes,
		jiggle: newJiggler(opts.Seed),
		alpha:  opts.MaxAlpha,
	}
	s.initializeNodes()

	s.forces = []force{
		newLinkForce(graph, opts.LinkDistance),
		newManyBody(opts),
		newCenterForce(opts.CenterStrength),
		newAxisForce(axisX, opts.AxisStrength),
		newAxisForce(axisY, opts.AxisStrength),
	}
	for _, f := range s.forces {
		f.Initialize(s.nodes, s.jiggle)
	}
	return s
}

func (s *Simulation) initializeNodes() {
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Pin != nil {
			n.X, n.Y = n.Pin.X, n.Pin.Y
		} else if !n.Placed {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			n.X = radius * math.Cos(angle)
			n.Y = radius * math.Sin(angle)
		}
		n.VX, n.VY = 0, 0
	}
}

// Tick advances the simulation by one step
func (s *Simulation) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
}

// Step advances the simulation by one step and reports whether it is idle
func (s *Simulation) Step() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tick()
	return s.idle()
}

func (s *Simulation) tick() {
	if len(s.nodes) == 0 {
		return
	}

	s.alpha += (s.alphaTarget - s.alpha) * s.opts.AlphaDecay
	s.jiggle.advance(s.ticks)

	for _, f := range s.forces {
		f.Apply(s.alpha)
	}

	keep := 1 - s.opts.VelocityDecay
	for i := range s.nodes {
		n := &s.nodes[i]
		if n.Pin != nil {
			n.X, n.Y = n.Pin.X, n.Pin.Y
			n.VX, n.VY = 0, 0
			continue
		}
		n.VX *= keep
		n.VY *= keep
		if !finite(n.VX) || !finite(n.VY) {
			n.VX, n.VY = 0, 0
		}
		n.X += n.VX
		n.Y += n.VY
	}
	s.ticks++
}

// Settle steps the simulation until it is idle, maxTicks is reached or ctx is done.
// It returns the number of ticks run and whether the simulation converged.
func (s *Simulation) Settle(ctx context.Context, maxTicks int) (int, bool) {
	for i := 0; i < maxTicks; i++ {
		select {
		case <-ctx.Done():
			return i, false
		default:
			if s.Step() {
				return i + 1, true
			}
		}
	}
	return maxTicks, s.Idle()
}

// Alpha returns the current temperature
func (s *Simulation) Alpha() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alpha
}

// AlphaTarget returns the value alpha is moving toward
func (s *Simulation) AlphaTarget() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alphaTarget
}

// SetAlphaTarget sets the value alpha moves toward, capped at MaxAlpha
func (s *Simulation) SetAlphaTarget(target float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.alphaTarget = math.Max(0, math.Min(target, s.opts.MaxAlpha))
}

// Idle reports whether alpha has cooled below AlphaMin with no target keeping it warm
func (s *Simulation) Idle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idle()
}

func (s *Simulation) idle() bool {
	return len(s.nodes) == 0 || (s.alpha < s.opts.AlphaMin && s.alphaTarget < s.opts.AlphaMin)
}

// Ticks returns the number of steps taken so far
func (s *Simulation) Ticks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// Len returns the number of simulated nodes
func (s *Simulation) Len() int {
	return len(s.nodes)
}

// Pin fixes node i at (x, y) until Unpin. It reports false for an unknown node.
func (s *Simulation) Pin(i int, x, y float64) bool {
	if !finite(x) || !finite(y) {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.nodes) {
		return false
	}
	s.nodes[i].Pin = &models.Point{X: x, Y: y}
	return true
}

// Unpin releases node i back to the forces. It reports false for an unknown node.
func (s *Simulation) Unpin(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.nodes) {
		return false
	}
	s.nodes[i].Pin = nil
	return true
}

// Node returns a copy of node i
func (s *Simulation) Node(i int) (models.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.nodes) {
		return models.Node{}, false
	}
	n := s.nodes[i]
	if n.Pin != nil {
		pin := *n.Pin
		n.Pin = &pin
	}
	return n, true
}

// Snapshot copies every node position into dst, growing it as needed.
// The copy is taken between ticks, so it never mixes two steps.
func (s *Simulation) Snapshot(dst []models.Point) []models.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cap(dst) < len(s.nodes) {
		dst = make([]models.Point, len(s.nodes))
	}
	dst = dst[:len(s.nodes)]
	for i := range s.nodes {
		dst[i] = models.Point{X: s.nodes[i].X, Y: s.nodes[i].Y}
	}
	return dst
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
