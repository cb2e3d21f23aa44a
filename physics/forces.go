package physics

import (
	"math"

	"github.com/TFMV/forcegraph/models"
)

// force contributes to node velocities (or positions) once per tick
type force interface {
	// Initialize binds the force to the node arena.
	Initialize(nodes []models.Node, jiggle *jiggler)

	// Apply adds the force for the current alpha.
	Apply(alpha float64)
}

// linkForce pulls linked nodes toward a fixed separation.
// Strength is the inverse of the smaller endpoint degree so that hubs are not
// crushed by many simultaneous pulls; bias splits each correction in favor of
// moving the lower-degree endpoint.
type linkForce struct {
	links     []models.Link
	distance  float64
	strengths []float64
	bias      []float64
	nodes     []models.Node
	jiggle    *jiggler
}

func newLinkForce(graph *models.Graph, distance float64) *linkForce {
	f := &linkForce{
		links:     graph.Links,
		distance:  distance,
		strengths: make([]float64, len(graph.Links)),
		bias:      make([]float64, len(graph.Links)),
	}
	for i, l := range graph.Links {
		ds := float64(graph.Degree(l.SourceIndex))
		dt := float64(graph.Degree(l.TargetIndex))
		f.strengths[i] = 1 / math.Min(ds, dt)
		f.bias[i] = ds / (ds + dt)
	}
	return f
}

func (f *linkForce) Initialize(nodes []models.Node, jiggle *jiggler) {
	f.nodes = nodes
	f.jiggle = jiggle
}

func (f *linkForce) Apply(alpha float64) {
	for i := range f.links {
		l := &f.links[i]
		if l.SelfLoop() {
			continue
		}
		source := &f.nodes[l.SourceIndex]
		target := &f.nodes[l.TargetIndex]

		x := target.X + target.VX - source.X - source.VX
		y := target.Y + target.VY - source.Y - source.VY
		if x == 0 {
			x = f.jiggle.at(i, 0)
		}
		if y == 0 {
			y = f.jiggle.at(i, 1)
		}

		dist := math.Sqrt(x*x + y*y)
		k := (dist - f.distance) / dist * alpha * f.strengths[i]
		x *= k
		y *= k

		b := f.bias[i]
		target.VX -= x * b
		target.VY -= y * b
		source.VX += x * (1 - b)
		source.VY += y * (1 - b)
	}
}

// centerForce translates all nodes so that their centroid sits at the origin
type centerForce struct {
	strength float64
	nodes    []models.Node
}

func newCenterForce(strength float64) *centerForce {
	return &centerForce{strength: strength}
}

func (f *centerForce) Initialize(nodes []models.Node, _ *jiggler) {
	f.nodes = nodes
}

func (f *centerForce) Apply(_ float64) {
	if len(f.nodes) == 0 {
		return
	}
	var sx, sy float64
	for i := range f.nodes {
		sx += f.nodes[i].X
		sy += f.nodes[i].Y
	}
	n := float64(len(f.nodes))
	sx = sx / n * f.strength
	sy = sy / n * f.strength
	for i := range f.nodes {
		f.nodes[i].X -= sx
		f.nodes[i].Y -= sy
	}
}

type axis int

const (
	axisX axis = iota
	axisY
)

// axisForce is a weak spring pulling every node toward zero along one axis
type axisForce struct {
	axis     axis
	strength float64
	nodes    []models.Node
}

func newAxisForce(a axis, strength float64) *axisForce {
	return &axisForce{axis: a, strength: strength}
}

func (f *axisForce) Initialize(nodes []models.Node, _ *jiggler) {
	f.nodes = nodes
}

func (f *axisForce) Apply(alpha float64) {
	k := f.strength * alpha
	for i := range f.nodes {
		n := &f.nodes[i]
		if f.axis == axisX {
			n.VX -= n.X * k
		} else {
			n.VY -= n.Y * k
		}
	}
}
