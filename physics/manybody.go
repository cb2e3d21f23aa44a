package physics

import (
	"math"

	"github.com/TFMV/forcegraph/models"
	"golang.org/x/sync/errgroup"
)

// maxQuadDepth bounds subdivision for nearly coincident points
const maxQuadDepth = 48

// quad is a Barnes-Hut quadtree cell. Leaves hold the indices of the
// points inside them; internal cells hold up to four children.
type quad struct {
	children [4]*quad
	points   []int
	internal bool
	x, y     float64 // Center of charge
	value    float64 // Total charge
}

// quadtree covers all node positions with a square extent
type quadtree struct {
	root           *quad
	x0, y0, x1, y1 float64
}

func buildQuadtree(nodes []models.Node) *quadtree {
	x0, y0 := math.Inf(1), math.Inf(1)
	x1, y1 := math.Inf(-1), math.Inf(-1)
	for i := range nodes {
		x0 = math.Min(x0, nodes[i].X)
		y0 = math.Min(y0, nodes[i].Y)
		x1 = math.Max(x1, nodes[i].X)
		y1 = math.Max(y1, nodes[i].Y)
	}
	size := math.Max(x1-x0, y1-y0)
	if size <= 0 || !finite(size) {
		size = 1
	}
	// Pad so points on the far edge fall strictly inside.
	size *= 1 + 1e-9
	t := &quadtree{root: &quad{}, x0: x0, y0: y0, x1: x0 + size, y1: y0 + size}
	for i := range nodes {
		t.root.insert(nodes, i, t.x0, t.y0, t.x1, t.y1, 0)
	}
	return t
}

func (q *quad) insert(nodes []models.Node, i int, x0, y0, x1, y1 float64, depth int) {
	if !q.internal {
		if len(q.points) == 0 || depth >= maxQuadDepth || coincident(nodes, q.points[0], i) {
			q.points = append(q.points, i)
			return
		}
		existing := q.points
		q.points = nil
		q.internal = true
		for _, j := range existing {
			q.insertChild(nodes, j, x0, y0, x1, y1, depth)
		}
	}
	q.insertChild(nodes, i, x0, y0, x1, y1, depth)
}

func (q *quad) insertChild(nodes []models.Node, i int, x0, y0, x1, y1 float64, depth int) {
	xm, ym := (x0+x1)/2, (y0+y1)/2
	k := 0
	if nodes[i].X >= xm {
		k |= 1
		x0 = xm
	} else {
		x1 = xm
	}
	if nodes[i].Y >= ym {
		k |= 2
		y0 = ym
	} else {
		y1 = ym
	}
	if q.children[k] == nil {
		q.children[k] = &quad{}
	}
	q.children[k].insert(nodes, i, x0, y0, x1, y1, depth+1)
}

func coincident(nodes []models.Node, a, b int) bool {
	return nodes[a].X == nodes[b].X && nodes[a].Y == nodes[b].Y
}

// accumulate computes the charge and center of charge of every cell, bottom up
func (q *quad) accumulate(nodes []models.Node, strength float64) {
	if !q.internal {
		var x, y float64
		for _, j := range q.points {
			x += nodes[j].X
			y += nodes[j].Y
		}
		n := float64(len(q.points))
		if n > 0 {
			q.x, q.y = x/n, y/n
		}
		q.value = strength * n
		return
	}

	var value, weight, x, y float64
	for _, c := range q.children {
		if c == nil {
			continue
		}
		c.accumulate(nodes, strength)
		if c.value == 0 {
			continue
		}
		w := math.Abs(c.value)
		value += c.value
		weight += w
		x += w * c.x
		y += w * c.y
	}
	if weight > 0 {
		q.x, q.y = x/weight, y/weight
	}
	q.value = value
}

// manyBody applies mutual repulsion between all nodes using a Barnes-Hut
// approximation: distant cells act as a single charge at their center.
type manyBody struct {
	strength     float64
	theta2       float64
	distanceMin2 float64
	distanceMax2 float64
	parallel     int
	workers      int
	nodes        []models.Node
	jiggle       *jiggler
}

func newManyBody(opts Options) *manyBody {
	maxDist2 := math.Inf(1)
	if opts.DistanceMax > 0 {
		maxDist2 = opts.DistanceMax * opts.DistanceMax
	}
	return &manyBody{
		strength:     opts.ChargeStrength,
		theta2:       opts.Theta * opts.Theta,
		distanceMin2: opts.DistanceMin * opts.DistanceMin,
		distanceMax2: maxDist2,
		parallel:     opts.ParallelThreshold,
		workers:      opts.Workers,
	}
}

func (f *manyBody) Initialize(nodes []models.Node, jiggle *jiggler) {
	f.nodes = nodes
	f.jiggle = jiggle
}

func (f *manyBody) Apply(alpha float64) {
	n := len(f.nodes)
	if n < 2 || f.strength == 0 {
		return
	}
	tree := buildQuadtree(f.nodes)
	tree.root.accumulate(f.nodes, f.strength)

	if f.parallel <= 0 || n < f.parallel || f.workers < 2 {
		f.applyRange(tree, 0, n, alpha)
		return
	}

	// Each worker writes only the velocities of its own index range and reads
	// positions, which no other force touches while this one runs.
	var g errgroup.Group
	chunk := (n + f.workers - 1) / f.workers
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			f.applyRange(tree, lo, hi, alpha)
			return nil
		})
	}
	_ = g.Wait()
}

func (f *manyBody) applyRange(tree *quadtree, lo, hi int, alpha float64) {
	for i := lo; i < hi; i++ {
		var vx, vy float64
		f.visit(tree.root, i, tree.x0, tree.x1, alpha, &vx, &vy)
		f.nodes[i].VX += vx
		f.nodes[i].VY += vy
	}
}

func (f *manyBody) visit(q *quad, i int, x0, x1, alpha float64, vx, vy *float64) {
	if q.value == 0 {
		return
	}
	node := &f.nodes[i]
	dx := q.x - node.X
	dy := q.y - node.Y
	w := x1 - x0
	l := dx*dx + dy*dy

	// Far enough away: treat the whole cell as one charge.
	if w*w/f.theta2 < l {
		if l < f.distanceMax2 {
			*vx, *vy = f.accumulateCharge(*vx, *vy, dx, dy, l, q.value*alpha, i, -1)
		}
		return
	}

	if q.internal {
		xm := (x0 + x1) / 2
		for k, c := range q.children {
			if c == nil {
				continue
			}
			if k&1 == 0 {
				f.visit(c, i, x0, xm, alpha, vx, vy)
			} else {
				f.visit(c, i, xm, x1, alpha, vx, vy)
			}
		}
		return
	}
	if l >= f.distanceMax2 {
		return
	}

	for _, j := range q.points {
		if j == i {
			continue
		}
		other := &f.nodes[j]
		dx := other.X - node.X
		dy := other.Y - node.Y
		*vx, *vy = f.accumulateCharge(*vx, *vy, dx, dy, dx*dx+dy*dy, f.strength*alpha, i, j)
	}
}

// accumulateCharge adds the pull of charge c located at (dx, dy) relative to node i.
// Zero offsets are replaced by jitter and short distances clamped to distanceMin.
func (f *manyBody) accumulateCharge(vx, vy, dx, dy, l, c float64, i, j int) (float64, float64) {
	if dx == 0 {
		dx = f.jiggle.at(i, 2*j+3)
		l += dx * dx
	}
	if dy == 0 {
		dy = f.jiggle.at(j+7, 2*i+5)
		l += dy * dy
	}
	if l < f.distanceMin2 {
		l = math.Sqrt(f.distanceMin2 * l)
	}
	return vx + dx*c/l, vy + dy*c/l
}
