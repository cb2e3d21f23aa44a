package models

// pair is an ordered pair of node ids
type pair struct {
	a, b string
}

// Adjacency answers direct-connection queries in constant time.
// It is built once by Load and never mutated afterwards.
type Adjacency struct {
	pairs map[pair]struct{}
	ids   []string
}

func newAdjacency(links int) *Adjacency {
	return &Adjacency{pairs: make(map[pair]struct{}, 2*links)}
}

func (a *Adjacency) insert(from, to string) {
	a.pairs[pair{from, to}] = struct{}{}
}

// Connected reports whether a link joins the nodes with ids a and b.
// A node is connected to itself only through a self-loop.
func (a *Adjacency) Connected(from, to string) bool {
	_, ok := a.pairs[pair{from, to}]
	return ok
}

// Adjacent reports whether nodes i and j are neighbors for focus purposes.
// Every valid node is its own neighbor. Out-of-range indices are never adjacent.
func (a *Adjacency) Adjacent(i, j int) bool {
	if i < 0 || j < 0 || i >= len(a.ids) || j >= len(a.ids) {
		return false
	}
	if i == j {
		return true
	}
	return a.Connected(a.ids[i], a.ids[j])
}

// Size returns the number of directed entries in the index
func (a *Adjacency) Size() int {
	return len(a.pairs)
}

// Node returns the node with the given id
func (g *Graph) Node(id string) (*Node, bool) {
	i, ok := g.byID[id]
	if !ok {
		return nil, false
	}
	return &g.Nodes[i], true
}

// IndexOf returns the arena index of the node id, or -1
func (g *Graph) IndexOf(id string) int {
	if i, ok := g.byID[id]; ok {
		return i
	}
	return -1
}

// Valid reports whether i addresses a node of the arena
func (g *Graph) Valid(i int) bool {
	return i >= 0 && i < len(g.Nodes)
}

// Degree returns the number of link endpoints at node i.
// A self-loop counts twice.
func (g *Graph) Degree(i int) int {
	if !g.Valid(i) {
		return 0
	}
	return g.degree[i]
}

// Neighbors returns the indices of nodes directly linked to i, excluding i
// itself unless it carries a self-loop. Order follows the link list.
func (g *Graph) Neighbors(i int) []int {
	if !g.Valid(i) {
		return nil
	}
	seen := make(map[int]bool)
	var result []int
	for _, l := range g.Links {
		var other int
		switch i {
		case l.SourceIndex:
			other = l.TargetIndex
		case l.TargetIndex:
			other = l.SourceIndex
		default:
			continue
		}
		if !seen[other] {
			seen[other] = true
			result = append(result, other)
		}
	}
	return result
}
