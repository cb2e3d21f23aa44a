// Package models provides data structures for the forcegraph application.
// It defines the node arena, resolved links and adjacency index shared by the
// simulation, the scene and the interaction controller.
package models

// Point is a 2D coordinate in simulation space
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RawNode is a node record as it arrives in the input payload
type RawNode struct {
	ID    string   `json:"id" yaml:"id" msgpack:"id"`
	Group int      `json:"group" yaml:"group" msgpack:"group"`
	X     *float64 `json:"x,omitempty" yaml:"x,omitempty" msgpack:"x,omitempty"`
	Y     *float64 `json:"y,omitempty" yaml:"y,omitempty" msgpack:"y,omitempty"`
}

// RawLink is a link record as it arrives in the input payload
type RawLink struct {
	Source string  `json:"source" yaml:"source" msgpack:"source"`
	Target string  `json:"target" yaml:"target" msgpack:"target"`
	Value  float64 `json:"value" yaml:"value" msgpack:"value"`
}

// Node represents a node in the graph
type Node struct {
	ID    string  `json:"id"`
	Group int     `json:"group"`
	Index int     `json:"index"` // Stable position in the node arena
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	VX    float64 `json:"vx"`
	VY    float64 `json:"vy"`
	Pin   *Point  `json:"pin,omitempty"` // Set only while the node is dragged

	// Placed reports whether the payload supplied an initial position.
	Placed bool `json:"-"`
}

// Pinned reports whether the node currently follows an external position
func (n *Node) Pinned() bool {
	return n.Pin != nil
}

// Link represents a weighted link between two nodes of the arena
type Link struct {
	Index       int     `json:"index"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Value       float64 `json:"value"`
	SourceIndex int     `json:"source_index"`
	TargetIndex int     `json:"target_index"`
}

// SelfLoop reports whether both endpoints are the same node
func (l *Link) SelfLoop() bool {
	return l.SourceIndex == l.TargetIndex
}

// Graph holds the loaded node arena, its links and the adjacency index
type Graph struct {
	Nodes     []Node
	Links     []Link
	Adjacency *Adjacency

	byID   map[string]int
	degree []int
}

// Len returns the number of nodes
func (g *Graph) Len() int {
	return len(g.Nodes)
}

// Empty reports whether the graph has no nodes
func (g *Graph) Empty() bool {
	return len(g.Nodes) == 0
}
