package models

import (
	"math"

	"github.com/pkg/errors"
)

// Load builds a graph from raw payload records.
//
// Each node is indexed by its position in rawNodes. Every link is resolved to
// node indices and inserted into the adjacency index in both directions. Any
// bad record fails the whole load; no partial graph is returned.
func Load(rawNodes []RawNode, rawLinks []RawLink) (*Graph, error) {
	g := &Graph{
		Nodes:  make([]Node, 0, len(rawNodes)),
		Links:  make([]Link, 0, len(rawLinks)),
		byID:   make(map[string]int, len(rawNodes)),
		degree: make([]int, len(rawNodes)),
	}

	for i, rn := range rawNodes {
		if rn.ID == "" {
			return nil, errors.Wrapf(ErrEmptyID, "node %d", i)
		}
		if prev, ok := g.byID[rn.ID]; ok {
			return nil, errors.Wrapf(ErrDuplicateNode, "node %d: %q already defined at %d", i, rn.ID, prev)
		}
		g.byID[rn.ID] = i

		node := Node{ID: rn.ID, Group: rn.Group, Index: i}
		if rn.X != nil && rn.Y != nil && finite(*rn.X) && finite(*rn.Y) {
			node.X, node.Y = *rn.X, *rn.Y
			node.Placed = true
		}
		g.Nodes = append(g.Nodes, node)
	}

	adj := newAdjacency(len(rawLinks))
	for i, rl := range rawLinks {
		src, ok := g.byID[rl.Source]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "link %d: source %q", i, rl.Source)
		}
		tgt, ok := g.byID[rl.Target]
		if !ok {
			return nil, errors.Wrapf(ErrUnknownNode, "link %d: target %q", i, rl.Target)
		}
		if rl.Value < 0 || !finite(rl.Value) {
			return nil, errors.Wrapf(ErrInvalidValue, "link %d: %v", i, rl.Value)
		}

		g.Links = append(g.Links, Link{
			Index:       i,
			Source:      rl.Source,
			Target:      rl.Target,
			Value:       rl.Value,
			SourceIndex: src,
			TargetIndex: tgt,
		})
		g.degree[src]++
		g.degree[tgt]++

		adj.insert(rl.Source, rl.Target)
		adj.insert(rl.Target, rl.Source)
	}
	adj.ids = make([]string, len(g.Nodes))
	for i := range g.Nodes {
		adj.ids[i] = g.Nodes[i].ID
	}
	g.Adjacency = adj

	return g, nil
}

// EmptyGraph returns a graph with no nodes and no links
func EmptyGraph() *Graph {
	g, _ := Load(nil, nil)
	return g
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
