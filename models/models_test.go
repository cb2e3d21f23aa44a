package models

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func threeNodes() ([]RawNode, []RawLink) {
	return []RawNode{
			{ID: "A", Group: 1},
			{ID: "B", Group: 1},
			{ID: "C", Group: 2},
		}, []RawLink{
			{Source: "A", Target: "B", Value: 1},
			{Source: "B", Target: "C", Value: 4},
		}
}

func TestLoad_ResolvesLinks(t *testing.T) {
	g, err := Load(threeNodes())
	require.NoError(t, err)

	require.Len(t, g.Nodes, 3)
	require.Len(t, g.Links, 2)
	for i, n := range g.Nodes {
		assert.Equal(t, i, n.Index)
	}
	for _, l := range g.Links {
		assert.True(t, g.Valid(l.SourceIndex))
		assert.True(t, g.Valid(l.TargetIndex))
		assert.Equal(t, l.Source, g.Nodes[l.SourceIndex].ID)
		assert.Equal(t, l.Target, g.Nodes[l.TargetIndex].ID)
	}
	assert.Equal(t, 4, g.Adjacency.Size())
}

func TestLoad_Adjacency(t *testing.T) {
	g, err := Load(threeNodes())
	require.NoError(t, err)
	a, b, c := g.IndexOf("A"), g.IndexOf("B"), g.IndexOf("C")

	assert.True(t, g.Adjacency.Adjacent(a, b))
	assert.True(t, g.Adjacency.Adjacent(b, c))
	assert.False(t, g.Adjacency.Adjacent(a, c))

	for i := range g.Nodes {
		assert.True(t, g.Adjacency.Adjacent(i, i), "node %d is its own neighbor", i)
		for j := range g.Nodes {
			assert.Equal(t, g.Adjacency.Adjacent(i, j), g.Adjacency.Adjacent(j, i))
		}
	}
	assert.False(t, g.Adjacency.Adjacent(a, 99))
	assert.False(t, g.Adjacency.Adjacent(-1, -1))
}

func TestLoad_DashedIDsDoNotCollide(t *testing.T) {
	g, err := Load(
		[]RawNode{{ID: "a-b"}, {ID: "c"}, {ID: "a"}, {ID: "b-c"}},
		[]RawLink{{Source: "a-b", Target: "c", Value: 1}},
	)
	require.NoError(t, err)

	assert.True(t, g.Adjacency.Connected("a-b", "c"))
	assert.False(t, g.Adjacency.Connected("a", "b-c"))
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name  string
		nodes []RawNode
		links []RawLink
		want  error
	}{
		{
			name:  "unknown source",
			nodes: []RawNode{{ID: "A"}},
			links: []RawLink{{Source: "X", Target: "A"}},
			want:  ErrUnknownNode,
		},
		{
			name:  "unknown target",
			nodes: []RawNode{{ID: "A"}},
			links: []RawLink{{Source: "A", Target: "Y"}},
			want:  ErrUnknownNode,
		},
		{
			name:  "duplicate id",
			nodes: []RawNode{{ID: "A"}, {ID: "A"}},
			want:  ErrDuplicateNode,
		},
		{
			name:  "empty id",
			nodes: []RawNode{{ID: ""}},
			want:  ErrEmptyID,
		},
		{
			name:  "negative value",
			nodes: []RawNode{{ID: "A"}, {ID: "B"}},
			links: []RawLink{{Source: "A", Target: "B", Value: -1}},
			want:  ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Load(tt.nodes, tt.links)
			require.Error(t, err)
			assert.Nil(t, g)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoad_Empty(t *testing.T) {
	g, err := Load(nil, nil)
	require.NoError(t, err)
	assert.True(t, g.Empty())
	assert.Equal(t, 0, g.Adjacency.Size())
	assert.True(t, EmptyGraph().Empty())
}

func TestLoad_SelfLoop(t *testing.T) {
	g, err := Load([]RawNode{{ID: "A"}}, []RawLink{{Source: "A", Target: "A", Value: 2}})
	require.NoError(t, err)

	assert.True(t, g.Links[0].SelfLoop())
	assert.Equal(t, 2, g.Degree(0))
	assert.Equal(t, []int{0}, g.Neighbors(0))
	assert.True(t, g.Adjacency.Connected("A", "A"))
}

func TestLoad_InitialPosition(t *testing.T) {
	x, y := 3.0, -4.0
	g, err := Load([]RawNode{{ID: "A", X: &x, Y: &y}, {ID: "B"}}, nil)
	require.NoError(t, err)

	assert.True(t, g.Nodes[0].Placed)
	assert.Equal(t, 3.0, g.Nodes[0].X)
	assert.False(t, g.Nodes[1].Placed)
}

func TestGraph_Queries(t *testing.T) {
	g, err := Load(threeNodes())
	require.NoError(t, err)

	n, ok := g.Node("B")
	require.True(t, ok)
	assert.Equal(t, 1, n.Index)
	_, ok = g.Node("Z")
	assert.False(t, ok)
	assert.Equal(t, -1, g.IndexOf("Z"))

	assert.Equal(t, 2, g.Degree(1))
	assert.Equal(t, []int{0, 2}, g.Neighbors(1))
	assert.Nil(t, g.Neighbors(7))

	assert.Equal(t, Link{Index: 1, Source: "B", Target: "C", Value: 4, SourceIndex: 1, TargetIndex: 2}, g.Links[1])
}
