package render

import (
	"math"

	"github.com/TFMV/forcegraph/models"
	"github.com/pkg/errors"
)

// ErrSceneMismatch is returned when a position snapshot does not cover the scene.
var ErrSceneMismatch = errors.New("position count does not match scene")

// Options defines the drawing parameters of a scene
type Options struct {
	Width          float64 // Width of the drawing surface
	Height         float64 // Height of the drawing surface
	NodeRadius     float64 // Circle radius
	LabelDX        float64 // Label offset from the node center
	LabelDY        float64
	BaseURL        string  // Label links point to BaseURL + node id
	DimOpacity     float64 // Opacity of elements outside the focus
	LabelColor     string  // Label fill outside the focus
	HighlightColor string  // Label fill of focused neighbors
	LinkColor      string  // Link stroke
	Background     string  // Surface fill, empty for transparent
	FontSize       float64 // Label font size
}

// DefaultOptions returns the standard surface and styling
func DefaultOptions() Options {
	return Options{
		Width:          500,
		Height:         380,
		NodeRadius:     5,
		LabelDX:        6,
		LabelDY:        3,
		BaseURL:        "/tag/",
		DimOpacity:     0.1,
		LabelColor:     "black",
		HighlightColor: "blue",
		LinkColor:      "#999",
		FontSize:       10,
	}
}

// LinkElement is a drawn link line
type LinkElement struct {
	Source      int
	Target      int
	X1, Y1      float64
	X2, Y2      float64
	StrokeWidth float64
	Opacity     float64
}

// Label is the text attached to a node. It links to Href.
type Label struct {
	Text      string
	Href      string
	DX, DY    float64
	Opacity   float64
	Underline bool
	Color     string
}

// NodeElement is a drawn node: a circle plus its label
type NodeElement struct {
	ID      string
	Group   int
	X, Y    float64
	Radius  float64
	Fill    string
	Opacity float64
	Label   Label
}

// Scene is the retained set of drawn elements. Elements are created once by
// NewScene and updated in place by Sync, Focus and Unfocus.
// A Scene is not safe for concurrent use.
type Scene struct {
	opts  Options
	Links []LinkElement
	Nodes []NodeElement
	focus int
}

// NewScene creates the elements for every node and link of graph
func NewScene(graph *models.Graph, colors *ColorScale, opts Options) *Scene {
	if colors == nil {
		colors = NewColorScale(nil)
	}
	s := &Scene{
		opts:  opts,
		Links: make([]LinkElement, len(graph.Links)),
		Nodes: make([]NodeElement, len(graph.Nodes)),
		focus: -1,
	}
	for i, l := range graph.Links {
		s.Links[i] = LinkElement{
			Source:      l.SourceIndex,
			Target:      l.TargetIndex,
			StrokeWidth: StrokeWidth(l.Value),
			Opacity:     1,
		}
	}
	for i, n := range graph.Nodes {
		s.Nodes[i] = NodeElement{
			ID:      n.ID,
			Group:   n.Group,
			X:       n.X,
			Y:       n.Y,
			Radius:  opts.NodeRadius,
			Fill:    colors.Color(n.Group),
			Opacity: 1,
			Label: Label{
				Text:    n.ID,
				Href:    opts.BaseURL + n.ID,
				DX:      opts.LabelDX,
				DY:      opts.LabelDY,
				Opacity: 1,
				Color:   opts.LabelColor,
			},
		}
	}
	return s
}

// StrokeWidth maps a link weight to its line thickness
func StrokeWidth(value float64) float64 {
	return math.Sqrt(math.Max(value, 0))
}

// Options returns the drawing parameters
func (s *Scene) Options() Options {
	return s.opts
}

// Empty reports whether there is nothing to draw
func (s *Scene) Empty() bool {
	return len(s.Nodes) == 0
}

// Sync moves every element to the given node positions.
// The result depends only on positions, so repeated calls are idempotent.
func (s *Scene) Sync(positions []models.Point) error {
	if len(positions) != len(s.Nodes) {
		return errors.Wrapf(ErrSceneMismatch, "got %d positions for %d nodes", len(positions), len(s.Nodes))
	}
	for i := range s.Links {
		l := &s.Links[i]
		l.X1, l.Y1 = positions[l.Source].X, positions[l.Source].Y
		l.X2, l.Y2 = positions[l.Target].X, positions[l.Target].Y
	}
	for i := range s.Nodes {
		s.Nodes[i].X, s.Nodes[i].Y = positions[i].X, positions[i].Y
	}
	return nil
}

// Focus highlights node center and its neighbors: they keep full opacity and
// their labels are underlined and recolored; everything else is dimmed. A link
// stays opaque only when center is one of its endpoints. It reports false and
// changes nothing when center is not a node of the scene.
func (s *Scene) Focus(center int, adj *models.Adjacency) bool {
	if center < 0 || center >= len(s.Nodes) {
		return false
	}
	for i := range s.Nodes {
		n := &s.Nodes[i]
		if adj.Adjacent(center, i) {
			n.Opacity = 1
			n.Label.Opacity = 1
			n.Label.Underline = true
			n.Label.Color = s.opts.HighlightColor
		} else {
			n.Opacity = s.opts.DimOpacity
			n.Label.Opacity = s.opts.DimOpacity
			n.Label.Underline = false
			n.Label.Color = s.opts.LabelColor
		}
	}
	for i := range s.Links {
		l := &s.Links[i]
		if l.Source == center || l.Target == center {
			l.Opacity = 1
		} else {
			l.Opacity = s.opts.DimOpacity
		}
	}
	s.focus = center
	return true
}

// Unfocus restores full opacity and default label styling everywhere
func (s *Scene) Unfocus() {
	for i := range s.Nodes {
		n := &s.Nodes[i]
		n.Opacity = 1
		n.Label.Opacity = 1
		n.Label.Underline = false
		n.Label.Color = s.opts.LabelColor
	}
	for i := range s.Links {
		s.Links[i].Opacity = 1
	}
	s.focus = -1
}

// Focused returns the focused node, or -1
func (s *Scene) Focused() int {
	return s.focus
}
