package render

import "github.com/TFMV/forcegraph/viewport"

// Frame carries the mutable state of a scene to a live client.
// Element order matches the order of the SVG document the client mounted.
type Frame struct {
	Type      string             `json:"type"`
	Seq       uint64             `json:"seq"`
	Alpha     float64            `json:"alpha"`
	Transform viewport.Transform `json:"transform"`
	Nodes     []NodeFrame        `json:"nodes"`
	Links     []LinkFrame        `json:"links"`
}

// NodeFrame is the per-tick state of a node element
type NodeFrame struct {
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Opacity      float64 `json:"o"`
	LabelOpacity float64 `json:"lo"`
	Underline    bool    `json:"u,omitempty"`
	Color        string  `json:"c"`
}

// LinkFrame is the per-tick state of a link element
type LinkFrame struct {
	X1      float64 `json:"x1"`
	Y1      float64 `json:"y1"`
	X2      float64 `json:"x2"`
	Y2      float64 `json:"y2"`
	Opacity float64 `json:"o"`
}

// Frame captures the scene state. Buffers of dst are reused when large enough.
func (s *Scene) Frame(dst *Frame, seq uint64, alpha float64, t viewport.Transform) *Frame {
	if dst == nil {
		dst = &Frame{}
	}
	dst.Type = "frame"
	dst.Seq = seq
	dst.Alpha = alpha
	dst.Transform = t

	if cap(dst.Nodes) < len(s.Nodes) {
		dst.Nodes = make([]NodeFrame, len(s.Nodes))
	}
	dst.Nodes = dst.Nodes[:len(s.Nodes)]
	for i, n := range s.Nodes {
		dst.Nodes[i] = NodeFrame{
			X:            round(n.X),
			Y:            round(n.Y),
			Opacity:      n.Opacity,
			LabelOpacity: n.Label.Opacity,
			Underline:    n.Label.Underline,
			Color:        n.Label.Color,
		}
	}

	if cap(dst.Links) < len(s.Links) {
		dst.Links = make([]LinkFrame, len(s.Links))
	}
	dst.Links = dst.Links[:len(s.Links)]
	for i, l := range s.Links {
		dst.Links[i] = LinkFrame{
			X1:      round(l.X1),
			Y1:      round(l.Y1),
			X2:      round(l.X2),
			Y2:      round(l.Y2),
			Opacity: l.Opacity,
		}
	}
	return dst
}
