package render

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/TFMV/forcegraph/models"
	"github.com/TFMV/forcegraph/viewport"
	"github.com/pkg/errors"
)

// ErrUnsupportedFormat is returned for an unknown output format
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Renderer interface defines methods that all rendering backends must implement
type Renderer interface {
	// Render encodes the scene as seen through the viewport transform
	Render(scene *Scene, t viewport.Transform) ([]byte, error)

	// Name returns the name of the renderer
	Name() string

	// Description returns a description of the renderer
	Description() string
}

// Formats lists the supported output formats
var Formats = []string{"svg", "ascii", "json"}

// GetRenderer returns the appropriate renderer based on format
func GetRenderer(format string) (Renderer, error) {
	switch strings.ToLower(format) {
	case "svg":
		return &SVGRenderer{}, nil
	case "ascii":
		return &ASCIIRenderer{}, nil
	case "json":
		return &JSONRenderer{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "%q", format)
	}
}

// SVGRenderer outputs SVG format
type SVGRenderer struct{}

// Name returns the name of the renderer
func (r *SVGRenderer) Name() string {
	return "SVG Renderer"
}

// Description returns a description of the renderer
func (r *SVGRenderer) Description() string {
	return "Renders the scene as an SVG document with linked labels"
}

// Render creates an SVG document of the scene. The origin sits at the center
// of the surface and the zoom transform is applied to a single container group.
func (r *SVGRenderer) Render(scene *Scene, t viewport.Transform) ([]byte, error) {
	var buf bytes.Buffer
	o := scene.Options()

	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" width="%s" height="%s" viewBox="%s %s %s %s" font-family="sans-serif" font-size="%s">`,
		num(o.Width), num(o.Height), num(-o.Width/2), num(-o.Height/2), num(o.Width), num(o.Height), num(o.FontSize))
	buf.WriteString("\n")
	if o.Background != "" {
		fmt.Fprintf(&buf, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
			num(-o.Width/2), num(-o.Height/2), num(o.Width), num(o.Height), escape(o.Background))
		buf.WriteString("\n")
	}
	fmt.Fprintf(&buf, `<g class="scene" transform="%s">`, t.String())
	buf.WriteString("\n")

	fmt.Fprintf(&buf, `<g class="links" stroke="%s">`, escape(o.LinkColor))
	buf.WriteString("\n")
	for _, l := range scene.Links {
		fmt.Fprintf(&buf, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke-width="%s" opacity="%s"/>`,
			num(l.X1), num(l.Y1), num(l.X2), num(l.Y2), num(l.StrokeWidth), num(l.Opacity))
		buf.WriteString("\n")
	}
	buf.WriteString("</g>\n")

	buf.WriteString(`<g class="nodes">`)
	buf.WriteString("\n")
	for _, n := range scene.Nodes {
		fmt.Fprintf(&buf, `<g transform="translate(%s,%s)" opacity="%s">`, num(n.X), num(n.Y), num(n.Opacity))
		fmt.Fprintf(&buf, `<circle r="%s" fill="%s"/>`, num(n.Radius), escape(n.Fill))
		decoration := "none"
		if n.Label.Underline {
			decoration = "underline"
		}
		fmt.Fprintf(&buf, `<a xlink:href="%s"><text x="%s" y="%s" fill="%s" opacity="%s" text-decoration="%s">%s</text></a>`,
			escape(n.Label.Href), num(n.Label.DX), num(n.Label.DY), escape(n.Label.Color), num(n.Label.Opacity), decoration, escape(n.Label.Text))
		fmt.Fprintf(&buf, `<title>%s</title>`, escape(n.ID))
		buf.WriteString("</g>\n")
	}
	buf.WriteString("</g>\n</g>\n</svg>\n")

	return buf.Bytes(), nil
}

// ASCIIRenderer outputs ASCII art format
type ASCIIRenderer struct{}

// Name returns the name of the renderer
func (r *ASCIIRenderer) Name() string {
	return "ASCII Renderer"
}

// Description returns a description of the renderer
func (r *ASCIIRenderer) Description() string {
	return "Renders the scene as ASCII art for terminal output"
}

// Render creates an ASCII representation of the scene
func (r *ASCIIRenderer) Render(scene *Scene, t viewport.Transform) ([]byte, error) {
	o := scene.Options()

	// Scale down, with an adjustment for the character aspect ratio
	width := int(o.Width / 6)
	height := int(o.Height / 14)
	if width < 20 {
		width = 20
	}
	if height < 10 {
		height = 10
	}

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	for i := 0; i < width; i++ {
		grid[0][i] = '-'
		grid[height-1][i] = '-'
	}
	for i := 0; i < height; i++ {
		grid[i][0] = '|'
		grid[i][width-1] = '|'
	}
	grid[0][0] = '+'
	grid[0][width-1] = '+'
	grid[height-1][0] = '+'
	grid[height-1][width-1] = '+'

	cell := func(x, y float64) (int, int) {
		p := t.Apply(models.Point{X: x, Y: y})
		gx := int(math.Floor((p.X+o.Width/2)*float64(width-2)/o.Width)) + 1
		gy := int(math.Floor((p.Y+o.Height/2)*float64(height-2)/o.Height)) + 1
		return clamp(gx, 1, width-2), clamp(gy, 1, height-2)
	}

	for _, l := range scene.Links {
		if l.Source == l.Target {
			continue
		}
		x1, y1 := cell(l.X1, l.Y1)
		x2, y2 := cell(l.X2, l.Y2)
		drawLine(grid, x1, y1, x2, y2)
	}

	// One symbol per color group
	nodeSymbols := []rune{'O', '@', '#', 'X', '*', '+'}
	for _, n := range scene.Nodes {
		x, y := cell(n.X, n.Y)
		grid[y][x] = nodeSymbols[((n.Group%len(nodeSymbols))+len(nodeSymbols))%len(nodeSymbols)]

		label := []rune(n.Label.Text)
		for i := 0; i < len(label) && x+1+i < width-1; i++ {
			if grid[y][x+1+i] == ' ' || grid[y][x+1+i] == '·' {
				grid[y][x+1+i] = label[i]
			}
		}
	}

	var result strings.Builder
	for _, row := range grid {
		result.WriteString(string(row))
		result.WriteRune('\n')
	}
	return []byte(result.String()), nil
}

// JSONRenderer outputs the laid out graph as JSON
type JSONRenderer struct{}

// Name returns the name of the renderer
func (r *JSONRenderer) Name() string {
	return "JSON Renderer"
}

// Description returns a description of the renderer
func (r *JSONRenderer) Description() string {
	return "Renders node positions and link geometry as JSON"
}

type layoutNode struct {
	ID    string  `json:"id"`
	Group int     `json:"group"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Fill  string  `json:"fill"`
	Href  string  `json:"href"`
}

type layoutLink struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	StrokeWidth float64 `json:"strokeWidth"`
}

type layoutDoc struct {
	Width     float64            `json:"width"`
	Height    float64            `json:"height"`
	Transform viewport.Transform `json:"transform"`
	Nodes     []layoutNode       `json:"nodes"`
	Links     []layoutLink       `json:"links"`
}

// Render creates a JSON document of the scene
func (r *JSONRenderer) Render(scene *Scene, t viewport.Transform) ([]byte, error) {
	o := scene.Options()
	doc := layoutDoc{
		Width:     o.Width,
		Height:    o.Height,
		Transform: t,
		Nodes:     make([]layoutNode, 0, len(scene.Nodes)),
		Links:     make([]layoutLink, 0, len(scene.Links)),
	}
	for _, n := range scene.Nodes {
		doc.Nodes = append(doc.Nodes, layoutNode{
			ID:    n.ID,
			Group: n.Group,
			X:     round(n.X),
			Y:     round(n.Y),
			Fill:  n.Fill,
			Href:  n.Label.Href,
		})
	}
	for _, l := range scene.Links {
		doc.Links = append(doc.Links, layoutLink{
			Source:      scene.Nodes[l.Source].ID,
			Target:      scene.Nodes[l.Target].ID,
			StrokeWidth: l.StrokeWidth,
		})
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode layout")
	}
	return out, nil
}

// clamp restricts val to [min, max]
func clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}

// drawLine draws a line between two points on the grid
func drawLine(grid [][]rune, x1, y1, x2, y2 int) {
	dx := abs(x2 - x1)
	dy := -abs(y2 - y1)
	sx, sy := 1, 1
	if x1 > x2 {
		sx = -1
	}
	if y1 > y2 {
		sy = -1
	}
	err := dx + dy

	for {
		if y1 >= 0 && y1 < len(grid) && x1 >= 0 && x1 < len(grid[y1]) && grid[y1][x1] == ' ' {
			grid[y1][x1] = '·'
		}
		if x1 == x2 && y1 == y2 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x1 += sx
		}
		if e2 <= dx {
			err += dx
			y1 += sy
		}
	}
}

// Absolute value of an integer
func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// round keeps two decimals, enough for screen coordinates
func round(v float64) float64 {
	return math.Round(v*100) / 100
}

func num(v float64) string {
	v = round(v)
	if v == 0 {
		v = 0 // no "-0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
