package render

import (
	"bytes"
	_ "embed"
	"html/template"

	"github.com/TFMV/forcegraph/viewport"
	"github.com/pkg/errors"
)

//go:embed page.html
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

// PageRenderer outputs the interactive HTML page. The page embeds a static
// snapshot of the scene and replaces it with the live one once its
// websocket connects to SocketPath.
type PageRenderer struct {
	Title      string
	SocketPath string
}

// Name returns the name of the renderer
func (r *PageRenderer) Name() string {
	return "Page Renderer"
}

// Description returns a description of the renderer
func (r *PageRenderer) Description() string {
	return "Renders an interactive HTML page driven over a websocket"
}

// Render creates the HTML page around an SVG snapshot of the scene
func (r *PageRenderer) Render(scene *Scene, t viewport.Transform) ([]byte, error) {
	svg, err := (&SVGRenderer{}).Render(scene, t)
	if err != nil {
		return nil, err
	}

	title := r.Title
	if title == "" {
		title = "forcegraph"
	}
	socket := r.SocketPath
	if socket == "" {
		socket = "/ws"
	}

	var buf bytes.Buffer
	err = pageTemplate.Execute(&buf, struct {
		Title      string
		SocketPath string
		SVG        template.HTML
	}{
		Title:      title,
		SocketPath: socket,
		SVG:        template.HTML(svg),
	})
	if err != nil {
		return nil, errors.Wrap(err, "render page")
	}
	return buf.Bytes(), nil
}
