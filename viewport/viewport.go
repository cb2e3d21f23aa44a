// Package viewport keeps the pan/zoom transform applied to the whole scene.
// The transform only changes how simulation coordinates project to the
// screen; it never touches node positions.
package viewport

import (
	"fmt"
	"math"
	"strconv"

	"github.com/TFMV/forcegraph/models"
)

// Default scale bounds
const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 4.0
)

// Transform is a uniform scale K followed by a translation (X, Y):
// screen = world*K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the transform that maps world coordinates onto themselves
var Identity = Transform{K: 1}

// Apply maps a world point to the screen
func (t Transform) Apply(p models.Point) models.Point {
	return models.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen point back to world coordinates
func (t Transform) Invert(p models.Point) models.Point {
	return models.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// String renders the transform as an SVG transform attribute
func (t Transform) String() string {
	return fmt.Sprintf("translate(%s,%s) scale(%s)", num(t.X), num(t.Y), num(t.K))
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Viewport holds the current transform and its scale bounds.
// It is not safe for concurrent use; the owning view serializes access.
type Viewport struct {
	t        Transform
	minScale float64
	maxScale float64
}

// New creates a viewport at the identity transform.
// Invalid bounds fall back to the defaults.
func New(minScale, maxScale float64) *Viewport {
	if minScale <= 0 || maxScale <= 0 || minScale > maxScale {
		minScale, maxScale = DefaultMinScale, DefaultMaxScale
	}
	return &Viewport{t: Identity, minScale: minScale, maxScale: maxScale}
}

// Transform returns the current transform
func (v *Viewport) Transform() Transform {
	return v.t
}

// Zoom multiplies the scale by factor, keeping the world point under the
// screen point (px, py) fixed. The resulting scale is clamped to the bounds.
func (v *Viewport) Zoom(factor, px, py float64) Transform {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return v.t
	}
	return v.ScaleTo(v.t.K*factor, px, py)
}

// ScaleTo sets the scale to k around the screen point (px, py)
func (v *Viewport) ScaleTo(k, px, py float64) Transform {
	k = v.clamp(k)
	anchor := v.t.Invert(models.Point{X: px, Y: py})
	v.t = Transform{X: px - anchor.X*k, Y: py - anchor.Y*k, K: k}
	return v.t
}

// Pan translates the scene by (dx, dy) screen units
func (v *Viewport) Pan(dx, dy float64) Transform {
	if math.IsNaN(dx) || math.IsNaN(dy) || math.IsInf(dx, 0) || math.IsInf(dy, 0) {
		return v.t
	}
	v.t.X += dx
	v.t.Y += dy
	return v.t
}

// Reset returns to the identity transform
func (v *Viewport) Reset() Transform {
	v.t = Identity
	return v.t
}

// Invert maps a screen point to world coordinates under the current transform
func (v *Viewport) Invert(sx, sy float64) models.Point {
	return v.t.Invert(models.Point{X: sx, Y: sy})
}

// Fit scales and centers the transform so every point lies inside a
// width x height surface centered on the screen origin, leaving padding
// on each side. An empty point set resets the viewport.
func (v *Viewport) Fit(points []models.Point, width, height, padding float64) Transform {
	if len(points) == 0 {
		return v.Reset()
	}
	minX, minY := points[0].X, points[0].Y
	maxX, maxY := minX, minY
	for _, p := range points[1:] {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	gw := math.Max(maxX-minX, 1)
	gh := math.Max(maxY-minY, 1)
	k := math.Min((width-2*padding)/gw, (height-2*padding)/gh)
	if k <= 0 {
		k = 1
	}
	k = v.clamp(k)
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	v.t = Transform{X: -cx * k, Y: -cy * k, K: k}
	return v.t
}

func (v *Viewport) clamp(k float64) float64 {
	return math.Max(v.minScale, math.Min(v.maxScale, k))
}

// WheelFactor converts a wheel event into a zoom factor the way browsers'
// d3-zoom does: pixel deltas scale by 0.002, line deltas by 0.05, page
// deltas by 1, and a held ctrl key (pinch gesture) multiplies by 10.
func WheelFactor(deltaY float64, deltaMode int, ctrl bool) float64 {
	var unit float64
	switch deltaMode {
	case 0:
		unit = 0.002
	case 1:
		unit = 0.05
	default:
		unit = 1
	}
	if ctrl {
		unit *= 10
	}
	return math.Pow(2, -deltaY*unit)
}
