package render

// Category10 is the ten-color categorical palette used for node groups
var Category10 = []string{
	"#1f77b4",
	"#ff7f0e",
	"#2ca02c",
	"#d62728",
	"#9467bd",
	"#8c564b",
	"#e377c2",
	"#7f7f7f",
	"#bcbd22",
	"#17becf",
}

// ColorScale maps node groups to palette colors.
// The mapping is a pure function of the group: the same group always gets
// the same color, and groups beyond the palette size wrap around.
type ColorScale struct {
	palette []string
}

// NewColorScale creates a scale over palette, or Category10 when it is empty
func NewColorScale(palette []string) *ColorScale {
	if len(palette) == 0 {
		palette = Category10
	}
	p := make([]string, len(palette))
	copy(p, palette)
	return &ColorScale{palette: p}
}

// Index returns the palette slot of a group
func (c *ColorScale) Index(group int) int {
	n := len(c.palette)
	return ((group % n) + n) % n
}

// Color returns the fill color of a group
func (c *ColorScale) Color(group int) string {
	return c.palette[c.Index(group)]
}

// Size returns the number of distinct colors
func (c *ColorScale) Size() int {
	return len(c.palette)
}
