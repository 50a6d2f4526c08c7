package pane

// Graphics is a retained list of filled rectangles. It is a deliberately
// small shape primitive: fills only, no strokes or paths.
//
//	g := pane.NewGraphics()
//	g.BeginFill(pane.ColorWhite)
//	g.DrawRect(0, 0, 32, 32)
//	g.EndFill()
type Graphics struct {
	fills     []graphicsFill
	fillColor Color
	filling   bool
}

type graphicsFill struct {
	rect  Rect
	color Color
}

// NewGraphics returns an empty shape list.
func NewGraphics() *Graphics {
	return &Graphics{}
}

// Clear drops every shape and ends any open fill. Backing storage is kept.
func (g *Graphics) Clear() {
	g.fills = g.fills[:0]
	g.filling = false
}

// BeginFill starts a fill with color c. Rectangles drawn until EndFill use it.
func (g *Graphics) BeginFill(c Color) {
	g.fillColor = c
	g.filling = true
}

// DrawRect adds a rectangle in the current fill color. Outside a
// BeginFill/EndFill pair it records nothing.
func (g *Graphics) DrawRect(x, y, w, h float64) {
	if !g.filling {
		return
	}
	g.fills = append(g.fills, graphicsFill{Rect{x, y, w, h}, g.fillColor})
}

// EndFill closes the current fill.
func (g *Graphics) EndFill() {
	g.filling = false
}

// Len returns the number of recorded rectangles.
func (g *Graphics) Len() int {
	return len(g.fills)
}

// RectAt returns the i-th recorded rectangle.
func (g *Graphics) RectAt(i int) Rect {
	return g.fills[i].rect
}

// render submits every non-empty rectangle through transform m.
func (g *Graphics) render(s Surface, m [6]float64, alpha float64) {
	for _, f := range g.fills {
		if f.rect.IsEmpty() {
			continue
		}
		c := f.color
		c.A *= alpha
		s.Submit(fillCommand(m, f.rect, c))
	}
}
