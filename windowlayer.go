package pane

import "github.com/hajimehoshi/ebiten/v2"

// WindowLayer is a container for window nodes. Each frame it draws its
// window children topmost-first through the stencil buffer, so a window
// never paints over the unrolled area of a window added after it, then
// draws every non-window child unmasked on top.
//
// Add the layer to the scene with Node:
//
//	layer := pane.NewWindowLayer()
//	layer.Move(0, 0, 816, 624)
//	scene.Root().AddChild(layer.Node())
//	layer.AddChild(pane.NewWindow("message", 816, 180))
//
// Removing the layer's node from its parent disposes every child.
type WindowLayer struct {
	node   *Node
	width  int
	height int

	// mask is scratch geometry, rewritten right before each window's stamp.
	// It must not be read across iterations of the window loop.
	mask     *Graphics
	maskRect Rect
	shift    Vec2

	// store receives window events from Update. The scene replaces it with
	// its own store when it drives the layer.
	store EntityStore

	// stats for the last Render call, read by Scene debug output.
	lastMasked int
}

// voidFilter is an identity filter. Attaching it makes the host give the
// layer a dedicated offscreen pass instead of drawing it inline with its
// siblings.
var voidFilter Filter = NewAlphaFilter(1)

// NewWindowLayer creates an empty layer with zero extents.
func NewWindowLayer() *WindowLayer {
	n := &Node{Name: "window_layer", Type: NodeTypeWindowLayer}
	nodeDefaults(n)
	wl := &WindowLayer{
		node: n,
		mask: NewGraphics(),
	}
	n.layer = wl
	n.Filters = []Filter{voidFilter}
	return wl
}

// Node returns the layer's scene graph node.
func (wl *WindowLayer) Node() *Node {
	return wl.node
}

// Width returns the layer's logical width in pixels.
func (wl *WindowLayer) Width() int { return wl.width }

// SetWidth sets the layer's logical width. It is not derived from children.
func (wl *WindowLayer) SetWidth(w int) { wl.width = w }

// Height returns the layer's logical height in pixels.
func (wl *WindowLayer) Height() int { return wl.height }

// SetHeight sets the layer's logical height. It is not derived from children.
func (wl *WindowLayer) SetHeight(h int) { wl.height = h }

// Move sets position and extents at once. Values are not validated.
func (wl *WindowLayer) Move(x, y float64, width, height int) {
	wl.node.SetPosition(x, y)
	wl.width = width
	wl.height = height
}

// MaskShift returns the offset added to mask coordinates.
func (wl *WindowLayer) MaskShift() Vec2 { return wl.shift }

// SetMaskShift sets the offset added to mask coordinates. The mask is drawn
// in surface space while windows are positioned in layer space; the shift
// corrects for a surface whose origin is not the layer's parent origin.
// Defaults to zero.
func (wl *WindowLayer) SetMaskShift(x, y float64) {
	wl.shift = Vec2{x, y}
}

// AddChild appends child and returns it.
func (wl *WindowLayer) AddChild(child *Node) *Node {
	wl.node.AddChild(child)
	return child
}

// AddChildAt inserts child at index and returns it.
func (wl *WindowLayer) AddChildAt(child *Node, index int) *Node {
	wl.node.AddChildAt(child, index)
	return child
}

// RemoveChild detaches child and returns it.
func (wl *WindowLayer) RemoveChild(child *Node) *Node {
	wl.node.RemoveChild(child)
	return child
}

// RemoveChildAt detaches the child at index and returns it.
func (wl *WindowLayer) RemoveChildAt(index int) *Node {
	return wl.node.RemoveChildAt(index)
}

// Children returns the children in insertion order. Do not mutate.
func (wl *WindowLayer) Children() []*Node {
	return wl.node.children
}

// SetEntityStore sets where Update sends window open/close events.
func (wl *WindowLayer) SetEntityStore(store EntityStore) {
	wl.store = store
}

// Update runs one logical frame for every direct child that has an update
// step: window animations, then OnUpdate callbacks and their subtrees.
// Children with nothing to update are skipped. Finished window animations
// are reported to the layer's entity store.
func (wl *WindowLayer) Update() {
	wl.update(1/float64(ebiten.TPS()), wl.store)
}

func (wl *WindowLayer) update(dt float64, store EntityStore) {
	// Iterate over a snapshot; callbacks may add or remove children.
	children := append([]*Node(nil), wl.node.children...)
	for _, child := range children {
		if child.Parent != wl.node {
			continue
		}
		updateNode(child, dt, store)
	}
}

// Render draws the layer into s. See the type documentation for the order.
// An invisible, non-renderable or empty layer issues no surface calls.
func (wl *WindowLayer) Render(s Surface) {
	wl.lastMasked = 0
	if !wl.drawable() {
		return
	}
	children := wl.node.children

	s.Flush()
	s.EnableStencil()

	for i := len(children) - 1; i >= 0; i-- {
		child := children[i]
		if !child.IsWindow() || !child.Visible || child.Window.Openness() <= 0 {
			continue
		}
		s.StencilFunc(CompareEqual, 0, 0xff)
		s.StencilOp(StencilKeep, StencilKeep, StencilKeep)
		renderNode(s, child)
		s.Flush()

		wl.maskWindow(child.Window)

		s.StencilFunc(CompareAlways, 1, 0xff)
		s.StencilOp(StencilKeep, StencilReplace, StencilReplace)
		s.ColorMask(false, false, false, false)
		s.DepthMask(false)
		wl.mask.render(s, identityTransform, 1)
		s.Flush()
		s.ColorMask(true, true, true, true)
		s.DepthMask(true)
		wl.lastMasked++
	}

	s.ClearStencil(0)
	s.Clear(ClearStencilBuffer)
	s.DisableStencil()

	s.Flush()

	for _, child := range children {
		if !child.IsWindow() {
			renderNode(s, child)
		}
	}

	s.Flush()
}

// drawable reports whether Render would issue any surface calls.
func (wl *WindowLayer) drawable() bool {
	n := wl.node
	return n.Visible && n.Renderable && len(n.children) > 0
}

// maskWindow rewrites the mask shape to w's unrolled frame.
func (wl *WindowLayer) maskWindow(w *Window) {
	wl.maskRect = maskRect(wl.node.X, wl.node.Y, wl.shift, w.Frame(), float64(w.Openness()))
	wl.mask.Clear()
	wl.mask.BeginFill(ColorWhite)
	wl.mask.DrawRect(wl.maskRect.X, wl.maskRect.Y, wl.maskRect.Width, wl.maskRect.Height)
	wl.mask.EndFill()
}

// maskRect returns the stencil rectangle for a window frame at the given
// openness, for a layer at (lx, ly):
//
//	x = lx + shift.X + frame.X
//	y = ly + shift.Y + frame.Y + frame.Height/2*(1 - openness/255)
//	w = frame.Width
//	h = frame.Height * openness/255
func maskRect(lx, ly float64, shift Vec2, frame Rect, openness float64) Rect {
	frame.X += lx + shift.X
	frame.Y += ly + shift.Y
	return openRect(frame, openness)
}

// LastMasked returns how many windows the last Render stamped into the mask.
func (wl *WindowLayer) LastMasked() int {
	return wl.lastMasked
}

// discardChildren disposes every child. The tree calls it when the layer's
// node leaves its parent, so no child outlives the layer.
func (wl *WindowLayer) discardChildren() {
	for _, child := range wl.node.RemoveChildren() {
		child.dispose()
	}
}

// Dispose discards all children and disposes the layer's node.
func (wl *WindowLayer) Dispose() {
	wl.discardChildren()
	wl.node.Dispose()
}
