package pane

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// recordSurface logs every Surface call. Submit entries carry the stencil
// test in force and the node color, which identifies the submitter.
type recordSurface struct {
	calls   []string
	stencil bool
	fn      CompareFunc
	color   bool
}

func newRecordSurface() *recordSurface {
	return &recordSurface{color: true}
}

func (r *recordSurface) log(format string, args ...any) {
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recordSurface) Submit(cmd RenderCommand) {
	r.log("Submit(%v,stencil=%v,color=%v,x=%g,y=%g,w=%g,h=%g)",
		cmd.Color, r.stencil, r.color,
		cmd.Transform[4], cmd.Transform[5], cmd.Transform[0], cmd.Transform[3])
}
func (r *recordSurface) Flush()          { r.log("Flush") }
func (r *recordSurface) EnableStencil()  { r.stencil = true; r.log("EnableStencil") }
func (r *recordSurface) DisableStencil() { r.stencil = false; r.log("DisableStencil") }
func (r *recordSurface) StencilFunc(fn CompareFunc, ref, mask uint8) {
	r.fn = fn
	r.log("StencilFunc(%d,%d,%#x)", fn, ref, mask)
}
func (r *recordSurface) StencilOp(fail, depthFail, pass StencilAction) {
	r.log("StencilOp(%d,%d,%d)", fail, depthFail, pass)
}
func (r *recordSurface) ColorMask(cr, cg, cb, ca bool) {
	r.color = cr || cg || cb || ca
	r.log("ColorMask(%v,%v,%v,%v)", cr, cg, cb, ca)
}
func (r *recordSurface) DepthMask(enabled bool) { r.log("DepthMask(%v)", enabled) }
func (r *recordSurface) ClearStencil(v uint8)   { r.log("ClearStencil(%d)", v) }
func (r *recordSurface) Clear(bits ClearBits)   { r.log("Clear(%d)", bits) }
func (r *recordSurface) Size() (int, int)       { return 816, 624 }

func (r *recordSurface) submits() []string {
	var out []string
	for _, c := range r.calls {
		if strings.HasPrefix(c, "Submit") {
			out = append(out, c)
		}
	}
	return out
}

// openWindow returns a fully open window with a background color.
func openWindow(name string, x, y, w, h float64, bg Color) *Node {
	n := NewWindow(name, w, h)
	n.X, n.Y = x, y
	n.Window.Background = bg
	n.Window.SetOpenness(MaxOpenness)
	return n
}

// renderLayer refreshes transforms and renders the layer's node.
func renderLayer(s Surface, wl *WindowLayer) {
	updateWorldTransform(wl.Node(), identityTransform, 1, true)
	renderNode(s, wl.Node())
}

var (
	colorA = Color{1, 0, 0, 1}
	colorB = Color{0, 1, 0, 1}
	colorC = Color{0, 0, 1, 1}
)

// --- Construction and extents ---

func TestNewWindowLayer(t *testing.T) {
	wl := NewWindowLayer()
	n := wl.Node()
	if n.Type != NodeTypeWindowLayer || n.layer != wl {
		t.Fatal("layer node not wired")
	}
	if wl.Width() != 0 || wl.Height() != 0 {
		t.Errorf("extents = %dx%d, want 0x0", wl.Width(), wl.Height())
	}
	if len(n.Filters) != 1 || n.Filters[0] != voidFilter {
		t.Errorf("Filters = %v, want [voidFilter]", n.Filters)
	}
	if len(wl.Children()) != 0 {
		t.Error("new layer should be empty")
	}
}

func TestWindowLayerMove(t *testing.T) {
	wl := NewWindowLayer()
	wl.Move(5, 6, 816, 624)
	if wl.Node().X != 5 || wl.Node().Y != 6 {
		t.Errorf("position = (%v, %v), want (5, 6)", wl.Node().X, wl.Node().Y)
	}
	if wl.Width() != 816 || wl.Height() != 624 {
		t.Errorf("extents = %dx%d, want 816x624", wl.Width(), wl.Height())
	}
	// Not validated.
	wl.Move(0, 0, -1, -2)
	if wl.Width() != -1 || wl.Height() != -2 {
		t.Errorf("extents = %dx%d, want -1x-2", wl.Width(), wl.Height())
	}
}

func TestWindowLayerExtentsIndependentOfChildren(t *testing.T) {
	wl := NewWindowLayer()
	wl.SetWidth(100)
	wl.SetHeight(50)
	wl.AddChild(openWindow("big", 0, 0, 1000, 1000, colorA))
	if wl.Width() != 100 || wl.Height() != 50 {
		t.Errorf("extents = %dx%d, want 100x50", wl.Width(), wl.Height())
	}
}

func TestWindowLayerChildOps(t *testing.T) {
	wl := NewWindowLayer()
	a := NewWindow("a", 10, 10)
	b := NewWindow("b", 10, 10)
	c := NewContainer("c")

	if got := wl.AddChild(a); got != a {
		t.Error("AddChild should return the child")
	}
	wl.AddChild(b)
	if got := wl.AddChildAt(c, 1); got != c {
		t.Error("AddChildAt should return the child")
	}
	if ch := wl.Children(); ch[0] != a || ch[1] != c || ch[2] != b {
		t.Error("expected order a, c, b")
	}
	if got := wl.RemoveChild(c); got != c || c.Parent != nil {
		t.Error("RemoveChild should detach c")
	}
	if got := wl.RemoveChildAt(0); got != a {
		t.Error("RemoveChildAt(0) should return a")
	}
	if len(wl.Children()) != 1 || wl.Children()[0] != b {
		t.Error("b should remain")
	}
}

// --- Mask geometry ---

func TestMaskRectClosed(t *testing.T) {
	r := maskRect(0, 0, Vec2{}, Rect{10, 20, 100, 50}, 0)
	if r.Height != 0 {
		t.Errorf("Height = %v, want 0", r.Height)
	}
	if r.Y != 45 {
		t.Errorf("Y = %v, want 45 (midline)", r.Y)
	}
}

func TestMaskRectOpen(t *testing.T) {
	frame := Rect{10, 20, 100, 50}
	if r := maskRect(0, 0, Vec2{}, frame, MaxOpenness); r != frame {
		t.Errorf("mask = %v, want %v", r, frame)
	}
}

func TestMaskRectHalfOpen(t *testing.T) {
	r := maskRect(0, 0, Vec2{}, Rect{10, 20, 100, 50}, 128)
	assert.InDelta(t, 10, r.X, 1e-9)
	assert.InDelta(t, 32.45, r.Y, 0.01)
	assert.InDelta(t, 100, r.Width, 1e-9)
	assert.InDelta(t, 25.1, r.Height, 0.01)
}

func TestMaskRectLayerOffsetAndShift(t *testing.T) {
	r := maskRect(3, 4, Vec2{-1, -2}, Rect{10, 20, 100, 50}, MaxOpenness)
	want := Rect{12, 22, 100, 50}
	if r != want {
		t.Errorf("mask = %v, want %v", r, want)
	}
}

func TestMaskShiftAccessors(t *testing.T) {
	wl := NewWindowLayer()
	if wl.MaskShift() != (Vec2{}) {
		t.Error("default shift should be zero")
	}
	wl.SetMaskShift(2, 3)
	if wl.MaskShift() != (Vec2{2, 3}) {
		t.Errorf("shift = %v, want (2, 3)", wl.MaskShift())
	}
}

// --- Render ---

func TestRenderEmptyLayerIssuesNoCalls(t *testing.T) {
	s := newRecordSurface()
	wl := NewWindowLayer()
	wl.Render(s)
	if len(s.calls) != 0 {
		t.Errorf("calls = %v, want none", s.calls)
	}
}

func TestRenderInvisibleLayerIssuesNoCalls(t *testing.T) {
	for _, tt := range []struct {
		name string
		fn   func(n *Node)
	}{
		{"invisible", func(n *Node) { n.Visible = false }},
		{"non-renderable", func(n *Node) { n.Renderable = false }},
	} {
		t.Run(tt.name, func(t *testing.T) {
			s := newRecordSurface()
			wl := NewWindowLayer()
			wl.AddChild(openWindow("w", 0, 0, 10, 10, colorA))
			tt.fn(wl.Node())
			wl.Render(s)
			if len(s.calls) != 0 {
				t.Errorf("calls = %v, want none", s.calls)
			}
		})
	}
}

func TestRenderResetsMaskedCountWhenHidden(t *testing.T) {
	wl := NewWindowLayer()
	wl.AddChild(openWindow("w", 0, 0, 10, 10, colorA))
	renderLayer(newRecordSurface(), wl)
	if wl.LastMasked() != 1 {
		t.Fatalf("LastMasked = %d, want 1", wl.LastMasked())
	}

	wl.Node().Visible = false
	renderLayer(newRecordSurface(), wl)
	if wl.LastMasked() != 0 {
		t.Errorf("LastMasked after hiding = %d, want 0", wl.LastMasked())
	}

	wl.Node().Visible = true
	wl.Node().Renderable = false
	wl.lastMasked = 4
	wl.Render(newRecordSurface())
	if wl.LastMasked() != 0 {
		t.Errorf("LastMasked when not renderable = %d, want 0", wl.LastMasked())
	}
}

func TestRenderSingleWindowSequence(t *testing.T) {
	s := newRecordSurface()
	wl := NewWindowLayer()
	wl.AddChild(openWindow("w", 10, 20, 100, 50, colorA))
	renderLayer(s, wl)

	want := []string{
		"Flush",
		"EnableStencil",
		"StencilFunc(2,0,0xff)",
		"StencilOp(0,0,0)",
		fmt.Sprintf("Submit(%v,stencil=true,color=true,x=10,y=20,w=100,h=50)", colorA),
		"Flush",
		"StencilFunc(0,1,0xff)",
		"StencilOp(0,1,1)",
		"ColorMask(false,false,false,false)",
		"DepthMask(false)",
		fmt.Sprintf("Submit(%v,stencil=true,color=false,x=10,y=20,w=100,h=50)", ColorWhite),
		"Flush",
		"ColorMask(true,true,true,true)",
		"DepthMask(true)",
		"ClearStencil(0)",
		"Clear(2)",
		"DisableStencil",
		"Flush",
		"Flush",
	}
	assert.Equal(t, want, s.calls)
	if wl.LastMasked() != 1 {
		t.Errorf("LastMasked = %d, want 1", wl.LastMasked())
	}
}

func TestRenderWindowsTopmostFirst(t *testing.T) {
	s := newRecordSurface()
	wl := NewWindowLayer()
	wl.AddChild(openWindow("a", 0, 0, 10, 10, colorA))
	wl.AddChild(openWindow("b", 0, 0, 10, 10, colorB))
	wl.AddChild(openWindow("c", 0, 0, 10, 10, colorC))
	renderLayer(s, wl)

	var order []Color
	for _, c := range s.submits() {
		for _, col := range []Color{colorA, colorB, colorC} {
			if strings.HasPrefix(c, fmt.Sprintf("Submit(%v,", col)) {
				order = append(order, col)
			}
		}
	}
	assert.Equal(t, []Color{colorC, colorB, colorA}, order)
	if wl.LastMasked() != 3 {
		t.Errorf("LastMasked = %d, want 3", wl.LastMasked())
	}
}

func TestRenderNonWindowChildrenUnmasked(t *testing.T) {
	s := newRecordSurface()
	wl := NewWindowLayer()
	wl.AddChild(NewRect("before", 5, 5, colorB))
	wl.AddChild(openWindow("w", 0, 0, 10, 10, colorA))
	wl.AddChild(NewRect("after", 5, 5, colorC))
	renderLayer(s, wl)

	var rects []string
	for _, c := range s.submits() {
		if strings.HasPrefix(c, fmt.Sprintf("Submit(%v,", colorB)) ||
			strings.HasPrefix(c, fmt.Sprintf("Submit(%v,", colorC)) {
			rects = append(rects, c)
		}
	}
	if len(rects) != 2 {
		t.Fatalf("rect submits = %v, want 2", rects)
	}
	for _, c := range rects {
		if !strings.Contains(c, "stencil=false") {
			t.Errorf("non-window child drawn under the stencil: %s", c)
		}
	}
	// Forward order for the unmasked pass.
	if !strings.HasPrefix(rects[0], fmt.Sprintf("Submit(%v,", colorB)) {
		t.Errorf("first unmasked submit = %s, want the 'before' rect", rects[0])
	}
}

func TestRenderSkipsClosedAndHiddenWindows(t *testing.T) {
	s := newRecordSurface()
	wl := NewWindowLayer()
	closed := openWindow("closed", 0, 0, 10, 10, colorA)
	closed.Window.SetOpenness(0)
	hidden := openWindow("hidden", 0, 0, 10, 10, colorB)
	hidden.Visible = false
	wl.AddChild(closed)
	wl.AddChild(hidden)
	renderLayer(s, wl)

	if len(s.submits()) != 0 {
		t.Errorf("submits = %v, want none", s.submits())
	}
	if wl.LastMasked() != 0 {
		t.Errorf("LastMasked = %d, want 0", wl.LastMasked())
	}
	// The stencil is still enabled, cleared and disabled.
	assert.Contains(t, s.calls, "EnableStencil")
	assert.Contains(t, s.calls, "DisableStencil")
}

func TestRenderHalfOpenMaskGeometry(t *testing.T) {
	s := newRecordSurface()
	wl := NewWindowLayer()
	w := openWindow("w", 10, 20, 100, 50, colorA)
	w.Window.SetOpenness(128)
	wl.AddChild(w)
	renderLayer(s, wl)

	assert.InDelta(t, 32.45, wl.maskRect.Y, 0.01)
	assert.InDelta(t, 25.1, wl.maskRect.Height, 0.01)
	if wl.mask.Len() != 1 || wl.mask.RectAt(0) != wl.maskRect {
		t.Error("mask graphics should hold exactly the stamped rect")
	}
}

func TestRenderIsRepeatable(t *testing.T) {
	wl := NewWindowLayer()
	wl.AddChild(openWindow("a", 0, 0, 10, 10, colorA))
	wl.AddChild(NewRect("r", 5, 5, colorB))
	wl.AddChild(openWindow("b", 5, 5, 10, 10, colorC))

	s1 := newRecordSurface()
	renderLayer(s1, wl)
	s2 := newRecordSurface()
	renderLayer(s2, wl)
	assert.Equal(t, s1.calls, s2.calls)
}

func TestRenderFollowsCurrentOrder(t *testing.T) {
	wl := NewWindowLayer()
	a := wl.AddChild(openWindow("a", 0, 0, 10, 10, colorA))
	wl.AddChild(openWindow("b", 0, 0, 10, 10, colorB))

	s := newRecordSurface()
	renderLayer(s, wl)
	first := s.submits()[0]
	if !strings.HasPrefix(first, fmt.Sprintf("Submit(%v,", colorB)) {
		t.Fatalf("first submit = %s, want b", first)
	}

	wl.Node().SetChildIndex(a, 1)
	s = newRecordSurface()
	renderLayer(s, wl)
	first = s.submits()[0]
	if !strings.HasPrefix(first, fmt.Sprintf("Submit(%v,", colorA)) {
		t.Errorf("first submit after reorder = %s, want a", first)
	}
}

func TestWindowContentRendersWhenOpen(t *testing.T) {
	wl := NewWindowLayer()
	w := openWindow("w", 0, 0, 10, 10, colorA)
	w.AddChild(NewRect("content", 4, 4, colorB))
	wl.AddChild(w)

	s := newRecordSurface()
	renderLayer(s, wl)
	found := false
	for _, c := range s.submits() {
		if strings.HasPrefix(c, fmt.Sprintf("Submit(%v,stencil=true", colorB)) {
			found = true
		}
	}
	if !found {
		t.Error("content should be drawn inside the masked pass")
	}

	w.Window.SetOpenness(200)
	s = newRecordSurface()
	renderLayer(s, wl)
	for _, c := range s.submits() {
		if strings.HasPrefix(c, fmt.Sprintf("Submit(%v,", colorB)) {
			t.Error("content should be hidden while the window is partly open")
		}
	}
}

// --- Update ---

func TestWindowLayerUpdateForwards(t *testing.T) {
	wl := NewWindowLayer()
	w := wl.AddChild(NewWindow("w", 10, 10))
	w.Window.OpenDuration = 0.1
	w.Window.Open()

	var ticks int
	plain := wl.AddChild(NewContainer("plain"))
	plain.OnUpdate = func(float64) { ticks++ }
	wl.AddChild(NewContainer("idle"))

	for i := 0; i < 3; i++ {
		wl.update(0.02, nil)
	}
	if ticks != 3 {
		t.Errorf("OnUpdate ran %d times, want 3", ticks)
	}
	if o := w.Window.Openness(); o <= 0 || o >= MaxOpenness {
		t.Errorf("Openness = %d, want partly open", o)
	}
}

func TestWindowLayerUpdateToleratesRemoval(t *testing.T) {
	wl := NewWindowLayer()
	var ran []string
	a := wl.AddChild(NewContainer("a"))
	b := wl.AddChild(NewContainer("b"))
	a.OnUpdate = func(float64) {
		ran = append(ran, "a")
		wl.RemoveChild(b)
	}
	b.OnUpdate = func(float64) { ran = append(ran, "b") }

	wl.update(1.0/60, nil)
	assert.Equal(t, []string{"a"}, ran)
}

func TestWindowLayerUpdateEmitsToLayerStore(t *testing.T) {
	wl := NewWindowLayer()
	store := &eventLog{}
	wl.SetEntityStore(store)
	w := wl.AddChild(NewWindow("w", 10, 10))
	w.Window.OpenDuration = 0
	w.Window.Open()

	wl.Update()
	if len(store.events) != 1 || store.events[0].Type != EventWindowOpened {
		t.Errorf("events = %+v, want one opened event", store.events)
	}
}

func TestSceneStoreReachesDirectLayerUpdate(t *testing.T) {
	s := NewScene()
	store := &eventLog{}
	s.SetEntityStore(store)
	wl := NewWindowLayer()
	s.Root().AddChild(wl.Node())
	_ = s.Update()

	w := wl.AddChild(NewWindow("w", 10, 10))
	w.Window.OpenDuration = 0
	w.Window.Open()
	wl.Update()
	if len(store.events) != 1 || store.events[0].Name != "w" {
		t.Errorf("events = %+v, want the opened event for w", store.events)
	}
}

// --- Detach ---

func TestDetachDisposesChildren(t *testing.T) {
	root := NewContainer("root")
	wl := NewWindowLayer()
	root.AddChild(wl.Node())
	w := wl.AddChild(NewWindow("w", 10, 10))
	r := wl.AddChild(NewRect("r", 1, 1, colorA))

	root.RemoveChild(wl.Node())

	if len(wl.Children()) != 0 {
		t.Errorf("children = %d, want 0", len(wl.Children()))
	}
	if !w.IsDisposed() || !r.IsDisposed() {
		t.Error("children should be disposed on detach")
	}
	if wl.Node().IsDisposed() {
		t.Error("the layer itself stays usable after detach")
	}

	s := newRecordSurface()
	wl.Render(s)
	if len(s.calls) != 0 {
		t.Errorf("calls after detach = %v, want none", s.calls)
	}
}

func TestDetachIgnoresUserOnRemoved(t *testing.T) {
	tests := []struct {
		name   string
		detach func(root, other *Node, wl *WindowLayer)
	}{
		{"RemoveChild", func(root, _ *Node, wl *WindowLayer) { root.RemoveChild(wl.Node()) }},
		{"RemoveChildAt", func(root, _ *Node, _ *WindowLayer) { root.RemoveChildAt(0) }},
		{"RemoveChildren", func(root, _ *Node, _ *WindowLayer) { root.RemoveChildren() }},
		{"reparent", func(_, other *Node, wl *WindowLayer) { other.AddChild(wl.Node()) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewContainer("root")
			other := NewContainer("other")
			wl := NewWindowLayer()
			root.AddChild(wl.Node())
			w := wl.AddChild(NewWindow("w", 10, 10))

			var removedFrom []string
			wl.Node().OnRemoved = func(p *Node) {
				removedFrom = append(removedFrom, p.Name)
				if len(wl.Children()) != 0 {
					t.Error("children should be gone before OnRemoved runs")
				}
			}

			tt.detach(root, other, wl)
			assert.Equal(t, []string{"root"}, removedFrom)
			assert.Empty(t, wl.Children())
			assert.True(t, w.IsDisposed())
		})
	}
}

func TestWindowLayerDispose(t *testing.T) {
	root := NewContainer("root")
	wl := NewWindowLayer()
	root.AddChild(wl.Node())
	w := wl.AddChild(NewWindow("w", 10, 10))

	wl.Dispose()
	if !w.IsDisposed() || !wl.Node().IsDisposed() {
		t.Error("Dispose should dispose the layer and its children")
	}
	if root.NumChildren() != 0 {
		t.Error("layer should leave its parent")
	}
}
