package pane

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// MaxOpenness is the openness of a fully open window.
const MaxOpenness = 255

// DefaultOpenDuration is how long Open and Close take, in seconds: eight
// frames at 60 TPS.
const DefaultOpenDuration = 8.0 / 60.0

// Window is the payload of a NodeTypeWindow node: a framed box whose
// content unrolls vertically from its midline as openness goes 0 → 255.
// The frame position is the node's X/Y; Width and Height give its size.
type Window struct {
	Width, Height float64

	// Background fills the unrolled frame. Zero alpha draws nothing.
	Background Color

	// OpenDuration is the Open/Close animation length in seconds.
	OpenDuration float32
	// Ease shapes the Open/Close animation. Nil means ease.Linear.
	Ease ease.TweenFunc

	// OnOpened and OnClosed fire once when an Open or Close animation ends.
	OnOpened func()
	OnClosed func()

	node     *Node
	openness int
	tween    *gween.Tween
	opening  bool
	closing  bool
}

// NewWindow creates a window node of the given frame size. Windows start
// closed; call SetOpenness(MaxOpenness) or Open to show one.
func NewWindow(name string, w, h float64) *Node {
	n := &Node{Name: name, Type: NodeTypeWindow}
	nodeDefaults(n)
	n.Window = &Window{
		Width:        w,
		Height:       h,
		OpenDuration: DefaultOpenDuration,
		node:         n,
	}
	return n
}

// Node returns the node carrying this window.
func (w *Window) Node() *Node {
	return w.node
}

// Openness returns the current openness in [0, 255].
func (w *Window) Openness() int {
	return w.openness
}

// SetOpenness sets openness, clamped to [0, 255]. Any running Open/Close
// animation is cancelled.
func (w *Window) SetOpenness(v int) {
	w.stop()
	w.openness = clampOpenness(v)
}

func clampOpenness(v int) int {
	if v < 0 {
		return 0
	}
	if v > MaxOpenness {
		return MaxOpenness
	}
	return v
}

// IsOpen reports whether the window is fully open.
func (w *Window) IsOpen() bool { return w.openness >= MaxOpenness }

// IsClosed reports whether the window is fully closed.
func (w *Window) IsClosed() bool { return w.openness <= 0 }

// IsOpening reports whether an Open animation is running.
func (w *Window) IsOpening() bool { return w.opening }

// IsClosing reports whether a Close animation is running.
func (w *Window) IsClosing() bool { return w.closing }

// Frame returns the window's frame rectangle in its parent's space.
func (w *Window) Frame() Rect {
	x, y := 0.0, 0.0
	if w.node != nil {
		x, y = w.node.X, w.node.Y
	}
	return Rect{x, y, w.Width, w.Height}
}

// Open animates openness up to 255. No-op when already open or opening.
func (w *Window) Open() {
	if w.IsOpen() || w.opening {
		return
	}
	w.startTween(MaxOpenness)
	w.opening = true
}

// Close animates openness down to 0. No-op when already closed or closing.
func (w *Window) Close() {
	if w.IsClosed() || w.closing {
		return
	}
	w.startTween(0)
	w.closing = true
}

func (w *Window) startTween(to int) {
	fn := w.Ease
	if fn == nil {
		fn = ease.Linear
	}
	// Scale duration by the remaining distance so reversing midway keeps
	// the same speed.
	dist := float32(to - w.openness)
	if dist < 0 {
		dist = -dist
	}
	d := w.OpenDuration * dist / MaxOpenness
	w.opening, w.closing = false, false
	w.tween = gween.New(float32(w.openness), float32(to), d, fn)
}

// stop cancels any running animation without firing callbacks.
func (w *Window) stop() {
	w.tween = nil
	w.opening = false
	w.closing = false
}

// animating reports whether update has work to do.
func (w *Window) animating() bool {
	return w.tween != nil
}

// update advances the Open/Close animation by dt seconds. It returns the
// lifecycle event that completed this step, if any.
func (w *Window) update(dt float64) (EventType, bool) {
	if w.tween == nil {
		return 0, false
	}
	v, done := w.tween.Update(float32(dt))
	w.openness = clampOpenness(int(v + 0.5))
	if !done {
		return 0, false
	}
	opened := w.opening
	w.stop()
	if opened {
		w.openness = MaxOpenness
		if w.OnOpened != nil {
			w.OnOpened()
		}
		return EventWindowOpened, true
	}
	w.openness = 0
	if w.OnClosed != nil {
		w.OnClosed()
	}
	return EventWindowClosed, true
}

// openRect returns r unrolled to the given openness: full width, height
// scaled by openness/255 and centered on r's vertical midline.
func openRect(r Rect, openness float64) Rect {
	f := openness / MaxOpenness
	return Rect{
		X:      r.X,
		Y:      r.Y + r.Height/2*(1-f),
		Width:  r.Width,
		Height: r.Height * f,
	}
}

// render draws the unrolled background, then the content children once the
// window is fully open.
func (w *Window) render(s Surface, n *Node) {
	if w.Background.A > 0 {
		r := openRect(Rect{0, 0, w.Width, w.Height}, float64(w.openness))
		if !r.IsEmpty() {
			s.Submit(fillCommand(n.worldTransform, r, tint(w.Background, n.worldAlpha)))
		}
	}
	if w.IsOpen() {
		renderChildren(s, n)
	}
}
