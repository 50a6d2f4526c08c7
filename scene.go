package pane

import (
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// EntityStore is the interface for optional ECS integration. When set on a
// Scene, window lifecycle events are forwarded to it.
type EntityStore interface {
	EmitEvent(event WindowEvent)
}

// WindowEvent reports a finished Open or Close animation.
type WindowEvent struct {
	Type     EventType
	NodeID   uint32
	Name     string
	UserData any
}

// Scene owns the node tree and the render surface used to draw it.
type Scene struct {
	root  *Node
	store EntityStore
	debug bool

	// ClearColor fills the screen before drawing. Zero alpha leaves the
	// screen untouched.
	ClearColor Color

	// ScreenshotDir is where Screenshot writes PNG files.
	ScreenshotDir   string
	screenshotQueue []string

	updateFunc func() error

	surface *ImageSurface
	pool    renderTexturePool
}

// NewScene creates a new scene with a pre-created root container.
func NewScene() *Scene {
	return &Scene{root: NewContainer("root"), ScreenshotDir: "screenshots"}
}

// Root returns the scene's root container node.
func (s *Scene) Root() *Node {
	return s.root
}

// SetUpdateFunc sets a callback run at the end of every Update. A non-nil
// error from it is returned by Update (and ends Run).
func (s *Scene) SetUpdateFunc(fn func() error) {
	s.updateFunc = fn
}

// SetEntityStore sets the optional ECS bridge.
func (s *Scene) SetEntityStore(store EntityStore) {
	s.store = store
}

// SetDebugMode enables or disables debug mode. When enabled, disposed-node
// access panics, tree depth and child count warnings are printed, and
// per-frame stats are logged to stderr.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
	globalDebug = enabled
}

// globalDebug mirrors the most recently set Scene debug flag so that node
// operations (which lack a Scene pointer) can check it cheaply.
var globalDebug bool

// Update advances one logical frame: window animations, OnUpdate callbacks,
// window layers, then the scene update func.
func (s *Scene) Update() error {
	dt := 1 / float64(ebiten.TPS())
	updateNode(s.root, dt, s.store)
	updateWorldTransform(s.root, identityTransform, 1, false)
	if s.updateFunc != nil {
		return s.updateFunc()
	}
	return nil
}

// updateNode runs n's update step and then its children's. Window layers
// forward to their own children.
func updateNode(n *Node, dt float64, store EntityStore) {
	if w := n.Window; w != nil && w.animating() {
		id, name, data := n.ID, n.Name, n.UserData
		if ev, ok := w.update(dt); ok && store != nil {
			store.EmitEvent(WindowEvent{Type: ev, NodeID: id, Name: name, UserData: data})
		}
	}
	if n.disposed {
		return
	}
	if n.OnUpdate != nil {
		n.OnUpdate(dt)
		if n.disposed {
			return
		}
	}
	if wl := n.layer; wl != nil {
		if store != nil {
			wl.store = store
		}
		wl.update(dt, wl.store)
		return
	}
	for i := 0; i < len(n.children); i++ {
		child := n.children[i]
		updateNode(child, dt, store)
		if i < len(n.children) && n.children[i] != child {
			i-- // child removed itself; revisit this slot
		}
	}
}

// Draw refreshes world transforms and renders the tree into screen.
func (s *Scene) Draw(screen *ebiten.Image) {
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}

	if s.ClearColor.A > 0 {
		screen.Fill(s.ClearColor.toRGBA())
	}
	updateWorldTransform(s.root, identityTransform, 1, false)

	if s.surface == nil {
		s.surface = newPooledSurface(screen, &s.pool)
	} else {
		s.surface.Reset(screen)
	}
	s.surface.ResetStats()

	renderNode(s.surface, s.root)
	s.surface.Flush()
	s.flushScreenshots(screen)

	if s.debug {
		s.debugLog(frameStats{
			drawTime:  time.Since(t0),
			flushes:   s.surface.FlushCount(),
			drawCalls: s.surface.DrawCount(),
			masked:    countMasked(s.root),
			liveRTs:   s.pool.live,
		})
	}
}

// Dispose releases the scene's surface and pooled images. The node tree is
// left alone.
func (s *Scene) Dispose() {
	if s.surface != nil {
		s.surface.Dispose()
		s.surface = nil
	}
	s.pool.Drain()
}
