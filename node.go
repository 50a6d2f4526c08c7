package pane

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// nodeIDCounter is a plain counter (no atomic, pane is single-threaded).
var nodeIDCounter uint32

func nextNodeID() uint32 {
	nodeIDCounter++
	return nodeIDCounter
}

// Node is the scene graph element. A single flat struct is used for all node
// types; type-specific state hangs off payload pointers (Window, Graphics).
type Node struct {
	// Identity
	ID   uint32
	Name string
	Type NodeType

	// Hierarchy
	Parent   *Node
	children []*Node

	// Transform (local)
	X, Y     float64
	ScaleX   float64
	ScaleY   float64
	Rotation float64
	PivotX   float64
	PivotY   float64

	worldTransform [6]float64
	worldAlpha     float64
	transformDirty bool

	Alpha      float64
	Visible    bool
	Renderable bool

	// ZIndex orders siblings inside plain containers. WindowLayer children
	// are always drawn in insertion order.
	ZIndex int

	UserData any

	// Sprite / rect fields
	Image         *ebiten.Image
	Width, Height float64
	Color         Color
	BlendMode     BlendMode

	// Filters force the subtree into its own offscreen pass.
	Filters []Filter

	// Payloads
	Window   *Window
	Graphics *Graphics
	layer    *WindowLayer

	// OnUpdate is called once per logical frame. Nil means the node has no
	// update step and is skipped.
	OnUpdate func(dt float64)
	// OnAdded fires after the node is attached to parent.
	OnAdded func(parent *Node)
	// OnRemoved fires after the node is detached from parent.
	OnRemoved func(parent *Node)

	disposed       bool
	childrenSorted bool
	sortedChildren []*Node
}

func nodeDefaults(n *Node) {
	n.ID = nextNodeID()
	n.ScaleX = 1
	n.ScaleY = 1
	n.Alpha = 1
	n.Color = ColorWhite
	n.Visible = true
	n.Renderable = true
	n.transformDirty = true
	n.childrenSorted = true
}

// NewContainer creates a container node with no visual representation.
func NewContainer(name string) *Node {
	n := &Node{Name: name, Type: NodeTypeContainer}
	nodeDefaults(n)
	return n
}

// NewSprite creates a sprite node drawing img at its origin.
func NewSprite(name string, img *ebiten.Image) *Node {
	n := &Node{Name: name, Type: NodeTypeSprite, Image: img}
	nodeDefaults(n)
	return n
}

// NewRect creates a solid-color rectangle node of the given size.
func NewRect(name string, w, h float64, c Color) *Node {
	n := &Node{Name: name, Type: NodeTypeRect, Width: w, Height: h}
	nodeDefaults(n)
	n.Color = c
	return n
}

// NewGraphicsNode creates a node that renders g.
func NewGraphicsNode(name string, g *Graphics) *Node {
	n := &Node{Name: name, Type: NodeTypeGraphics, Graphics: g}
	nodeDefaults(n)
	return n
}

// IsWindow reports whether the node takes part in window-layer stencil
// masking.
func (n *Node) IsWindow() bool {
	return n.Type == NodeTypeWindow && n.Window != nil
}

// --- Tree manipulation ---

// AddChild appends child to this node's children.
// If child already has a parent, it is removed from that parent first.
// Panics if child is nil or child is an ancestor of this node (cycle).
func (n *Node) AddChild(child *Node) {
	n.insertChild(child, len(n.children), "AddChild")
}

// AddChildAt inserts child at the given index.
// Same reparenting and cycle-check behavior as AddChild.
func (n *Node) AddChildAt(child *Node, index int) {
	n.insertChild(child, index, "AddChildAt")
}

func (n *Node) insertChild(child *Node, index int, op string) {
	if child == nil {
		panic("pane: cannot add nil child")
	}
	if globalDebug {
		debugCheckDisposed(n, op+" (parent)")
		debugCheckDisposed(child, op+" (child)")
	}
	if isAncestor(child, n) {
		panic("pane: adding child would create a cycle")
	}
	if child.Parent != nil {
		old := child.Parent
		old.removeChildByPtr(child)
		if old == n && index > len(n.children) {
			index = len(n.children)
		}
		old.childrenSorted = false
		child.Parent = nil
		notifyRemoved(child, old)
	}
	if index < 0 || index > len(n.children) {
		panic("pane: child index out of range")
	}
	child.Parent = n
	n.children = append(n.children, nil)
	copy(n.children[index+1:], n.children[index:])
	n.children[index] = child
	n.childrenSorted = false
	markSubtreeDirty(child)
	if globalDebug {
		debugCheckTreeDepth(child)
		debugCheckChildCount(n)
	}
	if child.OnAdded != nil {
		child.OnAdded(n)
	}
}

// RemoveChild detaches child from this node.
// Panics if child.Parent != n.
func (n *Node) RemoveChild(child *Node) {
	if globalDebug {
		debugCheckDisposed(n, "RemoveChild (parent)")
		debugCheckDisposed(child, "RemoveChild (child)")
	}
	if child.Parent != n {
		panic("pane: child's parent is not this node")
	}
	n.removeChildByPtr(child)
	n.detached(child)
}

// RemoveChildAt removes and returns the child at the given index.
func (n *Node) RemoveChildAt(index int) *Node {
	if globalDebug {
		debugCheckDisposed(n, "RemoveChildAt")
	}
	if index < 0 || index >= len(n.children) {
		panic("pane: child index out of range")
	}
	child := n.children[index]
	copy(n.children[index:], n.children[index+1:])
	n.children[len(n.children)-1] = nil
	n.children = n.children[:len(n.children)-1]
	n.detached(child)
	return child
}

func (n *Node) detached(child *Node) {
	child.Parent = nil
	n.childrenSorted = false
	markSubtreeDirty(child)
	notifyRemoved(child, n)
}

// notifyRemoved runs the detach work for child after it left parent. A
// window layer discards its children before the user callback runs.
func notifyRemoved(child, parent *Node) {
	if child.layer != nil {
		child.layer.discardChildren()
	}
	if child.OnRemoved != nil {
		child.OnRemoved(parent)
	}
}

// RemoveFromParent detaches this node from its parent.
// No-op if this node has no parent.
func (n *Node) RemoveFromParent() {
	if n.Parent == nil {
		return
	}
	n.Parent.RemoveChild(n)
}

// RemoveChildren detaches all children from this node and returns them.
// Children are NOT disposed.
func (n *Node) RemoveChildren() []*Node {
	removed := make([]*Node, len(n.children))
	copy(removed, n.children)
	clear(n.children)
	n.children = n.children[:0]
	n.childrenSorted = true
	n.sortedChildren = n.sortedChildren[:0]
	for _, child := range removed {
		child.Parent = nil
		markSubtreeDirty(child)
		notifyRemoved(child, n)
	}
	return removed
}

// Children returns the child list. The returned slice MUST NOT be mutated by the caller.
func (n *Node) Children() []*Node {
	return n.children
}

// NumChildren returns the number of children.
func (n *Node) NumChildren() int {
	return len(n.children)
}

// ChildAt returns the child at the given index.
func (n *Node) ChildAt(index int) *Node {
	return n.children[index]
}

// SetChildIndex moves child to a new index among its siblings.
func (n *Node) SetChildIndex(child *Node, index int) {
	if child.Parent != n {
		panic("pane: child's parent is not this node")
	}
	if index < 0 || index >= len(n.children) {
		panic("pane: child index out of range")
	}
	oldIndex := -1
	for i, c := range n.children {
		if c == child {
			oldIndex = i
			break
		}
	}
	if oldIndex == index {
		return
	}
	if oldIndex < index {
		copy(n.children[oldIndex:], n.children[oldIndex+1:index+1])
	} else {
		copy(n.children[index+1:], n.children[index:oldIndex])
	}
	n.children[index] = child
	n.childrenSorted = false
}

// SetZIndex sets the node's ZIndex and marks the parent's children as unsorted.
func (n *Node) SetZIndex(z int) {
	if n.ZIndex == z {
		return
	}
	n.ZIndex = z
	if n.Parent != nil {
		n.Parent.childrenSorted = false
	}
}

// --- Disposal ---

// Dispose removes this node from its parent, marks it as disposed,
// and recursively disposes all descendants.
func (n *Node) Dispose() {
	if n.disposed {
		return
	}
	n.RemoveFromParent()
	n.dispose()
}

func (n *Node) dispose() {
	n.disposed = true
	n.ID = 0
	for _, child := range n.children {
		child.Parent = nil
		child.dispose()
	}
	n.children = nil
	n.sortedChildren = nil
	n.Parent = nil
	n.Filters = nil
	n.Image = nil
	if n.Window != nil {
		n.Window.stop()
		n.Window = nil
	}
	n.Graphics = nil
	n.layer = nil
	n.UserData = nil
	n.OnUpdate = nil
	n.OnAdded = nil
	n.OnRemoved = nil
}

// IsDisposed returns true if this node has been disposed.
func (n *Node) IsDisposed() bool {
	return n.disposed
}

// --- Helpers ---

// isAncestor reports whether candidate is an ancestor of node.
func isAncestor(candidate, node *Node) bool {
	for p := node; p != nil; p = p.Parent {
		if p == candidate {
			return true
		}
	}
	return false
}

// removeChildByPtr removes child from n.children without clearing child.Parent.
func (n *Node) removeChildByPtr(child *Node) {
	for i, c := range n.children {
		if c == child {
			copy(n.children[i:], n.children[i+1:])
			n.children[len(n.children)-1] = nil
			n.children = n.children[:len(n.children)-1]
			return
		}
	}
}

// markSubtreeDirty sets transformDirty on node and all its descendants.
func markSubtreeDirty(node *Node) {
	node.transformDirty = true
	for _, child := range node.children {
		markSubtreeDirty(child)
	}
}

// sortedChildrenOf returns n's children in ZIndex order, rebuilding the
// cached order when the child list changed. Stable insertion sort.
func sortedChildrenOf(n *Node) []*Node {
	if n.childrenSorted && n.sortedChildren != nil {
		return n.sortedChildren
	}
	nc := len(n.children)
	if cap(n.sortedChildren) < nc {
		n.sortedChildren = make([]*Node, nc)
	}
	n.sortedChildren = n.sortedChildren[:nc]
	copy(n.sortedChildren, n.children)
	for i := 1; i < nc; i++ {
		key := n.sortedChildren[i]
		j := i - 1
		for j >= 0 && n.sortedChildren[j].ZIndex > key.ZIndex {
			n.sortedChildren[j+1] = n.sortedChildren[j]
			j--
		}
		n.sortedChildren[j+1] = key
	}
	n.childrenSorted = true
	return n.sortedChildren
}
