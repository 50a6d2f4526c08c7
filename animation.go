package pane

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 2 float64 fields on a Node together. Call
// Update(dt) each frame; values are written back and the node marked dirty.
// A disposed target stops the group.
//
// There is no global animation manager; users call Update themselves.
type TweenGroup struct {
	tweens [2]*gween.Tween
	fields [2]*float64
	count  int
	target *Node
	Done   bool
}

// Update advances the tweens by dt seconds.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}
	done := true
	for i := 0; i < g.count; i++ {
		v, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(v)
		done = done && finished
	}
	g.Done = done
	if g.target != nil {
		g.target.MarkDirty()
	}
}

// TweenPosition animates node.X and node.Y to (toX, toY).
func TweenPosition(node *Node, toX, toY float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 2, target: node}
	g.tweens[0] = gween.New(float32(node.X), float32(toX), duration, fn)
	g.tweens[1] = gween.New(float32(node.Y), float32(toY), duration, fn)
	g.fields[0] = &node.X
	g.fields[1] = &node.Y
	return g
}

// TweenAlpha animates node.Alpha to the target value.
func TweenAlpha(node *Node, to float64, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1, target: node}
	g.tweens[0] = gween.New(float32(node.Alpha), float32(to), duration, fn)
	g.fields[0] = &node.Alpha
	return g
}
