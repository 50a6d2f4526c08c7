package pane

import "math"

// identityTransform is the identity affine matrix.
var identityTransform = [6]float64{1, 0, 0, 1, 0, 0}

// computeLocalTransform returns the node's local affine matrix
// [a, b, c, d, tx, ty], composed as
//
//	Translate(-PivotX, -PivotY) -> Scale -> Rotate -> Translate(X, Y)
func computeLocalTransform(n *Node) [6]float64 {
	sin, cos := math.Sincos(n.Rotation)
	a := cos * n.ScaleX
	b := sin * n.ScaleX
	c := -sin * n.ScaleY
	d := cos * n.ScaleY
	tx := n.X - (a*n.PivotX + c*n.PivotY)
	ty := n.Y - (b*n.PivotX + d*n.PivotY)
	return [6]float64{a, b, c, d, tx, ty}
}

// multiplyAffine multiplies two 2D affine matrices: result = parent * child.
//
//	| a  c  tx |
//	| b  d  ty |
//	| 0  0   1 |
func multiplyAffine(p, c [6]float64) [6]float64 {
	return [6]float64{
		p[0]*c[0] + p[2]*c[1],
		p[1]*c[0] + p[3]*c[1],
		p[0]*c[2] + p[2]*c[3],
		p[1]*c[2] + p[3]*c[3],
		p[0]*c[4] + p[2]*c[5] + p[4],
		p[1]*c[4] + p[3]*c[5] + p[5],
	}
}

// updateWorldTransform recomputes world transforms for n and its subtree.
// A recomputed parent forces its children to recompute.
func updateWorldTransform(n *Node, parentTransform [6]float64, parentAlpha float64, parentRecomputed bool) {
	recompute := n.transformDirty || parentRecomputed
	if recompute {
		n.worldTransform = multiplyAffine(parentTransform, computeLocalTransform(n))
		n.worldAlpha = parentAlpha * n.Alpha
		n.transformDirty = false
	}
	for _, child := range n.children {
		updateWorldTransform(child, n.worldTransform, n.worldAlpha, recompute)
	}
}

// SetPosition sets the node's local X and Y and marks it dirty.
func (n *Node) SetPosition(x, y float64) {
	n.X = x
	n.Y = y
	n.transformDirty = true
}

// SetScale sets the node's ScaleX and ScaleY and marks it dirty.
func (n *Node) SetScale(sx, sy float64) {
	n.ScaleX = sx
	n.ScaleY = sy
	n.transformDirty = true
}

// SetRotation sets the node's rotation (in radians) and marks it dirty.
func (n *Node) SetRotation(r float64) {
	n.Rotation = r
	n.transformDirty = true
}

// SetPivot sets the node's PivotX and PivotY and marks it dirty.
func (n *Node) SetPivot(px, py float64) {
	n.PivotX = px
	n.PivotY = py
	n.transformDirty = true
}

// SetAlpha sets the node's alpha and marks it dirty.
func (n *Node) SetAlpha(a float64) {
	n.Alpha = a
	n.transformDirty = true
}

// MarkDirty forces a transform recompute on the next frame. Call it after
// writing X, Y, ScaleX... directly.
func (n *Node) MarkDirty() {
	n.transformDirty = true
}
