package pane

import (
	"fmt"

	"github.com/hajimehoshi/ebiten/v2"
)

// Filter post-processes a node's rendered subtree. A node with any filter is
// rendered into its own offscreen pass instead of straight into its parent's
// surface.
type Filter interface {
	// Apply renders src into dst with the filter effect.
	Apply(src, dst *ebiten.Image)
}

const colorMatrixShaderSrc = `//kage:unit pixels
package main

var Matrix [20]float

func Fragment(dst vec4, src vec2, color vec4) vec4 {
	c := imageSrc0At(src)
	if c.a > 0 {
		c.rgb /= c.a
	}
	r := Matrix[0]*c.r + Matrix[1]*c.g + Matrix[2]*c.b + Matrix[3]*c.a + Matrix[4]
	g := Matrix[5]*c.r + Matrix[6]*c.g + Matrix[7]*c.b + Matrix[8]*c.a + Matrix[9]
	b := Matrix[10]*c.r + Matrix[11]*c.g + Matrix[12]*c.b + Matrix[13]*c.a + Matrix[14]
	a := Matrix[15]*c.r + Matrix[16]*c.g + Matrix[17]*c.b + Matrix[18]*c.a + Matrix[19]
	r = clamp(r, 0, 1)
	g = clamp(g, 0, 1)
	b = clamp(b, 0, 1)
	a = clamp(a, 0, 1)
	return vec4(r*a, g*a, b*a, a)
}
`

// Compiled lazily; pane is single-threaded so no sync.Once.
var colorMatrixShader *ebiten.Shader

func ensureColorMatrixShader() *ebiten.Shader {
	if colorMatrixShader == nil {
		s, err := ebiten.NewShader([]byte(colorMatrixShaderSrc))
		if err != nil {
			panic(fmt.Errorf("pane: compile color matrix shader: %w", err))
		}
		colorMatrixShader = s
	}
	return colorMatrixShader
}

// ColorMatrixFilter applies a 4x5 color matrix (row-major, offsets in
// elements 4, 9, 14, 19) using a Kage shader.
type ColorMatrixFilter struct {
	Matrix [20]float64

	uniforms  map[string]any
	matrixF32 [20]float32
	shaderOp  ebiten.DrawRectShaderOptions
}

// NewColorMatrixFilter creates a color matrix filter initialized to identity.
func NewColorMatrixFilter() *ColorMatrixFilter {
	f := &ColorMatrixFilter{uniforms: make(map[string]any, 1)}
	f.uniforms["Matrix"] = f.matrixF32[:]
	f.Matrix[0] = 1
	f.Matrix[6] = 1
	f.Matrix[12] = 1
	f.Matrix[18] = 1
	return f
}

// NewAlphaFilter creates a filter that scales alpha by a. NewAlphaFilter(1)
// leaves pixels untouched and is used to force a node into its own pass.
func NewAlphaFilter(a float64) *ColorMatrixFilter {
	f := NewColorMatrixFilter()
	f.SetAlpha(a)
	return f
}

// SetAlpha sets the alpha multiplier, leaving the color rows alone.
func (f *ColorMatrixFilter) SetAlpha(a float64) {
	f.Matrix[15], f.Matrix[16], f.Matrix[17], f.Matrix[19] = 0, 0, 0, 0
	f.Matrix[18] = a
}

// Apply renders the color matrix transformation from src into dst.
func (f *ColorMatrixFilter) Apply(src, dst *ebiten.Image) {
	shader := ensureColorMatrixShader()
	for i, v := range f.Matrix {
		f.matrixF32[i] = float32(v)
	}
	b := src.Bounds()
	f.shaderOp.Images[0] = src
	f.shaderOp.Uniforms = f.uniforms
	dst.DrawRectShader(b.Dx(), b.Dy(), shader, &f.shaderOp)
}

// applyFilters runs the chain over src and returns the final image, which
// is src itself when filters is empty. Intermediate images come from pool;
// the caller releases the returned image when it differs from src.
func applyFilters(filters []Filter, src *ebiten.Image, pool *renderTexturePool) *ebiten.Image {
	if len(filters) == 0 {
		return src
	}
	b := src.Bounds()
	current := src
	for _, f := range filters {
		dst := pool.Acquire(b.Dx(), b.Dy())
		f.Apply(current, dst)
		if current != src {
			pool.Release(current)
		}
		current = dst
	}
	return current
}
