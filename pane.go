package pane

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
// Premultiplication happens when a command is submitted to a Surface.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default tint (no color modification).
var ColorWhite = Color{1, 1, 1, 1}

// toRGBA converts to a premultiplied color.RGBA.
func (c Color) toRGBA() color.RGBA {
	a := clamp01(c.A)
	return color.RGBA{
		R: uint8(clamp01(c.R)*a*255 + 0.5),
		G: uint8(clamp01(c.G)*a*255 + 0.5),
		B: uint8(clamp01(c.B)*a*255 + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Vec2 is a 2D vector used for positions and offsets.
type Vec2 struct {
	X, Y float64
}

// WhitePixel is a 1x1 white image. Solid rectangles are drawn by scaling it.
var WhitePixel *ebiten.Image

func init() {
	WhitePixel = ebiten.NewImage(1, 1)
	WhitePixel.Fill(ColorWhite.toRGBA())
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// IsEmpty reports whether the rectangle covers no pixels.
func (r Rect) IsEmpty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// BlendMode selects a compositing operation. Only the modes the clip pipeline
// needs are provided.
type BlendMode uint8

const (
	BlendNormal BlendMode = iota // source-over (standard alpha blending)
	BlendErase                   // destination-out (punch transparent holes)
	BlendMask                    // clip destination to source alpha
	BlendNone                    // opaque copy (skip blending)
)

// EbitenBlend returns the ebiten.Blend value corresponding to this BlendMode.
func (b BlendMode) EbitenBlend() ebiten.Blend {
	switch b {
	case BlendErase:
		return ebiten.BlendDestinationOut
	case BlendMask:
		return ebiten.Blend{
			BlendFactorSourceRGB:        ebiten.BlendFactorZero,
			BlendFactorSourceAlpha:      ebiten.BlendFactorZero,
			BlendFactorDestinationRGB:   ebiten.BlendFactorSourceAlpha,
			BlendFactorDestinationAlpha: ebiten.BlendFactorSourceAlpha,
			BlendOperationRGB:           ebiten.BlendOperationAdd,
			BlendOperationAlpha:         ebiten.BlendOperationAdd,
		}
	case BlendNone:
		return ebiten.BlendCopy
	default:
		return ebiten.BlendSourceOver
	}
}

// NodeType distinguishes rendering behavior for a Node.
type NodeType uint8

const (
	NodeTypeContainer   NodeType = iota // group node with no visual output
	NodeTypeSprite                      // renders Image (or nothing when nil)
	NodeTypeRect                        // solid Color fill of Width x Height
	NodeTypeGraphics                    // renders a Graphics shape list
	NodeTypeWindow                      // framed window with openness animation
	NodeTypeWindowLayer                 // stencil-masked window container
)

// EventType identifies a kind of window lifecycle event.
type EventType uint8

const (
	EventWindowOpened EventType = iota // fires when a window finishes opening
	EventWindowClosed                  // fires when a window finishes closing
)
