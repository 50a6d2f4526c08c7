package pane

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// RenderCommand is a single queued draw: Image mapped into surface space by
// Transform, tinted by Color.
type RenderCommand struct {
	Image     *ebiten.Image
	Transform [6]float64
	Color     Color
	BlendMode BlendMode
}

// fillCommand returns a command drawing a solid rect through world transform m.
func fillCommand(m [6]float64, r Rect, c Color) RenderCommand {
	local := [6]float64{r.Width, 0, 0, r.Height, r.X, r.Y}
	return RenderCommand{
		Image:     WhitePixel,
		Transform: multiplyAffine(m, local),
		Color:     c,
	}
}

// commandBatch queues commands until flushed. Runs of consecutive commands
// sharing an image and blend mode are submitted as one DrawTriangles32 call.
type commandBatch struct {
	cmds  []RenderCommand
	verts []ebiten.Vertex
	inds  []uint32
}

func (b *commandBatch) push(cmd RenderCommand) {
	if cmd.Image == nil {
		return
	}
	b.cmds = append(b.cmds, cmd)
}

func (b *commandBatch) pending() int {
	return len(b.cmds)
}

func (b *commandBatch) reset() {
	clear(b.cmds)
	b.cmds = b.cmds[:0]
}

// submit draws every queued command onto target and empties the queue.
// It returns the number of draw calls issued.
func (b *commandBatch) submit(target *ebiten.Image) int {
	calls := 0
	start := 0
	for i := 1; i <= len(b.cmds); i++ {
		if i < len(b.cmds) &&
			b.cmds[i].Image == b.cmds[start].Image &&
			b.cmds[i].BlendMode == b.cmds[start].BlendMode {
			continue
		}
		b.drawRun(target, b.cmds[start:i])
		calls++
		start = i
	}
	b.reset()
	return calls
}

func (b *commandBatch) drawRun(target *ebiten.Image, run []RenderCommand) {
	b.verts = b.verts[:0]
	b.inds = b.inds[:0]
	img := run[0].Image
	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	sx0, sy0 := float32(bounds.Min.X), float32(bounds.Min.Y)
	sx1, sy1 := float32(bounds.Max.X), float32(bounds.Max.Y)

	for i := range run {
		cmd := &run[i]
		t := &cmd.Transform
		a := float32(clamp01(cmd.Color.A))
		cr := float32(clamp01(cmd.Color.R)) * a
		cg := float32(clamp01(cmd.Color.G)) * a
		cb := float32(clamp01(cmd.Color.B)) * a

		lx := [4]float64{0, w, 0, w}
		ly := [4]float64{0, 0, h, h}
		sx := [4]float32{sx0, sx1, sx0, sx1}
		sy := [4]float32{sy0, sy0, sy1, sy1}

		base := uint32(len(b.verts))
		for k := 0; k < 4; k++ {
			b.verts = append(b.verts, ebiten.Vertex{
				DstX:   float32(t[0]*lx[k] + t[2]*ly[k] + t[4]),
				DstY:   float32(t[1]*lx[k] + t[3]*ly[k] + t[5]),
				SrcX:   sx[k],
				SrcY:   sy[k],
				ColorR: cr,
				ColorG: cg,
				ColorB: cb,
				ColorA: a,
			})
		}
		// Two triangles: TL-TR-BL, TR-BR-BL
		b.inds = append(b.inds, base, base+1, base+2, base+1, base+3, base+2)
	}

	var op ebiten.DrawTrianglesOptions
	op.Blend = run[0].BlendMode.EbitenBlend()
	op.ColorScaleMode = ebiten.ColorScaleModePremultipliedAlpha
	target.DrawTriangles32(b.verts, b.inds, img, &op)
}
