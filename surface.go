package pane

import (
	"image"

	"github.com/hajimehoshi/ebiten/v2"
)

// CompareFunc is a stencil comparison function.
type CompareFunc uint8

const (
	CompareAlways   CompareFunc = iota // always passes
	CompareNever                       // never passes
	CompareEqual                       // passes where (stencil & mask) == (ref & mask)
	CompareNotEqual                    // passes where (stencil & mask) != (ref & mask)
)

// StencilAction is what happens to the stencil value after a test.
type StencilAction uint8

const (
	StencilKeep    StencilAction = iota // leave the stored value
	StencilReplace                      // store the reference value
	StencilZero                         // store zero
)

// ClearBits selects the buffers cleared by Surface.Clear.
type ClearBits uint8

const (
	ClearColorBuffer ClearBits = 1 << iota
	ClearStencilBuffer
)

// Surface is the render-target handle nodes draw into. Draws are queued and
// only reach the target on Flush, so state changes must be preceded by a
// Flush to apply to the right draws.
type Surface interface {
	// Submit queues a draw command.
	Submit(cmd RenderCommand)
	// Flush submits queued commands under the current state.
	Flush()

	EnableStencil()
	DisableStencil()
	StencilFunc(fn CompareFunc, ref, mask uint8)
	StencilOp(fail, depthFail, pass StencilAction)
	ColorMask(r, g, b, a bool)
	DepthMask(enabled bool)
	// ClearStencil sets the value Clear writes into the stencil buffer.
	ClearStencil(v uint8)
	Clear(bits ClearBits)

	// Size returns the target size in pixels.
	Size() (w, h int)
}

// stencilState mirrors the fixed-function stencil configuration.
type stencilState struct {
	enabled    bool
	fn         CompareFunc
	ref        uint8
	mask       uint8
	fail       StencilAction
	depthFail  StencilAction
	pass       StencilAction
	clearValue uint8
}

// ImageSurface draws into an *ebiten.Image. Ebitengine exposes no stencil
// buffer, so ImageSurface keeps a one-bit stencil image of its own: a pixel
// is "set" where the image is opaque. Values written are reduced to
// zero/non-zero.
type ImageSurface struct {
	target  *ebiten.Image
	stencil *ebiten.Image
	scratch *ebiten.Image
	pool    *renderTexturePool
	sub     *ImageSurface // reused for nested offscreen passes

	// size the stencil and scratch images were allocated for
	auxW, auxH int

	batch commandBatch
	st    stencilState

	colorWrite [4]bool
	depthWrite bool

	// Per-surface counters, reset with ResetStats.
	flushes   int
	drawCalls int
}

// NewImageSurface creates a surface drawing into target.
func NewImageSurface(target *ebiten.Image) *ImageSurface {
	return newPooledSurface(target, &renderTexturePool{})
}

// newPooledSurface creates a surface whose offscreen images come from pool.
func newPooledSurface(target *ebiten.Image, pool *renderTexturePool) *ImageSurface {
	s := &ImageSurface{pool: pool}
	s.Reset(target)
	return s
}

// Reset rebinds the surface to target and restores default state. The
// stencil image is kept when the size is unchanged.
func (s *ImageSurface) Reset(target *ebiten.Image) {
	if target != nil {
		b := target.Bounds()
		if b.Dx() != s.auxW || b.Dy() != s.auxH {
			s.releaseStencil()
			s.auxW, s.auxH = b.Dx(), b.Dy()
		}
	}
	s.target = target
	s.batch.reset()
	s.st = stencilState{fn: CompareAlways, mask: 0xff}
	s.colorWrite = [4]bool{true, true, true, true}
	s.depthWrite = true
	if s.stencil != nil {
		s.stencil.Clear()
	}
}

// Target returns the image the surface draws into.
func (s *ImageSurface) Target() *ebiten.Image {
	return s.target
}

// Size returns the target size in pixels.
func (s *ImageSurface) Size() (int, int) {
	if s.target == nil {
		return 0, 0
	}
	b := s.target.Bounds()
	return b.Dx(), b.Dy()
}

// Submit queues a draw command.
func (s *ImageSurface) Submit(cmd RenderCommand) {
	s.batch.push(cmd)
}

// Pending returns the number of queued commands.
func (s *ImageSurface) Pending() int {
	return s.batch.pending()
}

// FlushCount returns the number of Flush calls that submitted work.
func (s *ImageSurface) FlushCount() int { return s.flushes }

// DrawCount returns the number of draw calls issued to Ebitengine.
func (s *ImageSurface) DrawCount() int { return s.drawCalls }

// ResetStats zeroes FlushCount and DrawCount.
func (s *ImageSurface) ResetStats() {
	s.flushes = 0
	s.drawCalls = 0
}

// flushMode is the destination chosen for queued draws by the current state.
type flushMode uint8

const (
	flushDirect        flushMode = iota // draw straight onto the target
	flushDiscard                        // drop the draws
	flushStamp                          // write into the stencil image
	flushErase                          // clear stencil pixels under the draws
	flushOutsideStamps                  // draw where the stencil is zero
	flushInsideStamps                   // draw where the stencil is non-zero
)

func (s *ImageSurface) mode() flushMode {
	colorOn := s.colorWrite[0] || s.colorWrite[1] || s.colorWrite[2] || s.colorWrite[3]
	if !s.st.enabled {
		if colorOn {
			return flushDirect
		}
		return flushDiscard
	}
	if !colorOn {
		switch {
		case s.st.fn == CompareNever:
			return flushDiscard
		case s.st.pass == StencilReplace && s.st.ref&s.st.mask != 0:
			return flushStamp
		case s.st.pass == StencilReplace || s.st.pass == StencilZero:
			return flushErase
		}
		return flushDiscard
	}
	ref := s.st.ref & s.st.mask
	switch s.st.fn {
	case CompareNever:
		return flushDiscard
	case CompareEqual:
		if ref == 0 {
			return flushOutsideStamps
		}
		return flushInsideStamps
	case CompareNotEqual:
		if ref == 0 {
			return flushInsideStamps
		}
		return flushOutsideStamps
	}
	return flushDirect
}

// Flush submits queued commands under the current stencil and color state.
func (s *ImageSurface) Flush() {
	if s.batch.pending() == 0 || s.target == nil {
		s.batch.reset()
		return
	}
	s.flushes++
	switch s.mode() {
	case flushDirect:
		s.drawCalls += s.batch.submit(s.target)
	case flushDiscard:
		s.batch.reset()
	case flushStamp:
		for i := range s.batch.cmds {
			s.batch.cmds[i].Color = ColorWhite
			s.batch.cmds[i].BlendMode = BlendNormal
		}
		s.drawCalls += s.batch.submit(s.ensureStencil())
	case flushErase:
		for i := range s.batch.cmds {
			s.batch.cmds[i].Color = ColorWhite
			s.batch.cmds[i].BlendMode = BlendErase
		}
		s.drawCalls += s.batch.submit(s.ensureStencil())
	case flushOutsideStamps:
		s.drawClipped(BlendErase)
	case flushInsideStamps:
		s.drawClipped(BlendMask)
	}
}

// drawClipped renders the queue offscreen, cuts it with the stencil image
// using clip, and composites the result onto the target.
func (s *ImageSurface) drawClipped(clip BlendMode) {
	scratch := s.ensureScratch()
	s.drawCalls += s.batch.submit(scratch)

	var op ebiten.DrawImageOptions
	op.Blend = clip.EbitenBlend()
	scratch.DrawImage(s.ensureStencil(), &op)

	op.Blend = BlendNormal.EbitenBlend()
	s.target.DrawImage(scratch, &op)
	s.drawCalls += 2
}

// EnableStencil turns the stencil test on.
func (s *ImageSurface) EnableStencil() { s.st.enabled = true }

// DisableStencil turns the stencil test off.
func (s *ImageSurface) DisableStencil() { s.st.enabled = false }

// StencilFunc sets the comparison used by the stencil test.
func (s *ImageSurface) StencilFunc(fn CompareFunc, ref, mask uint8) {
	s.st.fn = fn
	s.st.ref = ref
	s.st.mask = mask
}

// StencilOp sets the actions applied after the stencil test.
func (s *ImageSurface) StencilOp(fail, depthFail, pass StencilAction) {
	s.st.fail = fail
	s.st.depthFail = depthFail
	s.st.pass = pass
}

// ColorMask enables or disables color channel writes. Writes are emulated
// as all-or-nothing: any enabled channel draws all channels.
func (s *ImageSurface) ColorMask(r, g, b, a bool) {
	s.colorWrite = [4]bool{r, g, b, a}
}

// DepthMask toggles depth writes. There is no depth buffer; the flag is
// tracked for symmetry only.
func (s *ImageSurface) DepthMask(enabled bool) {
	s.depthWrite = enabled
}

// ClearStencil sets the value written by Clear(ClearStencilBuffer).
func (s *ImageSurface) ClearStencil(v uint8) {
	s.st.clearValue = v
}

// Clear clears the selected buffers.
func (s *ImageSurface) Clear(bits ClearBits) {
	if bits&ClearColorBuffer != 0 && s.target != nil {
		s.target.Clear()
	}
	if bits&ClearStencilBuffer != 0 {
		if s.st.clearValue == 0 {
			if s.stencil != nil {
				s.stencil.Clear()
			}
		} else {
			s.ensureStencil().Fill(ColorWhite.toRGBA())
		}
	}
}

// Dispose returns offscreen images to the pool (or deallocates them).
func (s *ImageSurface) Dispose() {
	if s.sub != nil {
		s.sub.Dispose()
		s.sub = nil
	}
	s.releaseStencil()
	s.auxW, s.auxH = 0, 0
	s.target = nil
	s.batch.reset()
}

func (s *ImageSurface) ensureStencil() *ebiten.Image {
	if s.stencil == nil {
		s.stencil = s.acquire()
	}
	return s.stencil
}

func (s *ImageSurface) ensureScratch() *ebiten.Image {
	if s.scratch == nil {
		s.scratch = s.acquire()
	} else {
		s.scratch.Clear()
	}
	return s.scratch
}

func (s *ImageSurface) acquire() *ebiten.Image {
	w, h := max(s.auxW, 1), max(s.auxH, 1)
	if s.pool != nil {
		return s.pool.Acquire(w, h)
	}
	return ebiten.NewImageWithOptions(image.Rect(0, 0, w, h), &ebiten.NewImageOptions{Unmanaged: true})
}

func (s *ImageSurface) releaseStencil() {
	for _, img := range []*ebiten.Image{s.stencil, s.scratch} {
		if img == nil {
			continue
		}
		if s.pool != nil {
			s.pool.Release(img)
		} else {
			img.Deallocate()
		}
	}
	s.stencil = nil
	s.scratch = nil
}
