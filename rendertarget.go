package pane

import (
	"image"
	"math/bits"

	"github.com/hajimehoshi/ebiten/v2"
)

// renderTexturePool recycles offscreen images keyed by power-of-two size.
// After warmup, Acquire/Release do not allocate.
type renderTexturePool struct {
	buckets map[uint64][]*ebiten.Image
	live    int // images handed out and not yet released
}

func poolKey(w, h int) uint64 {
	return uint64(w)<<32 | uint64(h)
}

// Acquire returns a cleared image of at least (w, h) pixels.
func (p *renderTexturePool) Acquire(w, h int) *ebiten.Image {
	pw := nextPowerOfTwo(w)
	ph := nextPowerOfTwo(h)
	key := poolKey(pw, ph)
	p.live++

	if stack := p.buckets[key]; len(stack) > 0 {
		img := stack[len(stack)-1]
		p.buckets[key] = stack[:len(stack)-1]
		img.Clear()
		return img
	}
	return ebiten.NewImageWithOptions(
		image.Rect(0, 0, pw, ph),
		&ebiten.NewImageOptions{Unmanaged: true},
	)
}

// Release returns img to the pool. It is cleared on the next Acquire.
func (p *renderTexturePool) Release(img *ebiten.Image) {
	if img == nil {
		return
	}
	b := img.Bounds()
	key := poolKey(b.Dx(), b.Dy())
	if p.buckets == nil {
		p.buckets = make(map[uint64][]*ebiten.Image)
	}
	p.buckets[key] = append(p.buckets[key], img)
	p.live--
}

// Drain deallocates every pooled image.
func (p *renderTexturePool) Drain() {
	for key, stack := range p.buckets {
		for _, img := range stack {
			img.Deallocate()
		}
		delete(p.buckets, key)
	}
}

// nextPowerOfTwo returns the smallest power of two >= n (minimum 1).
func nextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}
