package pane

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
)

// NewFPSWidget creates a sprite node showing the current FPS and TPS,
// refreshed about every half second.
func NewFPSWidget() *Node {
	// 100x32 fits "FPS: 60.0\nTPS: 60.0"
	img := ebiten.NewImage(100, 32)

	node := NewSprite("fps_widget", img)
	node.ZIndex = 1 << 30

	var since float64
	node.OnUpdate = func(dt float64) {
		since += dt
		if since < 0.5 {
			return
		}
		since = 0

		img.Clear()
		img.Fill(color.RGBA{0, 0, 0, 128})
		ebitenutil.DebugPrint(img, fmt.Sprintf("FPS: %.1f\nTPS: %.1f", ebiten.ActualFPS(), ebiten.ActualTPS()))
	}
	return node
}
