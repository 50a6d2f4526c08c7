package pane

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Screenshot queues a labeled capture of the next drawn frame. The PNG is
// written to ScreenshotDir once Draw has rendered every window layer.
func (s *Scene) Screenshot(label string) {
	s.screenshotQueue = append(s.screenshotQueue, label)
}

// flushScreenshots writes one PNG per queued label. Called at the end of Draw.
func (s *Scene) flushScreenshots(screen *ebiten.Image) {
	if len(s.screenshotQueue) == 0 {
		return
	}
	defer func() { s.screenshotQueue = s.screenshotQueue[:0] }()

	if err := os.MkdirAll(s.ScreenshotDir, 0o755); err != nil {
		_, _ = fmt.Fprintf(debugOut, "[pane] screenshot: mkdir %s: %v\n", s.ScreenshotDir, err)
		return
	}

	img := snapshot(screen)
	stamp := time.Now().Format("20060102_150405")
	for _, label := range s.screenshotQueue {
		path := filepath.Join(s.ScreenshotDir, stamp+"_"+sanitizeLabel(label)+".png")
		if err := writePNG(path, img); err != nil {
			_, _ = fmt.Fprintf(debugOut, "[pane] screenshot: %v\n", err)
		}
	}
}

// snapshot reads img back into a straight-alpha NRGBA image. Pixel readback
// only works once the game loop is running.
func snapshot(img *ebiten.Image) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.ReadPixels(out.Pix)

	// Ebitengine pixels are premultiplied.
	for i := 0; i < len(out.Pix); i += 4 {
		a := int(out.Pix[i+3])
		if a == 0 || a == 255 {
			continue
		}
		for c := 0; c < 3; c++ {
			out.Pix[i+c] = uint8(min(int(out.Pix[i+c])*255/a, 255))
		}
	}
	return out
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel keeps letters, digits, '-' and '.', replacing anything else
// with '_'. Empty labels become "frame".
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "frame"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			return r
		}
		return '_'
	}, label)
}
