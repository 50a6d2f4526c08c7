// Package pane draws game windows (message boxes, menus, choice lists) for
// [Ebitengine] through a stencil-masked window layer.
//
// A [WindowLayer] owns window nodes and ordinary nodes. Every frame it draws
// its windows topmost-first: each window paints only where no window above
// it has already claimed the screen, then stamps its own unrolled frame into
// the stencil buffer. Ordinary children are drawn afterwards without any
// mask. A window's frame unrolls from its vertical midline as its openness
// goes from 0 to 255, so opening and closing windows occlude the windows
// beneath them exactly as far as they are open.
//
// # Quick start
//
//	scene := pane.NewScene()
//	layer := pane.NewWindowLayer()
//	layer.Move(0, 0, 816, 624)
//	scene.Root().AddChild(layer.Node())
//
//	msg := pane.NewWindow("message", 816, 180)
//	msg.Y = 444
//	msg.Window.Background = pane.Color{R: 0, G: 0, B: 0.3, A: 0.9}
//	layer.AddChild(msg)
//	msg.Window.Open()
//
//	pane.Run(scene, pane.RunConfig{Title: "Windows", Width: 816, Height: 624})
//
// For full control, implement [ebiten.Game] yourself and call
// [Scene.Update] and [Scene.Draw] directly.
//
// # Rendering
//
// Nodes draw into a [Surface]. Draws are queued and submitted on Flush;
// [ImageSurface] is the Ebitengine implementation and emulates a one-bit
// stencil buffer with an offscreen image, since Ebitengine exposes none.
// Any [Surface] works, which is how the layer's call sequence is tested.
//
// [Ebitengine]: https://ebitengine.org
package pane
