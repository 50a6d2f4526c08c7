package pane

// offscreener is implemented by surfaces that can open a nested offscreen
// pass for filtered nodes. Surfaces without it render filtered nodes inline.
type offscreener interface {
	beginOffscreen() *ImageSurface
	endOffscreen(sub *ImageSurface, filters []Filter)
}

// Render draws n and its subtree into s. World transforms must be current
// (Scene.Draw refreshes them before rendering).
func (n *Node) Render(s Surface) {
	renderNode(s, n)
}

func renderNode(s Surface, n *Node) {
	if wl := n.layer; wl != nil && !wl.drawable() {
		wl.lastMasked = 0
		return
	}
	if !n.Visible {
		return
	}
	if len(n.Filters) > 0 {
		if off, ok := s.(offscreener); ok {
			sub := off.beginOffscreen()
			renderContent(sub, n)
			off.endOffscreen(sub, n.Filters)
			return
		}
	}
	renderContent(s, n)
}

// renderContent draws n itself, then its children in ZIndex order. Windows
// and window layers draw their own children.
func renderContent(s Surface, n *Node) {
	switch n.Type {
	case NodeTypeWindowLayer:
		if n.layer != nil {
			n.layer.Render(s)
		}
		return
	case NodeTypeWindow:
		if n.Renderable && n.Window != nil {
			n.Window.render(s, n)
		}
		return
	case NodeTypeSprite:
		if n.Renderable && n.Image != nil {
			s.Submit(RenderCommand{
				Image:     n.Image,
				Transform: n.worldTransform,
				Color:     tint(n.Color, n.worldAlpha),
				BlendMode: n.BlendMode,
			})
		}
	case NodeTypeRect:
		if n.Renderable && n.Width > 0 && n.Height > 0 {
			cmd := fillCommand(n.worldTransform, Rect{0, 0, n.Width, n.Height}, tint(n.Color, n.worldAlpha))
			cmd.BlendMode = n.BlendMode
			s.Submit(cmd)
		}
	case NodeTypeGraphics:
		if n.Renderable && n.Graphics != nil {
			n.Graphics.render(s, n.worldTransform, n.worldAlpha)
		}
	}
	renderChildren(s, n)
}

func renderChildren(s Surface, n *Node) {
	if len(n.children) == 0 {
		return
	}
	for _, child := range sortedChildrenOf(n) {
		renderNode(s, child)
	}
}

func tint(c Color, alpha float64) Color {
	c.A *= alpha
	return c
}

// --- ImageSurface offscreen passes ---

func (s *ImageSurface) beginOffscreen() *ImageSurface {
	s.Flush()
	if s.pool == nil {
		s.pool = &renderTexturePool{}
	}
	w, h := s.Size()
	img := s.pool.Acquire(max(w, 1), max(h, 1))
	if s.sub == nil {
		s.sub = newPooledSurface(img, s.pool)
	} else {
		s.sub.Reset(img)
	}
	return s.sub
}

func (s *ImageSurface) endOffscreen(sub *ImageSurface, filters []Filter) {
	sub.Flush()
	src := sub.target
	result := applyFilters(filters, src, s.pool)

	s.batch.push(RenderCommand{Image: result, Transform: identityTransform, Color: ColorWhite})
	s.Flush()

	s.flushes += sub.flushes
	s.drawCalls += sub.drawCalls
	sub.ResetStats()
	sub.target = nil
	if result != src {
		s.pool.Release(result)
	}
	s.pool.Release(src)
}
