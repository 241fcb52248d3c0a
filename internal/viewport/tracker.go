package viewport

// PlaceholderHeight is the measured height, or an estimate from the render width.
func (e *Engine) PlaceholderHeight(page int) float64 {
	rec := e.record(page)
	if rec != nil && rec.Measured {
		return rec.Height
	}
	return e.RenderWidth() * PageAspectRatio
}

// PageOffset is the top of page in continuous layout.
func (e *Engine) PageOffset(page int) float64 {
	var y float64
	for p := 1; p < page && p <= len(e.pages); p++ {
		y += e.PlaceholderHeight(p) + PageGap
	}
	return y
}

// ContentHeight is the total scrollable height of the continuous layout.
func (e *Engine) ContentHeight() float64 {
	if len(e.pages) == 0 {
		return 0
	}
	return e.PageOffset(len(e.pages)) + e.PlaceholderHeight(len(e.pages))
}

// PageAt maps a layout offset to the page under it.
func (e *Engine) PageAt(y float64) int {
	if len(e.pages) == 0 {
		return 1
	}
	var top float64
	for p := 1; p <= len(e.pages); p++ {
		bottom := top + e.PlaceholderHeight(p) + PageGap
		if y < bottom {
			return p
		}
		top = bottom
	}
	return len(e.pages)
}

// ScrollTop is the last observed scroll offset.
func (e *Engine) ScrollTop() float64 {
	return e.scrollTop
}

// ScrollTarget is the scroll offset that shows page. Pages shorter than the viewport
// are centered so the page under the middle of the viewport is page itself. The
// offset never leaves the scrollable range.
func (e *Engine) ScrollTarget(page int) float64 {
	vh := e.geometry.ViewportHeight
	offset := e.PageOffset(page)
	if slack := vh - e.PlaceholderHeight(page); slack > 0 {
		offset -= slack / 2
	}
	if limit := e.ContentHeight() - vh; offset > limit {
		offset = limit
	}
	if offset < 0 {
		return 0
	}
	return offset
}

// CenteredPage is the page under the middle of the viewport.
func (e *Engine) CenteredPage() int {
	return e.PageAt(e.scrollTop + e.geometry.ViewportHeight/2)
}

// ObserveScroll is the layout-based visibility tracker. It intersects every placeholder
// with the viewport expanded by the margin and feeds the resulting enter/exit events
// into the engine. Only meaningful in continuous mode.
func (e *Engine) ObserveScroll(top float64) Change {
	if !e.continuous {
		return Change{}
	}
	if top < 0 {
		top = 0
	}
	e.scrollTop = top

	vh := e.geometry.ViewportHeight
	lo := top - e.opts.Margin*vh
	hi := top + vh + e.opts.Margin*vh

	var y float64
	for i := range e.pages {
		h := e.PlaceholderHeight(e.pages[i].Page)
		e.pages[i].Visible = y < hi && y+h > lo
		y += h + PageGap
	}
	return e.reconcile()
}
