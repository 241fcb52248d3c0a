package reader

import (
	"fmt"
	"math"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/viewport"
)

// ChangePage moves by delta pages, clamped to the document. It returns the new page.
func (s *Session) ChangePage(delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, domain.ErrSessionClosed
	}
	s.touchLocked()
	target := domain.StepPage(s.currentPage, delta, s.engine.PageCount())
	s.goToLocked(target)
	return s.currentPage, nil
}

// JumpToPage moves to page n. Out-of-range input is rejected without changing the
// current page, and the page-number input is told to show the current page again.
func (s *Session) JumpToPage(n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, domain.ErrSessionClosed
	}
	s.touchLocked()
	count := s.engine.PageCount()
	if n < 1 || n > count {
		s.emit(domain.EventPageInput, PageInput{Value: s.currentPage})
		return s.currentPage, &domain.ValidationError{
			Field:   "page",
			Message: fmt.Sprintf("page must be between 1 and %d", count),
			Err:     domain.ErrPageOutOfRange,
		}
	}
	s.goToLocked(n)
	return s.currentPage, nil
}

// goToLocked makes page current. In continuous mode the view scrolls to it first so
// the visibility margin and the preload window both settle around the target.
func (s *Session) goToLocked(page int) {
	if page == s.currentPage {
		return
	}
	if s.engine.Continuous() {
		s.scrollToLocked(page)
	}
	s.setCurrentLocked(page)
	s.dispatchLocked()
}

func (s *Session) setCurrentLocked(page int) {
	if page == s.currentPage {
		return
	}
	s.currentPage = page
	s.applyLocked(s.engine.SetCurrentPage(page))
	s.emit(domain.EventPage, PageChange{Page: page, PageCount: s.engine.PageCount()})
	s.saveLocked(false)
}

func (s *Session) scrollToLocked(page int) {
	offset := s.engine.ScrollTarget(page)
	s.applyLocked(s.engine.ObserveScroll(offset))
	s.scrollAnchor = &ScrollTarget{Page: page, Offset: offset}
	s.emit(domain.EventScrollTo, *s.scrollAnchor)
}

// SetViewMode switches between single-page and continuous display. Renders issued under
// the previous mode are ignored when they complete.
func (s *Session) SetViewMode(mode domain.ViewMode) error {
	if !mode.Valid() {
		return &domain.ValidationError{Field: "mode", Message: fmt.Sprintf("unknown view mode %q", mode)}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	s.touchLocked()
	if mode == s.mode {
		return nil
	}
	s.mode = mode
	s.epoch++
	s.inflight = make(map[int]renderTag)

	continuous := mode == domain.ViewModeContinuous
	s.applyLocked(s.engine.SetContinuous(continuous))
	if continuous {
		// the current page is re-derived from the centered page as scroll reports arrive
		s.scrollToLocked(s.currentPage)
	} else {
		s.scrollDriven = false
		s.scrollAnchor = nil
	}

	s.logger.Debug("View mode changed", "mode", mode, "current_page", s.currentPage)
	s.emitViewLocked()
	s.dispatchLocked()
	return nil
}

// SetZoom sets an explicit scale, clamped to the supported range. It turns fit-to-width off.
func (s *Session) SetZoom(scale float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, domain.ErrSessionClosed
	}
	s.touchLocked()
	s.zoom = domain.ClampZoom(scale)
	s.fit = false
	s.applyGeometryLocked(func(g *viewport.Geometry) {
		g.Zoom = s.zoom
		g.FitToWidth = false
	})
	return s.zoom, nil
}

// ToggleFitToWidth flips fit-to-width and returns the new value. The zoom scale is kept
// for the next fixed-width view.
func (s *Session) ToggleFitToWidth() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, domain.ErrSessionClosed
	}
	s.touchLocked()
	s.fit = !s.fit
	s.applyGeometryLocked(func(g *viewport.Geometry) {
		g.FitToWidth = s.fit
	})
	return s.fit, nil
}

// SetViewport records the size of the reading area.
func (s *Session) SetViewport(width, height float64) error {
	if width <= 0 || height <= 0 {
		return &domain.ValidationError{Field: "viewport", Message: "viewport width and height must be positive"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	s.touchLocked()
	s.applyGeometryLocked(func(g *viewport.Geometry) {
		g.ViewportWidth = width
		g.ViewportHeight = height
	})
	return nil
}

func (s *Session) applyGeometryLocked(update func(g *viewport.Geometry)) {
	g := s.engine.Geometry()
	update(&g)

	generation := s.engine.Generation()
	s.applyLocked(s.engine.SetGeometry(g))
	if s.engine.Generation() != generation {
		s.scrollAnchor = nil
		s.surfaces = make(map[int]*domain.RenderedPage)
		s.inflight = make(map[int]renderTag)
		s.emitViewLocked()
	}
	s.dispatchLocked()
}

func (s *Session) emitViewLocked() {
	s.emit(domain.EventViewChanged, ViewState{
		Mode:        s.mode,
		ZoomScale:   s.zoom,
		FitToWidth:  s.fit,
		RenderWidth: s.engine.RenderWidth(),
	})
}

// ObserveScroll reports the scroll offset of the continuous view. The page centered in
// the viewport becomes current. Ignored in single-page mode.
func (s *Session) ObserveScroll(top float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, domain.ErrSessionClosed
	}
	s.touchLocked()
	if !s.engine.Continuous() {
		return s.currentPage, nil
	}
	s.scrollDriven = true
	s.applyLocked(s.engine.ObserveScroll(top))
	// The echo of a scroll-to keeps the page it was issued for, even at the
	// document edges where the target page cannot be centered.
	if a := s.scrollAnchor; a != nil && math.Abs(a.Offset-top) < 1 {
		s.setCurrentLocked(a.Page)
	} else if s.engine.PageCount() > 0 {
		s.scrollAnchor = nil
		s.setCurrentLocked(s.engine.CenteredPage())
	}
	s.dispatchLocked()
	return s.currentPage, nil
}

// SetVisible accepts an enter/exit event from a client-side visibility observer.
func (s *Session) SetVisible(page int, visible bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if page < 1 || page > s.engine.PageCount() {
		return domain.ErrPageOutOfRange
	}
	s.touchLocked()
	s.scrollDriven = false
	s.applyLocked(s.engine.SetVisible(page, visible))
	s.dispatchLocked()
	return nil
}
