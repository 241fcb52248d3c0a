package reader

import (
	"sync"

	"pdf-reader-session/internal/domain"
)

// renderTag is the configuration a render request was issued under.
// A result whose tag no longer matches is stale and dropped.
type renderTag struct {
	generation uint64
	epoch      uint64
	width      float64
	scale      float64
}

type loadedDocument struct {
	doc     domain.Document
	renders sync.WaitGroup
}

// release closes the document once its in-flight renders have returned.
func (d *loadedDocument) release(logger domain.Logger) {
	d.renders.Wait()
	if err := d.doc.Close(); err != nil {
		logger.Warn("Failed to close document", "error", err)
	}
}

func (s *Session) tagLocked() renderTag {
	return renderTag{
		generation: s.engine.Generation(),
		epoch:      s.epoch,
		width:      s.engine.RenderWidth(),
		scale:      s.settings.RenderPixelRatio,
	}
}

// dispatchLocked requests every materialized page that has no surface for the current
// configuration. A request already in flight under the same tag satisfies a duplicate.
func (s *Session) dispatchLocked() {
	if s.closed || s.doc == nil {
		return
	}
	tag := s.tagLocked()
	for _, page := range s.engine.RenderQueue() {
		if inflight, ok := s.inflight[page]; ok && inflight == tag {
			continue
		}
		s.inflight[page] = tag
		s.doc.renders.Add(1)
		go s.render(s.doc, page, tag)
	}
}

func (s *Session) render(doc *loadedDocument, page int, tag renderTag) {
	defer doc.renders.Done()

	result, err := doc.doc.RenderPage(s.ctx, page, tag.width, tag.scale)
	if err == nil && (result == nil || result.NaturalHeight <= 0) {
		err = domain.ErrEmptyRender
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inflight[page] == tag {
		delete(s.inflight, page)
	}
	if s.closed || s.doc != doc || tag != s.tagLocked() || !s.engine.Materialized(page) {
		s.logger.Debug("Discarding stale render", "page", page, "generation", tag.generation)
		return
	}

	if err != nil {
		s.renderErrors[page] = err.Error()
		s.applyLocked(s.engine.RecordFailure(page))
		s.logger.Warn("Page render failed", "page", page, "error", err)
		s.emit(domain.EventPageFailed, RenderFailure{Page: page, Error: err.Error()})
		s.dispatchLocked()
		return
	}

	delete(s.renderErrors, page)
	s.surfaces[page] = result
	s.applyLocked(s.engine.RecordRender(page, result.NaturalHeight))
	if s.engine.Continuous() && s.scrollDriven {
		// measured heights move every placeholder below this page
		s.applyLocked(s.engine.ObserveScroll(s.engine.ScrollTop()))
	}
	s.emit(domain.EventPageRendered, RenderedEvent{
		Page:       page,
		Width:      tag.width,
		Height:     result.NaturalHeight,
		Generation: tag.generation,
	})
	s.dispatchLocked()
}

// Surface returns the rendered output of a materialized page.
func (s *Session) Surface(page int) (*domain.RenderedPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	if page < 1 || page > s.engine.PageCount() {
		return nil, domain.ErrPageOutOfRange
	}
	surface, ok := s.surfaces[page]
	if !ok {
		return nil, domain.ErrPageNotMounted
	}
	return surface, nil
}

// Retry makes a failed page eligible for rendering again.
func (s *Session) Retry(page int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.ErrSessionClosed
	}
	if page < 1 || page > s.engine.PageCount() {
		return domain.ErrPageOutOfRange
	}
	s.touchLocked()
	delete(s.renderErrors, page)
	s.applyLocked(s.engine.Retry(page))
	s.dispatchLocked()
	return nil
}
