package reader

import (
	"math"

	"pdf-reader-session/internal/domain"
)

// swipeMaxZoom is the zoom above which horizontal motion pans instead of turning pages.
const swipeMaxZoom = 1.1

// KeyAction is what a key press resolved to.
type KeyAction string

const (
	KeyIgnored   KeyAction = "ignored"
	KeyNavigated KeyAction = "navigated"
	KeyClose     KeyAction = "close"
)

// Swipe translates a gesture into a page turn. Only single-page mode at natural zoom
// turns pages, and only on a dominant horizontal motion of sufficient length.
// Swiping left moves forward.
func (s *Session) Swipe(dx, dy float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false, domain.ErrSessionClosed
	}
	s.touchLocked()

	if s.mode != domain.ViewModeSingle || s.zoom > swipeMaxZoom {
		return false, nil
	}
	if math.Abs(dx) <= math.Abs(dy) || math.Abs(dx) < s.settings.SwipeMinDistance {
		return false, nil
	}

	delta := 1
	if dx > 0 {
		delta = -1
	}
	before := s.currentPage
	s.goToLocked(domain.StepPage(s.currentPage, delta, s.engine.PageCount()))
	return s.currentPage != before, nil
}

// Key handles a key press. Keys typed into a text field are never intercepted.
// KeyClose asks the owner to close the session.
func (s *Session) Key(key string, inTextInput bool) (KeyAction, error) {
	if inTextInput {
		return KeyIgnored, nil
	}

	var delta int
	switch key {
	case "ArrowLeft", "Left", "PageUp":
		delta = -1
	case "ArrowRight", "Right", "PageDown":
		delta = 1
	case "Escape", "Esc":
		return KeyClose, nil
	default:
		return KeyIgnored, nil
	}

	if _, err := s.ChangePage(delta); err != nil {
		return KeyIgnored, err
	}
	return KeyNavigated, nil
}
