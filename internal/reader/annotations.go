package reader

import (
	"fmt"
	"strings"

	"pdf-reader-session/internal/domain"
)

// ToggleBookmark adds page to the bookmark set if absent, removes it otherwise,
// and returns the sorted set.
func (s *Session) ToggleBookmark(page int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	if err := s.validatePageLocked(page); err != nil {
		return nil, err
	}
	s.touchLocked()

	if _, ok := s.bookmarks[page]; ok {
		delete(s.bookmarks, page)
	} else {
		s.bookmarks[page] = struct{}{}
	}

	bookmarks := domain.SortedBookmarks(s.bookmarks)
	s.emit(domain.EventBookmarks, bookmarks)
	s.saveLocked(true)
	return bookmarks, nil
}

// Bookmarks returns the bookmark set in ascending order.
func (s *Session) Bookmarks() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.SortedBookmarks(s.bookmarks)
}

// AddNote appends a note in creation order and returns the updated list.
// The new note is the last element.
func (s *Session) AddNote(page int, content string) ([]domain.Note, error) {
	if strings.TrimSpace(content) == "" {
		return nil, &domain.ValidationError{Field: "content", Message: "note content is required", Err: domain.ErrEmptyNote}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	if err := s.validatePageLocked(page); err != nil {
		return nil, err
	}
	s.touchLocked()

	s.notes = append(s.notes, domain.Note{
		ID:        s.newID(),
		Page:      page,
		Content:   content,
		CreatedAt: s.now().UTC(),
	})

	notes := append([]domain.Note{}, s.notes...)
	s.emit(domain.EventNotes, notes)
	s.saveLocked(true)
	return notes, nil
}

// DeleteNote removes a note by id. Deleting an unknown id is a no-op.
func (s *Session) DeleteNote(id string) ([]domain.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, domain.ErrSessionClosed
	}
	s.touchLocked()

	idx := -1
	for i, n := range s.notes {
		if n.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return append([]domain.Note{}, s.notes...), nil
	}
	s.notes = append(s.notes[:idx], s.notes[idx+1:]...)

	notes := append([]domain.Note{}, s.notes...)
	s.emit(domain.EventNotes, notes)
	s.saveLocked(true)
	return notes, nil
}

// Notes returns the notes in creation order.
func (s *Session) Notes() []domain.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Note{}, s.notes...)
}

// validatePageLocked bounds page numbers once the page count is known.
func (s *Session) validatePageLocked(page int) error {
	count := s.engine.PageCount()
	if page < 1 || (count > 0 && page > count) {
		return &domain.ValidationError{
			Field:   "page",
			Message: fmt.Sprintf("page %d is outside the document", page),
			Err:     domain.ErrPageOutOfRange,
		}
	}
	return nil
}
