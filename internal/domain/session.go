package domain

import (
	"sort"
	"time"
)

// ViewMode selects how pages are laid out in the reading view.
type ViewMode string

const (
	ViewModeSingle     ViewMode = "single"
	ViewModeContinuous ViewMode = "continuous"
)

// Valid reports whether m is a known view mode.
func (m ViewMode) Valid() bool {
	return m == ViewModeSingle || m == ViewModeContinuous
}

// SaveStatus is derived from the persistence protocol and never stored.
type SaveStatus string

const (
	SaveStatusSaved  SaveStatus = "saved"
	SaveStatusSaving SaveStatus = "saving"
)

const (
	MinZoomScale     = 0.5
	MaxZoomScale     = 2.5
	DefaultZoomScale = 1.0
)

// Note is a free-text annotation addressed by page number.
type Note struct {
	ID        string    `json:"id"`
	Page      int       `json:"page"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionRecord is the durable snapshot of one document's reading state.
// It is always written whole; writing the same record twice is a no-op.
type SessionRecord struct {
	DocumentID  string    `json:"document_id"`
	CurrentPage int       `json:"current_page"`
	PageCount   int       `json:"page_count"`
	Bookmarks   []int     `json:"bookmarks"`
	Notes       []Note    `json:"notes"`
	LastReadAt  time.Time `json:"last_read_at"`
}

// NewSessionRecord returns the defaults used when no durable record exists.
func NewSessionRecord(documentID string) *SessionRecord {
	return &SessionRecord{
		DocumentID:  documentID,
		CurrentPage: 1,
		Bookmarks:   []int{},
		Notes:       []Note{},
	}
}

// Validate checks the record before it is written.
func (r *SessionRecord) Validate() error {
	if r.DocumentID == "" {
		return &ValidationError{Field: "document_id", Message: "document ID is required"}
	}
	if r.PageCount < 0 {
		return &ValidationError{Field: "page_count", Message: "page count cannot be negative"}
	}
	if r.CurrentPage < 1 {
		return &ValidationError{Field: "current_page", Message: "current page must be at least 1"}
	}
	if r.PageCount > 0 && r.CurrentPage > r.PageCount {
		return &ValidationError{Field: "current_page", Message: "current page exceeds page count"}
	}
	for _, n := range r.Notes {
		if n.ID == "" {
			return &ValidationError{Field: "notes", Message: "note ID is required"}
		}
	}
	return nil
}

// SortedBookmarks returns the members of set in ascending order.
func SortedBookmarks(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// StepPage moves delta pages from current and clamps the result. Any delta larger
// than the document lands on the nearest bound.
func StepPage(current, delta, pageCount int) int {
	if delta > pageCount {
		delta = pageCount
	}
	if delta < -pageCount {
		delta = -pageCount
	}
	return ClampPage(current+delta, pageCount)
}

// ClampPage clamps page into [1, max(pageCount, 1)].
func ClampPage(page, pageCount int) int {
	upper := pageCount
	if upper < 1 {
		upper = 1
	}
	if page < 1 {
		return 1
	}
	if page > upper {
		return upper
	}
	return page
}

// ClampZoom clamps scale into [MinZoomScale, MaxZoomScale].
func ClampZoom(scale float64) float64 {
	if scale < MinZoomScale {
		return MinZoomScale
	}
	if scale > MaxZoomScale {
		return MaxZoomScale
	}
	return scale
}

// ReaderSettings are the tunable thresholds of the reading engine.
type ReaderSettings struct {
	SaveDebounce     time.Duration
	PreloadWindow    int
	VisibilityMargin float64
	SwipeMinDistance float64
	BasePageWidth    float64
	RenderPixelRatio float64
}

// DefaultReaderSettings returns the stock thresholds.
func DefaultReaderSettings() ReaderSettings {
	return ReaderSettings{
		SaveDebounce:     time.Second,
		PreloadWindow:    4,
		VisibilityMargin: 2.0,
		SwipeMinDistance: 50,
		BasePageWidth:    800,
		RenderPixelRatio: 1.0,
	}
}
