package reader

import (
	"time"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/viewport"
)

// Snapshot is the observable state of a session.
type Snapshot struct {
	SessionID     string                `json:"session_id"`
	DocumentID    string                `json:"document_id"`
	CurrentPage   int                   `json:"current_page"`
	PageCount     int                   `json:"page_count"`
	ViewMode      domain.ViewMode       `json:"view_mode"`
	ZoomScale     float64               `json:"zoom_scale"`
	FitToWidth    bool                  `json:"fit_to_width"`
	RenderWidth   float64               `json:"render_width"`
	SaveStatus    domain.SaveStatus     `json:"save_status"`
	LastSaveError string                `json:"last_save_error,omitempty"`
	Bookmarks     []int                 `json:"bookmarks"`
	Notes         []domain.Note         `json:"notes"`
	Pages         []viewport.PageRecord `json:"pages"`
	RenderErrors  map[int]string        `json:"render_errors,omitempty"`
	ScrollTop     float64               `json:"scroll_top"`
	ContentHeight float64               `json:"content_height"`
	LastReadAt    time.Time             `json:"last_read_at"`
	Closed        bool                  `json:"closed"`
}

// PageChange is the payload of domain.EventPage.
type PageChange struct {
	Page      int `json:"page"`
	PageCount int `json:"page_count"`
}

// PageRef names a single page.
type PageRef struct {
	Page int `json:"page"`
}

// PageInput tells the page-number input which value to show after a rejected jump.
type PageInput struct {
	Value int `json:"value"`
}

// ScrollTarget asks a continuous view to scroll a page into place.
type ScrollTarget struct {
	Page   int     `json:"page"`
	Offset float64 `json:"offset"`
}

// ViewState is the payload of domain.EventViewChanged.
type ViewState struct {
	Mode        domain.ViewMode `json:"mode"`
	ZoomScale   float64         `json:"zoom_scale"`
	FitToWidth  bool            `json:"fit_to_width"`
	RenderWidth float64         `json:"render_width"`
}

// RenderedEvent is the payload of domain.EventPageRendered.
type RenderedEvent struct {
	Page       int     `json:"page"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	Generation uint64  `json:"generation"`
}

// RenderFailure is the payload of domain.EventPageFailed.
type RenderFailure struct {
	Page  int    `json:"page"`
	Error string `json:"error"`
}

// SaveStatusChange is the payload of domain.EventSaveStatus.
type SaveStatusChange struct {
	Status domain.SaveStatus `json:"status"`
	Error  string            `json:"error,omitempty"`
}
