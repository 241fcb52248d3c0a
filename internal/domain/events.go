package domain

// Session event names.
const (
	EventPage          = "session:page"
	EventSaveStatus    = "session:save-status"
	EventBookmarks     = "session:bookmarks"
	EventNotes         = "session:notes"
	EventPageRendered  = "session:page-rendered"
	EventPageFailed    = "session:page-failed"
	EventPageUnmounted = "session:page-unmounted"
	EventScrollTo      = "session:scroll-to"
	EventPageInput     = "session:page-input"
	EventViewChanged   = "session:view"
	EventClosed        = "session:closed"
	EventSnapshot      = "session:snapshot"
)

// SessionEvent is the payload of every emitted session event.
type SessionEvent struct {
	SessionID string      `json:"session_id"`
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
}
