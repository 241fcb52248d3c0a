package handler

import (
	"context"
	"errors"
	"image/png"
	"net/http"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/reader"

	"github.com/gorilla/mux"
)

// SessionManager is the registry of open reading sessions.
type SessionManager interface {
	Open(ctx context.Context, handle domain.DocumentHandle) (*reader.Session, error)
	Get(id string) (*reader.Session, error)
	List() []reader.Snapshot
	Close(ctx context.Context, id string) (reader.Snapshot, error)
	HandleKey(ctx context.Context, id, key string, inTextInput bool) (reader.KeyAction, error)
}

// SessionHandler handles reading-session HTTP requests
type SessionHandler struct {
	sessions SessionManager
	logger   domain.Logger
}

func NewSessionHandler(sessions SessionManager, logger domain.Logger) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		logger:   logger,
	}
}

type openSessionRequest struct {
	DocumentID string `json:"document_id"`
	Path       string `json:"path"`
}

type changePageRequest struct {
	Delta int `json:"delta"`
}

type jumpRequest struct {
	Page int `json:"page"`
}

type modeRequest struct {
	Mode domain.ViewMode `json:"mode"`
}

type zoomRequest struct {
	Scale float64 `json:"scale"`
}

type viewportRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type scrollRequest struct {
	Offset float64 `json:"offset"`
}

type visibilityRequest struct {
	Page    int  `json:"page"`
	Visible bool `json:"visible"`
}

type swipeRequest struct {
	DX float64 `json:"dx"`
	DY float64 `json:"dy"`
}

type keyRequest struct {
	Key         string `json:"key"`
	InTextInput bool   `json:"in_text_input"`
}

type noteRequest struct {
	Page    int    `json:"page"`
	Content string `json:"content"`
}

// OpenSession handles opening a document for reading
func (h *SessionHandler) OpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	session, err := h.sessions.Open(r.Context(), domain.DocumentHandle{DocumentID: req.DocumentID, Path: req.Path})
	if err != nil {
		h.logger.Error("Failed to open session", err, "path", req.Path)
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session.Snapshot())
}

// ListSessions handles listing open sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"sessions": h.sessions.List()})
}

// GetSession handles reading the state of one session
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// CloseSession handles closing a session with a final progress write
func (h *SessionHandler) CloseSession(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessions.Close(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// ChangePage handles relative page navigation
func (h *SessionHandler) ChangePage(w http.ResponseWriter, r *http.Request) {
	var req changePageRequest
	h.mutate(w, r, &req, func(s *reader.Session) error {
		_, err := s.ChangePage(req.Delta)
		return err
	})
}

// JumpToPage handles absolute page navigation. A rejected page answers 422 with
// the page the reader stays on.
func (h *SessionHandler) JumpToPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req jumpRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	current, err := session.JumpToPage(req.Page)
	if errors.Is(err, domain.ErrPageOutOfRange) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":        err.Error(),
			"current_page": current,
		})
		return
	}
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}

// SetViewMode handles switching between single-page and continuous mode
func (h *SessionHandler) SetViewMode(w http.ResponseWriter, r *http.Request) {
	var req modeRequest
	h.mutate(w, r, &req, func(s *reader.Session) error {
		return s.SetViewMode(req.Mode)
	})
}

// SetZoom handles changing the zoom scale
func (h *SessionHandler) SetZoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	h.mutate(w, r, &req, func(s *reader.Session) error {
		_, err := s.SetZoom(req.Scale)
		return err
	})
}

// ToggleFitToWidth handles flipping fit-to-width
func (h *SessionHandler) ToggleFitToWidth(w http.ResponseWriter, r *http.Request) {
	h.mutate(w, r, nil, func(s *reader.Session) error {
		_, err := s.ToggleFitToWidth()
		return err
	})
}

// SetViewport handles a resize of the reading area
func (h *SessionHandler) SetViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	h.mutate(w, r, &req, func(s *reader.Session) error {
		return s.SetViewport(req.Width, req.Height)
	})
}

// ObserveScroll handles scroll offset reports from the continuous view
func (h *SessionHandler) ObserveScroll(w http.ResponseWriter, r *http.Request) {
	var req scrollRequest
	h.mutate(w, r, &req, func(s *reader.Session) error {
		_, err := s.ObserveScroll(req.Offset)
		return err
	})
}

// SetVisibility handles enter/exit events from a client-side visibility observer
func (h *SessionHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	h.mutate(w, r, &req, func(s *reader.Session) error {
		return s.SetVisible(req.Page, req.Visible)
	})
}

// Swipe handles touch gestures
func (h *SessionHandler) Swipe(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req swipeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	turned, err := session.Swipe(req.DX, req.DY)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"navigated": turned,
		"session":   session.Snapshot(),
	})
}

// Key handles keyboard input. Escape closes the session.
func (h *SessionHandler) Key(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req keyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	action, err := h.sessions.HandleKey(r.Context(), id, req.Key, req.InTextInput)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"action": action})
}

// ToggleBookmark handles adding or removing a bookmark
func (h *SessionHandler) ToggleBookmark(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	page, err := pathInt(r, "page")
	if err != nil {
		writeAppError(w, err)
		return
	}

	bookmarks, err := session.ToggleBookmark(page)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"bookmarks": bookmarks})
}

// ListNotes handles listing notes in creation order
func (h *SessionHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": session.Notes()})
}

// AddNote handles creating a note
func (h *SessionHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	var req noteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeAppError(w, err)
		return
	}

	notes, err := session.AddNote(req.Page, req.Content)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"notes": notes})
}

// DeleteNote handles removing a note
func (h *SessionHandler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}

	notes, err := session.DeleteNote(mux.Vars(r)["noteId"])
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notes": notes})
}

// PageImage serves the rendered surface of a materialized page as PNG
func (h *SessionHandler) PageImage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	page, err := pathInt(r, "page")
	if err != nil {
		writeAppError(w, err)
		return
	}

	surface, err := session.Surface(page)
	if err != nil {
		writeAppError(w, err)
		return
	}
	if surface.Surface == nil {
		writeAppError(w, domain.ErrPageNotMounted)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, surface.Surface); err != nil {
		h.logger.Error("Failed to encode page image", err, "page", page)
	}
}

// RetryPage handles making a failed page eligible for rendering again
func (h *SessionHandler) RetryPage(w http.ResponseWriter, r *http.Request) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	page, err := pathInt(r, "page")
	if err != nil {
		writeAppError(w, err)
		return
	}
	if err := session.Retry(page); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, session.Snapshot())
}

func (h *SessionHandler) session(w http.ResponseWriter, r *http.Request) (*reader.Session, bool) {
	session, err := h.sessions.Get(mux.Vars(r)["id"])
	if err != nil {
		writeAppError(w, err)
		return nil, false
	}
	return session, true
}

// mutate decodes req when non-nil, applies fn and answers with the new snapshot.
func (h *SessionHandler) mutate(w http.ResponseWriter, r *http.Request, req interface{}, fn func(*reader.Session) error) {
	session, ok := h.session(w, r)
	if !ok {
		return
	}
	if req != nil {
		if err := decodeJSON(r, req); err != nil {
			writeAppError(w, err)
			return
		}
	}
	if err := fn(session); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session.Snapshot())
}
