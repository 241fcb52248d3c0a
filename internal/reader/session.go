// Package reader implements the live state of one open document: navigation and view
// mode, bookmarks and notes, render scheduling, and progress persistence.
//
// Every mutation goes through the session's single lock. The virtualization engine,
// the render dispatcher and the saver are only touched while it is held, so observers
// always see a consistent state.
package reader

import (
	"context"
	"sync"
	"time"

	"pdf-reader-session/internal/autosave"
	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/viewport"

	"github.com/google/uuid"
)

// Dependencies are the collaborators of a session.
type Dependencies struct {
	Store    domain.SessionStore
	Emitter  domain.EventEmitter
	Logger   domain.Logger
	Settings domain.ReaderSettings
	Now      func() time.Time
	NewID    func() string
}

// Session is one open reading instance of a document.
type Session struct {
	id         string
	documentID string
	settings   domain.ReaderSettings
	emitter    domain.EventEmitter
	logger     domain.Logger
	saver      *autosave.Saver
	now        func() time.Time
	newID      func() string

	ctx    context.Context
	cancel context.CancelFunc

	mu           sync.Mutex
	doc          *loadedDocument
	engine       *viewport.Engine
	loaded       bool
	closed       bool
	restorePage  int
	currentPage  int
	mode         domain.ViewMode
	zoom         float64
	fit          bool
	scrollDriven bool
	scrollAnchor *ScrollTarget
	epoch        uint64
	bookmarks    map[int]struct{}
	notes        []domain.Note
	lastReadAt   time.Time
	lastActive   time.Time
	surfaces     map[int]*domain.RenderedPage
	inflight     map[int]renderTag
	renderErrors map[int]string
}

// New creates a session from a durable record. The session has no pages until Load;
// the stored page is applied once the page count is known.
func New(id string, record domain.SessionRecord, deps Dependencies) *Session {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = func() string { return uuid.New().String() }
	}
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		id:           id,
		documentID:   record.DocumentID,
		settings:     deps.Settings,
		emitter:      deps.Emitter,
		logger:       deps.Logger.With("session_id", id, "document_id", record.DocumentID),
		now:          deps.Now,
		newID:        deps.NewID,
		ctx:          ctx,
		cancel:       cancel,
		engine: viewport.NewEngine(viewport.Options{
			PreloadWindow: deps.Settings.PreloadWindow,
			Margin:        deps.Settings.VisibilityMargin,
			BaseWidth:     deps.Settings.BasePageWidth,
		}),
		restorePage:  record.CurrentPage,
		currentPage:  1,
		mode:         domain.ViewModeSingle,
		zoom:         domain.DefaultZoomScale,
		bookmarks:    make(map[int]struct{}, len(record.Bookmarks)),
		notes:        append([]domain.Note{}, record.Notes...),
		lastReadAt:   record.LastReadAt,
		surfaces:     make(map[int]*domain.RenderedPage),
		inflight:     make(map[int]renderTag),
		renderErrors: make(map[int]string),
	}
	if s.restorePage < 1 {
		s.restorePage = 1
	}
	for _, p := range record.Bookmarks {
		if p >= 1 {
			s.bookmarks[p] = struct{}{}
		}
	}
	s.lastActive = s.now()
	s.saver = autosave.New(deps.Store, record.DocumentID, deps.Settings.SaveDebounce, s.logger, s.onSaveStatus)
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// DocumentID returns the identifier of the open document.
func (s *Session) DocumentID() string {
	return s.documentID
}

// LastActive is the time of the last command.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Load attaches a document and applies its page count. Loading again, after the file
// changed on disk, replaces the document: the current page is clamped to the new count,
// all geometry is dropped and a progress write is scheduled.
func (s *Session) Load(doc domain.Document) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	previous := s.doc
	s.doc = &loadedDocument{doc: doc}
	s.touchLocked()

	count := doc.PageCount()
	target := s.currentPage
	if !s.loaded {
		target = s.restorePage
	}
	s.loaded = true

	s.epoch++
	s.inflight = make(map[int]renderTag)
	s.surfaces = make(map[int]*domain.RenderedPage)
	s.renderErrors = make(map[int]string)

	s.applyLocked(s.engine.SetPageCount(count))
	s.currentPage = domain.ClampPage(target, count)
	s.applyLocked(s.engine.SetCurrentPage(s.currentPage))
	if s.engine.Continuous() {
		s.scrollToLocked(s.currentPage)
	}

	s.logger.Info("Document loaded", "page_count", count, "current_page", s.currentPage)
	s.emit(domain.EventPage, PageChange{Page: s.currentPage, PageCount: count})
	s.saveLocked(false)
	s.dispatchLocked()
	s.mu.Unlock()

	if previous != nil {
		go previous.release(s.logger)
	}
	return nil
}

// Close performs the final synchronous progress write and releases the document.
// In-flight renders complete into nothing.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return domain.ErrSessionClosed
	}
	s.closed = true
	record := s.recordLocked()
	doc := s.doc
	s.surfaces = make(map[int]*domain.RenderedPage)
	s.inflight = make(map[int]renderTag)
	s.mu.Unlock()

	s.cancel()
	err := s.saver.Close(ctx, record)
	if err != nil {
		s.logger.Error("Final progress write failed", err)
	}
	if doc != nil {
		doc.release(s.logger)
	}

	s.emit(domain.EventClosed, nil)
	s.logger.Info("Session closed", "current_page", record.CurrentPage)
	return err
}

// Closed reports whether Close has been called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Snapshot returns a copy of all observable state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		SessionID:     s.id,
		DocumentID:    s.documentID,
		CurrentPage:   s.currentPage,
		PageCount:     s.engine.PageCount(),
		ViewMode:      s.mode,
		ZoomScale:     s.zoom,
		FitToWidth:    s.fit,
		RenderWidth:   s.engine.RenderWidth(),
		SaveStatus:    s.saver.Status(),
		Bookmarks:     domain.SortedBookmarks(s.bookmarks),
		Notes:         append([]domain.Note{}, s.notes...),
		Pages:         s.engine.Pages(),
		ScrollTop:     s.engine.ScrollTop(),
		ContentHeight: s.engine.ContentHeight(),
		LastReadAt:    s.lastReadAt,
		Closed:        s.closed,
	}
	if err := s.saver.LastError(); err != nil {
		snap.LastSaveError = err.Error()
	}
	if len(s.renderErrors) > 0 {
		snap.RenderErrors = make(map[int]string, len(s.renderErrors))
		for p, msg := range s.renderErrors {
			snap.RenderErrors[p] = msg
		}
	}
	return snap
}

// Record is the durable snapshot that would be written now.
func (s *Session) Record() domain.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recordLocked()
}

func (s *Session) recordLocked() domain.SessionRecord {
	current := s.currentPage
	if !s.loaded {
		current = s.restorePage
	}
	return domain.SessionRecord{
		DocumentID:  s.documentID,
		CurrentPage: current,
		PageCount:   s.engine.PageCount(),
		Bookmarks:   domain.SortedBookmarks(s.bookmarks),
		Notes:       append([]domain.Note{}, s.notes...),
		LastReadAt:  s.lastReadAt,
	}
}

// saveLocked hands the current record to the saver. Annotation changes skip the
// quiet interval; navigation is debounced.
func (s *Session) saveLocked(immediate bool) {
	s.lastReadAt = s.now()
	record := s.recordLocked()
	if immediate {
		s.saver.SaveNow(record)
		return
	}
	s.saver.Schedule(record)
}

func (s *Session) onSaveStatus(status domain.SaveStatus) {
	change := SaveStatusChange{Status: status}
	if err := s.saver.LastError(); err != nil {
		change.Error = err.Error()
	}
	s.emit(domain.EventSaveStatus, change)
}

func (s *Session) touchLocked() {
	s.lastActive = s.now()
}

// applyLocked releases the surfaces of demoted pages.
func (s *Session) applyLocked(change viewport.Change) {
	for _, page := range change.Unmounted {
		delete(s.surfaces, page)
		s.emit(domain.EventPageUnmounted, PageRef{Page: page})
	}
}

func (s *Session) emit(event string, data interface{}) {
	if s.emitter == nil {
		return
	}
	s.emitter.Emit(context.Background(), event, domain.SessionEvent{
		SessionID: s.id,
		Type:      event,
		Data:      data,
	})
}
