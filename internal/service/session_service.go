package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/reader"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

const reloadTimeout = 30 * time.Second

// pathResolver is implemented by openers that map document paths to files.
type pathResolver interface {
	Resolve(path string) (string, error)
}

// SessionOptions tunes the session registry.
type SessionOptions struct {
	IdleTimeout    time.Duration
	SweepSpec      string
	WatchDocuments bool
}

type sessionEntry struct {
	session *reader.Session
	handle  domain.DocumentHandle
	path    string
}

// SessionService owns every open reading session. At most one session is open per
// document; opening a document again returns the live session.
type SessionService struct {
	store    domain.SessionStore
	opener   domain.DocumentOpener
	emitter  domain.EventEmitter
	settings domain.ReaderSettings
	opts     SessionOptions
	logger   domain.Logger
	newID    func() string

	mu         sync.RWMutex
	sessions   map[string]*sessionEntry
	byDocument map[string]string

	cron    *cron.Cron
	watcher *documentWatcher
}

func NewSessionService(
	store domain.SessionStore,
	opener domain.DocumentOpener,
	emitter domain.EventEmitter,
	settings domain.ReaderSettings,
	opts SessionOptions,
	logger domain.Logger,
) *SessionService {
	return &SessionService{
		store:      store,
		opener:     opener,
		emitter:    emitter,
		settings:   settings,
		opts:       opts,
		logger:     logger,
		newID:      func() string { return uuid.New().String() },
		sessions:   make(map[string]*sessionEntry),
		byDocument: make(map[string]string),
	}
}

// Start schedules the idle sweep and starts watching document files.
func (s *SessionService) Start() error {
	if s.opts.IdleTimeout > 0 && s.opts.SweepSpec != "" {
		c := cron.New()
		_, err := c.AddFunc(s.opts.SweepSpec, func() {
			if n := s.sweepIdle(time.Now()); n > 0 {
				s.logger.Info("Closed idle sessions", "count", n)
			}
		})
		if err != nil {
			return fmt.Errorf("invalid session sweep spec %q: %w", s.opts.SweepSpec, err)
		}
		c.Start()
		s.cron = c
	}

	if s.opts.WatchDocuments {
		w, err := newDocumentWatcher(s.reload, s.logger)
		if err != nil {
			s.logger.Warn("Document watching disabled", "error", err)
		} else {
			s.watcher = w
		}
	}
	return nil
}

// Open starts a reading session for a document, restoring its stored progress.
func (s *SessionService) Open(ctx context.Context, handle domain.DocumentHandle) (*reader.Session, error) {
	handle.Path = strings.TrimSpace(handle.Path)
	if handle.Path == "" {
		return nil, &domain.ValidationError{Field: "path", Message: "document path is required"}
	}
	if handle.DocumentID == "" {
		handle.DocumentID = handle.Path
	}

	s.mu.RLock()
	if id, ok := s.byDocument[handle.DocumentID]; ok {
		existing := s.sessions[id].session
		s.mu.RUnlock()
		return existing, nil
	}
	s.mu.RUnlock()

	record, err := s.store.ReadSession(ctx, handle.DocumentID)
	if err != nil {
		if !errors.Is(err, domain.ErrSessionNotFound) {
			// reading still works; progress starts from defaults
			s.logger.Warn("Failed to read stored session", "document_id", handle.DocumentID, "error", err)
		}
		record = domain.NewSessionRecord(handle.DocumentID)
	}
	record.DocumentID = handle.DocumentID

	doc, err := s.opener.Open(ctx, handle)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existingID, ok := s.byDocument[handle.DocumentID]; ok {
		existing := s.sessions[existingID].session
		s.mu.Unlock()
		s.closeDocument(doc, existingID)
		return existing, nil
	}
	id := s.newID()
	session := reader.New(id, *record, reader.Dependencies{
		Store:    s.store,
		Emitter:  s.emitter,
		Logger:   s.logger,
		Settings: s.settings,
	})
	entry := &sessionEntry{session: session, handle: handle}
	s.sessions[id] = entry
	s.byDocument[handle.DocumentID] = id
	s.mu.Unlock()

	if err := session.Load(doc); err != nil {
		s.unregister(id)
		s.closeDocument(doc, id)
		return nil, err
	}
	s.watch(entry, id)

	s.logger.Info("Session opened", "session_id", id, "document_id", handle.DocumentID, "page_count", doc.PageCount())
	return session, nil
}

func (s *SessionService) watch(entry *sessionEntry, id string) {
	if s.watcher == nil {
		return
	}
	resolver, ok := s.opener.(pathResolver)
	if !ok {
		return
	}
	path, err := resolver.Resolve(entry.handle.Path)
	if err != nil {
		return
	}
	if err := s.watcher.Add(path, id); err != nil {
		s.logger.Warn("Failed to watch document", "path", path, "error", err)
		return
	}
	s.mu.Lock()
	entry.path = path
	s.mu.Unlock()
}

// Get returns an open session.
func (s *SessionService) Get(id string) (*reader.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return entry.session, nil
}

// List returns snapshots of all open sessions, most recently active first.
func (s *SessionService) List() []reader.Snapshot {
	s.mu.RLock()
	sessions := make([]*reader.Session, 0, len(s.sessions))
	for _, entry := range s.sessions {
		sessions = append(sessions, entry.session)
	}
	s.mu.RUnlock()

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].LastActive().After(sessions[j].LastActive())
	})
	out := make([]reader.Snapshot, 0, len(sessions))
	for _, session := range sessions {
		out = append(out, session.Snapshot())
	}
	return out
}

// Close ends a session with a final progress write. A failed final write is logged
// and visible in the returned snapshot; the session is closed regardless.
func (s *SessionService) Close(ctx context.Context, id string) (reader.Snapshot, error) {
	entry, path := s.unregister(id)
	if entry == nil {
		return reader.Snapshot{}, domain.ErrSessionNotFound
	}
	if path != "" && s.watcher != nil {
		s.watcher.Remove(path)
	}

	if err := entry.session.Close(ctx); err != nil && !errors.Is(err, domain.ErrSessionClosed) {
		s.logger.Warn("Session closed without saving progress", "session_id", id, "error", err)
	}
	return entry.session.Snapshot(), nil
}

// HandleKey routes a key press to a session. Escape closes the session.
func (s *SessionService) HandleKey(ctx context.Context, id, key string, inTextInput bool) (reader.KeyAction, error) {
	session, err := s.Get(id)
	if err != nil {
		return reader.KeyIgnored, err
	}
	action, err := session.Key(key, inTextInput)
	if err != nil {
		return action, err
	}
	if action == reader.KeyClose {
		if _, err := s.Close(ctx, id); err != nil {
			return action, err
		}
	}
	return action, nil
}

// Shutdown stops background work and closes every session.
func (s *SessionService) Shutdown(ctx context.Context) error {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			s.logger.Warn("Failed to close document watcher", "error", err)
		}
	}

	s.mu.RLock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	for _, id := range ids {
		if _, err := s.Close(ctx, id); err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
	}
	s.logger.Info("Session service stopped", "closed", len(ids))
	return nil
}

// sweepIdle closes sessions inactive for longer than the idle timeout.
func (s *SessionService) sweepIdle(now time.Time) int {
	if s.opts.IdleTimeout <= 0 {
		return 0
	}

	s.mu.RLock()
	var idle []string
	for id, entry := range s.sessions {
		if now.Sub(entry.session.LastActive()) > s.opts.IdleTimeout {
			idle = append(idle, id)
		}
	}
	s.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()
	closed := 0
	for _, id := range idle {
		if _, err := s.Close(ctx, id); err == nil {
			closed++
		}
	}
	return closed
}

// reload reopens a document whose file changed and swaps it into its session.
func (s *SessionService) reload(id string) {
	s.mu.RLock()
	entry, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	doc, err := s.opener.Open(ctx, entry.handle)
	if err != nil {
		// the file may still be mid-write; the next write event retries
		s.logger.Warn("Failed to reload document", "session_id", id, "error", err)
		return
	}
	if err := entry.session.Load(doc); err != nil {
		s.closeDocument(doc, id)
		return
	}
	s.logger.Info("Document reloaded", "session_id", id, "page_count", doc.PageCount())
}

// unregister removes a session and returns it with its watched path.
func (s *SessionService) unregister(id string) (*sessionEntry, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[id]
	if !ok {
		return nil, ""
	}
	delete(s.sessions, id)
	if s.byDocument[entry.handle.DocumentID] == id {
		delete(s.byDocument, entry.handle.DocumentID)
	}
	return entry, entry.path
}

// closeDocument releases a document no session took ownership of.
func (s *SessionService) closeDocument(doc domain.Document, id string) {
	if err := doc.Close(); err != nil {
		s.logger.Warn("Failed to close document", "session_id", id, "error", err)
	}
}
