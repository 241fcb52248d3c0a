// Package autosave coalesces session snapshots into debounced durable writes.
//
// The saver holds at most one pending record. Every change overwrites the slot and
// restarts the quiet-interval timer, so a burst of changes produces one write of the
// latest state. Writes are serialized; the status returns to Saved only when the write
// of the most recent record has completed.
package autosave

import (
	"context"
	"sync"
	"time"

	"pdf-reader-session/internal/domain"

	"github.com/bep/debounce"
)

const (
	maxRetries   = 3
	writeTimeout = 10 * time.Second
)

// Saver is the write path for one document's session record.
type Saver struct {
	store      domain.SessionStore
	documentID string
	logger     domain.Logger
	debounced  func(f func())
	onStatus   func(domain.SaveStatus)

	writeMu sync.Mutex

	mu       sync.Mutex
	pending  *domain.SessionRecord
	seq      uint64
	status   domain.SaveStatus
	lastErr  error
	retries  int
	closed   bool
	notifyMu sync.Mutex
	notified domain.SaveStatus
}

// New creates a saver. onStatus may be nil; it is called with every status transition,
// in order, never concurrently.
func New(
	store domain.SessionStore,
	documentID string,
	interval time.Duration,
	logger domain.Logger,
	onStatus func(domain.SaveStatus),
) *Saver {
	return &Saver{
		store:      store,
		documentID: documentID,
		logger:     logger,
		debounced:  debounce.New(interval),
		onStatus:   onStatus,
		status:     domain.SaveStatusSaved,
		notified:   domain.SaveStatusSaved,
	}
}

// Schedule replaces the pending record and restarts the quiet interval.
func (s *Saver) Schedule(record domain.SessionRecord) {
	if !s.offer(record) {
		return
	}
	s.debounced(s.flushInBackground)
}

// SaveNow replaces the pending record and writes it without waiting for the quiet interval.
func (s *Saver) SaveNow(record domain.SessionRecord) {
	if !s.offer(record) {
		return
	}
	go s.flushInBackground()
}

// Close performs the final write synchronously. Later Schedule calls are ignored.
// A timer still armed from before simply finds the slot empty.
func (s *Saver) Close(ctx context.Context, record domain.SessionRecord) error {
	s.mu.Lock()
	s.closed = true
	s.pending = &record
	s.seq++
	s.status = domain.SaveStatusSaving
	s.mu.Unlock()
	s.notify()

	return s.flush(ctx)
}

// Status reports whether the latest change has been written.
func (s *Saver) Status() domain.SaveStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// LastError is the error of the most recent failed write, cleared by the next success.
func (s *Saver) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Saver) offer(record domain.SessionRecord) bool {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return false
	}
	s.pending = &record
	s.seq++
	s.retries = 0
	s.status = domain.SaveStatusSaving
	s.mu.Unlock()
	s.notify()
	return true
}

func (s *Saver) flushInBackground() {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	_ = s.flush(ctx)
}

func (s *Saver) flush(ctx context.Context) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	record := s.pending
	seq := s.seq
	s.pending = nil
	s.mu.Unlock()

	if record == nil {
		return nil
	}

	err := s.store.WriteSession(ctx, s.documentID, *record)

	s.mu.Lock()
	if err != nil {
		s.lastErr = err
		if s.pending == nil {
			s.pending = record
		}
		retry := !s.closed && s.retries < maxRetries
		if retry {
			s.retries++
		}
		attempt := s.retries
		s.mu.Unlock()

		s.logger.Error("Failed to write session record", err,
			"document_id", s.documentID,
			"current_page", record.CurrentPage,
			"retry", retry,
			"attempt", attempt)
		if retry {
			s.debounced(s.flushInBackground)
		}
		return err
	}

	s.lastErr = nil
	s.retries = 0
	if s.pending == nil && s.seq == seq {
		s.status = domain.SaveStatusSaved
	}
	s.mu.Unlock()

	s.logger.Debug("Session record written",
		"document_id", s.documentID,
		"current_page", record.CurrentPage,
		"bookmarks", len(record.Bookmarks),
		"notes", len(record.Notes))
	s.notify()
	return nil
}

// notify reports the current status if it differs from the last reported one.
// Reading the status under notifyMu keeps late callers from reporting a stale value.
func (s *Saver) notify() {
	if s.onStatus == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	current := s.Status()
	if current == s.notified {
		return
	}
	s.notified = current
	s.onStatus(current)
}
