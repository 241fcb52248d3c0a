package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"pdf-reader-session/internal/domain"
)

type MockLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockLogger() *MockLogger {
	return &MockLogger{
		messages: []string{},
	}
}

func (m *MockLogger) record(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, line)
}

func (m *MockLogger) lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.messages...)
}

func (m *MockLogger) contains(prefix string) bool {
	for _, line := range m.lines() {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func (m *MockLogger) Info(msg string, args ...interface{}) {
	m.record("INFO: " + msg)
}

func (m *MockLogger) Error(msg string, err error, args ...interface{}) {
	m.record("ERROR: " + msg + " - " + err.Error())
}

func (m *MockLogger) Debug(msg string, args ...interface{}) {
	m.record("DEBUG: " + msg)
}

func (m *MockLogger) Warn(msg string, args ...interface{}) {
	m.record("WARN: " + msg)
}

func (m *MockLogger) With(args ...interface{}) domain.Logger {
	return m
}

type mockSessionStore struct {
	mu      sync.Mutex
	records map[string]domain.SessionRecord
	readErr error
	writes  int
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{records: make(map[string]domain.SessionRecord)}
}

func (m *mockSessionStore) ReadSession(ctx context.Context, documentID string) (*domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	rec, ok := m.records[documentID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &rec, nil
}

func (m *mockSessionStore) WriteSession(ctx context.Context, documentID string, record domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	m.records[documentID] = record
	return nil
}

func (m *mockSessionStore) DeleteSession(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, documentID)
	return nil
}

func (m *mockSessionStore) get(documentID string) (domain.SessionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[documentID]
	return rec, ok
}

type stubDocument struct {
	pages    int
	mu       sync.Mutex
	closed   bool
	closeErr error
}

func (d *stubDocument) RenderPage(ctx context.Context, page int, width, scale float64) (*domain.RenderedPage, error) {
	return &domain.RenderedPage{Page: page, Width: width, Scale: scale, NaturalHeight: width * 1.3}, nil
}

func (d *stubDocument) PageCount() int {
	return d.pages
}

func (d *stubDocument) isClosed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

func (d *stubDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return d.closeErr
}

// stubOpener serves documents by path; page counts may change between opens.
type stubOpener struct {
	mu     sync.Mutex
	pages  map[string]int
	opened []*stubDocument
	root   string
}

func newStubOpener() *stubOpener {
	return &stubOpener{pages: make(map[string]int)}
}

func (o *stubOpener) setPages(path string, pages int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages[path] = pages
}

func (o *stubOpener) openedCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.opened)
}

func (o *stubOpener) Open(ctx context.Context, handle domain.DocumentHandle) (domain.Document, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	pages, ok := o.pages[handle.Path]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	doc := &stubDocument{pages: pages}
	o.opened = append(o.opened, doc)
	return doc, nil
}

// Resolve maps paths below root when root is set, enabling document watching.
func (o *stubOpener) Resolve(path string) (string, error) {
	if o.root == "" {
		return "", errors.New("no root")
	}
	full := filepath.Join(o.root, path)
	if _, err := os.Stat(full); err != nil {
		return "", domain.ErrDocumentNotFound
	}
	return full, nil
}
