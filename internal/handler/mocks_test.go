package handler

import (
	"context"
	"image"
	"image/color"
	"strings"
	"sync"

	"pdf-reader-session/internal/domain"
)

// MockHandlerLogger records log lines for handler package tests.
type MockHandlerLogger struct {
	mu       sync.Mutex
	messages []string
}

func NewMockHandlerLogger() *MockHandlerLogger {
	return &MockHandlerLogger{}
}

func (l *MockHandlerLogger) record(line string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, line)
}

func (l *MockHandlerLogger) count(prefix string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, m := range l.messages {
		if strings.HasPrefix(m, prefix) {
			n++
		}
	}
	return n
}

func (l *MockHandlerLogger) Info(msg string, fields ...interface{})  { l.record("INFO: " + msg) }
func (l *MockHandlerLogger) Debug(msg string, fields ...interface{}) { l.record("DEBUG: " + msg) }
func (l *MockHandlerLogger) Warn(msg string, fields ...interface{})  { l.record("WARN: " + msg) }
func (l *MockHandlerLogger) Error(msg string, err error, fields ...interface{}) {
	l.record("ERROR: " + msg)
}
func (l *MockHandlerLogger) With(fields ...interface{}) domain.Logger { return l }

type memoryStore struct {
	mu      sync.Mutex
	records map[string]domain.SessionRecord
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]domain.SessionRecord)}
}

func (m *memoryStore) ReadSession(ctx context.Context, documentID string) (*domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[documentID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &rec, nil
}

func (m *memoryStore) WriteSession(ctx context.Context, documentID string, record domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[documentID] = record
	return nil
}

func (m *memoryStore) DeleteSession(ctx context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, documentID)
	return nil
}

func (m *memoryStore) get(documentID string) (domain.SessionRecord, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[documentID]
	return rec, ok
}

// imageDocument renders every page as a small solid image.
type imageDocument struct {
	pages int
}

func (d *imageDocument) RenderPage(ctx context.Context, page int, width, scale float64) (*domain.RenderedPage, error) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 5))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	return &domain.RenderedPage{Page: page, Width: width, Scale: scale, NaturalHeight: width * 1.25, Surface: img}, nil
}

func (d *imageDocument) PageCount() int { return d.pages }
func (d *imageDocument) Close() error   { return nil }

type imageOpener struct {
	pages map[string]int
}

func (o *imageOpener) Open(ctx context.Context, handle domain.DocumentHandle) (domain.Document, error) {
	pages, ok := o.pages[handle.Path]
	if !ok {
		return nil, domain.ErrDocumentNotFound
	}
	return &imageDocument{pages: pages}, nil
}
