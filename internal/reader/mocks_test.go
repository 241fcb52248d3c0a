package reader

import (
	"context"
	"sync"
	"testing"
	"time"

	"pdf-reader-session/internal/domain"
)

type mockLogger struct{}

func (mockLogger) Info(msg string, fields ...interface{})             {}
func (mockLogger) Error(msg string, err error, fields ...interface{}) {}
func (mockLogger) Debug(msg string, fields ...interface{})            {}
func (mockLogger) Warn(msg string, fields ...interface{})             {}
func (l mockLogger) With(fields ...interface{}) domain.Logger         { return l }

type mockEmitter struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (m *mockEmitter) Emit(ctx context.Context, event string, data interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ev, ok := data.(domain.SessionEvent); ok {
		m.events = append(m.events, ev)
	}
}

func (m *mockEmitter) ofType(event string) []domain.SessionEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SessionEvent
	for _, ev := range m.events {
		if ev.Type == event {
			out = append(out, ev)
		}
	}
	return out
}

type mockStore struct {
	mu     sync.Mutex
	writes []domain.SessionRecord
}

func (m *mockStore) ReadSession(ctx context.Context, documentID string) (*domain.SessionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.writes) == 0 {
		return nil, domain.ErrSessionNotFound
	}
	rec := m.writes[len(m.writes)-1]
	return &rec, nil
}

func (m *mockStore) WriteSession(ctx context.Context, documentID string, record domain.SessionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes = append(m.writes, record)
	return nil
}

func (m *mockStore) DeleteSession(ctx context.Context, documentID string) error {
	return nil
}

func (m *mockStore) written() []domain.SessionRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.SessionRecord, len(m.writes))
	copy(out, m.writes)
	return out
}

// fakeDocument renders pages at height = width * heightRatio. A page listed in gates
// blocks on its first request until the gate is closed, then reports staleHeight.
type fakeDocument struct {
	mu          sync.Mutex
	pages       int
	heightRatio float64
	gates       map[int]chan struct{}
	staleHeight float64
	failures    map[int]error
	requests    map[int]int
	closed      bool
}

func newFakeDocument(pages int) *fakeDocument {
	return &fakeDocument{
		pages:       pages,
		heightRatio: 1.375,
		gates:       make(map[int]chan struct{}),
		failures:    make(map[int]error),
		requests:    make(map[int]int),
	}
}

func (d *fakeDocument) RenderPage(ctx context.Context, page int, width, scale float64) (*domain.RenderedPage, error) {
	d.mu.Lock()
	d.requests[page]++
	gate := d.gates[page]
	delete(d.gates, page)
	err := d.failures[page]
	height := width * d.heightRatio
	stale := d.staleHeight
	d.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
			height = stale
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &domain.RenderedPage{Page: page, Width: width, Scale: scale, NaturalHeight: height}, nil
}

func (d *fakeDocument) PageCount() int {
	return d.pages
}

func (d *fakeDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDocument) setFailure(page int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, page)
		return
	}
	d.failures[page] = err
}

func testSettings() domain.ReaderSettings {
	return domain.ReaderSettings{
		SaveDebounce:     50 * time.Millisecond,
		PreloadWindow:    4,
		VisibilityMargin: 2,
		SwipeMinDistance: 50,
		BasePageWidth:    800,
		RenderPixelRatio: 1,
	}
}

type harness struct {
	session *Session
	doc     *fakeDocument
	store   *mockStore
	events  *mockEmitter
}

func newHarness(t *testing.T, doc *fakeDocument, record domain.SessionRecord) *harness {
	t.Helper()
	h := &harness{doc: doc, store: &mockStore{}, events: &mockEmitter{}}
	if record.DocumentID == "" {
		record.DocumentID = "doc-1"
	}
	ids := 0
	h.session = New("session-1", record, Dependencies{
		Store:    h.store,
		Emitter:  h.events,
		Logger:   mockLogger{},
		Settings: testSettings(),
		NewID: func() string {
			ids++
			return "note-" + string(rune('0'+ids))
		},
	})
	if err := h.session.SetViewport(800, 1000); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := h.session.Load(doc); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	waitRenders(h.session)
	t.Cleanup(func() {
		_ = h.session.Close(context.Background())
	})
	return h
}

// waitRenders blocks until renders against the current document return.
func waitRenders(s *Session) {
	s.mu.Lock()
	doc := s.doc
	s.mu.Unlock()
	if doc != nil {
		doc.renders.Wait()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
