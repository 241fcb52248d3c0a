package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/reader"
	"pdf-reader-session/internal/service"

	"github.com/mark3labs/mcp-go/mcp"
)

type nopLogger struct{}

func (nopLogger) Info(msg string, fields ...interface{})             {}
func (nopLogger) Error(msg string, err error, fields ...interface{}) {}
func (nopLogger) Debug(msg string, fields ...interface{})            {}
func (nopLogger) Warn(msg string, fields ...interface{})             {}
func (l nopLogger) With(fields ...interface{}) domain.Logger         { return l }

type memoryStore struct {
	mu      sync.Mutex
	records map[string]domain.SessionRecord
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

type blankDocument struct{ pages int }

func (d blankDocument) RenderPage(ctx context.Context, page int, width, scale float64) (*domain.RenderedPage, error) {
	return &domain.RenderedPage{Page: page, Width: width, Scale: scale, NaturalHeight: width * 1.4}, nil
}
func (d blankDocument) PageCount() int { return d.pages }
func (d blankDocument) Close() error   { return nil }

type blankOpener struct{}

func (blankOpener) Open(ctx context.Context, handle domain.DocumentHandle) (domain.Document, error) {
	if handle.Path != "paper.pdf" {
		return nil, domain.ErrDocumentNotFound
	}
	return blankDocument{pages: 6}, nil
}

func newTestServer(t *testing.T) (*Server, *memoryStore) {
	t.Helper()
	store := &memoryStore{records: make(map[string]domain.SessionRecord)}
	settings := domain.DefaultReaderSettings()
	settings.SaveDebounce = 10 * time.Millisecond
	sessions := service.NewSessionService(store, blankOpener{}, &service.MockEmitter{}, settings, service.SessionOptions{}, nopLogger{})
	t.Cleanup(func() { sessions.Shutdown(context.Background()) })
	return New(sessions, "test", nopLogger{}), store
}

func call(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("expected tool result content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return text.Text
}

func openPaper(t *testing.T, s *Server) reader.Snapshot {
	t.Helper()
	res, err := s.handleOpen(context.Background(), call(map[string]interface{}{"path": "paper.pdf"}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var snap reader.Snapshot
	if err := json.Unmarshal([]byte(resultText(t, res)), &snap); err != nil {
		t.Fatalf("failed to decode snapshot: %v", err)
	}
	return snap
}

func TestHandleOpen(t *testing.T) {
	s, _ := newTestServer(t)

	snap := openPaper(t, s)
	if snap.PageCount != 6 || snap.CurrentPage != 1 {
		t.Fatalf("expected page 1 of 6, got %d of %d", snap.CurrentPage, snap.PageCount)
	}

	if _, err := s.handleOpen(context.Background(), call(map[string]interface{}{"path": "missing.pdf"})); err == nil {
		t.Fatal("expected an error for a missing document")
	}
	if _, err := s.handleOpen(context.Background(), call(map[string]interface{}{})); err == nil {
		t.Fatal("expected an error without a path")
	}
}

func TestHandleNavigation(t *testing.T) {
	s, _ := newTestServer(t)
	snap := openPaper(t, s)

	tests := []struct {
		name    string
		handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)
		args    map[string]interface{}
		want    string
	}{
		{"forward", s.handleChangePage, map[string]interface{}{"delta": float64(2)}, "Now on page 3 of 6"},
		{"clamped", s.handleChangePage, map[string]interface{}{"delta": float64(50)}, "Now on page 6 of 6"},
		{"jump", s.handleJumpToPage, map[string]interface{}{"page": float64(2)}, "Now on page 2 of 6"},
		{"jump rejected", s.handleJumpToPage, map[string]interface{}{"page": float64(40)}, "still on page 2 of 6"},
		{"mode", s.handleSetViewMode, map[string]interface{}{"mode": "continuous"}, "View mode set to continuous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["sessionId"] = snap.SessionID
			res, err := tt.handler(context.Background(), call(tt.args))
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if text := resultText(t, res); !strings.Contains(text, tt.want) {
				t.Fatalf("expected %q in %q", tt.want, text)
			}
		})
	}
}

func TestHandleNavigation_Errors(t *testing.T) {
	s, _ := newTestServer(t)
	snap := openPaper(t, s)

	if _, err := s.handleChangePage(context.Background(), call(map[string]interface{}{"sessionId": "nope", "delta": float64(1)})); err == nil {
		t.Fatal("expected an error for an unknown session")
	}
	if _, err := s.handleChangePage(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID})); err == nil {
		t.Fatal("expected an error without delta")
	}
	if _, err := s.handleSetViewMode(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID, "mode": "spread"})); err == nil {
		t.Fatal("expected an error for an unknown mode")
	}
}

func TestHandleAnnotations(t *testing.T) {
	s, _ := newTestServer(t)
	snap := openPaper(t, s)

	res, err := s.handleToggleBookmark(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, `"bookmarks": [`) || !strings.Contains(text, "1") {
		t.Fatalf("expected current page bookmarked, got %s", text)
	}

	res, err = s.handleAddNote(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID, "page": float64(4), "content": "lemma 2"}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	var added struct {
		Notes []domain.Note `json:"notes"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &added); err != nil {
		t.Fatalf("failed to decode notes: %v", err)
	}
	if len(added.Notes) != 1 || added.Notes[0].Page != 4 {
		t.Fatalf("expected one note on page 4, got %+v", added.Notes)
	}

	if _, err := s.handleAddNote(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID, "content": "  "})); err == nil {
		t.Fatal("expected an error for an empty note")
	}

	res, err = s.handleDeleteNote(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID, "noteId": added.Notes[0].ID}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, `"notes": []`) {
		t.Fatalf("expected no notes left, got %s", text)
	}
}

func TestHandleStatusAndClose(t *testing.T) {
	s, store := newTestServer(t)
	snap := openPaper(t, s)

	if _, err := s.handleJumpToPage(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID, "page": float64(5)})); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	res, err := s.handleStatus(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, `"current_page": 5`) {
		t.Fatalf("expected current page 5, got %s", text)
	}

	res, err = s.handleListSessions(context.Background(), call(nil))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, snap.SessionID) {
		t.Fatalf("expected session in list, got %s", text)
	}

	res, err = s.handleClose(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID}))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if text := resultText(t, res); !strings.Contains(text, "closed on page 5") {
		t.Fatalf("unexpected close result: %s", text)
	}

	store.mu.Lock()
	rec := store.records["paper.pdf"]
	store.mu.Unlock()
	if rec.CurrentPage != 5 {
		t.Fatalf("expected stored page 5, got %d", rec.CurrentPage)
	}

	if _, err := s.handleClose(context.Background(), call(map[string]interface{}{"sessionId": snap.SessionID})); err == nil {
		t.Fatal("expected an error closing twice")
	}
}
