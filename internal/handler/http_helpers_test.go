package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pdf-reader-session/internal/domain"
	apperrors "pdf-reader-session/pkg/errors"
)

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, http.StatusTeapot, "nope")

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content type application/json, got %s", ct)
	}
	if strings.TrimSpace(rr.Body.String()) != `{"error":"nope"}` {
		t.Fatalf("unexpected response body: %s", rr.Body.String())
	}
}

func TestToAppError_Status(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"session not found", domain.ErrSessionNotFound, http.StatusNotFound},
		{"document not found", fmt.Errorf("open: %w", domain.ErrDocumentNotFound), http.StatusNotFound},
		{"invalid token", domain.ErrInvalidToken, http.StatusUnauthorized},
		{"closed", domain.ErrSessionClosed, http.StatusConflict},
		{"not mounted", domain.ErrPageNotMounted, http.StatusConflict},
		{"render", &domain.RenderError{Page: 3, Cause: errors.New("corrupt")}, http.StatusBadGateway},
		{"validation", &domain.ValidationError{Field: "mode", Message: "bad"}, http.StatusUnprocessableEntity},
		{"out of range", domain.ErrPageOutOfRange, http.StatusUnprocessableEntity},
		{"empty note", domain.ErrEmptyNote, http.StatusUnprocessableEntity},
		{"app error", apperrors.NewStoreError("down", nil), http.StatusServiceUnavailable},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := toAppError(tt.err).StatusCode; got != tt.want {
				t.Fatalf("expected status %d, got %d", tt.want, got)
			}
		})
	}
}
