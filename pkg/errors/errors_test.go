package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	err := NewValidationError("page out of range", "page=0")
	if err.Error() != "validation: page out of range (page=0)" {
		t.Fatalf("unexpected message: %s", err.Error())
	}

	err = NewNotFoundError("session not found")
	if err.Error() != "not_found: session not found" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestIsType_Wrapped(t *testing.T) {
	cause := stderrors.New("disk full")
	err := fmt.Errorf("flush: %w", NewStoreError("write session", cause))

	if !IsType(err, ErrorTypeStore) {
		t.Fatalf("expected wrapped store error to classify")
	}
	if IsType(err, ErrorTypeRender) {
		t.Fatalf("expected store error not to classify as render")
	}
	if !stderrors.Is(err, cause) {
		t.Fatalf("expected cause to be reachable through Unwrap")
	}
}

func TestGetStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad"), http.StatusUnprocessableEntity},
		{"not found", NewNotFoundError("missing"), http.StatusNotFound},
		{"render", NewRenderError("page 3", nil), http.StatusBadGateway},
		{"store", NewStoreError("write", nil), http.StatusServiceUnavailable},
		{"conflict", NewConflictError("closed"), http.StatusConflict},
		{"unauthorized", NewUnauthorizedError("no token"), http.StatusUnauthorized},
		{"wrapped", fmt.Errorf("ctx: %w", NewNotFoundError("x")), http.StatusNotFound},
		{"plain", stderrors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetStatusCode(tt.err); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
