package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"pdf-reader-session/internal/domain"
	apperrors "pdf-reader-session/pkg/errors"

	"github.com/gorilla/mux"
)

type contextKey string

const userContextKey contextKey = "user"

// GetUserFromContext extracts the authenticated user from request context
func GetUserFromContext(r *http.Request) (*domain.SupabaseUser, bool) {
	user, ok := r.Context().Value(userContextKey).(*domain.SupabaseUser)
	return user, ok
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeAppError classifies err and writes it with the matching status.
func writeAppError(w http.ResponseWriter, err error) {
	appErr := toAppError(err)
	writeError(w, appErr.StatusCode, appErr.Message)
}

func toAppError(err error) *apperrors.AppError {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	var renderErr *domain.RenderError
	var validationErr *domain.ValidationError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return apperrors.NewNotFoundError("Session not found")
	case errors.Is(err, domain.ErrDocumentNotFound):
		return apperrors.NewNotFoundError("Document not found")
	case errors.Is(err, domain.ErrInvalidToken):
		return apperrors.NewUnauthorizedError("Invalid token")
	case errors.Is(err, domain.ErrSessionClosed):
		return apperrors.NewConflictError("Session is closed")
	case errors.Is(err, domain.ErrPageNotMounted):
		return apperrors.NewConflictError("Page is not rendered")
	case errors.As(err, &renderErr):
		return apperrors.NewRenderError(renderErr.Error(), err)
	case errors.As(err, &validationErr):
		return apperrors.NewValidationError(validationErr.Error())
	case errors.Is(err, domain.ErrPageOutOfRange), errors.Is(err, domain.ErrEmptyNote):
		return apperrors.NewValidationError(err.Error())
	default:
		return apperrors.NewInternalError("Internal server error", err)
	}
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("Invalid request body", err.Error())
	}
	return nil
}

// pathInt parses an integer path variable.
func pathInt(r *http.Request, name string) (int, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.NewValidationError("Invalid "+name, raw)
	}
	return n, nil
}
