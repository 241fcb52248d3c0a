package domain

import "errors"

// Domain errors
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrDocumentNotFound = errors.New("document not found")
	ErrPageOutOfRange   = errors.New("page out of range")
	ErrEmptyNote        = errors.New("note content is empty")
	ErrSessionClosed    = errors.New("session closed")
	ErrPageNotMounted   = errors.New("page not mounted")
	ErrInvalidToken     = errors.New("invalid token")
	ErrEmptyRender      = errors.New("render produced no height")
)

// ValidationError represents a validation error with field and message information.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
