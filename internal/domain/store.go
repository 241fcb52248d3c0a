package domain

import "context"

// SessionStore is the durable, key-addressed store for session records.
// ReadSession returns ErrSessionNotFound when no record exists.
type SessionStore interface {
	ReadSession(ctx context.Context, documentID string) (*SessionRecord, error)
	WriteSession(ctx context.Context, documentID string, record SessionRecord) error
	DeleteSession(ctx context.Context, documentID string) error
}
