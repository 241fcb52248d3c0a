package domain

import "context"

// Logger defines the interface for logging operations
type Logger interface {
	Info(msg string, fields ...interface{})
	Error(msg string, err error, fields ...interface{})
	Debug(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	With(fields ...interface{}) Logger
}

// Config defines the interface for configuration management
type Config interface {
	GetServerPort() string
	GetLogLevel() string
	GetSessionStore() string
	GetDatabasePath() string
	GetDatabaseURL() string
	GetSupabaseURL() string
	GetSupabaseKey() string
	GetDocumentRoot() string
	GetAllowedOrigins() []string
	GetReaderSettings() ReaderSettings
	GetSessionIdleTimeoutMinutes() int
	GetSessionSweepSpec() string
	GetWatchDocuments() bool
}

// EventEmitter publishes session events to whoever drives the UI.
// Implementations must not call back into the session that emitted.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data interface{})
}
