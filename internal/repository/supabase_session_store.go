package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"pdf-reader-session/internal/domain"
)

// SupabaseSessionStore implements domain.SessionStore on the reading_sessions table.
type SupabaseSessionStore struct {
	supabaseClient domain.SupabaseClient
	logger         domain.Logger
}

// NewSupabaseSessionStore creates a new Supabase session store
func NewSupabaseSessionStore(supabaseClient domain.SupabaseClient, logger domain.Logger) *SupabaseSessionStore {
	return &SupabaseSessionStore{
		supabaseClient: supabaseClient,
		logger:         logger,
	}
}

// ReadSession retrieves the session record for a document
func (r *SupabaseSessionStore) ReadSession(ctx context.Context, documentID string) (*domain.SessionRecord, error) {
	client := r.supabaseClient.DB()
	if client == nil {
		return nil, fmt.Errorf("supabase client not initialized")
	}

	data, _, err := client.From("reading_sessions").
		Select("*", "", false).
		Eq("document_id", documentID).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var rows []map[string]interface{}
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(rows) == 0 {
		return nil, domain.ErrSessionNotFound
	}

	return mapToSessionRecord(rows[0])
}

// WriteSession upserts the session record
func (r *SupabaseSessionStore) WriteSession(ctx context.Context, documentID string, record domain.SessionRecord) error {
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	record.DocumentID = documentID
	if err := record.Validate(); err != nil {
		return err
	}
	bookmarksJSON, notesJSON, err := encodeAnnotations(record)
	if err != nil {
		return err
	}

	data := map[string]interface{}{
		"document_id":    documentID,
		"current_page":   record.CurrentPage,
		"page_count":     record.PageCount,
		"bookmarks_json": bookmarksJSON,
		"notes_json":     notesJSON,
		"last_read_at":   formatTimestamp(record.LastReadAt),
	}

	_, _, err = client.From("reading_sessions").
		Upsert(data, "document_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to write session: %w", err)
	}
	return nil
}

// DeleteSession removes the session record
func (r *SupabaseSessionStore) DeleteSession(ctx context.Context, documentID string) error {
	client := r.supabaseClient.DB()
	if client == nil {
		return fmt.Errorf("supabase client not initialized")
	}

	_, _, err := client.From("reading_sessions").
		Delete("", "").
		Eq("document_id", documentID).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// mapToSessionRecord converts a PostgREST row to a SessionRecord
func mapToSessionRecord(data map[string]interface{}) (*domain.SessionRecord, error) {
	record := &domain.SessionRecord{
		DocumentID:  getString(data, "document_id"),
		CurrentPage: getInt(data, "current_page"),
		PageCount:   getInt(data, "page_count"),
		LastReadAt:  parseTimestamp(getString(data, "last_read_at")),
	}
	if err := decodeAnnotations(getString(data, "bookmarks_json"), getString(data, "notes_json"), record); err != nil {
		return nil, err
	}
	if record.CurrentPage < 1 {
		record.CurrentPage = 1
	}
	return record, nil
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok && val != nil {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}

func getInt(data map[string]interface{}, key string) int {
	if val, ok := data[key]; ok && val != nil {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}
