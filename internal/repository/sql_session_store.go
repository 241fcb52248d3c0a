package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pdf-reader-session/internal/domain"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavour of a session store.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

const sessionColumns = "document_id, current_page, page_count, bookmarks_json, notes_json, last_read_at"

// SQLSessionStore implements domain.SessionStore over database/sql.
// Every write replaces the whole row, so repeating a write leaves the same state.
type SQLSessionStore struct {
	db      *sql.DB
	dialect Dialect
	logger  domain.Logger
}

// OpenSQLite opens (or creates) the SQLite file at path.
func OpenSQLite(path string, logger domain.Logger) (*SQLSessionStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite has a single writer
	db.SetMaxOpenConns(1)

	store, err := NewSQLSessionStore(db, DialectSQLite, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// OpenSQL connects to a postgres or mysql server.
func OpenSQL(ctx context.Context, dialect Dialect, dsn string, logger domain.Logger) (*SQLSessionStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s session store requires DATABASE_URL", dialect)
	}

	var driver string
	switch dialect {
	case DialectPostgres:
		driver = "postgres"
	case DialectMySQL:
		driver = "mysql"
	default:
		return nil, fmt.Errorf("unsupported sql dialect %q", dialect)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	store, err := NewSQLSessionStore(db, dialect, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewSQLSessionStore wraps an open connection and runs migrations.
func NewSQLSessionStore(db *sql.DB, dialect Dialect, logger domain.Logger) (*SQLSessionStore, error) {
	s := &SQLSessionStore{db: db, dialect: dialect, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SQLSessionStore) Close() error {
	return s.db.Close()
}

func (s *SQLSessionStore) migrate() error {
	var migrations []string
	switch s.dialect {
	case DialectMySQL:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS reading_sessions (
				document_id VARCHAR(255) PRIMARY KEY,
				current_page INT NOT NULL DEFAULT 1,
				page_count INT NOT NULL DEFAULT 0,
				bookmarks_json MEDIUMTEXT NOT NULL,
				notes_json MEDIUMTEXT NOT NULL,
				last_read_at VARCHAR(64) NOT NULL DEFAULT ''
			)`,
		}
	default:
		migrations = []string{
			`CREATE TABLE IF NOT EXISTS reading_sessions (
				document_id TEXT PRIMARY KEY,
				current_page INTEGER NOT NULL DEFAULT 1,
				page_count INTEGER NOT NULL DEFAULT 0,
				bookmarks_json TEXT NOT NULL DEFAULT '[]',
				notes_json TEXT NOT NULL DEFAULT '[]',
				last_read_at TEXT NOT NULL DEFAULT ''
			)`,
			`CREATE INDEX IF NOT EXISTS idx_reading_sessions_last_read ON reading_sessions(last_read_at)`,
		}
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %s: %w", strings.TrimSpace(m)[:40], err)
		}
	}
	return nil
}

// ReadSession returns the stored record or domain.ErrSessionNotFound.
func (s *SQLSessionStore) ReadSession(ctx context.Context, documentID string) (*domain.SessionRecord, error) {
	var (
		record        domain.SessionRecord
		bookmarksJSON string
		notesJSON     string
		lastReadAt    string
	)
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT `+sessionColumns+` FROM reading_sessions WHERE document_id = ?`),
		documentID,
	).Scan(&record.DocumentID, &record.CurrentPage, &record.PageCount, &bookmarksJSON, &notesJSON, &lastReadAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	if err := decodeAnnotations(bookmarksJSON, notesJSON, &record); err != nil {
		return nil, err
	}
	record.LastReadAt = parseTimestamp(lastReadAt)
	return &record, nil
}

// WriteSession upserts the full record.
func (s *SQLSessionStore) WriteSession(ctx context.Context, documentID string, record domain.SessionRecord) error {
	record.DocumentID = documentID
	if err := record.Validate(); err != nil {
		return err
	}
	bookmarksJSON, notesJSON, err := encodeAnnotations(record)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, s.upsertQuery(),
		documentID,
		record.CurrentPage,
		record.PageCount,
		bookmarksJSON,
		notesJSON,
		formatTimestamp(record.LastReadAt),
	)
	if err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

// DeleteSession removes the stored record. Deleting an absent record is not an error.
func (s *SQLSessionStore) DeleteSession(ctx context.Context, documentID string) error {
	_, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM reading_sessions WHERE document_id = ?`), documentID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SQLSessionStore) upsertQuery() string {
	insert := `INSERT INTO reading_sessions (` + sessionColumns + `) VALUES (?, ?, ?, ?, ?, ?)`
	if s.dialect == DialectMySQL {
		return insert + ` ON DUPLICATE KEY UPDATE
			current_page = VALUES(current_page),
			page_count = VALUES(page_count),
			bookmarks_json = VALUES(bookmarks_json),
			notes_json = VALUES(notes_json),
			last_read_at = VALUES(last_read_at)`
	}
	return s.rebind(insert + ` ON CONFLICT(document_id) DO UPDATE SET
		current_page = excluded.current_page,
		page_count = excluded.page_count,
		bookmarks_json = excluded.bookmarks_json,
		notes_json = excluded.notes_json,
		last_read_at = excluded.last_read_at`)
}

// rebind rewrites ? placeholders as $n for postgres.
func (s *SQLSessionStore) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func encodeAnnotations(record domain.SessionRecord) (string, string, error) {
	bookmarks := record.Bookmarks
	if bookmarks == nil {
		bookmarks = []int{}
	}
	notes := record.Notes
	if notes == nil {
		notes = []domain.Note{}
	}

	b, err := json.Marshal(bookmarks)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal bookmarks: %w", err)
	}
	n, err := json.Marshal(notes)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal notes: %w", err)
	}
	return string(b), string(n), nil
}

func decodeAnnotations(bookmarksJSON, notesJSON string, record *domain.SessionRecord) error {
	record.Bookmarks = []int{}
	record.Notes = []domain.Note{}
	if bookmarksJSON != "" {
		if err := json.Unmarshal([]byte(bookmarksJSON), &record.Bookmarks); err != nil {
			return fmt.Errorf("failed to unmarshal bookmarks: %w", err)
		}
	}
	if notesJSON != "" {
		if err := json.Unmarshal([]byte(notesJSON), &record.Notes); err != nil {
			return fmt.Errorf("failed to unmarshal notes: %w", err)
		}
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
