package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerAnnotationTools() {
	s.mcp.AddTool(mcp.NewTool("reader_toggle_bookmark",
		mcp.WithDescription("Add a bookmark on a page, or remove it if the page is already bookmarked"),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number; defaults to the current page"),
		),
	), s.handleToggleBookmark)

	s.mcp.AddTool(mcp.NewTool("reader_add_note",
		mcp.WithDescription("Attach a note to a page"),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
		mcp.WithString("content",
			mcp.Description("Note text"),
			mcp.Required(),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number; defaults to the current page"),
		),
	), s.handleAddNote)

	s.mcp.AddTool(mcp.NewTool("reader_delete_note",
		mcp.WithDescription("Delete a note by ID"),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
		mcp.WithString("noteId",
			mcp.Description("ID of the note"),
			mcp.Required(),
		),
	), s.handleDeleteNote)
}

func (s *Server) handleToggleBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(req)
	if err != nil {
		return nil, err
	}
	page, ok := intArg(req, "page")
	if !ok {
		page = session.Snapshot().CurrentPage
	}
	bookmarks, err := session.ToggleBookmark(page)
	if err != nil {
		return nil, fmt.Errorf("toggle bookmark: %w", err)
	}
	return jsonResult(map[string]interface{}{"bookmarks": bookmarks})
}

func (s *Server) handleAddNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(req)
	if err != nil {
		return nil, err
	}
	page, ok := intArg(req, "page")
	if !ok {
		page = session.Snapshot().CurrentPage
	}
	notes, err := session.AddNote(page, req.GetString("content", ""))
	if err != nil {
		return nil, fmt.Errorf("add note: %w", err)
	}
	return jsonResult(map[string]interface{}{"notes": notes})
}

func (s *Server) handleDeleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(req)
	if err != nil {
		return nil, err
	}
	noteID := req.GetString("noteId", "")
	if noteID == "" {
		return nil, fmt.Errorf("noteId is required")
	}
	notes, err := session.DeleteNote(noteID)
	if err != nil {
		return nil, fmt.Errorf("delete note: %w", err)
	}
	return jsonResult(map[string]interface{}{"notes": notes})
}
