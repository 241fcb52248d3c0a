package mcpserver

import (
	"context"
	"fmt"

	"pdf-reader-session/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerSessionTools() {
	s.mcp.AddTool(mcp.NewTool("reader_open",
		mcp.WithDescription("Open a PDF for reading. Restores the saved page, bookmarks and notes. Opening a document that is already open returns its session."),
		mcp.WithString("path",
			mcp.Description("Path of the PDF relative to the document root"),
			mcp.Required(),
		),
		mcp.WithString("documentId",
			mcp.Description("Stable document identifier; defaults to the path"),
		),
	), s.handleOpen)

	s.mcp.AddTool(mcp.NewTool("reader_list_sessions",
		mcp.WithDescription("List open reading sessions, most recently active first"),
	), s.handleListSessions)

	s.mcp.AddTool(mcp.NewTool("reader_status",
		mcp.WithDescription("Show the state of a reading session: page, mode, zoom, save status, bookmarks and notes"),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
	), s.handleStatus)

	s.mcp.AddTool(mcp.NewTool("reader_close",
		mcp.WithDescription("Close a reading session after saving progress"),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
	), s.handleClose)
}

func (s *Server) handleOpen(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	session, err := s.sessions.Open(ctx, domain.DocumentHandle{
		DocumentID: req.GetString("documentId", ""),
		Path:       path,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return jsonResult(session.Snapshot())
}

func (s *Server) handleListSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.sessions.List())
}

func (s *Server) handleStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(req)
	if err != nil {
		return nil, err
	}
	snap := session.Snapshot()
	// page records are noise for an agent
	snap.Pages = nil
	return jsonResult(snap)
}

func (s *Server) handleClose(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("sessionId", "")
	if id == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	snap, err := s.sessions.Close(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("close session: %w", err)
	}
	if snap.LastSaveError != "" {
		return textResult(fmt.Sprintf("Session %s closed on page %d; progress not saved: %s", id, snap.CurrentPage, snap.LastSaveError)), nil
	}
	return textResult(fmt.Sprintf("Session %s closed on page %d", id, snap.CurrentPage)), nil
}
