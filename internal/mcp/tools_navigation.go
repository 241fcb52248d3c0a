package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"pdf-reader-session/internal/domain"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerNavigationTools() {
	s.mcp.AddTool(mcp.NewTool("reader_change_page",
		mcp.WithDescription("Move forward or back by a number of pages. The result is clamped to the document."),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
		mcp.WithNumber("delta",
			mcp.Description("Pages to move; negative moves back"),
			mcp.Required(),
		),
	), s.handleChangePage)

	s.mcp.AddTool(mcp.NewTool("reader_jump_to_page",
		mcp.WithDescription("Go to a page number. Out-of-range pages are rejected and the reader stays put."),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
		mcp.WithNumber("page",
			mcp.Description("1-based page number"),
			mcp.Required(),
		),
	), s.handleJumpToPage)

	s.mcp.AddTool(mcp.NewTool("reader_set_view_mode",
		mcp.WithDescription("Switch between one page at a time and a continuous scroll of all pages"),
		mcp.WithString("sessionId",
			mcp.Description("ID of the session"),
			mcp.Required(),
		),
		mcp.WithString("mode",
			mcp.Description("View mode"),
			mcp.Required(),
			mcp.Enum(string(domain.ViewModeSingle), string(domain.ViewModeContinuous)),
		),
	), s.handleSetViewMode)
}

func (s *Server) handleChangePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(req)
	if err != nil {
		return nil, err
	}
	delta, ok := intArg(req, "delta")
	if !ok {
		return nil, fmt.Errorf("delta is required")
	}
	page, err := session.ChangePage(delta)
	if err != nil {
		return nil, fmt.Errorf("change page: %w", err)
	}
	return textResult(fmt.Sprintf("Now on page %d of %d", page, session.Snapshot().PageCount)), nil
}

func (s *Server) handleJumpToPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(req)
	if err != nil {
		return nil, err
	}
	target, ok := intArg(req, "page")
	if !ok {
		return nil, fmt.Errorf("page is required")
	}
	page, err := session.JumpToPage(target)
	if errors.Is(err, domain.ErrPageOutOfRange) {
		return textResult(fmt.Sprintf("Page %d is out of range; still on page %d of %d", target, page, session.Snapshot().PageCount)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("jump to page: %w", err)
	}
	return textResult(fmt.Sprintf("Now on page %d of %d", page, session.Snapshot().PageCount)), nil
}

func (s *Server) handleSetViewMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := s.session(req)
	if err != nil {
		return nil, err
	}
	mode := domain.ViewMode(req.GetString("mode", ""))
	if err := session.SetViewMode(mode); err != nil {
		return nil, fmt.Errorf("set view mode: %w", err)
	}
	return textResult(fmt.Sprintf("View mode set to %s", mode)), nil
}
