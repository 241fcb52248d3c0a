package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"pdf-reader-session/internal/domain"
	"pdf-reader-session/internal/reader"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Sessions is the session registry the tools drive.
type Sessions interface {
	Open(ctx context.Context, handle domain.DocumentHandle) (*reader.Session, error)
	Get(id string) (*reader.Session, error)
	List() []reader.Snapshot
	Close(ctx context.Context, id string) (reader.Snapshot, error)
}

// Server exposes reading sessions as MCP tools so agents can open documents,
// navigate and annotate them.
type Server struct {
	mcp      *server.MCPServer
	sessions Sessions
	logger   domain.Logger
}

func New(sessions Sessions, version string, logger domain.Logger) *Server {
	s := &Server{
		sessions: sessions,
		logger:   logger,
	}
	s.mcp = server.NewMCPServer(
		"pdf-reader-session",
		version,
		server.WithToolCapabilities(true),
	)

	s.registerSessionTools()
	s.registerNavigationTools()
	s.registerAnnotationTools()
	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	s.logger.Info("Starting MCP stdio server")
	return server.ServeStdio(s.mcp)
}

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// session resolves the sessionId argument.
func (s *Server) session(req mcp.CallToolRequest) (*reader.Session, error) {
	id := req.GetString("sessionId", "")
	if id == "" {
		return nil, fmt.Errorf("sessionId is required")
	}
	return s.sessions.Get(id)
}

// intArg reads a numeric argument. JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, name string) (int, bool) {
	v, ok := req.GetArguments()[name].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}
