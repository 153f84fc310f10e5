// Package mcp exposes the workspace to AI agents over the Model Context Protocol.
package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/mcp/tools"
	"github.com/gradpath/gradpath-engine/pkg/middleware"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "gradpath-engine"

// Server wraps the mcp-go MCPServer.
type Server struct {
	mcp    *server.MCPServer
	logger *zap.Logger
}

// NewServer creates an MCP server with the workspace and health tools registered.
func NewServer(version string, deps *tools.WorkspaceToolDeps, logger *zap.Logger) *Server {
	logger = logger.Named("mcp")
	mcpServer := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	if deps.Logger == nil {
		deps.Logger = logger
	}
	tools.RegisterWorkspaceTools(mcpServer, deps)
	tools.RegisterHealthTool(mcpServer, deps, version)

	return &Server{
		mcp:    mcpServer,
		logger: logger,
	}
}

// MCP returns the underlying MCPServer.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

// RegisterTool registers an additional tool.
func (s *Server) RegisterTool(tool mcp.Tool, handler server.ToolHandlerFunc) {
	s.mcp.AddTool(tool, handler)
}

// Handler returns the stateless streamable HTTP transport with tool-call
// logging. Mount it at /mcp.
func (s *Server) Handler() http.Handler {
	transport := server.NewStreamableHTTPServer(
		s.mcp,
		server.WithStateLess(true),
	)
	return middleware.MCPToolLogger(s.logger)(transport)
}
