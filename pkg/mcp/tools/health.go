package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

type healthResult struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Clients     int    `json:"clients"`
	Faculty     int    `json:"faculty"`
	AIAvailable bool   `json:"ai_available"`
}

// RegisterHealthTool adds a health tool reporting version and workspace size.
func RegisterHealthTool(s *server.MCPServer, deps *WorkspaceToolDeps, version string) {
	tool := mcp.NewTool(
		"health",
		mcp.WithDescription("Returns server health status, version and how many clients and faculty records are stored"),
		mcp.WithReadOnlyHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(healthResult{
			Status:      "ok",
			Version:     version,
			Clients:     len(deps.Clients.List(ctx, "", "")),
			Faculty:     len(deps.Faculty.ListFaculty(ctx, models.FacultyFilter{})),
			AIAvailable: deps.AIAvailable,
		})
	})
}
