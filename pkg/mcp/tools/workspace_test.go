package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/persistence"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
)

type toolFixture struct {
	server    *server.MCPServer
	workspace *repositories.Workspace
}

func newToolFixture(t *testing.T) *toolFixture {
	t.Helper()
	adapter := persistence.NewAdapter(persistence.NewMemoryStore(), "test", false, zap.NewNop())
	ws := repositories.NewWorkspace(adapter, zap.NewNop())
	ws.Load(context.Background())

	s := server.NewMCPServer("test", "1.0.0", server.WithToolCapabilities(true))
	deps := &WorkspaceToolDeps{Clients: ws, Faculty: ws, Logger: zap.NewNop()}
	RegisterWorkspaceTools(s, deps)
	RegisterHealthTool(s, deps, "1.2.3")
	return &toolFixture{server: s, workspace: ws}
}

// call invokes a tool through the JSON-RPC entry point and returns its result.
func (f *toolFixture) call(t *testing.T, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "tools/call",
		"params":  map[string]any{"name": name, "arguments": args},
	})
	require.NoError(t, err)

	resp := f.server.HandleMessage(context.Background(), msg)
	rpc, ok := resp.(mcp.JSONRPCResponse)
	require.True(t, ok, "expected a JSON-RPC result, got %T", resp)
	result, ok := rpc.Result.(mcp.CallToolResult)
	require.True(t, ok, "expected a tool result, got %T", rpc.Result)
	return &result
}

func decodeResult[T any](t *testing.T, result *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, result.IsError, getTextContent(result))
	var out T
	require.NoError(t, json.Unmarshal([]byte(getTextContent(result)), &out))
	return out
}

func (f *toolFixture) seed(t *testing.T) (clientID, facultyID string) {
	t.Helper()
	ctx := context.Background()
	c, err := f.workspace.Create(ctx, &models.NewClientInput{Name: "Zhou Xin", Interests: "NLP"})
	require.NoError(t, err)
	_, err = f.workspace.Create(ctx, &models.NewClientInput{Name: "Qian Hao"})
	require.NoError(t, err)
	id, err := f.workspace.AddManual(ctx, &models.FacultyRecordInput{
		FacultyMember: models.FacultyMember{Name: "Sara Klein", University: "University of Edinburgh", ResearchAreas: []string{"NLP"}},
		Country:       "UK",
		FieldCategory: "Computer Science",
	})
	require.NoError(t, err)
	return c.ID, id
}

func TestListClientsTool(t *testing.T) {
	f := newToolFixture(t)
	f.seed(t)

	out := decodeResult[struct {
		Clients []clientSummary `json:"clients"`
		Count   int             `json:"count"`
	}](t, f.call(t, "list_clients", map[string]any{"query": "zhou"}))

	require.Equal(t, 1, out.Count)
	assert.Equal(t, "Zhou Xin", out.Clients[0].Name)
	assert.Equal(t, models.ClientStatusActive, out.Clients[0].Status)

	result := f.call(t, "list_clients", map[string]any{"status": "deleted"})
	assert.True(t, result.IsError)
}

func TestGetClientTool(t *testing.T) {
	f := newToolFixture(t)
	clientID, facultyID := f.seed(t)
	require.NoError(t, f.workspace.Link(context.Background(), facultyID, clientID))
	_, err := f.workspace.SaveDocument(context.Background(), clientID, &models.DocumentInput{
		Title: "SOP", Type: models.DocumentTypePersonalStatement, Content: "long body",
	})
	require.NoError(t, err)

	out := decodeResult[struct {
		Client        models.Client    `json:"client"`
		Documents     []map[string]any `json:"documents"`
		LinkedFaculty []facultySummary `json:"linked_faculty"`
	}](t, f.call(t, "get_client", map[string]any{"client_id": clientID}))

	assert.Equal(t, "Zhou Xin", out.Client.Name)
	assert.Empty(t, out.Client.Documents, "bodies are left out")
	require.Len(t, out.Documents, 1)
	assert.Equal(t, "SOP", out.Documents[0]["title"])
	require.Len(t, out.LinkedFaculty, 1)
	assert.Equal(t, "Sara Klein", out.LinkedFaculty[0].Name)

	result := f.call(t, "get_client", map[string]any{"client_id": "missing"})
	assert.True(t, result.IsError)
	assert.Contains(t, getTextContent(result), "not_found")

	result = f.call(t, "get_client", map[string]any{})
	assert.True(t, result.IsError)
	assert.Contains(t, getTextContent(result), "invalid_parameters")
}

func TestListFacultyTool(t *testing.T) {
	f := newToolFixture(t)
	clientID, facultyID := f.seed(t)

	out := decodeResult[struct {
		Faculty []facultySummary `json:"faculty"`
		Count   int              `json:"count"`
	}](t, f.call(t, "list_faculty", map[string]any{"country": "uk"}))
	require.Equal(t, 1, out.Count)
	assert.Equal(t, facultyID, out.Faculty[0].ID)

	out = decodeResult[struct {
		Faculty []facultySummary `json:"faculty"`
		Count   int              `json:"count"`
	}](t, f.call(t, "list_faculty", map[string]any{"client_id": clientID}))
	assert.Equal(t, 0, out.Count)
}

func TestLinkAndUnlinkTools(t *testing.T) {
	f := newToolFixture(t)
	clientID, facultyID := f.seed(t)
	args := map[string]any{"faculty_id": facultyID, "client_id": clientID}

	linked := decodeResult[linkResult](t, f.call(t, "link_faculty_to_client", args))
	assert.True(t, linked.Linked)

	c, err := f.workspace.Get(context.Background(), clientID)
	require.NoError(t, err)
	assert.Equal(t, []string{facultyID}, c.LinkedFacultyIDs)

	unlinked := decodeResult[linkResult](t, f.call(t, "unlink_faculty_from_client", args))
	assert.False(t, unlinked.Linked)

	rec, err := f.workspace.GetFaculty(context.Background(), facultyID)
	require.NoError(t, err)
	assert.Empty(t, rec.LinkedClientIDs)

	result := f.call(t, "link_faculty_to_client", map[string]any{"faculty_id": "missing", "client_id": clientID})
	assert.True(t, result.IsError)
	assert.Contains(t, getTextContent(result), "not_found")
}

func TestAddFacultyTool(t *testing.T) {
	f := newToolFixture(t)
	clientID, existingID := f.seed(t)

	added := decodeResult[facultySummary](t, f.call(t, "add_faculty", map[string]any{
		"name":           "Tom Okafor",
		"university":     "ETH Zurich",
		"research_areas": "robotics, , control",
		"country":        "Switzerland",
		"client_id":      clientID,
	}))
	assert.Equal(t, "Tom Okafor", added.Name)
	assert.Equal(t, []string{"robotics", "control"}, added.ResearchAreas)
	assert.Equal(t, []string{clientID}, added.LinkedClientIDs)

	rec, err := f.workspace.GetFaculty(context.Background(), added.ID)
	require.NoError(t, err)
	assert.Equal(t, models.FacultySourceMCP, rec.Source)

	c, err := f.workspace.Get(context.Background(), clientID)
	require.NoError(t, err)
	assert.Contains(t, c.LinkedFacultyIDs, added.ID)

	merged := decodeResult[facultySummary](t, f.call(t, "add_faculty", map[string]any{
		"name":       "Sara Klein",
		"university": "University of Edinburgh",
		"email":      "sklein@ed.ac.uk",
	}))
	assert.Equal(t, existingID, merged.ID, "same name and university merge")
	assert.Equal(t, "sklein@ed.ac.uk", merged.Email)
	assert.Equal(t, []string{"NLP"}, merged.ResearchAreas)
	assert.Len(t, f.workspace.ListFaculty(context.Background(), models.FacultyFilter{}), 2)

	result := f.call(t, "add_faculty", map[string]any{"name": "No University"})
	assert.True(t, result.IsError)
	assert.Contains(t, getTextContent(result), "invalid_parameters")

	result = f.call(t, "add_faculty", map[string]any{"name": "A", "university": "B", "client_id": "missing"})
	assert.True(t, result.IsError)
	assert.Contains(t, getTextContent(result), "not_found")
	assert.Len(t, f.workspace.ListFaculty(context.Background(), models.FacultyFilter{}), 2, "nothing saved for an unknown client")
}
