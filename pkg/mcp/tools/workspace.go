// Package tools provides the MCP tools that expose the consulting workspace
// to AI agents.
package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
)

// WorkspaceToolDeps contains dependencies for workspace tools.
type WorkspaceToolDeps struct {
	Clients     repositories.ClientRepository
	Faculty     repositories.FacultyRepository
	AIAvailable bool
	Logger      *zap.Logger
}

// RegisterWorkspaceTools registers the client and faculty tools.
func RegisterWorkspaceTools(s *server.MCPServer, deps *WorkspaceToolDeps) {
	registerListClientsTool(s, deps)
	registerGetClientTool(s, deps)
	registerListFacultyTool(s, deps)
	registerAddFacultyTool(s, deps)
	registerLinkFacultyTool(s, deps)
	registerUnlinkFacultyTool(s, deps)
}

type clientSummary struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Status             models.ClientStatus `json:"status"`
	Advisor            string              `json:"advisor"`
	GPA                string              `json:"gpa,omitempty"`
	Interests          string              `json:"interests,omitempty"`
	DocumentCount      int                 `json:"document_count"`
	LinkedFacultyCount int                 `json:"linked_faculty_count"`
}

func toClientSummary(c *models.Client) clientSummary {
	return clientSummary{
		ID:                 c.ID,
		Name:               c.Name,
		Status:             c.Status,
		Advisor:            c.Advisor,
		GPA:                c.GPA,
		Interests:          c.Interests,
		DocumentCount:      c.DocumentCount,
		LinkedFacultyCount: len(c.LinkedFacultyIDs),
	}
}

type facultySummary struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Title            string   `json:"title,omitempty"`
	University       string   `json:"university"`
	Department       string   `json:"department,omitempty"`
	ResearchAreas    []string `json:"research_areas,omitempty"`
	Email            string   `json:"email,omitempty"`
	ProfileURL       string   `json:"profile_url,omitempty"`
	RecruitingStatus string   `json:"recruiting_status,omitempty"`
	Country          string   `json:"country,omitempty"`
	FieldCategory    string   `json:"field_category,omitempty"`
	LinkedClientIDs  []string `json:"linked_client_ids"`
}

func toFacultySummary(f *models.FacultyRecord) facultySummary {
	return facultySummary{
		ID:               f.ID,
		Name:             f.Name,
		Title:            f.Title,
		University:       f.University,
		Department:       f.Department,
		ResearchAreas:    f.ResearchAreas,
		Email:            f.Email,
		ProfileURL:       f.ProfileURL,
		RecruitingStatus: f.RecruitingStatus,
		Country:          f.Country,
		FieldCategory:    f.FieldCategory,
		LinkedClientIDs:  f.LinkedClientIDs,
	}
}

// registerListClientsTool adds list_clients for discovering students.
func registerListClientsTool(s *server.MCPServer, deps *WorkspaceToolDeps) {
	tool := mcp.NewTool(
		"list_clients",
		mcp.WithDescription(
			"List the agency's student clients. Returns id, name, status, advisor and counts of "+
				"documents and linked faculty. Use get_client for the full profile.",
		),
		mcp.WithString("status",
			mcp.Description("Filter by status. Omit for both."),
			mcp.Enum(string(models.ClientStatusActive), string(models.ClientStatusArchived)),
		),
		mcp.WithString("query", mcp.Description("Case-insensitive substring of the client name")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		status := models.ClientStatus(strings.TrimSpace(req.GetString("status", "")))
		if status != "" && !status.IsValid() {
			return NewErrorResultWithDetails("invalid_parameters", "unknown status",
				map[string]any{"allowed": []string{"active", "archived"}}), nil
		}

		clients := deps.Clients.List(ctx, status, req.GetString("query", ""))
		result := struct {
			Clients []clientSummary `json:"clients"`
			Count   int             `json:"count"`
		}{
			Clients: make([]clientSummary, 0, len(clients)),
			Count:   len(clients),
		}
		for _, c := range clients {
			result.Clients = append(result.Clients, toClientSummary(c))
		}
		return jsonResult(result)
	})
}

// registerGetClientTool adds get_client returning the full profile plus the
// faculty records linked to the client.
func registerGetClientTool(s *server.MCPServer, deps *WorkspaceToolDeps) {
	tool := mcp.NewTool(
		"get_client",
		mcp.WithDescription(
			"Get one client's full profile: narrative sections, education, work history, awards, "+
				"contact log, document titles and the faculty members linked to them.",
		),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id from list_clients")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("client_id")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		id = strings.TrimSpace(id)

		client, err := deps.Clients.Get(ctx, id)
		if err != nil {
			if res, ok := resultForError(err, fmt.Sprintf("no client with id %q", id)); ok {
				return res, nil
			}
			return nil, fmt.Errorf("get client: %w", err)
		}
		linked, err := deps.Faculty.ListFacultyForClient(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("list linked faculty: %w", err)
		}

		// Document bodies can be long; titles are enough to decide what to fetch.
		type documentRef struct {
			ID    string              `json:"id"`
			Title string              `json:"title"`
			Type  models.DocumentType `json:"type"`
		}
		docs := make([]documentRef, 0, len(client.Documents))
		for _, d := range client.Documents {
			docs = append(docs, documentRef{ID: d.ID, Title: d.Title, Type: d.Type})
		}
		client.Documents = nil

		faculty := make([]facultySummary, 0, len(linked))
		for _, f := range linked {
			faculty = append(faculty, toFacultySummary(f))
		}

		return jsonResult(struct {
			Client        *models.Client   `json:"client"`
			Documents     []documentRef    `json:"documents"`
			LinkedFaculty []facultySummary `json:"linked_faculty"`
		}{
			Client:        client,
			Documents:     docs,
			LinkedFaculty: faculty,
		})
	})
}

// registerListFacultyTool adds list_faculty over the shared faculty database.
func registerListFacultyTool(s *server.MCPServer, deps *WorkspaceToolDeps) {
	tool := mcp.NewTool(
		"list_faculty",
		mcp.WithDescription(
			"List saved faculty members from the shared database. All filters are optional and combine.",
		),
		mcp.WithString("country", mcp.Description("Exact country, case-insensitive (e.g. 'USA', 'UK')")),
		mcp.WithString("field", mcp.Description("Field category, case-insensitive")),
		mcp.WithString("query", mcp.Description("Substring of name, university, department or research areas")),
		mcp.WithString("client_id", mcp.Description("Only faculty linked to this client")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		records := deps.Faculty.ListFaculty(ctx, models.FacultyFilter{
			Country:       strings.TrimSpace(req.GetString("country", "")),
			FieldCategory: strings.TrimSpace(req.GetString("field", "")),
			Query:         strings.TrimSpace(req.GetString("query", "")),
			ClientID:      strings.TrimSpace(req.GetString("client_id", "")),
		})

		result := struct {
			Faculty []facultySummary `json:"faculty"`
			Count   int              `json:"count"`
		}{
			Faculty: make([]facultySummary, 0, len(records)),
			Count:   len(records),
		}
		for _, f := range records {
			result.Faculty = append(result.Faculty, toFacultySummary(f))
		}
		return jsonResult(result)
	})
}

// registerAddFacultyTool adds add_faculty. A member already saved under the
// same name and university is merged rather than duplicated.
func registerAddFacultyTool(s *server.MCPServer, deps *WorkspaceToolDeps) {
	tool := mcp.NewTool(
		"add_faculty",
		mcp.WithDescription(
			"Save a faculty member to the shared database. If a member with the same name and "+
				"university exists, the non-empty fields given here are merged into it. "+
				"Optionally links the member to a client.",
		),
		mcp.WithString("name", mcp.Required(), mcp.Description("Full name")),
		mcp.WithString("university", mcp.Required(), mcp.Description("University name")),
		mcp.WithString("title", mcp.Description("Academic title, e.g. 'Associate Professor'")),
		mcp.WithString("department", mcp.Description("Department or school")),
		mcp.WithString("email", mcp.Description("Contact email")),
		mcp.WithString("profile_url", mcp.Description("Faculty profile page")),
		mcp.WithString("research_areas", mcp.Description("Comma-separated research areas")),
		mcp.WithString("country", mcp.Description("Country of the university")),
		mcp.WithString("field_category", mcp.Description("Field category, e.g. 'Computer Science'")),
		mcp.WithString("client_id", mcp.Description("Link the saved member to this client")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := req.RequireString("name")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		university, err := req.RequireString("university")
		if err != nil {
			return NewErrorResult("invalid_parameters", err.Error()), nil
		}
		clientID := strings.TrimSpace(req.GetString("client_id", ""))
		if clientID != "" {
			if _, err := deps.Clients.Get(ctx, clientID); err != nil {
				if res, ok := resultForError(err, fmt.Sprintf("no client with id %q", clientID)); ok {
					return res, nil
				}
				return nil, fmt.Errorf("get client: %w", err)
			}
		}

		input := &models.FacultyRecordInput{
			FacultyMember: models.FacultyMember{
				Name:          strings.TrimSpace(name),
				University:    strings.TrimSpace(university),
				Title:         strings.TrimSpace(req.GetString("title", "")),
				Department:    strings.TrimSpace(req.GetString("department", "")),
				Email:         strings.TrimSpace(req.GetString("email", "")),
				ProfileURL:    strings.TrimSpace(req.GetString("profile_url", "")),
				ResearchAreas: splitList(req.GetString("research_areas", "")),
			},
			Country:       strings.TrimSpace(req.GetString("country", "")),
			FieldCategory: strings.TrimSpace(req.GetString("field_category", "")),
		}
		id, err := deps.Faculty.UpsertFaculty(ctx, input, models.FacultySourceMCP)
		if err != nil {
			if res, ok := resultForError(err, "name and university are required"); ok {
				return res, nil
			}
			return nil, fmt.Errorf("add faculty: %w", err)
		}
		if clientID != "" {
			if err := deps.Faculty.Link(ctx, id, clientID); err != nil {
				if res, ok := resultForError(err, fmt.Sprintf("no client with id %q", clientID)); ok {
					return res, nil
				}
				return nil, fmt.Errorf("link faculty: %w", err)
			}
		}

		deps.Logger.Info("Faculty added via MCP",
			zap.String("faculty_id", id),
			zap.String("client_id", clientID))

		rec, err := deps.Faculty.GetFaculty(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get faculty: %w", err)
		}
		return jsonResult(toFacultySummary(rec))
	})
}

// splitList splits a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func linkArgs(req mcp.CallToolRequest) (facultyID, clientID string, errResult *mcp.CallToolResult) {
	facultyID, err := req.RequireString("faculty_id")
	if err != nil {
		return "", "", NewErrorResult("invalid_parameters", err.Error())
	}
	clientID, err = req.RequireString("client_id")
	if err != nil {
		return "", "", NewErrorResult("invalid_parameters", err.Error())
	}
	return strings.TrimSpace(facultyID), strings.TrimSpace(clientID), nil
}

type linkResult struct {
	FacultyID string `json:"faculty_id"`
	ClientID  string `json:"client_id"`
	Linked    bool   `json:"linked"`
}

// registerLinkFacultyTool adds link_faculty_to_client. Linking is idempotent.
func registerLinkFacultyTool(s *server.MCPServer, deps *WorkspaceToolDeps) {
	tool := mcp.NewTool(
		"link_faculty_to_client",
		mcp.WithDescription("Mark a saved faculty member as a target for a client. Linking twice has no effect."),
		mcp.WithString("faculty_id", mcp.Required(), mcp.Description("Faculty record id from list_faculty")),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id from list_clients")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		facultyID, clientID, errResult := linkArgs(req)
		if errResult != nil {
			return errResult, nil
		}
		if err := deps.Faculty.Link(ctx, facultyID, clientID); err != nil {
			if res, ok := resultForError(err, "faculty record or client not found"); ok {
				return res, nil
			}
			return nil, fmt.Errorf("link faculty: %w", err)
		}
		deps.Logger.Info("Faculty linked via MCP",
			zap.String("faculty_id", facultyID),
			zap.String("client_id", clientID))
		return jsonResult(linkResult{FacultyID: facultyID, ClientID: clientID, Linked: true})
	})
}

// registerUnlinkFacultyTool adds unlink_faculty_from_client.
func registerUnlinkFacultyTool(s *server.MCPServer, deps *WorkspaceToolDeps) {
	tool := mcp.NewTool(
		"unlink_faculty_from_client",
		mcp.WithDescription("Remove the link between a faculty member and a client. The faculty record itself is kept."),
		mcp.WithString("faculty_id", mcp.Required(), mcp.Description("Faculty record id")),
		mcp.WithString("client_id", mcp.Required(), mcp.Description("Client id")),
		mcp.WithReadOnlyHintAnnotation(false),
		mcp.WithDestructiveHintAnnotation(true),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		facultyID, clientID, errResult := linkArgs(req)
		if errResult != nil {
			return errResult, nil
		}
		if err := deps.Faculty.Unlink(ctx, facultyID, clientID); err != nil {
			if res, ok := resultForError(err, "faculty record or client not found"); ok {
				return res, nil
			}
			return nil, fmt.Errorf("unlink faculty: %w", err)
		}
		deps.Logger.Info("Faculty unlinked via MCP",
			zap.String("faculty_id", facultyID),
			zap.String("client_id", clientID))
		return jsonResult(linkResult{FacultyID: facultyID, ClientID: clientID, Linked: false})
	})
}
