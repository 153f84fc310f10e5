package handlers

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
)

// WorkspaceSession is the per-installation view state: which tab is open and
// which client is selected.
type WorkspaceSession interface {
	ActiveTab() models.ActiveTab
	SetActiveTab(ctx context.Context, tab models.ActiveTab) error
	Select(ctx context.Context, clientID string) error
	ClearSelection(ctx context.Context)
	SelectedClientID() string
}

// WorkspaceStateResponse is returned by the workspace endpoints.
type WorkspaceStateResponse struct {
	ActiveTab        models.ActiveTab `json:"active_tab"`
	SelectedClientID string           `json:"selected_client_id"`
}

// WorkspaceHandler handles the active tab and client selection.
type WorkspaceHandler struct {
	session WorkspaceSession
	logger  *zap.Logger
}

// NewWorkspaceHandler creates a workspace handler.
func NewWorkspaceHandler(session WorkspaceSession, logger *zap.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{session: session, logger: logger}
}

// RegisterRoutes registers the workspace routes.
func (h *WorkspaceHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/workspace"
	mux.HandleFunc("GET "+base, h.Get)
	mux.HandleFunc("PUT "+base+"/tab", h.SetTab)
	mux.HandleFunc("PUT "+base+"/selection", h.SetSelection)
}

// Get handles GET /api/workspace
func (h *WorkspaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.state(), h.logger)
}

// SetTab handles PUT /api/workspace/tab
func (h *WorkspaceHandler) SetTab(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tab models.ActiveTab `json:"tab"`
	}
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if err := h.session.SetActiveTab(r.Context(), req.Tab); err != nil {
		writeServiceError(w, err, "Set active tab", h.logger)
		return
	}
	writeData(w, http.StatusOK, h.state(), h.logger)
}

// SetSelection handles PUT /api/workspace/selection. An empty client_id
// clears the selection.
func (h *WorkspaceHandler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"client_id"`
	}
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	if id := strings.TrimSpace(req.ClientID); id != "" {
		if err := h.session.Select(r.Context(), id); err != nil {
			writeServiceError(w, err, "Select client", h.logger)
			return
		}
	} else {
		h.session.ClearSelection(r.Context())
	}
	writeData(w, http.StatusOK, h.state(), h.logger)
}

func (h *WorkspaceHandler) state() WorkspaceStateResponse {
	return WorkspaceStateResponse{
		ActiveTab:        h.session.ActiveTab(),
		SelectedClientID: h.session.SelectedClientID(),
	}
}
