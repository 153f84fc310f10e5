package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/services"
	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
)

// ParseRequirementsRequest is the body of POST /api/faculty-search/parse.
type ParseRequirementsRequest struct {
	Text     string `json:"text"`
	ClientID string `json:"client_id,omitempty"`
}

// SaveMatchesResponse lists the saved record ids in input order.
type SaveMatchesResponse struct {
	IDs []string `json:"ids"`
}

// ExportMatchesRequest is the body of POST /api/faculty-search/export.
type ExportMatchesRequest struct {
	Matches []models.FacultyMatch `json:"matches"`
}

// FacultySearchHandler handles AI faculty matching.
type FacultySearchHandler struct {
	search  services.FacultySearchService
	tracker *workqueue.Tracker
	logger  *zap.Logger
}

// NewFacultySearchHandler creates a faculty search handler.
func NewFacultySearchHandler(search services.FacultySearchService, tracker *workqueue.Tracker, logger *zap.Logger) *FacultySearchHandler {
	return &FacultySearchHandler{search: search, tracker: tracker, logger: logger}
}

// RegisterRoutes registers the faculty search routes.
func (h *FacultySearchHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/faculty-search"
	mux.HandleFunc("POST "+base, h.Search)
	mux.HandleFunc("POST "+base+"/parse", h.Parse)
	mux.HandleFunc("POST "+base+"/save", h.Save)
	mux.HandleFunc("POST "+base+"/export", h.Export)
}

// Parse handles POST /api/faculty-search/parse
func (h *FacultySearchHandler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequirementsRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	params, err := h.search.ParseRequirements(r.Context(), req.Text, req.ClientID)
	if err != nil {
		writeServiceError(w, err, "Parse requirements", h.logger)
		return
	}
	writeData(w, http.StatusOK, params, h.logger)
}

// Search handles POST /api/faculty-search. The search runs as a task whose
// result is a SearchResult; nothing is saved.
func (h *FacultySearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var params models.SearchParams
	if !decodeJSON(w, r, &params, h.logger) {
		return
	}
	if len(params.Countries) == 0 && params.Field == "" && len(params.ResearchInterests) == 0 {
		writeError(w, http.StatusBadRequest, "validation_error", "Give at least a country, field or research interest", h.logger)
		return
	}

	startTask(w, h.tracker, TaskFacultySearch,
		func(ctx context.Context) (any, error) {
			return h.search.Search(ctx, params)
		},
		nil,
		h.logger)
}

// Save handles POST /api/faculty-search/save
func (h *FacultySearchHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req services.SaveMatchesRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	ids, err := h.search.SaveMatches(r.Context(), req)
	if err != nil {
		writeServiceError(w, err, "Save matches", h.logger)
		return
	}
	writeData(w, http.StatusCreated, SaveMatchesResponse{IDs: ids}, h.logger)
}

// Export handles POST /api/faculty-search/export and streams the matches as CSV.
func (h *FacultySearchHandler) Export(w http.ResponseWriter, r *http.Request) {
	var req ExportMatchesRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	setCSVHeaders(w, "faculty-matches")
	if err := services.WriteFacultyMatchesCSV(w, req.Matches); err != nil {
		h.logger.Error("Failed to write match export", zap.Error(err))
	}
}
