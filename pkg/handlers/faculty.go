package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
	"github.com/gradpath/gradpath-engine/pkg/services"
	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
)

// FacultyHandler handles the shared faculty database.
type FacultyHandler struct {
	faculty repositories.FacultyRepository
	search  services.FacultySearchService
	tracker *workqueue.Tracker
	logger  *zap.Logger
}

// NewFacultyHandler creates a faculty database handler.
func NewFacultyHandler(
	faculty repositories.FacultyRepository,
	search services.FacultySearchService,
	tracker *workqueue.Tracker,
	logger *zap.Logger,
) *FacultyHandler {
	return &FacultyHandler{
		faculty: faculty,
		search:  search,
		tracker: tracker,
		logger:  logger,
	}
}

// RegisterRoutes registers the faculty database routes.
func (h *FacultyHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/faculty"
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("GET "+base+"/export", h.Export)
	mux.HandleFunc("GET "+base+"/{fid}", h.Get)
	mux.HandleFunc("PATCH "+base+"/{fid}", h.Patch)
	mux.HandleFunc("DELETE "+base+"/{fid}", h.Delete)
	mux.HandleFunc("POST "+base+"/{fid}/refresh", h.Refresh)
	mux.HandleFunc("POST "+base+"/{fid}/links/{cid}", h.Link)
	mux.HandleFunc("DELETE "+base+"/{fid}/links/{cid}", h.Unlink)
}

func facultyFilter(r *http.Request) models.FacultyFilter {
	q := r.URL.Query()
	return models.FacultyFilter{
		Country:       q.Get("country"),
		FieldCategory: q.Get("field"),
		Query:         q.Get("q"),
		ClientID:      q.Get("client_id"),
	}
}

// List handles GET /api/faculty?country=&field=&q=&client_id=
func (h *FacultyHandler) List(w http.ResponseWriter, r *http.Request) {
	records := h.faculty.ListFaculty(r.Context(), facultyFilter(r))
	writeData(w, http.StatusOK, records, h.logger)
}

// Create handles POST /api/faculty (manual entry). An entry matching an
// existing record by name and university is merged into it.
func (h *FacultyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.FacultyRecordInput
	if !decodeJSON(w, r, &input, h.logger) {
		return
	}
	id, err := h.faculty.AddManual(r.Context(), &input)
	if err != nil {
		writeServiceError(w, err, "Add faculty", h.logger)
		return
	}
	rec, err := h.faculty.GetFaculty(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Get faculty", h.logger)
		return
	}
	writeData(w, http.StatusCreated, rec, h.logger)
}

// Get handles GET /api/faculty/{fid}
func (h *FacultyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseFacultyID(w, r, h.logger)
	if !ok {
		return
	}
	rec, err := h.faculty.GetFaculty(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Get faculty", h.logger)
		return
	}
	writeData(w, http.StatusOK, rec, h.logger)
}

// Patch handles PATCH /api/faculty/{fid}
func (h *FacultyHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseFacultyID(w, r, h.logger)
	if !ok {
		return
	}
	var patch models.FacultyPatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}
	rec, err := h.faculty.UpdateFaculty(r.Context(), id, &patch)
	if err != nil {
		writeServiceError(w, err, "Update faculty", h.logger)
		return
	}
	writeData(w, http.StatusOK, rec, h.logger)
}

// Delete handles DELETE /api/faculty/{fid}. Links on clients are removed too.
func (h *FacultyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseFacultyID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.faculty.DeleteFaculty(r.Context(), id); err != nil {
		writeServiceError(w, err, "Delete faculty", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Refresh handles POST /api/faculty/{fid}/refresh. The lookup runs as a task
// and the record is only updated if the task was not cancelled.
func (h *FacultyHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseFacultyID(w, r, h.logger)
	if !ok {
		return
	}
	if _, err := h.faculty.GetFaculty(r.Context(), id); err != nil {
		writeServiceError(w, err, "Refresh faculty", h.logger)
		return
	}

	startTask(w, h.tracker, TaskRefreshFaculty,
		func(ctx context.Context) (any, error) {
			return h.search.FetchRefresh(ctx, id)
		},
		func(ctx context.Context, result any) (any, error) {
			patch, ok := result.(*models.FacultyPatch)
			if !ok {
				return nil, errors.New("unexpected refresh result")
			}
			return h.faculty.UpdateFaculty(ctx, id, patch)
		},
		h.logger)
}

// Link handles POST /api/faculty/{fid}/links/{cid}
func (h *FacultyHandler) Link(w http.ResponseWriter, r *http.Request) {
	fid, ok := ParseFacultyID(w, r, h.logger)
	if !ok {
		return
	}
	cid, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.faculty.Link(r.Context(), fid, cid); err != nil {
		writeServiceError(w, err, "Link faculty", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Unlink handles DELETE /api/faculty/{fid}/links/{cid}
func (h *FacultyHandler) Unlink(w http.ResponseWriter, r *http.Request) {
	fid, ok := ParseFacultyID(w, r, h.logger)
	if !ok {
		return
	}
	cid, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.faculty.Unlink(r.Context(), fid, cid); err != nil {
		writeServiceError(w, err, "Unlink faculty", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/faculty/export with the same filters as List.
func (h *FacultyHandler) Export(w http.ResponseWriter, r *http.Request) {
	records := h.faculty.ListFaculty(r.Context(), facultyFilter(r))
	setCSVHeaders(w, "faculty-database")
	if err := services.WriteFacultyRecordsCSV(w, records); err != nil {
		h.logger.Error("Failed to write faculty export", zap.Error(err))
	}
}

func setCSVHeaders(w http.ResponseWriter, prefix string) {
	filename := fmt.Sprintf("%s-%s.csv", prefix, time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
}
