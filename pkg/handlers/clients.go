package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/extract"
	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/prompts"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
	"github.com/gradpath/gradpath-engine/pkg/services"
	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
)

// Task names reported in task snapshots.
const (
	TaskImportClient     = "import_client"
	TaskGenerateDocument = "generate_document"
	TaskFacultySearch    = "faculty_search"
	TaskRefreshFaculty   = "refresh_faculty"
)

// SubRecordCreatedResponse is returned when a sub-record is appended.
type SubRecordCreatedResponse struct {
	ID string `json:"id"`
}

// GenerateDocumentRequest is the body of POST /api/clients/{cid}/documents/generate.
type GenerateDocumentRequest struct {
	Type    models.DocumentType     `json:"type"`
	Title   string                  `json:"title,omitempty"`
	Options prompts.DocumentOptions `json:"options"`
	// Save stores the draft as a client document when the task completes.
	Save bool `json:"save"`
}

// ClientsHandler handles client records, their sub-records and documents.
type ClientsHandler struct {
	clients   repositories.ClientRepository
	importer  services.ImportService
	documents services.DocumentService
	tracker   *workqueue.Tracker
	logger    *zap.Logger
}

// NewClientsHandler creates a clients handler.
func NewClientsHandler(
	clients repositories.ClientRepository,
	importer services.ImportService,
	documents services.DocumentService,
	tracker *workqueue.Tracker,
	logger *zap.Logger,
) *ClientsHandler {
	return &ClientsHandler{
		clients:   clients,
		importer:  importer,
		documents: documents,
		tracker:   tracker,
		logger:    logger,
	}
}

// RegisterRoutes registers the client routes.
func (h *ClientsHandler) RegisterRoutes(mux *http.ServeMux) {
	base := "/api/clients"
	mux.HandleFunc("GET "+base, h.List)
	mux.HandleFunc("POST "+base, h.Create)
	mux.HandleFunc("POST "+base+"/import", h.Import)
	mux.HandleFunc("GET "+base+"/{cid}", h.Get)
	mux.HandleFunc("PUT "+base+"/{cid}", h.Replace)
	mux.HandleFunc("PATCH "+base+"/{cid}", h.Patch)
	mux.HandleFunc("POST "+base+"/{cid}/archive", h.Archive)
	mux.HandleFunc("POST "+base+"/{cid}/restore", h.Restore)
	mux.HandleFunc("GET "+base+"/{cid}/source", h.SourceFile)
	mux.HandleFunc("POST "+base+"/{cid}/{kind}", h.AddSubRecord)
	mux.HandleFunc("DELETE "+base+"/{cid}/{kind}/{sid}", h.RemoveSubRecord)
	mux.HandleFunc("GET "+base+"/{cid}/documents", h.ListDocuments)
	mux.HandleFunc("POST "+base+"/{cid}/documents", h.SaveDocument)
	mux.HandleFunc("POST "+base+"/{cid}/documents/generate", h.GenerateDocument)
	mux.HandleFunc("GET "+base+"/{cid}/documents/{did}", h.GetDocument)
	mux.HandleFunc("DELETE "+base+"/{cid}/documents/{did}", h.DeleteDocument)
}

// List handles GET /api/clients?status=&q=
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := models.ClientStatus(r.URL.Query().Get("status"))
	if status != "" && !status.IsValid() {
		writeError(w, http.StatusBadRequest, "invalid_status", "status must be active or archived", h.logger)
		return
	}
	clients := h.clients.List(r.Context(), status, r.URL.Query().Get("q"))
	writeData(w, http.StatusOK, clients, h.logger)
}

// Create handles POST /api/clients
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.NewClientInput
	if !decodeJSON(w, r, &input, h.logger) {
		return
	}
	client, err := h.clients.Create(r.Context(), &input)
	if err != nil {
		writeServiceError(w, err, "Create client", h.logger)
		return
	}
	writeData(w, http.StatusCreated, client, h.logger)
}

// Get handles GET /api/clients/{cid}
func (h *ClientsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	client, err := h.clients.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Get client", h.logger)
		return
	}
	writeData(w, http.StatusOK, client, h.logger)
}

// Replace handles PUT /api/clients/{cid}. The path id wins over any id in the body.
func (h *ClientsHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	var client models.Client
	if !decodeJSON(w, r, &client, h.logger) {
		return
	}
	client.ID = id
	updated, err := h.clients.Update(r.Context(), &client)
	if err != nil {
		writeServiceError(w, err, "Update client", h.logger)
		return
	}
	writeData(w, http.StatusOK, updated, h.logger)
}

// Patch handles PATCH /api/clients/{cid}
func (h *ClientsHandler) Patch(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	var patch models.ClientPatch
	if !decodeJSON(w, r, &patch, h.logger) {
		return
	}
	updated, err := h.clients.Patch(r.Context(), id, &patch)
	if err != nil {
		writeServiceError(w, err, "Patch client", h.logger)
		return
	}
	writeData(w, http.StatusOK, updated, h.logger)
}

// Archive handles POST /api/clients/{cid}/archive
func (h *ClientsHandler) Archive(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.ClientStatusArchived)
}

// Restore handles POST /api/clients/{cid}/restore
func (h *ClientsHandler) Restore(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, models.ClientStatusActive)
}

func (h *ClientsHandler) setStatus(w http.ResponseWriter, r *http.Request, status models.ClientStatus) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	updated, err := h.clients.SetStatus(r.Context(), id, status)
	if err != nil {
		writeServiceError(w, err, "Set client status", h.logger)
		return
	}
	writeData(w, http.StatusOK, updated, h.logger)
}

// SourceFile handles GET /api/clients/{cid}/source
func (h *ClientsHandler) SourceFile(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	data, name, err := h.importer.SourceFile(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "Get source file", h.logger)
		return
	}

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AddSubRecord handles POST /api/clients/{cid}/{kind}
func (h *ClientsHandler) AddSubRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	kind := models.SubRecordKind(r.PathValue("kind"))
	if !kind.IsValid() {
		writeError(w, http.StatusNotFound, "not_found", "Unknown sub-record kind", h.logger)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request body", h.logger)
		return
	}

	subID, err := h.addSubRecord(r.Context(), id, kind, body)
	if err != nil {
		writeServiceError(w, err, "Add "+string(kind), h.logger)
		return
	}
	writeData(w, http.StatusCreated, SubRecordCreatedResponse{ID: subID}, h.logger)
}

func (h *ClientsHandler) addSubRecord(ctx context.Context, clientID string, kind models.SubRecordKind, body []byte) (string, error) {
	switch kind {
	case models.SubRecordEducation:
		var e models.Education
		if err := unmarshalBody(body, &e); err != nil {
			return "", err
		}
		return h.clients.AddEducation(ctx, clientID, e)
	case models.SubRecordWork:
		var e models.WorkEntry
		if err := unmarshalBody(body, &e); err != nil {
			return "", err
		}
		return h.clients.AddWorkEntry(ctx, clientID, e)
	case models.SubRecordAward:
		var a models.Award
		if err := unmarshalBody(body, &a); err != nil {
			return "", err
		}
		return h.clients.AddAward(ctx, clientID, a)
	default:
		var c models.ContactRecord
		if err := unmarshalBody(body, &c); err != nil {
			return "", err
		}
		return h.clients.AddContact(ctx, clientID, c)
	}
}

func unmarshalBody(body []byte, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: invalid request body", apperrors.ErrInvalidInput)
	}
	return nil
}

// RemoveSubRecord handles DELETE /api/clients/{cid}/{kind}/{sid}
func (h *ClientsHandler) RemoveSubRecord(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	kind := models.SubRecordKind(r.PathValue("kind"))
	if !kind.IsValid() {
		writeError(w, http.StatusNotFound, "not_found", "Unknown sub-record kind", h.logger)
		return
	}
	if err := h.clients.RemoveSubRecord(r.Context(), id, kind, r.PathValue("sid")); err != nil {
		writeServiceError(w, err, "Remove "+string(kind), h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListDocuments handles GET /api/clients/{cid}/documents
func (h *ClientsHandler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	docs, err := h.clients.ListDocuments(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "List documents", h.logger)
		return
	}
	writeData(w, http.StatusOK, docs, h.logger)
}

// SaveDocument handles POST /api/clients/{cid}/documents. A body id that
// matches an existing document updates it; otherwise a document is appended.
func (h *ClientsHandler) SaveDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	var input models.DocumentInput
	if !decodeJSON(w, r, &input, h.logger) {
		return
	}
	docID, err := h.clients.SaveDocument(r.Context(), id, &input)
	if err != nil {
		writeServiceError(w, err, "Save document", h.logger)
		return
	}
	doc, err := h.clients.GetDocument(r.Context(), id, docID)
	if err != nil {
		writeServiceError(w, err, "Get document", h.logger)
		return
	}
	writeData(w, http.StatusOK, doc, h.logger)
}

// GetDocument handles GET /api/clients/{cid}/documents/{did}
func (h *ClientsHandler) GetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	docID, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}
	doc, err := h.clients.GetDocument(r.Context(), id, docID)
	if err != nil {
		writeServiceError(w, err, "Get document", h.logger)
		return
	}
	writeData(w, http.StatusOK, doc, h.logger)
}

// DeleteDocument handles DELETE /api/clients/{cid}/documents/{did}
func (h *ClientsHandler) DeleteDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	docID, ok := ParseDocumentID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.clients.DeleteDocument(r.Context(), id, docID); err != nil {
		writeServiceError(w, err, "Delete document", h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Import handles POST /api/clients/import (multipart form, field "file").
// The file is validated up front; parsing and client creation run as a task.
func (h *ClientsHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, extract.MaxFileSize+1<<20)
	if err := r.ParseMultipartForm(extract.MaxFileSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Expected a multipart form with a file field", h.logger)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "Missing file field", h.logger)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, extract.MaxFileSize+1))
	if err != nil {
		writeServiceError(w, fmt.Errorf("read upload: %w", err), "Import client", h.logger)
		return
	}
	filename := header.Filename
	mimeType := header.Header.Get("Content-Type")

	// Reject unusable files before a task is created.
	if _, err := extract.Prepare(filename, mimeType, data); err != nil {
		writeServiceError(w, err, "Import client", h.logger)
		return
	}

	h.logger.Info("Client import started",
		zap.String("filename", filename),
		zap.Int("size", len(data)))

	startTask(w, h.tracker, TaskImportClient,
		func(ctx context.Context) (any, error) {
			return h.importer.ParseFile(ctx, filename, mimeType, data)
		},
		func(ctx context.Context, result any) (any, error) {
			input, ok := result.(*models.NewClientInput)
			if !ok {
				return nil, errors.New("unexpected import result")
			}
			return h.clients.Create(ctx, input)
		},
		h.logger)
}

// GenerateDocument handles POST /api/clients/{cid}/documents/generate.
// The draft is the task result; with save=true it is stored on completion
// and the saved document becomes the result.
func (h *ClientsHandler) GenerateDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	var body GenerateDocumentRequest
	if !decodeJSON(w, r, &body, h.logger) {
		return
	}
	if !body.Type.IsGeneratable() {
		writeError(w, http.StatusBadRequest, "validation_error", "Unsupported document type", h.logger)
		return
	}
	if _, err := h.clients.Get(r.Context(), id); err != nil {
		writeServiceError(w, err, "Generate document", h.logger)
		return
	}

	req := services.GenerateRequest{
		ClientID: id,
		Type:     body.Type,
		Title:    body.Title,
		Options:  body.Options,
	}
	var commit workqueue.CommitFunc
	if body.Save {
		commit = func(ctx context.Context, result any) (any, error) {
			doc, ok := result.(*services.GeneratedDocument)
			if !ok {
				return nil, errors.New("unexpected generate result")
			}
			return h.documents.Save(ctx, doc)
		}
	}

	startTask(w, h.tracker, TaskGenerateDocument,
		func(ctx context.Context) (any, error) {
			return h.documents.Generate(ctx, req)
		},
		commit,
		h.logger)
}
