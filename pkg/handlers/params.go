package handlers

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// maxIDLength bounds path ids. Stored ids are UUIDs, but records carried over
// from older workspaces may use other formats, so only shape is checked.
const maxIDLength = 128

// ParseClientID extracts the client ID from the request path.
// Expects path parameter: cid
func ParseClientID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parseID(w, r, "cid", "invalid_client_id", "Invalid client ID", logger)
}

// ParseFacultyID extracts the faculty record ID from the request path.
// Expects path parameter: fid
func ParseFacultyID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parseID(w, r, "fid", "invalid_faculty_id", "Invalid faculty ID", logger)
}

// ParseDocumentID extracts the document ID from the request path.
// Expects path parameter: did
func ParseDocumentID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parseID(w, r, "did", "invalid_document_id", "Invalid document ID", logger)
}

// ParseTaskID extracts the task ID from the request path.
// Expects path parameter: tid
func ParseTaskID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (string, bool) {
	return parseID(w, r, "tid", "invalid_task_id", "Invalid task ID", logger)
}

func parseID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (string, bool) {
	id := r.PathValue(pathParam)
	if id == "" || len(id) > maxIDLength || strings.ContainsAny(id, " \t\r\n") {
		writeError(w, http.StatusBadRequest, errorCode, errorMessage, logger)
		return "", false
	}
	return id, true
}
