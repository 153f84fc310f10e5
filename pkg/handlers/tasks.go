package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
)

// TasksHandler exposes polling and cancellation of AI task handles.
type TasksHandler struct {
	tracker *workqueue.Tracker
	logger  *zap.Logger
}

// NewTasksHandler creates a tasks handler.
func NewTasksHandler(tracker *workqueue.Tracker, logger *zap.Logger) *TasksHandler {
	return &TasksHandler{tracker: tracker, logger: logger}
}

// RegisterRoutes registers the task routes on the given mux.
func (h *TasksHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/tasks", h.List)
	mux.HandleFunc("GET /api/tasks/{tid}", h.Get)
	mux.HandleFunc("DELETE /api/tasks/{tid}", h.Cancel)
}

// List handles GET /api/tasks
func (h *TasksHandler) List(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, h.tracker.List(), h.logger)
}

// Get handles GET /api/tasks/{tid}
func (h *TasksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}
	snap, err := h.tracker.Get(id)
	if err != nil {
		writeServiceError(w, err, "Get task", h.logger)
		return
	}
	writeData(w, http.StatusOK, snap, h.logger)
}

// Cancel handles DELETE /api/tasks/{tid}. Cancelling a finished task is a
// 409 that still carries the final snapshot.
func (h *TasksHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseTaskID(w, r, h.logger)
	if !ok {
		return
	}
	snap, err := h.tracker.Cancel(id)
	if errors.Is(err, workqueue.ErrTaskFinished) {
		if err := WriteJSON(w, http.StatusConflict, ApiResponse{
			Success: false,
			Data:    snap,
			Error:   "task_finished",
			Message: "Task already finished",
		}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}
	if err != nil {
		writeServiceError(w, err, "Cancel task", h.logger)
		return
	}
	writeData(w, http.StatusOK, snap, h.logger)
}

// startTask launches an AI workflow and answers 202 with its pending handle.
func startTask(w http.ResponseWriter, tracker *workqueue.Tracker, name string, run workqueue.RunFunc, commit workqueue.CommitFunc, logger *zap.Logger) {
	snap := tracker.Start(name, run, commit)
	writeData(w, http.StatusAccepted, snap, logger)
}
