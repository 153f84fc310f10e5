package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/services"
)

// ChatRequest is the body of POST /api/assistant/chat.
// History is held by the caller; the server keeps no conversation state.
type ChatRequest struct {
	ClientID string               `json:"client_id,omitempty"`
	History  []models.ChatMessage `json:"history,omitempty"`
	Message  string               `json:"message"`
}

// AssistantHandler handles the consultant chat assistant.
type AssistantHandler struct {
	assistant services.AssistantService
	logger    *zap.Logger
}

// NewAssistantHandler creates an assistant handler.
func NewAssistantHandler(assistant services.AssistantService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, logger: logger}
}

// RegisterRoutes registers the assistant routes.
func (h *AssistantHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/assistant/chat", h.Chat)
}

// Chat handles POST /api/assistant/chat
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if !decodeJSON(w, r, &req, h.logger) {
		return
	}
	reply, err := h.assistant.Chat(r.Context(), req.ClientID, req.History, req.Message)
	if err != nil {
		writeServiceError(w, err, "Assistant chat", h.logger)
		return
	}
	writeData(w, http.StatusOK, reply, h.logger)
}
