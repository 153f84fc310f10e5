package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/prompts"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
)

// ChatReply is the assistant's answer.
type ChatReply struct {
	Content string             `json:"content"`
	Sources []models.WebSource `json:"sources,omitempty"`
}

// AssistantService answers staff questions, optionally about one client.
type AssistantService interface {
	Chat(ctx context.Context, clientID string, history []models.ChatMessage, message string) (*ChatReply, error)
}

type assistantService struct {
	clients   repositories.ClientRepository
	llm       llm.LLMClient
	webSearch bool
	logger    *zap.Logger
}

var _ AssistantService = (*assistantService)(nil)

// NewAssistantService creates an assistant. client may be nil when no AI provider is configured.
func NewAssistantService(clients repositories.ClientRepository, client llm.LLMClient, webSearch bool, logger *zap.Logger) AssistantService {
	return &assistantService{
		clients:   clients,
		llm:       client,
		webSearch: webSearch,
		logger:    logger.Named("assistant"),
	}
}

func (s *assistantService) Chat(ctx context.Context, clientID string, history []models.ChatMessage, message string) (*ChatReply, error) {
	if strings.TrimSpace(message) == "" {
		return nil, fmt.Errorf("%w: message is empty", apperrors.ErrInvalidInput)
	}

	var client *models.Client
	if clientID != "" {
		c, err := s.clients.Get(ctx, clientID)
		if err != nil {
			return nil, err
		}
		client = c
	}
	if s.llm == nil {
		return nil, apperrors.ErrAIUnavailable
	}

	resp, err := s.llm.Generate(ctx, &llm.Request{
		SystemMessage: prompts.AssistantSystemMessage,
		Prompt:        prompts.BuildAssistantPrompt(client, history, message),
		Temperature:   0.5,
		WebSearch:     s.webSearch,
	})
	if err != nil {
		return nil, fmt.Errorf("assistant: %w", err)
	}

	reply := &ChatReply{Content: strings.TrimSpace(resp.Content)}
	for _, src := range resp.Sources {
		reply.Sources = append(reply.Sources, models.WebSource{Title: src.Title, URI: src.URI})
	}

	s.logger.Debug("Assistant replied",
		zap.String("client_id", clientID),
		zap.Int("history", len(history)),
		zap.Int("sources", len(reply.Sources)))

	return reply, nil
}
