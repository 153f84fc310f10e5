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

// GenerateRequest asks for one AI-drafted document.
type GenerateRequest struct {
	ClientID string                  `json:"client_id"`
	Type     models.DocumentType     `json:"type"`
	Title    string                  `json:"title,omitempty"` // defaults to "<type label> - <client name>"
	Options  prompts.DocumentOptions `json:"options"`
}

// GeneratedDocument is a draft that has not been saved yet.
type GeneratedDocument struct {
	ClientID string              `json:"client_id"`
	Type     models.DocumentType `json:"type"`
	Title    string              `json:"title"`
	Content  string              `json:"content"`
}

// DocumentService drafts application documents from a client's profile.
type DocumentService interface {
	Generate(ctx context.Context, req GenerateRequest) (*GeneratedDocument, error)
	Save(ctx context.Context, doc *GeneratedDocument) (*models.Document, error)
	GenerateAndSave(ctx context.Context, req GenerateRequest) (*models.Document, error)
}

type documentService struct {
	clients repositories.ClientRepository
	llm     llm.LLMClient
	logger  *zap.Logger
}

var _ DocumentService = (*documentService)(nil)

// NewDocumentService creates a document service. client may be nil when no
// AI provider is configured.
func NewDocumentService(clients repositories.ClientRepository, client llm.LLMClient, logger *zap.Logger) DocumentService {
	return &documentService{
		clients: clients,
		llm:     client,
		logger:  logger.Named("documents"),
	}
}

func (s *documentService) Generate(ctx context.Context, req GenerateRequest) (*GeneratedDocument, error) {
	if req.ClientID == "" {
		return nil, fmt.Errorf("%w: select a client first", apperrors.ErrInvalidInput)
	}
	if !req.Type.IsGeneratable() {
		return nil, fmt.Errorf("%w: cannot generate documents of type %q", apperrors.ErrInvalidInput, req.Type)
	}

	client, err := s.clients.Get(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, apperrors.ErrAIUnavailable
	}

	resp, err := s.llm.Generate(ctx, &llm.Request{
		SystemMessage: prompts.DocumentSystemMessage,
		Prompt:        prompts.BuildDocumentPrompt(req.Type, client, req.Options),
		Temperature:   prompts.DocumentTemperature(req.Type),
	})
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", req.Type, err)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = fmt.Sprintf("%s - %s", req.Type.Label(), client.Name)
	}

	s.logger.Info("Generated document",
		zap.String("client_id", client.ID),
		zap.String("type", string(req.Type)),
		zap.Int("length", len(resp.Content)),
		zap.Int("completion_tokens", resp.CompletionTokens))

	return &GeneratedDocument{
		ClientID: client.ID,
		Type:     req.Type,
		Title:    title,
		Content:  stripCodeFence(resp.Content),
	}, nil
}

func (s *documentService) Save(ctx context.Context, doc *GeneratedDocument) (*models.Document, error) {
	id, err := s.clients.SaveDocument(ctx, doc.ClientID, &models.DocumentInput{
		Title:   doc.Title,
		Type:    doc.Type,
		Content: doc.Content,
	})
	if err != nil {
		return nil, err
	}
	return s.clients.GetDocument(ctx, doc.ClientID, id)
}

func (s *documentService) GenerateAndSave(ctx context.Context, req GenerateRequest) (*models.Document, error) {
	doc, err := s.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.Save(ctx, doc)
}

// stripCodeFence removes a single markdown fence some models wrap around the whole answer.
func stripCodeFence(s string) string {
	t := strings.TrimSpace(s)
	if !strings.HasPrefix(t, "```") || !strings.HasSuffix(t, "```") || len(t) < 6 {
		return t
	}
	t = strings.TrimSuffix(t, "```")
	if nl := strings.Index(t, "\n"); nl >= 0 {
		t = t[nl+1:]
	} else {
		t = strings.TrimPrefix(t, "```")
	}
	return strings.TrimSpace(t)
}
