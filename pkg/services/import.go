package services

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/archive"
	"github.com/gradpath/gradpath-engine/pkg/extract"
	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/prompts"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
)

// ImportService turns an uploaded resume, transcript or intake form into a new client.
type ImportService interface {
	// ParseFile extracts a client draft from the file without saving it.
	// The original file is archived first when an archive is configured.
	ParseFile(ctx context.Context, filename, mimeType string, data []byte) (*models.NewClientInput, error)

	// ImportClient parses the file and creates the client.
	ImportClient(ctx context.Context, filename, mimeType string, data []byte) (*models.Client, error)

	// SourceFile returns the archived original a client was imported from
	// and its file name.
	SourceFile(ctx context.Context, clientID string) ([]byte, string, error)
}

type importService struct {
	clients repositories.ClientRepository
	llm     llm.LLMClient
	archive archive.Archive
	logger  *zap.Logger
	now     func() time.Time
}

var _ ImportService = (*importService)(nil)

// NewImportService creates an import service. client may be nil when no AI
// provider is configured; store may be nil to skip archiving.
func NewImportService(
	clients repositories.ClientRepository,
	client llm.LLMClient,
	store archive.Archive,
	logger *zap.Logger,
) ImportService {
	if store == nil {
		store = archive.Noop{}
	}
	return &importService{
		clients: clients,
		llm:     client,
		archive: store,
		logger:  logger.Named("import"),
		now:     time.Now,
	}
}

func (s *importService) ParseFile(ctx context.Context, filename, mimeType string, data []byte) (*models.NewClientInput, error) {
	doc, err := extract.Prepare(filename, mimeType, data)
	if err != nil {
		return nil, err
	}
	if s.llm == nil {
		return nil, apperrors.ErrAIUnavailable
	}

	var archiveKey string
	if s.archive.Enabled() {
		key := archive.ImportKey(s.now(), filename)
		if err := s.archive.Put(ctx, key, doc.MIMEType, data); err != nil {
			// The import itself still succeeds without the archived copy.
			s.logger.Warn("Failed to archive imported file",
				zap.String("filename", filename),
				zap.Error(err))
		} else {
			archiveKey = key
		}
	}

	req := &llm.Request{
		SystemMessage: prompts.ImportSystemMessage,
		Prompt:        prompts.BuildImportPrompt(filename, doc.Text),
		Temperature:   0.1,
		Schema:        prompts.ClientDraftSchema(),
	}
	if doc.Attachment != nil {
		req.Attachments = []llm.Attachment{*doc.Attachment}
	}

	draft, resp, err := llm.GenerateJSON[prompts.ClientDraft](ctx, s.llm, req)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	input := draft.ToInput()
	if strings.TrimSpace(input.Name) == "" {
		return nil, fmt.Errorf("%w: no student name found in %s", apperrors.ErrInvalidInput, filename)
	}
	input.SourceFileKey = archiveKey

	s.logger.Info("Parsed client file",
		zap.String("filename", filename),
		zap.String("kind", string(doc.Kind)),
		zap.Bool("attached", doc.Attachment != nil),
		zap.Int("educations", len(input.Educations)),
		zap.Int("prompt_tokens", resp.PromptTokens),
		zap.Int("completion_tokens", resp.CompletionTokens))

	return input, nil
}

func (s *importService) ImportClient(ctx context.Context, filename, mimeType string, data []byte) (*models.Client, error) {
	input, err := s.ParseFile(ctx, filename, mimeType, data)
	if err != nil {
		return nil, err
	}
	return s.clients.Create(ctx, input)
}

func (s *importService) SourceFile(ctx context.Context, clientID string) ([]byte, string, error) {
	c, err := s.clients.Get(ctx, clientID)
	if err != nil {
		return nil, "", err
	}
	if c.SourceFileKey == "" {
		return nil, "", fmt.Errorf("%w: client %s has no archived source file", apperrors.ErrNotFound, clientID)
	}
	data, err := s.archive.Get(ctx, c.SourceFileKey)
	if err != nil {
		return nil, "", err
	}
	return data, path.Base(c.SourceFileKey), nil
}
