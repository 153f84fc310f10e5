package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/archive"
	"github.com/gradpath/gradpath-engine/pkg/config"
	"github.com/gradpath/gradpath-engine/pkg/handlers"
	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/logging"
	"github.com/gradpath/gradpath-engine/pkg/mcp"
	"github.com/gradpath/gradpath-engine/pkg/mcp/tools"
	"github.com/gradpath/gradpath-engine/pkg/middleware"
	"github.com/gradpath/gradpath-engine/pkg/persistence"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
	"github.com/gradpath/gradpath-engine/pkg/services"
	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
	"github.com/gradpath/gradpath-engine/ui"
)

// loadConfig reads configuration and builds the logger it asks for.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(version)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

// openWorkspace opens the configured store and loads the workspace from it.
// The caller closes the returned adapter.
func openWorkspace(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repositories.Workspace, *persistence.Adapter, error) {
	store, err := persistence.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	adapter := persistence.NewAdapter(store, cfg.Storage.KeyPrefix, cfg.Storage.SeedSampleClients, logger)

	ws := repositories.NewWorkspace(adapter, logger)
	ws.Load(ctx)
	return ws, adapter, nil
}

// newLLMClient returns nil when no provider can be built; the AI-backed
// operations then fail with ErrAIUnavailable while the rest keeps working.
func newLLMClient(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) llm.LLMClient {
	client, err := llm.NewClient(ctx, cfg, logger)
	switch {
	case errors.Is(err, apperrors.ErrAIUnavailable):
		logger.Warn("No AI API key configured; import, search, documents and assistant are disabled")
		return nil
	case err != nil:
		logger.Error("Failed to create AI client; AI features are disabled", zap.Error(err))
		return nil
	}
	return client
}

// app is everything the HTTP surface needs.
type app struct {
	cfg       *config.Config
	workspace *repositories.Workspace
	llm       llm.LLMClient
	archive   archive.Archive
	tracker   *workqueue.Tracker
	logger    *zap.Logger
}

// routes builds the full handler: REST API, MCP endpoint and web UI.
func (a *app) routes() http.Handler {
	webSearch := a.cfg.AI.WebSearch

	importer := services.NewImportService(a.workspace, a.llm, a.archive, a.logger)
	documents := services.NewDocumentService(a.workspace, a.llm, a.logger)
	search := services.NewFacultySearchService(a.workspace, a.workspace, a.llm, webSearch, a.logger)
	assistant := services.NewAssistantService(a.workspace, a.llm, webSearch, a.logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(a.cfg, a.logger).RegisterRoutes(mux)
	handlers.NewWorkspaceHandler(a.workspace, a.logger).RegisterRoutes(mux)
	handlers.NewTasksHandler(a.tracker, a.logger).RegisterRoutes(mux)
	handlers.NewClientsHandler(a.workspace, importer, documents, a.tracker, a.logger).RegisterRoutes(mux)
	handlers.NewFacultyHandler(a.workspace, search, a.tracker, a.logger).RegisterRoutes(mux)
	handlers.NewFacultySearchHandler(search, a.tracker, a.logger).RegisterRoutes(mux)
	handlers.NewAssistantHandler(assistant, a.logger).RegisterRoutes(mux)

	mcpServer := mcp.NewServer(a.cfg.Version, &tools.WorkspaceToolDeps{
		Clients:     a.workspace,
		Faculty:     a.workspace,
		AIAvailable: a.llm != nil,
	}, a.logger)
	mux.Handle("/mcp", mcpServer.Handler())

	mux.Handle("/", ui.Handler(ui.DistFS()))

	var h http.Handler = mux
	h = middleware.Recoverer(a.logger)(h)
	h = middleware.RequestLogger(a.logger)(h)
	return h
}
