package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/archive"
	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the workspace server.

The server exposes the REST API under /api, the MCP endpoint at /mcp,
health checks at /health and /ping, and the web UI at /.

On SIGINT or SIGTERM the server stops accepting requests, cancels running
tasks and writes the workspace back to storage before exiting.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("max-tasks", workqueue.DefaultMaxConcurrent, "Maximum number of background tasks running at once")
	rootCmd.Flags().AddFlagSet(serveCmd.Flags())
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	maxTasks, err := cmd.Flags().GetInt("max-tasks")
	if err != nil {
		return fmt.Errorf("getting max-tasks flag: %w", err)
	}

	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.String("storage", cfg.Storage.Backend),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.Bool("ai_available", cfg.AI.IsAvailable()),
		zap.Bool("archive_enabled", cfg.Archive.IsEnabled()))

	ws, adapter, err := openWorkspace(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := adapter.Close(); err != nil {
			logger.Error("Failed to close storage", zap.Error(err))
		}
	}()

	store, err := archive.New(ctx, &cfg.Archive, logger)
	if err != nil {
		logger.Error("Failed to configure upload archive; uploads will not be archived", zap.Error(err))
		store = archive.Noop{}
	}

	tracker := workqueue.New(logger, workqueue.WithMaxConcurrent(int64(maxTasks)))

	a := &app{
		cfg:       cfg,
		workspace: ws,
		llm:       newLLMClient(ctx, &cfg.AI, logger),
		archive:   store,
		tracker:   tracker,
		logger:    logger,
	}

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           a.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting gradpath-engine",
			zap.String("addr", srv.Addr),
			zap.String("version", cfg.Version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if err := tracker.Shutdown(shutdownCtx); err != nil {
		logger.Error("Background tasks did not stop in time", zap.Error(err))
	}
	ws.Flush(shutdownCtx)
	logger.Info("Shutdown complete")
	return nil
}
