package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/apperrors"
	"github.com/gradpath/gradpath-engine/pkg/config"
	"github.com/gradpath/gradpath-engine/pkg/retry"
)

// ProviderConfig holds what every provider client needs.
type ProviderConfig struct {
	Endpoint string // Base URL override; empty uses the provider default
	Model    string // Model name; empty uses the provider default
	APIKey   string
}

// NewClient builds the configured provider client wrapped with retries, a
// per-attempt timeout and a circuit breaker. It returns apperrors.ErrAIUnavailable
// when no API key is set, so the rest of the app can run without AI.
func NewClient(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (LLMClient, error) {
	if !cfg.IsAvailable() {
		return nil, apperrors.ErrAIUnavailable
	}

	pc := &ProviderConfig{
		Endpoint: cfg.Endpoint,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
	}

	var (
		client LLMClient
		err    error
	)
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err = NewGeminiClient(ctx, pc, logger)
	case config.ProviderOpenAI:
		client, err = NewOpenAIClient(pc, logger)
	case config.ProviderAnthropic:
		client, err = NewAnthropicClient(pc, logger)
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s client: %w", cfg.Provider, err)
	}

	logger.Info("AI provider configured",
		zap.String("provider", cfg.Provider),
		zap.String("model", client.GetModel()),
		zap.Int("max_retries", cfg.MaxRetries))

	return NewRetryingClient(client, RetryPolicy{
		Retry:   retry.AIConfig(cfg.MaxRetries),
		Timeout: cfg.Timeout(),
		Breaker: NewCircuitBreaker(DefaultCircuitBreakerConfig()),
	}, logger), nil
}
