package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/retry"
)

// RetryingClient wraps a provider client with per-attempt timeouts, backoff on
// retryable errors and an optional circuit breaker.
type RetryingClient struct {
	inner   LLMClient
	retry   *retry.Config
	timeout time.Duration
	breaker *CircuitBreaker
	logger  *zap.Logger
}

var _ LLMClient = (*RetryingClient)(nil)

// RetryPolicy configures a RetryingClient. Zero values disable the matching feature.
type RetryPolicy struct {
	Retry   *retry.Config
	Timeout time.Duration
	Breaker *CircuitBreaker
}

// NewRetryingClient wraps inner with policy.
func NewRetryingClient(inner LLMClient, policy RetryPolicy, logger *zap.Logger) *RetryingClient {
	cfg := policy.Retry
	if cfg == nil {
		cfg = &retry.Config{MaxRetries: 0}
	}
	return &RetryingClient{
		inner:   inner,
		retry:   cfg,
		timeout: policy.Timeout,
		breaker: policy.Breaker,
		logger:  logger.Named("llm-retry"),
	}
}

// Generate implements LLMClient.
func (c *RetryingClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if c.breaker != nil {
		if err := c.breaker.Allow(); err != nil {
			return nil, err
		}
	}

	attempt := 0
	resp, err := retry.DoIfRetryableWithResult(ctx, c.retry, func() (*Response, error) {
		attempt++
		if attempt > 1 {
			c.logger.Warn("Retrying AI request",
				zap.String("model", c.inner.GetModel()),
				zap.Int("attempt", attempt))
		}

		attemptCtx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}
		return c.inner.Generate(attemptCtx, req)
	})

	if c.breaker != nil {
		c.breaker.Record(err)
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// GetModel returns the wrapped client's model.
func (c *RetryingClient) GetModel() string {
	return c.inner.GetModel()
}
