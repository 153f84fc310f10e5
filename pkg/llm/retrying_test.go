package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/retry"
)

func fastRetry(n int) *retry.Config {
	return &retry.Config{MaxRetries: n, InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
}

func TestRetryingClient_RetriesRetryableErrors(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateFunc = func(ctx context.Context, req *Request) (*Response, error) {
		if len(mock.Requests) < 3 {
			return nil, NewError(ErrorTypeEndpoint, "server error", true, nil)
		}
		return &Response{Content: "ok"}, nil
	}

	client := NewRetryingClient(mock, RetryPolicy{Retry: fastRetry(3)}, zap.NewNop())
	resp, err := client.Generate(context.Background(), &Request{Prompt: "hi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != "ok" {
		t.Errorf("expected ok, got %q", resp.Content)
	}
	if mock.Calls() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.Calls())
	}
}

func TestRetryingClient_DoesNotRetryPermanentErrors(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateFunc = func(ctx context.Context, req *Request) (*Response, error) {
		return nil, NewError(ErrorTypeAuth, "authentication failed", false, nil)
	}

	client := NewRetryingClient(mock, RetryPolicy{Retry: fastRetry(3)}, zap.NewNop())
	_, err := client.Generate(context.Background(), &Request{})
	if GetErrorType(err) != ErrorTypeAuth {
		t.Errorf("expected auth error, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.Calls())
	}
}

func TestRetryingClient_AppliesAttemptTimeout(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateFunc = func(ctx context.Context, req *Request) (*Response, error) {
		if _, ok := ctx.Deadline(); !ok {
			return nil, errors.New("expected a deadline")
		}
		return &Response{Content: "ok"}, nil
	}

	client := NewRetryingClient(mock, RetryPolicy{Timeout: time.Second}, zap.NewNop())
	if _, err := client.Generate(context.Background(), &Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRetryingClient_CancelledContextStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	mock := NewMockLLMClient()
	mock.GenerateFunc = func(ctx context.Context, req *Request) (*Response, error) {
		cancel()
		return nil, ClassifyError(ctx.Err())
	}

	client := NewRetryingClient(mock, RetryPolicy{Retry: fastRetry(5)}, zap.NewNop())
	_, err := client.Generate(ctx, &Request{})
	if GetErrorType(err) != ErrorTypeCanceled {
		t.Errorf("expected canceled error, got %v", err)
	}
	if mock.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", mock.Calls())
	}
}

func TestRetryingClient_BreakerFailsFast(t *testing.T) {
	mock := NewMockLLMClient()
	mock.GenerateFunc = func(ctx context.Context, req *Request) (*Response, error) {
		return nil, NewError(ErrorTypeEndpoint, "connection failed", true, nil)
	}

	breaker := NewCircuitBreaker(CircuitBreakerConfig{Threshold: 2, ResetAfter: time.Hour})
	client := NewRetryingClient(mock, RetryPolicy{Breaker: breaker}, zap.NewNop())

	for i := 0; i < 2; i++ {
		if _, err := client.Generate(context.Background(), &Request{}); err == nil {
			t.Fatal("expected error")
		}
	}

	_, err := client.Generate(context.Background(), &Request{})
	if GetErrorType(err) != ErrorTypeUnavailable {
		t.Errorf("expected unavailable error, got %v", err)
	}
	if mock.Calls() != 2 {
		t.Errorf("expected open circuit to skip the provider, got %d calls", mock.Calls())
	}
}
