package llm

import (
	"context"
	"sync"
)

// MockLLMClient is a configurable mock for testing AI workflows.
// Set GenerateFunc to control behavior in tests.
type MockLLMClient struct {
	// GenerateFunc is called when Generate is invoked.
	// If nil, returns an empty response and nil error.
	GenerateFunc func(ctx context.Context, req *Request) (*Response, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	mu            sync.Mutex
	GenerateCalls int
	Requests      []*Request
}

var _ LLMClient = (*MockLLMClient)(nil)

// NewMockLLMClient creates a new mock with sensible defaults.
func NewMockLLMClient() *MockLLMClient {
	return &MockLLMClient{Model: "mock-model"}
}

// NewMockWithResponse returns a mock that always answers with content.
func NewMockWithResponse(content string) *MockLLMClient {
	m := NewMockLLMClient()
	m.GenerateFunc = func(ctx context.Context, req *Request) (*Response, error) {
		return &Response{Content: content}, nil
	}
	return m
}

// Generate implements LLMClient.
func (m *MockLLMClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	m.mu.Lock()
	m.GenerateCalls++
	m.Requests = append(m.Requests, req)
	fn := m.GenerateFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, req)
	}
	return &Response{}, nil
}

// GetModel implements LLMClient.
func (m *MockLLMClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Calls returns the number of Generate calls so far.
func (m *MockLLMClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GenerateCalls
}

// LastRequest returns the most recent request, or nil.
func (m *MockLLMClient) LastRequest() *Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Requests) == 0 {
		return nil
	}
	return m.Requests[len(m.Requests)-1]
}
