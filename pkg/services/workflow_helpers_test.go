package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/persistence"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
)

// newWorkflowWorkspace returns a loaded, unseeded workspace over an in-memory store.
func newWorkflowWorkspace(t *testing.T) *repositories.Workspace {
	t.Helper()
	adapter := persistence.NewAdapter(persistence.NewMemoryStore(), "test", false, zap.NewNop())
	w := repositories.NewWorkspace(adapter, zap.NewNop())
	w.Load(context.Background())
	return w
}

func createWorkflowClient(t *testing.T, w *repositories.Workspace, name string) *models.Client {
	t.Helper()
	c, err := w.Create(context.Background(), &models.NewClientInput{
		Name:      name,
		GPA:       "3.7/4.0",
		Interests: "robotics",
	})
	require.NoError(t, err)
	return c
}

// respondWith returns a mock whose every call returns content and sources.
func respondWith(content string, sources ...llm.Source) *llm.MockLLMClient {
	m := llm.NewMockLLMClient()
	m.GenerateFunc = func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content, Sources: sources, PromptTokens: 10, CompletionTokens: 20}, nil
	}
	return m
}
