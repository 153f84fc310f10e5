package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gradpath/gradpath-engine/pkg/archive"
	"github.com/gradpath/gradpath-engine/pkg/config"
	"github.com/gradpath/gradpath-engine/pkg/llm"
	"github.com/gradpath/gradpath-engine/pkg/models"
	"github.com/gradpath/gradpath-engine/pkg/persistence"
	"github.com/gradpath/gradpath-engine/pkg/repositories"
	"github.com/gradpath/gradpath-engine/pkg/services"
	"github.com/gradpath/gradpath-engine/pkg/services/workqueue"
)

// testServer wires every handler over an in-memory workspace.
type testServer struct {
	mux       *http.ServeMux
	workspace *repositories.Workspace
	tracker   *workqueue.Tracker
}

// newTestServer builds a server. Pass a nil client to simulate a missing API key.
func newTestServer(t *testing.T, client llm.LLMClient) *testServer {
	t.Helper()
	logger := zap.NewNop()

	adapter := persistence.NewAdapter(persistence.NewMemoryStore(), "test", false, logger)
	ws := repositories.NewWorkspace(adapter, logger)
	ws.Load(context.Background())

	tracker := workqueue.New(logger)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = tracker.Shutdown(ctx)
	})

	importer := services.NewImportService(ws, client, archive.Noop{}, logger)
	documents := services.NewDocumentService(ws, client, logger)
	search := services.NewFacultySearchService(ws, ws, client, true, logger)
	assistant := services.NewAssistantService(ws, client, true, logger)

	cfg := &config.Config{Version: "test-version", Env: "test"}
	cfg.Storage.Backend = config.StorageMemory

	mux := http.NewServeMux()
	NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	NewWorkspaceHandler(ws, logger).RegisterRoutes(mux)
	NewClientsHandler(ws, importer, documents, tracker, logger).RegisterRoutes(mux)
	NewFacultyHandler(ws, search, tracker, logger).RegisterRoutes(mux)
	NewFacultySearchHandler(search, tracker, logger).RegisterRoutes(mux)
	NewAssistantHandler(assistant, logger).RegisterRoutes(mux)
	NewTasksHandler(tracker, logger).RegisterRoutes(mux)

	return &testServer{mux: mux, workspace: ws, tracker: tracker}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

// decodeData unwraps the success envelope into T.
func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.True(t, envelope.Success, rec.Body.String())
	var out T
	require.NoError(t, json.Unmarshal(envelope.Data, &out))
	return out
}

// decodeErrorCode returns the error code of an error response.
func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	code, _ := body["error"].(string)
	return code
}

// waitTask decodes a 202 task handle and blocks until the task finishes.
func (s *testServer) waitTask(t *testing.T, rec *httptest.ResponseRecorder) workqueue.TaskSnapshot {
	t.Helper()
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	handle := decodeData[workqueue.TaskSnapshot](t, rec)
	require.NotEmpty(t, handle.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	snap, err := s.tracker.Wait(ctx, handle.ID)
	require.NoError(t, err)
	return snap
}

func (s *testServer) createClient(t *testing.T, name string) *models.Client {
	t.Helper()
	c, err := s.workspace.Create(context.Background(), &models.NewClientInput{
		Name:      name,
		GPA:       "3.8/4.0",
		Interests: "machine learning",
	})
	require.NoError(t, err)
	return c
}

func (s *testServer) addFaculty(t *testing.T, name, university, country string) string {
	t.Helper()
	id, err := s.workspace.AddManual(context.Background(), &models.FacultyRecordInput{
		FacultyMember: models.FacultyMember{Name: name, University: university, ResearchAreas: []string{"robotics"}},
		Country:       country,
		FieldCategory: "Computer Science",
	})
	require.NoError(t, err)
	return id
}

// respondWith returns a mock whose every call returns content.
func respondWith(content string, sources ...llm.Source) *llm.MockLLMClient {
	m := llm.NewMockLLMClient()
	m.GenerateFunc = func(ctx context.Context, req *llm.Request) (*llm.Response, error) {
		return &llm.Response{Content: content, Sources: sources}, nil
	}
	return m
}
