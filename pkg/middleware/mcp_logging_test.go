package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMCPToolLogger(t *testing.T) {
	tests := []struct {
		name        string
		request     string
		response    string
		wantLogs    []string
		wantLevel   zapcore.Level
		wantRedacts bool
	}{
		{
			name:      "successful tool call",
			request:   `{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"list_clients","arguments":{"status":"active"}}}`,
			response:  `{"jsonrpc":"2.0","id":1,"result":{"content":[{"type":"text","text":"[]"}]}}`,
			wantLogs:  []string{"MCP tool call", "MCP tool call finished"},
			wantLevel: zapcore.DebugLevel,
		},
		{
			name:      "tool result error",
			request:   `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"get_client","arguments":{"client_id":"x"}}}`,
			response:  `{"jsonrpc":"2.0","id":2,"result":{"isError":true,"content":[{"type":"text","text":"not found"}]}}`,
			wantLogs:  []string{"MCP tool call", "MCP tool returned error"},
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:      "protocol error",
			request:   `{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"nope"}}`,
			response:  `{"jsonrpc":"2.0","id":3,"error":{"code":-32602,"message":"unknown tool"}}`,
			wantLogs:  []string{"MCP tool call", "MCP tool call failed"},
			wantLevel: zapcore.InfoLevel,
		},
		{
			name:        "personal fields redacted",
			request:     `{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"link_faculty_to_client","arguments":{"notes":"private","faculty_id":"f1"}}}`,
			response:    `{"jsonrpc":"2.0","id":4,"result":{"content":[]}}`,
			wantLogs:    []string{"MCP tool call", "MCP tool call finished"},
			wantLevel:   zapcore.DebugLevel,
			wantRedacts: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			var seenBody string
			handler := MCPToolLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				b, _ := io.ReadAll(r.Body)
				seenBody = string(b)
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(tt.response))
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(tt.request)))

			assert.Equal(t, tt.request, seenBody, "body is restored for the next handler")
			assert.Equal(t, tt.response, rec.Body.String())

			require.Equal(t, len(tt.wantLogs), logs.Len())
			for i, msg := range tt.wantLogs {
				assert.Equal(t, msg, logs.All()[i].Message)
			}
			assert.Equal(t, tt.wantLevel, logs.All()[1].Level)

			if tt.wantRedacts {
				args, ok := logs.All()[0].ContextMap()["arguments"].(map[string]any)
				require.True(t, ok)
				assert.Equal(t, "[REDACTED]", args["notes"])
				assert.Equal(t, "f1", args["faculty_id"])
			}
		})
	}
}

func TestMCPToolLogger_IgnoresNonToolMethods(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	handler := MCPToolLogger(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/mcp",
		strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)))

	assert.Equal(t, 0, logs.Len())
}

func TestRedactArguments(t *testing.T) {
	long := strings.Repeat("x", 300)

	got := redactArguments(map[string]any{
		"client_id":   "c1",
		"Contact":     "+86 138 0000 0000",
		"content":     "draft",
		"query":       long,
		"max_results": 5,
	})

	assert.Equal(t, "c1", got["client_id"])
	assert.Equal(t, "[REDACTED]", got["Contact"])
	assert.Equal(t, "[REDACTED]", got["content"])
	assert.Equal(t, long[:maxLoggedValue]+"...", got["query"])
	assert.Equal(t, 5, got["max_results"])
	assert.Nil(t, redactArguments(nil))
}
