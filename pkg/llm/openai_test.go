package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

func TestBuildOpenAIRequest_SchemaAndImage(t *testing.T) {
	req := &Request{
		SystemMessage: "You are an admissions consultant.",
		Prompt:        "Extract the student profile.",
		Temperature:   0.2,
		Attachments:   []Attachment{{MIMEType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}},
		Schema:        Object(map[string]*Schema{"name": String("full name")}, "name"),
	}

	out, err := buildOpenAIRequest("gpt-4o", req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Messages) != 2 || out.Messages[0].Role != openai.ChatMessageRoleSystem {
		t.Fatalf("expected system + user messages, got %+v", out.Messages)
	}
	parts := out.Messages[1].MultiContent
	if len(parts) != 2 || parts[1].Type != openai.ChatMessagePartTypeImageURL {
		t.Fatalf("expected text + image parts, got %+v", parts)
	}
	if !strings.HasPrefix(parts[1].ImageURL.URL, "data:image/png;base64,") {
		t.Errorf("expected data URL, got %q", parts[1].ImageURL.URL)
	}
	if out.ResponseFormat == nil || out.ResponseFormat.Type != openai.ChatCompletionResponseFormatTypeJSONSchema {
		t.Errorf("expected json_schema response format, got %+v", out.ResponseFormat)
	}
}

func TestBuildOpenAIRequest_RejectsNonImageAttachment(t *testing.T) {
	_, err := buildOpenAIRequest("gpt-4o", &Request{
		Attachments: []Attachment{{MIMEType: "application/msword", Data: []byte("doc")}},
	})
	if GetErrorType(err) != ErrorTypeRequest {
		t.Errorf("expected request error, got %v", err)
	}
	if IsRetryable(err) {
		t.Error("unsupported attachments must not be retried")
	}
}

func TestOpenAIClient_Generate(t *testing.T) {
	var received openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"model": "gpt-4o",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"field\": \"CS\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
		}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(&ProviderConfig{Endpoint: server.URL + "/v1/", APIKey: "test"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	resp, err := client.Generate(context.Background(), &Request{Prompt: "parse this", Temperature: 0.3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Content != `{"field": "CS"}` {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.PromptTokens != 12 || resp.CompletionTokens != 5 {
		t.Errorf("unexpected usage %+v", resp)
	}
	if received.Model != DefaultOpenAIModel {
		t.Errorf("expected default model, got %q", received.Model)
	}
	if client.GetEndpoint() != server.URL+"/v1" {
		t.Errorf("expected trailing slash trimmed, got %q", client.GetEndpoint())
	}
}

func TestOpenAIClient_Generate_ClassifiesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	}))
	defer server.Close()

	client, err := NewOpenAIClient(&ProviderConfig{Endpoint: server.URL, APIKey: "test", Model: "gpt-4o-mini"}, zap.NewNop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = client.Generate(context.Background(), &Request{Prompt: "x"})
	llmErr := ClassifyError(err)
	if llmErr.Type != ErrorTypeRateLimited || !llmErr.Retryable {
		t.Errorf("expected retryable rate limit, got %v", err)
	}
	if llmErr.Provider != "openai" || llmErr.Model != "gpt-4o-mini" {
		t.Errorf("expected provider context, got %+v", llmErr)
	}
}
