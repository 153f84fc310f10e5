package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"
)

const (
	// DefaultAnthropicModel is used when no model is configured.
	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"

	anthropicMaxTokens = 8192
)

// AnthropicClient talks to the Anthropic Messages API.
type AnthropicClient struct {
	client *anthropic.Client
	model  string
	logger *zap.Logger
}

var _ LLMClient = (*AnthropicClient)(nil)

// NewAnthropicClient creates a client. An empty endpoint uses the public API.
func NewAnthropicClient(cfg *ProviderConfig, logger *zap.Logger) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultAnthropicModel
	}

	var opts []anthropic.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimSuffix(cfg.Endpoint, "/")))
	}

	return &AnthropicClient{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  model,
		logger: logger.Named("anthropic"),
	}, nil
}

// buildAnthropicRequest translates a Request into a Messages request. The
// schema travels in the prompt because the Messages API has no JSON mode.
func buildAnthropicRequest(model string, req *Request) (anthropic.MessagesRequest, error) {
	prompt := req.Prompt + req.Schema.PromptInstructions()

	content := make([]anthropic.MessageContent, 0, len(req.Attachments)+1)
	for _, a := range req.Attachments {
		if !a.IsImage() {
			return anthropic.MessagesRequest{}, &Error{
				Type:     ErrorTypeRequest,
				Message:  fmt.Sprintf("attachment type %s is not supported", a.MIMEType),
				Provider: "anthropic",
				Model:    model,
			}
		}
		content = append(content, anthropic.NewImageMessageContent(anthropic.NewMessageContentSource(
			anthropic.MessagesContentSourceTypeBase64,
			a.MIMEType,
			base64.StdEncoding.EncodeToString(a.Data),
		)))
	}
	content = append(content, anthropic.MessageContent{Type: "text", Text: &prompt})

	temperature := float32(req.Temperature)
	return anthropic.MessagesRequest{
		Model:       anthropic.Model(model),
		System:      req.SystemMessage,
		MaxTokens:   anthropicMaxTokens,
		Temperature: &temperature,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: content},
		},
	}, nil
}

// Generate implements LLMClient. WebSearch is ignored.
func (c *AnthropicClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	msgReq, err := buildAnthropicRequest(c.model, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("Anthropic request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("attachments", len(req.Attachments)))

	start := time.Now()
	resp, err := c.client.CreateMessages(ctx, msgReq)
	if err != nil {
		c.logger.Error("Anthropic request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, withContext(err, "anthropic", c.model)
	}

	text := extractTextFromResponse(resp)
	if text == "" {
		return nil, &Error{Type: ErrorTypeResponse, Message: "empty response", Retryable: true, Provider: "anthropic", Model: c.model}
	}

	c.logger.Info("Anthropic request completed",
		zap.Int("prompt_tokens", resp.Usage.InputTokens),
		zap.Int("completion_tokens", resp.Usage.OutputTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{
		Content:          text,
		PromptTokens:     resp.Usage.InputTokens,
		CompletionTokens: resp.Usage.OutputTokens,
	}, nil
}

// extractTextFromResponse joins the text blocks of a Messages response.
func extractTextFromResponse(resp anthropic.MessagesResponse) string {
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			sb.WriteString(*block.Text)
		}
	}
	return sb.String()
}

// GetModel returns the configured model name.
func (c *AnthropicClient) GetModel() string {
	return c.model
}
