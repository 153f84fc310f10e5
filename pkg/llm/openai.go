package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o"

// OpenAIClient provides access to OpenAI-compatible chat completion endpoints.
type OpenAIClient struct {
	client   *openai.Client
	endpoint string
	model    string
	logger   *zap.Logger
}

var _ LLMClient = (*OpenAIClient)(nil)

// NewOpenAIClient creates a client. An empty endpoint uses the OpenAI API.
func NewOpenAIClient(cfg *ProviderConfig, logger *zap.Logger) (*OpenAIClient, error) {
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.Endpoint != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.Endpoint, "/")
	}

	return &OpenAIClient{
		client:   openai.NewClientWithConfig(clientConfig),
		endpoint: clientConfig.BaseURL,
		model:    model,
		logger:   logger.Named("openai"),
	}, nil
}

// buildOpenAIRequest translates a Request into a chat completion request.
// Only image attachments can be sent; other files must be converted to text first.
func buildOpenAIRequest(model string, req *Request) (openai.ChatCompletionRequest, error) {
	var messages []openai.ChatCompletionMessage
	if req.SystemMessage != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemMessage,
		})
	}

	user := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}
	if len(req.Attachments) == 0 {
		user.Content = req.Prompt
	} else {
		user.MultiContent = []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: req.Prompt}}
		for _, a := range req.Attachments {
			if !a.IsImage() {
				return openai.ChatCompletionRequest{}, &Error{
					Type:     ErrorTypeRequest,
					Message:  fmt.Sprintf("attachment type %s is not supported", a.MIMEType),
					Provider: "openai",
					Model:    model,
				}
			}
			user.MultiContent = append(user.MultiContent, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: "data:" + a.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(a.Data),
				},
			})
		}
	}
	messages = append(messages, user)

	out := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
	}
	if req.Schema != nil {
		def := req.Schema.ToJSONSchema()
		out.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "response",
				Schema: &def,
				Strict: false,
			},
		}
	}
	return out, nil
}

// Generate implements LLMClient. WebSearch is ignored: chat completions have no
// search tool, so answers come from model knowledge only.
func (c *OpenAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	chatReq, err := buildOpenAIRequest(c.model, req)
	if err != nil {
		return nil, err
	}

	c.logger.Debug("OpenAI request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Float64("temperature", req.Temperature))

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		c.logger.Error("OpenAI request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, withContext(err, "openai", c.model)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return nil, &Error{Type: ErrorTypeResponse, Message: "no choices in response", Retryable: true, Provider: "openai", Model: c.model}
	}

	c.logger.Info("OpenAI request completed",
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("elapsed", time.Since(start)))

	return &Response{
		Content:          resp.Choices[0].Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}, nil
}

// GetModel returns the configured model name.
func (c *OpenAIClient) GetModel() string {
	return c.model
}

// GetEndpoint returns the configured endpoint.
func (c *OpenAIClient) GetEndpoint() string {
	return c.endpoint
}
