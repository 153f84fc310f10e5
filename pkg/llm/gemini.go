package llm

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiClient talks to the Gemini API. It is the only provider that supports
// Google Search grounding.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

var _ LLMClient = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini client. An empty endpoint uses the public API.
func NewGeminiClient(ctx context.Context, cfg *ProviderConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultGeminiModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.Endpoint}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  model,
		logger: logger.Named("gemini"),
	}, nil
}

// buildGeminiRequest translates a Request into Gemini contents and config.
// Search grounding and a response schema cannot be combined, so a grounded
// request carries its schema in the prompt instead.
func buildGeminiRequest(req *Request) ([]*genai.Content, *genai.GenerateContentConfig) {
	prompt := req.Prompt
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(req.Temperature)),
	}
	if req.SystemMessage != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemMessage, genai.RoleUser)
	}

	switch {
	case req.WebSearch:
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
		prompt += req.Schema.PromptInstructions()
	case req.Schema != nil:
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = req.Schema.ToGenai()
	}

	parts := make([]*genai.Part, 0, len(req.Attachments)+1)
	for _, a := range req.Attachments {
		parts = append(parts, genai.NewPartFromBytes(a.Data, a.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}, cfg
}

// Generate implements LLMClient.
func (c *GeminiClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	contents, cfg := buildGeminiRequest(req)

	c.logger.Debug("Gemini request",
		zap.String("model", c.model),
		zap.Int("prompt_len", len(req.Prompt)),
		zap.Int("attachments", len(req.Attachments)),
		zap.Bool("web_search", req.WebSearch))

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
	if err != nil {
		c.logger.Error("Gemini request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, withContext(err, "gemini", c.model)
	}

	text := resp.Text()
	if text == "" {
		return nil, &Error{Type: ErrorTypeResponse, Message: "empty response", Retryable: true, Provider: "gemini", Model: c.model}
	}

	out := &Response{
		Content: text,
		Sources: groundingSources(resp),
	}
	if resp.UsageMetadata != nil {
		out.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	c.logger.Info("Gemini request completed",
		zap.Int("prompt_tokens", out.PromptTokens),
		zap.Int("completion_tokens", out.CompletionTokens),
		zap.Int("sources", len(out.Sources)),
		zap.Duration("elapsed", time.Since(start)))

	return out, nil
}

// groundingSources collects the distinct web pages cited by the first candidate.
func groundingSources(resp *genai.GenerateContentResponse) []Source {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}
	seen := make(map[string]bool)
	var sources []Source
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		sources = append(sources, Source{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return sources
}

// GetModel returns the configured model name.
func (c *GeminiClient) GetModel() string {
	return c.model
}
