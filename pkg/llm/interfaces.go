// Package llm is the generative AI collaborator: provider clients for Gemini,
// OpenAI and Anthropic behind one request/response interface.
package llm

import (
	"context"
	"strings"
)

// LLMClient defines the interface for AI generation.
// Use this interface for dependency injection to enable mocking in tests.
type LLMClient interface {
	// Generate sends one request and returns the model's text.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// GetModel returns the configured model name.
	GetModel() string
}

// Attachment is a file passed to the model alongside the prompt.
type Attachment struct {
	MIMEType string
	Data     []byte
}

// IsImage reports whether the attachment is an image.
func (a Attachment) IsImage() bool {
	return strings.HasPrefix(a.MIMEType, "image/")
}

// Request is a single generation call.
type Request struct {
	SystemMessage string
	Prompt        string
	Temperature   float64
	Attachments   []Attachment

	// WebSearch asks the provider to ground the answer with live search.
	// Providers without a search tool ignore it.
	WebSearch bool

	// Schema, when set, asks for a JSON response of this shape.
	Schema *Schema
}

// Source is a web page the model cited while grounding its answer.
type Source struct {
	Title string `json:"title,omitempty"`
	URI   string `json:"uri"`
}

// Response is the model output plus token usage.
type Response struct {
	Content          string
	Sources          []Source
	PromptTokens     int
	CompletionTokens int
}
