package llm

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// ErrorType indicates what went wrong with an AI call.
type ErrorType string

const (
	ErrorTypeEndpoint    ErrorType = "endpoint"     // unreachable, timeout, 5xx
	ErrorTypeAuth        ErrorType = "auth"         // bad or missing API key
	ErrorTypeModel       ErrorType = "model"        // unknown model
	ErrorTypeRateLimited ErrorType = "rate_limited" // 429, quota, overloaded
	ErrorTypeRequest     ErrorType = "request"      // provider rejected the request
	ErrorTypeResponse    ErrorType = "response"     // empty or malformed output
	ErrorTypeUnavailable ErrorType = "unavailable"  // circuit open
	ErrorTypeCanceled    ErrorType = "canceled"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a structured AI error with classification.
type Error struct {
	Type       ErrorType // Classification of the error
	Message    string    // Human-readable message
	Retryable  bool      // Whether the operation can be retried
	Cause      error     // Underlying error
	StatusCode int       // HTTP status code if applicable
	Model      string    // Model name if known
	Provider   string    // Provider name if known
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}

	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}

	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new structured AI error.
func NewError(errType ErrorType, message string, retryable bool, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Retryable: retryable,
		Cause:     cause,
	}
}

// withContext stamps provider and model onto a classified error.
func withContext(err error, provider, model string) error {
	llmErr := ClassifyError(err)
	if llmErr == nil {
		return nil
	}
	if llmErr.Provider == "" {
		llmErr.Provider = provider
	}
	if llmErr.Model == "" {
		llmErr.Model = model
	}
	return llmErr
}

// statusCodePattern only trusts a number introduced as a status, so "processed
// 503 records" is not mistaken for a server error.
var statusCodePattern = regexp.MustCompile(`(?i)\b(?:http|status|code)[:\s]+([1-5]\d{2})\b`)

// extractStatusCode pulls an HTTP status out of an error message, or 0.
func extractStatusCode(s string) int {
	m := statusCodePattern.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0
	}
	code, _ := strconv.Atoi(m[1])
	return code
}

// statusCode returns the HTTP status behind err, preferring the typed errors of
// the provider SDKs over scanning the message.
func statusCode(err error) int {
	var oaAPI *openai.APIError
	if errors.As(err, &oaAPI) && oaAPI.HTTPStatusCode > 0 {
		return oaAPI.HTTPStatusCode
	}
	var oaReq *openai.RequestError
	if errors.As(err, &oaReq) && oaReq.HTTPStatusCode > 0 {
		return oaReq.HTTPStatusCode
	}
	var gAPI genai.APIError
	if errors.As(err, &gAPI) && gAPI.Code > 0 {
		return gAPI.Code
	}
	return extractStatusCode(err.Error())
}

// ClassifyError categorizes an error and returns a structured Error.
func ClassifyError(err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	code := statusCode(err)
	lower := strings.ToLower(err.Error())

	classified := func(t ErrorType, msg string, retryable bool) *Error {
		e := NewError(t, msg, retryable, err)
		e.StatusCode = code
		return e
	}

	switch {
	case errors.Is(err, context.Canceled), strings.Contains(lower, "context canceled"):
		return classified(ErrorTypeCanceled, "request canceled", false)
	case errors.Is(err, context.DeadlineExceeded),
		strings.Contains(lower, "timeout"), strings.Contains(lower, "deadline exceeded"):
		return classified(ErrorTypeEndpoint, "request timeout", true)
	}

	switch code {
	case 401, 403:
		return classified(ErrorTypeAuth, "authentication failed", false)
	case 404:
		if strings.Contains(lower, "model") {
			return classified(ErrorTypeModel, "model not found", false)
		}
		return classified(ErrorTypeEndpoint, "endpoint not found", false)
	case 408:
		return classified(ErrorTypeEndpoint, "request timeout", true)
	case 429:
		return classified(ErrorTypeRateLimited, "rate limited", true)
	case 400:
		return classified(ErrorTypeRequest, "request rejected", false)
	case 500, 502, 503, 504, 529:
		return classified(ErrorTypeEndpoint, "server error", true)
	}

	switch {
	case strings.Contains(lower, "unauthorized"), strings.Contains(lower, "invalid api key"),
		strings.Contains(lower, "api key not valid"), strings.Contains(lower, "authentication_error"):
		return classified(ErrorTypeAuth, "authentication failed", false)
	case strings.Contains(lower, "model") && (strings.Contains(lower, "not found") ||
		strings.Contains(lower, "does not exist")):
		return classified(ErrorTypeModel, "model not found", false)
	case strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"),
		strings.Contains(lower, "connection reset"):
		return classified(ErrorTypeEndpoint, "connection failed", true)
	case strings.Contains(lower, "rate limit"), strings.Contains(lower, "too many requests"),
		strings.Contains(lower, "resource exhausted"), strings.Contains(lower, "overloaded"):
		return classified(ErrorTypeRateLimited, "rate limited", true)
	}

	return classified(ErrorTypeUnknown, "ai request failed", false)
}

// IsRetryable returns true if the error is retryable.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
