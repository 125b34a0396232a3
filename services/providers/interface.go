package providers

import (
	"context"
	"errors"
	"time"
)

// Role values used in generation contents
const (
	RoleUser  = "user"
	RoleModel = "model"
)

// EmbeddingProvider turns text into a dense vector
type EmbeddingProvider interface {
	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string

	// Model returns the embedding model identifier
	Model() string

	// Embed returns the raw embedding for a single text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerationProvider produces text from role-tagged contents
type GenerationProvider interface {
	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string

	// Generate performs a single generation request
	Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error)
}

// GenerateRequest represents a unified generation request
type GenerateRequest struct {
	// Model overrides the provider's default model when set
	Model string `json:"model,omitempty"`

	// Contents in conversation order
	Contents []Content `json:"contents"`

	// Temperature controls randomness
	Temperature *float64 `json:"temperature,omitempty"`

	// MaxOutputTokens limits the response length
	MaxOutputTokens int `json:"max_output_tokens,omitempty"`
}

// Content is a role-tagged list of parts
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts,omitempty"`
}

// Part holds either text or inline binary data
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inline_data,omitempty"`
}

// InlineData is binary input such as audio sent alongside a prompt
type InlineData struct {
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Candidate is one generated alternative
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finish_reason,omitempty"`
}

// GenerateResponse carries whatever shape the provider answered with.
// Exactly which of Text, OutputText or Candidates is filled depends on the provider.
type GenerateResponse struct {
	Text       string      `json:"text,omitempty"`
	OutputText string      `json:"output_text,omitempty"`
	Candidates []Candidate `json:"candidates,omitempty"`

	Model    string        `json:"model,omitempty"`
	Provider string        `json:"provider,omitempty"`
	Latency  time.Duration `json:"-"`
}

// UserText builds a single user content holding one text part
func UserText(text string) Content {
	return Content{
		Role:  RoleUser,
		Parts: []Part{{Text: text}},
	}
}

// ErrCircuitOpen is returned when a provider is short-circuited after repeated failures
var ErrCircuitOpen = errors.New("provider circuit open")

// ProviderError represents an error from a provider
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Code is the error code
	Code string

	// Message is the error message
	Message string

	// StatusCode is the HTTP status code (if applicable)
	StatusCode int

	// Retryable indicates if the request can be retried
	Retryable bool

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return e.Provider + ": " + e.Message + ": " + e.Cause.Error()
	}
	return e.Provider + ": " + e.Message
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, statusCode int, retryable bool, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  retryable,
		Cause:      cause,
	}
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return provErr.Retryable
	}
	return false
}
