package providers

import (
	"context"
	"errors"
	"time"
)

// Generator is a hosted LLM that turns a grounding prompt into text
type Generator interface {
	// Name returns the provider name (e.g., "gemini", "openai")
	Name() string

	// Generate produces text for the prompt. An empty Text with a nil error means
	// the provider answered but produced nothing.
	Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*GenerationResult, error)
}

// Embedder maps text to a fixed-length vector
type Embedder interface {
	// Name returns the provider name
	Name() string

	// Embed returns the embedding vector for text
	Embed(ctx context.Context, text string) ([]float32, error)
}

// GenerationConfig carries the sampling parameters sent with every generation call
type GenerationConfig struct {
	// Temperature controls randomness
	Temperature float64 `json:"temperature"`

	// TopP controls nucleus sampling
	TopP float64 `json:"top_p"`

	// TopK limits sampling to the K most likely tokens
	TopK int `json:"top_k"`

	// MaxOutputTokens limits the response length
	MaxOutputTokens int `json:"max_output_tokens"`
}

// DefaultGenerationConfig returns the fixed parameters used by the chat service
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		Temperature:     0.1,
		TopP:            0.8,
		TopK:            40,
		MaxOutputTokens: 1024,
	}
}

// GenerationResult is the provider-neutral outcome of a generation call
type GenerationResult struct {
	// Text is the generated answer, possibly empty
	Text string `json:"text"`

	// Model that produced the text
	Model string `json:"model"`

	// FinishReason as reported by the provider
	FinishReason string `json:"finish_reason,omitempty"`

	// Usage statistics
	Usage Usage `json:"usage"`

	// Latency of the request
	Latency time.Duration `json:"latency"`
}

// Usage represents token usage statistics
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderConfig holds common configuration for providers
type ProviderConfig struct {
	// APIKey for authentication
	APIKey string

	// BaseURL for the API (optional override)
	BaseURL string

	// Model identifier
	Model string

	// Timeout for requests
	Timeout time.Duration

	// Additional headers
	Headers map[string]string
}

// DefaultProviderConfig returns the default configuration: one attempt, 60s timeout
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Timeout: 60 * time.Second,
		Headers: make(map[string]string),
	}
}

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
	msg := e.Provider + ": " + e.Message
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
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

// UnconfiguredGenerator always fails. It stands in when no API key is configured so the
// service still starts and answers with the fallback text.
type UnconfiguredGenerator struct {
	Provider string
}

// Name returns the provider name
func (g UnconfiguredGenerator) Name() string {
	return g.Provider
}

// Generate always returns an error
func (g UnconfiguredGenerator) Generate(context.Context, string, GenerationConfig) (*GenerationResult, error) {
	return nil, NewProviderError(g.Provider, "NOT_CONFIGURED", "provider API key not configured", 0, false, nil)
}
