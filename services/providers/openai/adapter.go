package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/upb/rag-chat/services/providers"
)

const (
	defaultBaseURL        = "https://api.openai.com/v1"
	defaultChatModel      = "gpt-4o-mini"
	defaultEmbeddingModel = "text-embedding-3-small"
)

// OpenAIAdapter talks to any OpenAI-compatible API (OpenAI, Ollama, vLLM). It implements
// both providers.Generator and providers.Embedder.
type OpenAIAdapter struct {
	config         providers.ProviderConfig
	embeddingModel string
	httpClient     *http.Client
}

// NewOpenAIAdapter creates a new OpenAI adapter. config.Model is the chat model and
// embeddingModel the model used by Embed.
func NewOpenAIAdapter(config providers.ProviderConfig, embeddingModel string) *OpenAIAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Model == "" {
		config.Model = defaultChatModel
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	return &OpenAIAdapter{
		config:         config,
		embeddingModel: embeddingModel,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

// Generate sends the prompt as a single user message to /chat/completions
func (a *OpenAIAdapter) Generate(ctx context.Context, prompt string, cfg providers.GenerationConfig) (*providers.GenerationResult, error) {
	startTime := time.Now()

	openaiReq := a.buildChatRequest(prompt, cfg)

	respBody, statusCode, err := a.post(ctx, "/chat/completions", openaiReq)
	if err != nil {
		return nil, err
	}

	var openaiResp OpenAIChatResponse
	if err := json.Unmarshal(respBody, &openaiResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", statusCode, false, err)
	}

	return a.convertChatResponse(&openaiResp, time.Since(startTime)), nil
}

// Embed returns the embedding for text. Both the OpenAI shape {"data":[{"embedding":[...]}]}
// and the Ollama-native shape {"embedding":[...]} are accepted.
func (a *OpenAIAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	req := OpenAIEmbeddingRequest{
		Input:  text,
		Prompt: text,
		Model:  a.embeddingModel,
	}

	respBody, statusCode, err := a.post(ctx, "/embeddings", req)
	if err != nil {
		return nil, err
	}

	var openaiOut OpenAIEmbeddingResponse
	if err := json.Unmarshal(respBody, &openaiOut); err == nil {
		if len(openaiOut.Data) > 0 && len(openaiOut.Data[0].Embedding) > 0 {
			return openaiOut.Data[0].Embedding, nil
		}
	}

	var ollamaOut struct {
		Embedding []float32 `json:"embedding"`
	}
	if err := json.Unmarshal(respBody, &ollamaOut); err == nil && len(ollamaOut.Embedding) > 0 {
		return ollamaOut.Embedding, nil
	}

	return nil, providers.NewProviderError(a.Name(), "EMPTY_EMBEDDING", "response contained no embedding", statusCode, false, nil)
}

// post marshals body, sends it to path and returns the raw response body of a 200 reply.
// Each call is a single attempt; failures are reported, never retried.
func (a *OpenAIAdapter) post(ctx context.Context, path string, body any) ([]byte, int, error) {
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, 0, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+path, bytes.NewReader(reqBody))
	if err != nil {
		return nil, 0, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if a.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)
	}
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, httpResp.StatusCode, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, httpResp.StatusCode, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	return respBody, httpResp.StatusCode, nil
}

// buildChatRequest converts a prompt and sampling parameters to OpenAI format.
// OpenAI has no top_k, so TopK is not sent.
func (a *OpenAIAdapter) buildChatRequest(prompt string, cfg providers.GenerationConfig) *OpenAIChatRequest {
	req := &OpenAIChatRequest{
		Model: a.config.Model,
		Messages: []OpenAIMessage{
			{Role: "user", Content: prompt},
		},
	}

	if cfg.MaxOutputTokens > 0 {
		req.MaxTokens = &cfg.MaxOutputTokens
	}
	if cfg.Temperature > 0 {
		req.Temperature = &cfg.Temperature
	}
	if cfg.TopP > 0 {
		req.TopP = &cfg.TopP
	}

	return req
}

// convertChatResponse converts an OpenAI response to a GenerationResult
func (a *OpenAIAdapter) convertChatResponse(openaiResp *OpenAIChatResponse, latency time.Duration) *providers.GenerationResult {
	result := &providers.GenerationResult{
		Model: openaiResp.Model,
		Usage: providers.Usage{
			PromptTokens:     openaiResp.Usage.PromptTokens,
			CompletionTokens: openaiResp.Usage.CompletionTokens,
			TotalTokens:      openaiResp.Usage.TotalTokens,
		},
		Latency: latency,
	}

	if len(openaiResp.Choices) > 0 {
		result.Text = openaiResp.Choices[0].Message.Content
		result.FinishReason = openaiResp.Choices[0].FinishReason
	}

	return result
}

// handleErrorResponse handles OpenAI error responses
func (a *OpenAIAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	var errResp OpenAIErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", string(body), statusCode, retryable, err)
	}

	return providers.NewProviderError(
		a.Name(),
		errResp.Error.Type,
		errResp.Error.Message,
		statusCode,
		retryable,
		errors.New(errResp.Error.Message),
	)
}

// OpenAI-specific request/response types

type OpenAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []OpenAIMessage `json:"messages"`
	MaxTokens   *int            `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
}

type OpenAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type OpenAIChatResponse struct {
	ID      string         `json:"id"`
	Object  string         `json:"object"`
	Created int64          `json:"created"`
	Model   string         `json:"model"`
	Choices []OpenAIChoice `json:"choices"`
	Usage   OpenAIUsage    `json:"usage"`
}

type OpenAIChoice struct {
	Index        int           `json:"index"`
	Message      OpenAIMessage `json:"message"`
	FinishReason string        `json:"finish_reason"`
}

type OpenAIUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// OpenAIEmbeddingRequest carries both input and prompt so Ollama's native
// endpoint understands it too.
type OpenAIEmbeddingRequest struct {
	Input  string `json:"input,omitempty"`
	Prompt string `json:"prompt,omitempty"`
	Model  string `json:"model"`
}

type OpenAIEmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type OpenAIErrorResponse struct {
	Error OpenAIError `json:"error"`
}

type OpenAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
