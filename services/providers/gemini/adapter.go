package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upb/rag-chat/services/providers"
)

const (
	defaultBaseURL        = "https://generativelanguage.googleapis.com"
	defaultModel          = "gemini-1.5-flash"
	defaultEmbeddingModel = "text-embedding-004"
)

// GeminiAdapter calls the Generative Language REST API. It implements both
// providers.Generator and providers.Embedder.
type GeminiAdapter struct {
	config         providers.ProviderConfig
	embeddingModel string
	httpClient     *http.Client
}

// NewGeminiAdapter creates a new Gemini adapter
func NewGeminiAdapter(config providers.ProviderConfig, embeddingModel string) *GeminiAdapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Model == "" {
		config.Model = defaultModel
	}
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	return &GeminiAdapter{
		config:         config,
		embeddingModel: embeddingModel,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

// Name returns the provider name
func (a *GeminiAdapter) Name() string {
	return "gemini"
}

// Model returns the generation model identifier
func (a *GeminiAdapter) Model() string {
	return a.config.Model
}

// Generate calls models/{model}:generateContent with the prompt as a single user turn
func (a *GeminiAdapter) Generate(ctx context.Context, prompt string, cfg providers.GenerationConfig) (*providers.GenerationResult, error) {
	startTime := time.Now()

	req := GenerateContentRequest{
		Contents: []Content{
			{Role: "user", Parts: []Part{{Text: prompt}}},
		},
		GenerationConfig: &GenerationConfig{
			Temperature:     cfg.Temperature,
			TopP:            cfg.TopP,
			TopK:            cfg.TopK,
			MaxOutputTokens: cfg.MaxOutputTokens,
		},
	}

	body, err := a.post(ctx, a.config.Model, "generateContent", req)
	if err != nil {
		return nil, err
	}

	var resp GenerateContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", http.StatusOK, false, err)
	}

	result := &providers.GenerationResult{
		Model:   a.config.Model,
		Latency: time.Since(startTime),
	}
	if resp.ModelVersion != "" {
		result.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		result.Usage = providers.Usage{
			PromptTokens:     resp.UsageMetadata.PromptTokenCount,
			CompletionTokens: resp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      resp.UsageMetadata.TotalTokenCount,
		}
	}
	if len(resp.Candidates) > 0 {
		result.Text = resp.Candidates[0].Text()
		result.FinishReason = resp.Candidates[0].FinishReason
	}

	return result, nil
}

// Embed calls models/{embeddingModel}:embedContent
func (a *GeminiAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	req := EmbedContentRequest{
		Model:   "models/" + a.embeddingModel,
		Content: Content{Parts: []Part{{Text: text}}},
	}

	body, err := a.post(ctx, a.embeddingModel, "embedContent", req)
	if err != nil {
		return nil, err
	}

	var resp EmbedContentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", http.StatusOK, false, err)
	}
	if len(resp.Embedding.Values) == 0 {
		return nil, providers.NewProviderError(a.Name(), "EMPTY_EMBEDDING", "response contained no embedding", http.StatusOK, false, nil)
	}

	return resp.Embedding.Values, nil
}

func (a *GeminiAdapter) post(ctx context.Context, model, method string, payload any) ([]byte, error) {
	reqBody, err := json.Marshal(payload)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:%s", a.config.BaseURL, model, method)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", a.config.APIKey)
	for k, v := range a.config.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	return respBody, nil
}

func (a *GeminiAdapter) handleErrorResponse(statusCode int, body []byte) error {
	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	var errResp ErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil || errResp.Error.Message == "" {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", string(body), statusCode, retryable, err)
	}

	code := errResp.Error.Status
	if code == "" {
		code = "API_ERROR"
	}
	return providers.NewProviderError(a.Name(), code, errResp.Error.Message, statusCode, retryable, nil)
}

// Gemini-specific request/response types

type Part struct {
	Text string `json:"text,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopP            float64 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

type GenerateContentRequest struct {
	Contents         []Content         `json:"contents"`
	GenerationConfig *GenerationConfig `json:"generationConfig,omitempty"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
	Index        int     `json:"index"`
}

// Text concatenates the text of every part
func (c Candidate) Text() string {
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

type UsageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
	TotalTokenCount      int `json:"totalTokenCount"`
}

type GenerateContentResponse struct {
	Candidates    []Candidate    `json:"candidates"`
	UsageMetadata *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion  string         `json:"modelVersion,omitempty"`
}

type EmbedContentRequest struct {
	Model   string  `json:"model"`
	Content Content `json:"content"`
}

type EmbedContentResponse struct {
	Embedding struct {
		Values []float32 `json:"values"`
	} `json:"embedding"`
}

type ErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}
