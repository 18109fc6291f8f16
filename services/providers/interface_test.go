package providers

import (
	"context"
	"errors"
	"testing"
	"time"
)

// MockGenerator is a test implementation of the Generator interface
type MockGenerator struct {
	name          string
	text          string
	err           error
	responseDelay time.Duration
	prompts       []string
}

func NewMockGenerator(name string) *MockGenerator {
	return &MockGenerator{name: name, text: "mock answer"}
}

func (m *MockGenerator) Name() string {
	return m.name
}

func (m *MockGenerator) Generate(ctx context.Context, prompt string, cfg GenerationConfig) (*GenerationResult, error) {
	if m.responseDelay > 0 {
		select {
		case <-time.After(m.responseDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return nil, m.err
	}
	return &GenerationResult{Text: m.text, Model: "mock-model"}, nil
}

// MockEmbedder is a test implementation of the Embedder interface
type MockEmbedder struct {
	name string
}

func (m *MockEmbedder) Name() string {
	return m.name
}

func (m *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func TestDefaultGenerationConfig(t *testing.T) {
	cfg := DefaultGenerationConfig()

	if cfg.Temperature != 0.1 {
		t.Errorf("Temperature = %v, want 0.1", cfg.Temperature)
	}
	if cfg.TopP != 0.8 {
		t.Errorf("TopP = %v, want 0.8", cfg.TopP)
	}
	if cfg.TopK != 40 {
		t.Errorf("TopK = %d, want 40", cfg.TopK)
	}
	if cfg.MaxOutputTokens != 1024 {
		t.Errorf("MaxOutputTokens = %d, want 1024", cfg.MaxOutputTokens)
	}
}

func TestDefaultProviderConfig(t *testing.T) {
	cfg := DefaultProviderConfig()

	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if cfg.Headers == nil {
		t.Error("Headers should be initialized")
	}
}

func TestProviderError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProviderError("gemini", "HTTP_ERROR", "HTTP request failed", 0, true, cause)

	if err.Error() != "gemini: HTTP request failed: connection refused" {
		t.Errorf("Error() = %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}

	noCause := NewProviderError("gemini", "API_ERROR", "quota exceeded", 429, true, nil)
	if noCause.Error() != "gemini: quota exceeded" {
		t.Errorf("Error() = %q", noCause.Error())
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"retryable provider error", NewProviderError("p", "c", "m", 503, true, nil), true},
		{"non-retryable provider error", NewProviderError("p", "c", "m", 400, false, nil), false},
		{"wrapped provider error", errors.Join(errors.New("outer"), NewProviderError("p", "c", "m", 500, true, nil)), true},
		{"plain error", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetryable(tt.err); got != tt.want {
				t.Errorf("IsRetryable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUnconfiguredGenerator(t *testing.T) {
	g := UnconfiguredGenerator{Provider: "gemini"}

	if g.Name() != "gemini" {
		t.Errorf("Name() = %s, want gemini", g.Name())
	}

	result, err := g.Generate(context.Background(), "prompt", DefaultGenerationConfig())
	if err == nil {
		t.Fatal("expected an error")
	}
	if result != nil {
		t.Error("expected nil result")
	}

	var provErr *ProviderError
	if !errors.As(err, &provErr) || provErr.Code != "NOT_CONFIGURED" {
		t.Errorf("unexpected error %v", err)
	}
}

func TestRegistry_Generators(t *testing.T) {
	r := NewRegistry()

	if err := r.RegisterGenerator(NewMockGenerator("gemini")); err != nil {
		t.Fatalf("RegisterGenerator() error = %v", err)
	}
	if err := r.RegisterGenerator(NewMockGenerator("openai")); err != nil {
		t.Fatalf("RegisterGenerator() error = %v", err)
	}

	if err := r.RegisterGenerator(NewMockGenerator("gemini")); !errors.Is(err, ErrProviderAlreadyRegistered) {
		t.Errorf("duplicate register error = %v, want ErrProviderAlreadyRegistered", err)
	}
	if err := r.RegisterGenerator(nil); err == nil {
		t.Error("expected error for nil generator")
	}
	if err := r.RegisterGenerator(NewMockGenerator("")); err == nil {
		t.Error("expected error for empty name")
	}

	g, err := r.Generator("openai")
	if err != nil {
		t.Fatalf("Generator() error = %v", err)
	}
	if g.Name() != "openai" {
		t.Errorf("Name() = %s, want openai", g.Name())
	}

	if _, err := r.Generator("missing"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Generator(missing) error = %v, want ErrProviderNotFound", err)
	}

	names := r.ListGenerators()
	if len(names) != 2 || names[0] != "gemini" || names[1] != "openai" {
		t.Errorf("ListGenerators() = %v", names)
	}
}

func TestRegistry_Embedders(t *testing.T) {
	r := NewRegistry()

	if err := r.RegisterEmbedder(&MockEmbedder{name: "openai"}); err != nil {
		t.Fatalf("RegisterEmbedder() error = %v", err)
	}
	if err := r.RegisterEmbedder(&MockEmbedder{name: "openai"}); !errors.Is(err, ErrProviderAlreadyRegistered) {
		t.Errorf("duplicate register error = %v", err)
	}
	if err := r.RegisterEmbedder(nil); err == nil {
		t.Error("expected error for nil embedder")
	}

	e, err := r.Embedder("openai")
	if err != nil {
		t.Fatalf("Embedder() error = %v", err)
	}
	vec, err := e.Embed(context.Background(), "abc")
	if err != nil || len(vec) != 2 || vec[0] != 3 {
		t.Errorf("Embed() = %v, %v", vec, err)
	}

	if _, err := r.Embedder("gemini"); !errors.Is(err, ErrProviderNotFound) {
		t.Errorf("Embedder(gemini) error = %v", err)
	}
	if names := r.ListEmbedders(); len(names) != 1 || names[0] != "openai" {
		t.Errorf("ListEmbedders() = %v", names)
	}
}

func TestMockGenerator_ContextCancel(t *testing.T) {
	g := NewMockGenerator("slow")
	g.responseDelay = time.Second

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := g.Generate(ctx, "p", GenerationConfig{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}
