package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/rag-chat/app"
	"github.com/upb/rag-chat/config"
	"github.com/upb/rag-chat/internal/rag"
	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories/memory"
	"github.com/upb/rag-chat/services/chat"
	"github.com/upb/rag-chat/services/providers"
	"go.uber.org/zap"
)

type emptyRetriever struct{}

func (emptyRetriever) Retrieve(context.Context, string) ([]models.Document, error) {
	return []models.Document{}, nil
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop()
	deps := &app.Dependencies{
		Config: &config.Config{Server: config.ServerConfig{CORSAllowedOrigins: []string{"*"}}},
		Logger: logger,
		Index:  memory.NewVectorRepository(),
		ChatService: chat.NewService(
			emptyRetriever{},
			rag.NewPromptBuilder(rag.DefaultMaxDocChars),
			providers.UnconfiguredGenerator{Provider: "gemini"},
			chat.Config{},
			logger,
		),
	}
	return SetupRoutes(deps)
}

func TestSetupRoutes(t *testing.T) {
	router := newTestRouter(t)

	tests := []struct {
		name           string
		method         string
		path           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "health",
			method:         http.MethodGet,
			path:           "/api/health",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"healthy"}`,
		},
		{
			name:           "chat without documents",
			method:         http.MethodPost,
			path:           "/api/chat",
			body:           `{"query":"What is RAG?"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"answer":"No relevant documents found.","sources":[]}`,
		},
		{
			name:           "chat with whitespace query",
			method:         http.MethodPost,
			path:           "/api/chat",
			body:           `{"query":"   "}`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "{\"error\":\"`query` field is required\"}",
		},
		{
			name:           "unknown route",
			method:         http.MethodGet,
			path:           "/api/unknown",
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"error":"endpoint not found"}`,
		},
		{
			name:           "wrong method",
			method:         http.MethodGet,
			path:           "/api/chat",
			expectedStatus: http.StatusMethodNotAllowed,
			expectedBody:   `{"error":"method_not_allowed","message":"Method not allowed"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.body != "" {
				req.Header.Set("Content-Type", "application/json")
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		})
	}
}

func TestSetupRoutes_Readiness(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	assert.Equal(t, "ready", response["status"])
	checks := response["checks"].(map[string]interface{})
	assert.Equal(t, "not_configured", checks["generator"])
}

func TestSetupRoutes_CORS(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRoutes_PreservesRequestID(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
