package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/upb/rag-chat/utils"
	"go.uber.org/zap"
)

// HealthResponse is the liveness payload. It carries no dependency checks.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadinessResponse represents the readiness check response
type ReadinessResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Documents int               `json:"documents"`
	Checks    map[string]string `json:"checks"`
}

// DocumentCounter reports how many documents the vector index holds
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	index               DocumentCounter
	generatorConfigured bool
	logger              *zap.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(index DocumentCounter, generatorConfigured bool, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		index:               index,
		generatorConfigured: generatorConfigured,
		logger:              logger,
	}
}

// HandleHealth handles GET /api/health
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteOK(w, HealthResponse{Status: "healthy"})
}

// HandleReadiness handles GET /api/ready
// The vector index must answer; a missing generator key is reported but not fatal
// since answers then fall back to the fixed text.
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := ReadinessResponse{
		Status:    "ready",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    make(map[string]string),
	}
	httpStatus := http.StatusOK

	if h.index == nil {
		response.Checks["vector_index"] = "not_initialized"
		response.Status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if count, err := h.index.Count(ctx); err != nil {
		h.logger.Warn("vector index health check failed", zap.Error(err))
		response.Checks["vector_index"] = "unhealthy"
		response.Status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		response.Checks["vector_index"] = "healthy"
		response.Documents = count
	}

	if h.generatorConfigured {
		response.Checks["generator"] = "configured"
	} else {
		response.Checks["generator"] = "not_configured"
	}

	if err := utils.WriteJSON(w, httpStatus, response); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
