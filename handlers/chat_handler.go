package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/upb/rag-chat/internal/observability"
	"github.com/upb/rag-chat/services/chat"
	"github.com/upb/rag-chat/utils"
	"go.uber.org/zap"
)

// ChatRequest is the body of POST /api/chat
type ChatRequest struct {
	Query string `json:"query"`
}

// ChatService answers one question
type ChatService interface {
	Answer(ctx context.Context, query string) (*chat.Result, error)
}

// ChatHandler handles question answering requests
type ChatHandler struct {
	service ChatService
	logger  *zap.Logger
}

// NewChatHandler creates a new ChatHandler
func NewChatHandler(service ChatService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		service: service,
		logger:  logger,
	}
}

// HandleChat handles POST /api/chat
func (h *ChatHandler) HandleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := observability.FromContext(ctx, h.logger)

	var req ChatRequest
	if err := utils.DecodeJSON(w, r, &req, 0); err != nil {
		log.Warn("failed to parse request body", zap.Error(err))
		if errors.Is(err, utils.ErrBodyTooLarge) {
			_ = utils.WriteError(w, http.StatusRequestEntityTooLarge, "Request body too large", nil)
			return
		}
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.Answer(ctx, req.Query)
	if err != nil {
		HandleServiceError(w, err, log)
		return
	}

	fields := []zap.Field{
		zap.String("outcome", string(result.Outcome)),
		zap.Int("documents", result.DocumentCount),
		zap.Duration("latency", result.Latency),
	}
	if result.Outcome == chat.OutcomeFailed {
		log.Warn("answered with generation fallback", append(fields, zap.Error(result.GenerationError))...)
	} else {
		log.Info("question answered", fields...)
	}

	if err := utils.WriteOK(w, result.Answer); err != nil {
		log.Error("failed to write response", zap.Error(err))
	}
}
