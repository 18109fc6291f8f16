package handlers

import (
	"net/http"

	"github.com/upb/rag-chat/services"
	"github.com/upb/rag-chat/utils"
	"go.uber.org/zap"
)

// HandleServiceError maps domain errors to HTTP responses
func HandleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	if err == nil {
		return
	}

	switch {
	case services.IsValidationError(err):
		// Validation failures carry the client-facing message as the error itself
		if err := utils.WriteErrorMessage(w, http.StatusBadRequest, services.GetErrorMessage(err)); err != nil {
			logger.Error("failed to write bad request response", zap.Error(err))
		}

	case services.IsExternalError(err):
		// Upstream failures (embedding, vector index) are mapped to 502 Bad Gateway
		logger.Error("upstream dependency failed", zap.Error(err))
		if err := utils.WriteBadGateway(w, services.GetErrorMessage(err), nil); err != nil {
			logger.Error("failed to write bad gateway response", zap.Error(err))
		}

	case services.IsInternalError(err):
		// Log internal errors but return generic message
		logger.Error("internal server error", zap.Error(err))
		if err := utils.WriteInternalServerError(w, "An internal error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}

	default:
		logger.Error("unhandled error type",
			zap.Error(err),
			zap.String("error_type", string(services.GetErrorType(err))))
		if err := utils.WriteInternalServerError(w, "An unexpected error occurred"); err != nil {
			logger.Error("failed to write internal error response", zap.Error(err))
		}
	}
}
