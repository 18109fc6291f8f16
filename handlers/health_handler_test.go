package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/rag-chat/models"
	"github.com/upb/rag-chat/repositories/memory"
	"github.com/upb/rag-chat/repositories/postgres"
	"go.uber.org/zap"
)

func TestHandleHealth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("always returns healthy", func(t *testing.T) {
		handler := NewHealthHandler(nil, false, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		w := httptest.NewRecorder()

		handler.HandleHealth(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
	})
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()
	countQuery := regexp.QuoteMeta(`SELECT COUNT(*) FROM rag_documents WHERE collection = $1`)

	t.Run("ready when index answers", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(countQuery).
			WithArgs("rag_collection").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

		index := postgres.NewVectorRepository(&postgres.DB{DB: db}, "rag_collection", logger)
		handler := NewHealthHandler(index, true, logger)

		req := httptest.NewRequest(http.MethodGet, "/api/ready", nil)
		w := httptest.NewRecorder()

		handler.HandleReadiness(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "ready", response.Status)
		assert.Equal(t, 42, response.Documents)
		assert.Equal(t, "healthy", response.Checks["vector_index"])
		assert.Equal(t, "configured", response.Checks["generator"])
		assert.NotEmpty(t, response.Timestamp)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not ready when index fails", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(countQuery).WillReturnError(errors.New("connection reset"))

		index := postgres.NewVectorRepository(&postgres.DB{DB: db}, "rag_collection", logger)
		handler := NewHealthHandler(index, true, logger)

		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "not_ready", response.Status)
		assert.Equal(t, "unhealthy", response.Checks["vector_index"])
	})

	t.Run("missing generator key is reported but ready", func(t *testing.T) {
		index := memory.NewVectorRepository()
		require.NoError(t, index.Upsert(t.Context(), []models.IndexedDocument{
			models.NewIndexedDocument("", "doc", nil, []float32{1}),
		}))
		handler := NewHealthHandler(index, false, logger)

		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusOK, w.Code)

		var response ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, 1, response.Documents)
		assert.Equal(t, "not_configured", response.Checks["generator"])
	})

	t.Run("no index", func(t *testing.T) {
		handler := NewHealthHandler(nil, true, logger)

		w := httptest.NewRecorder()
		handler.HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/api/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)

		var response ReadinessResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "not_initialized", response.Checks["vector_index"])
	})
}
