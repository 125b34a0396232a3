package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/upb/room-qa/repositories/postgres"
	"go.uber.org/zap"
)

func newMockDB(t *testing.T) (*postgres.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return postgres.NewDBFromSQL(sqlDB, "postgres", zap.NewNop()), mock
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response["data"].(map[string]interface{})
}

func TestHandleHealth(t *testing.T) {
	handler := NewHealthHandler(nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	w := httptest.NewRecorder()

	handler.HandleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeHealth(t, w)
	assert.Equal(t, "healthy", data["status"])
	assert.NotEmpty(t, data["timestamp"])
}

func TestHandleReadiness(t *testing.T) {
	logger := zap.NewNop()
	providers := []string{"gemini"}

	t.Run("healthy when database is available", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		w := httptest.NewRecorder()
		NewHealthHandler(db, providers, logger).HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeHealth(t, w)
		assert.Equal(t, "healthy", data["status"])

		checks := data["checks"].(map[string]interface{})
		assert.Equal(t, "healthy", checks["database"])
		assert.Equal(t, "configured", checks["providers"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database ping fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing().WillReturnError(sql.ErrConnDone)

		w := httptest.NewRecorder()
		NewHealthHandler(db, providers, logger).HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		data := decodeHealth(t, w)
		assert.Equal(t, "unhealthy", data["status"])
		assert.Equal(t, "unhealthy", data["checks"].(map[string]interface{})["database"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unhealthy when database query fails", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectPing()
		mock.ExpectQuery("SELECT 1").WillReturnError(sql.ErrConnDone)

		w := httptest.NewRecorder()
		NewHealthHandler(db, providers, logger).HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "unhealthy", decodeHealth(t, w)["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("healthy on the in-memory store", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler(nil, providers, logger).HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeHealth(t, w)
		assert.Equal(t, "not_configured", data["checks"].(map[string]interface{})["database"])
	})

	t.Run("unhealthy without providers", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHealthHandler(nil, nil, logger).HandleReadiness(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Equal(t, "none_configured", decodeHealth(t, w)["checks"].(map[string]interface{})["providers"])
	})
}
