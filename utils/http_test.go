package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		w := httptest.NewRecorder()
		data := map[string]string{"message": "test"}

		err := WriteJSON(w, http.StatusOK, data)
		require.NoError(t, err)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var response map[string]string
		err = json.NewDecoder(w.Body).Decode(&response)
		require.NoError(t, err)
		assert.Equal(t, "test", response["message"])
	})

	t.Run("nil data", func(t *testing.T) {
		w := httptest.NewRecorder()

		err := WriteJSON(w, http.StatusNoContent, nil)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteOK(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteOK(w, []string{"a", "b"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, w.Code)

	var response SuccessResponse
	err = json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"a", "b"}, response.Data)
}

func TestWriteBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	details := map[string]interface{}{"question": "question must not be blank"}

	err := WriteBadRequest(w, "Validation failed", details)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var response ErrorResponse
	err = json.NewDecoder(w.Body).Decode(&response)
	require.NoError(t, err)

	assert.Equal(t, "bad_request", response.Error)
	assert.Equal(t, "Validation failed", response.Message)
	assert.Equal(t, "question must not be blank", response.Details["question"])
}

func TestWriteInternalServerError(t *testing.T) {
	t.Run("with custom message", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteInternalServerError(w, "failed to generate embeddings"))

		var response ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "internal_error", response.Error)
		assert.Equal(t, "failed to generate embeddings", response.Message)
	})

	t.Run("with empty message", func(t *testing.T) {
		w := httptest.NewRecorder()

		require.NoError(t, WriteInternalServerError(w, ""))

		var response ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Internal server error", response.Message)
	})
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		status    int
		errorType string
	}{
		{http.StatusBadRequest, "bad_request"},
		{http.StatusNotFound, "not_found"},
		{http.StatusMethodNotAllowed, "method_not_allowed"},
		{http.StatusTeapot, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.errorType, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, WriteError(w, tt.status, "msg", nil))

			var response ErrorResponse
			require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.errorType, response.Error)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Question string `json:"question"`
	}

	tests := []struct {
		name    string
		body    string
		want    string
		wantErr string
	}{
		{name: "valid", body: `{"question":"hi"}`, want: "hi"},
		{name: "empty body", body: ``, wantErr: "must not be empty"},
		{name: "syntax error", body: `{"question":}`, wantErr: "malformed JSON"},
		{name: "truncated", body: `{"question":"hi"`, wantErr: "malformed JSON"},
		{name: "wrong type", body: `{"question":42}`, wantErr: `invalid value for field "question"`},
		{name: "trailing object", body: `{"question":"a"}{"question":"b"}`, wantErr: "single JSON object"},
		{name: "too large", body: `{"question":"` + strings.Repeat("a", MaxBodyBytes) + `"}`, wantErr: "must not be larger"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			var p payload
			err := DecodeJSON(w, r, &p)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Question)
		})
	}
}
