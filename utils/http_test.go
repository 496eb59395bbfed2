package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestWriteSuccess(t *testing.T) {
	snapshot := map[string]interface{}{"task_id": "7f1c", "state": "running", "percent": 25}

	tests := []struct {
		name           string
		write          func(w http.ResponseWriter) error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "ok wraps data",
			write:          func(w http.ResponseWriter) error { return WriteOK(w, []string{"admin", "auditor"}) },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"data":["admin","auditor"]}`,
		},
		{
			name:           "created session",
			write:          func(w http.ResponseWriter) error { return WriteCreated(w, map[string]string{"role": "admin"}) },
			expectedStatus: http.StatusCreated,
			expectedBody:   `{"data":{"role":"admin"}}`,
		},
		{
			name:           "accepted task",
			write:          func(w http.ResponseWriter) error { return WriteAccepted(w, snapshot) },
			expectedStatus: http.StatusAccepted,
			expectedBody:   `{"data":{"task_id":"7f1c","state":"running","percent":25}}`,
		},
		{
			name:           "raw json without envelope",
			write:          func(w http.ResponseWriter) error { return WriteJSON(w, http.StatusOK, map[string]bool{"ready": true}) },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"ready":true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}

func TestWriteEmptyBodies(t *testing.T) {
	t.Run("json with nil data", func(t *testing.T) {
		w := httptest.NewRecorder()
		require.NoError(t, WriteJSON(w, http.StatusOK, nil))
		assert.Empty(t, w.Body.String())
	})

	t.Run("no content", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteNoContent(w)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})
}

func TestWriteAttachment(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteAttachment(w, "capa_4_fall_risk_20261019.csv", "text/csv", []byte("id\n4\n"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="capa_4_fall_risk_20261019.csv"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, "5", w.Header().Get("Content-Length"))
	assert.Equal(t, "id\n4\n", w.Body.String())
}

func TestWriteErrorHelpers(t *testing.T) {
	denied := map[string]interface{}{"resource": "capa", "action": "delete", "role": "other_auditor"}

	tests := []struct {
		name            string
		write           func(w http.ResponseWriter) error
		expectedStatus  int
		expectedError   string
		expectedMessage string
		expectedDetails map[string]interface{}
	}{
		{
			name:            "bad request keeps details",
			write:           func(w http.ResponseWriter) error { return WriteBadRequest(w, "Invalid role", map[string]interface{}{"role": "guest"}) },
			expectedStatus:  http.StatusBadRequest,
			expectedError:   "bad_request",
			expectedMessage: "Invalid role",
			expectedDetails: map[string]interface{}{"role": "guest"},
		},
		{
			name:            "unauthorized default message",
			write:           func(w http.ResponseWriter) error { return WriteUnauthorized(w, "") },
			expectedStatus:  http.StatusUnauthorized,
			expectedError:   "unauthorized",
			expectedMessage: "Authentication required",
		},
		{
			name:            "forbidden default message",
			write:           func(w http.ResponseWriter) error { return WriteForbidden(w, "") },
			expectedStatus:  http.StatusForbidden,
			expectedError:   "forbidden",
			expectedMessage: "Access forbidden",
		},
		{
			name:            "not found",
			write:           func(w http.ResponseWriter) error { return WriteNotFound(w, "task not found") },
			expectedStatus:  http.StatusNotFound,
			expectedError:   "not_found",
			expectedMessage: "task not found",
		},
		{
			name:            "conflict on finished task",
			write:           func(w http.ResponseWriter) error { return WriteConflict(w, "task already finished", nil) },
			expectedStatus:  http.StatusConflict,
			expectedError:   "conflict",
			expectedMessage: "task already finished",
		},
		{
			name:            "internal default message",
			write:           func(w http.ResponseWriter) error { return WriteInternalServerError(w, "") },
			expectedStatus:  http.StatusInternalServerError,
			expectedError:   "internal_error",
			expectedMessage: "Internal server error",
		},
		{
			name: "denied action through WriteError",
			write: func(w http.ResponseWriter) error {
				return WriteError(w, http.StatusForbidden, "action not permitted", denied)
			},
			expectedStatus:  http.StatusForbidden,
			expectedError:   "forbidden",
			expectedMessage: "action not permitted",
			expectedDetails: denied,
		},
		{
			name:            "not implemented action",
			write:           func(w http.ResponseWriter) error { return WriteError(w, http.StatusNotImplemented, "", nil) },
			expectedStatus:  http.StatusNotImplemented,
			expectedError:   "not_implemented",
			expectedMessage: "Not implemented",
		},
		{
			name:            "method not allowed",
			write:           func(w http.ResponseWriter) error { return WriteError(w, http.StatusMethodNotAllowed, "", nil) },
			expectedStatus:  http.StatusMethodNotAllowed,
			expectedError:   "method_not_allowed",
			expectedMessage: "Method not allowed",
		},
		{
			name:            "unlisted status is internal",
			write:           func(w http.ResponseWriter) error { return WriteError(w, http.StatusTeapot, "short and stout", nil) },
			expectedStatus:  http.StatusTeapot,
			expectedError:   "internal_error",
			expectedMessage: "short and stout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			require.NoError(t, tt.write(w))

			assert.Equal(t, tt.expectedStatus, w.Code)
			response := decodeError(t, w)
			assert.Equal(t, tt.expectedError, response.Error)
			assert.Equal(t, tt.expectedMessage, response.Message)
			assert.Equal(t, tt.expectedDetails, response.Details)
		})
	}
}
