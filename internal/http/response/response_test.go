package response

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/mediashelf/mediashelf-server/internal/errors"
	"github.com/mediashelf/mediashelf-server/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusOK, map[string]string{"title": "Cowboy Bebop"}, discardLogger())

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Equal(t, float64(Version), body["v"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"title": "Cowboy Bebop"}, body["data"])
	assert.NotContains(t, body, "error")
}

func TestJSON_ErrorStatusMarksFailure(t *testing.T) {
	w := httptest.NewRecorder()

	JSON(w, http.StatusNotFound, map[string]string{"x": "y"}, discardLogger())

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
}

func TestJSON_NilLogger(t *testing.T) {
	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		Success(w, nil, nil)
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusBadRequest, "bad input", discardLogger())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(Version), body["v"])
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "bad input", body["error"])
	assert.NotContains(t, body, "data")
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()

	NotFound(w, "no such route", discardLogger())

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decode(t, w)
	assert.Equal(t, "NOT_FOUND", body["code"])
	assert.Equal(t, "no such route", body["message"])
}

func TestMethodNotAllowed(t *testing.T) {
	w := httptest.NewRecorder()
	MethodNotAllowed(w, discardLogger())
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"media unavailable", domainerrors.ErrMediaUnavailable.WithCause(errors.New("timeout")), http.StatusServiceUnavailable, "MEDIA_UNAVAILABLE"},
		{"missing external id", domainerrors.ErrMissingExternalID, http.StatusBadRequest, "MISSING_EXTERNAL_ID"},
		{"validation with details", domainerrors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"}), http.StatusBadRequest, "VALIDATION"},
		{"store not found", store.ErrNotFound, http.StatusNotFound, ""},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			HandleError(w, tt.err, discardLogger())

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["code"])
			}
		})
	}
}

func TestHandleError_KeepsDetails(t *testing.T) {
	w := httptest.NewRecorder()
	HandleError(w, domainerrors.ValidationWithDetails("validation failed", map[string]string{"title": "is required"}), nil)

	body := decode(t, w)
	assert.Equal(t, map[string]any{"title": "is required"}, body["details"])
}
