package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortwatch/internal/infrastructure"
	"shortwatch/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got), rec.Body.String())
	return got
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantDetail string
	}{
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout, "The request took too long to process and was cancelled"},
		{"wrapped cancel", fmt.Errorf("query: %w", context.Canceled), http.StatusGatewayTimeout, TypeTimeout, "The request took too long to process and was cancelled"},
		{"item not found", ItemNotFoundError(9), http.StatusNotFound, TypeItemNotFound, "Item 9 not found"},
		{"no price data", NoPriceDataError(4), http.StatusNotFound, TypeNoPriceData, "Item 4 has no price data"},
		{"invalid parameter", ErrValidation("period", "bad"), http.StatusBadRequest, TypeValidation, "Request validation failed"},
		{"unsupported format", UnsupportedFormatError("pdf"), http.StatusBadRequest, TypeUnsupportedFormat, `Unsupported export format "pdf"`},
		{"not loaded uses the load failure", DataNotLoadedError(errors.New("fetch snapshot: status 502")), http.StatusServiceUnavailable, TypeDataNotLoaded, "fetch snapshot: status 502"},
		{"not loaded without cause", DataNotLoadedError(nil), http.StatusServiceUnavailable, TypeDataNotLoaded, "Dashboard data is not loaded"},
		{"reload failure", LoadFailedError(errors.New("parse snapshot: bad json")), http.StatusBadGateway, TypeLoadFailed, "parse snapshot: bad json"},
		{"wrapped api error", fmt.Errorf("handler: %w", ErrRateLimitExceeded), http.StatusTooManyRequests, TypeRateLimit, "Rate limit exceeded"},
		{"plain not found text", errors.New("chain not found"), http.StatusNotFound, TypeNotFound, "chain not found"},
		{"unknown error is hidden", errors.New("nil pointer somewhere"), http.StatusInternalServerError, TypeInternal, "An unexpected error occurred while processing your request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/api/items/9", nil)
			req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-1"))
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			got := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, got["type"])
			assert.Equal(t, tt.wantDetail, got["detail"])
			assert.Equal(t, "/api/items/9", got["instance"])
			assert.Equal(t, "trace-1", got["trace_id"])
			assert.NotContains(t, got, "stack")
		})
	}
}

func TestErrorHandler_HandleError_Nil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, rec.Body.Len())
	assert.Empty(t, logs.Records())
}

func TestErrorHandler_LogLevels(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)
	req := httptest.NewRequest(http.MethodGet, "/api/items/9", nil)

	h.HandleError(httptest.NewRecorder(), req, ItemNotFoundError(9))
	h.HandleError(httptest.NewRecorder(), req, errors.New("boom"))

	assert.Len(t, logs.RecordsAt(slog.LevelWarn), 1)
	assert.Len(t, logs.RecordsAt(slog.LevelError), 1)
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("boom"))

	got := decodeProblem(t, rec)
	assert.Contains(t, got["stack"], "goroutine")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/items", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "Method DELETE is not allowed for this endpoint", decodeProblem(t, rec)["detail"])
}

func TestErrorHandler_Middleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	t.Run("panic becomes a problem", func(t *testing.T) {
		handler := h.Middleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			panic("kaboom")
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "An unexpected error occurred", decodeProblem(t, rec)["detail"])
		assert.True(t, logs.ContainsMessage("panic recovered"))
	})

	t.Run("success passes through", func(t *testing.T) {
		handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("server errors are logged once", func(t *testing.T) {
		handler := h.Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.WriteHeader(http.StatusOK)
		}))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/reload", nil))

		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.True(t, logs.ContainsAttr("path", "/api/dashboard/reload"))
	})
}
