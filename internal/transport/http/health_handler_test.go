package http

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"shortwatch/internal/services"
	"shortwatch/internal/shared/testutil"
)

type staticStatus services.LoadStatus

func (s staticStatus) Status() services.LoadStatus { return services.LoadStatus(s) }

func newHealthRouter(t *testing.T, status services.LoadStatus) http.Handler {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewHealthHandler(services.NewHealthService("v1.2.0", "2026-10-01", staticStatus(status), nil, logger), logger)

	r := chi.NewRouter()
	r.Mount("/api/health", handler.Routes())
	r.Get("/api/version", handler.Version)
	return r
}

func TestHealthHandler(t *testing.T) {
	loaded := services.LoadStatus{Loaded: true, Source: "file", Items: 8}

	tests := []struct {
		name       string
		status     services.LoadStatus
		target     string
		wantStatus int
		wantField  string
		wantValue  interface{}
	}{
		{"health", loaded, "/api/health", http.StatusOK, "status", "ok"},
		{"live", loaded, "/api/health/live", http.StatusOK, "status", "alive"},
		{"ready", loaded, "/api/health/ready", http.StatusOK, "status", "ready"},
		{"not ready before the first load", services.LoadStatus{Source: "file", Error: "open data.json: no such file"}, "/api/health/ready", http.StatusServiceUnavailable, "status", "not_ready"},
		{"version", loaded, "/api/version", http.StatusOK, "build_time", "2026-10-01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, newHealthRouter(t, tt.status), http.MethodGet, tt.target, nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantValue, decode(t, rec)[tt.wantField])
		})
	}
}
