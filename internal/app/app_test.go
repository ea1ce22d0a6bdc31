package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shortwatch/internal/config"
	"shortwatch/internal/shared/testutil"
)

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Data.Source = filepath.Join("..", "..", "data", "master-dashboard.json")
	cfg.Dashboard.SearchDebounce = 10 * time.Millisecond
	cfg.Telemetry.Environment = "test"
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	app, err := New(cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Stop(context.Background()) })
	return app
}

func startedApp(t *testing.T) *Application {
	t.Helper()
	app := newTestApp(t, newTestConfig(t))
	require.NoError(t, app.Start(context.Background()))
	require.True(t, app.Dashboard.Status().Loaded)
	return app
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := New(nil, nil)
		require.Error(t, err)
	})

	t.Run("wires every component", func(t *testing.T) {
		app := newTestApp(t, newTestConfig(t))

		assert.NotNil(t, app.Router)
		assert.NotNil(t, app.Dashboard)
		assert.NotNil(t, app.HealthService)
		assert.NotNil(t, app.WebSocketHub)
		assert.NotNil(t, app.Metrics)
		assert.NotNil(t, app.ErrorHandler)
		assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
		assert.Equal(t, app.Config.Server.ReadTimeout, app.Server.ReadTimeout)
		assert.False(t, app.Dashboard.Status().Loaded, "nothing is loaded before Start")
	})

	t.Run("unsupported source scheme", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Data.Source = "ftp://example.com/dashboard.json"
		logger, _ := testutil.NewTestLogger(t)

		_, err := New(cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to resolve data source")
	})

	t.Run("unsupported exporter", func(t *testing.T) {
		cfg := newTestConfig(t)
		cfg.Telemetry.TraceExporter = "jaeger"
		logger, _ := testutil.NewTestLogger(t)

		_, err := New(cfg, logger)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OpenTelemetry")
	})
}

func TestApplication_Routes(t *testing.T) {
	app := startedApp(t)

	tests := []struct {
		name        string
		method      string
		target      string
		wantStatus  int
		wantContent string
	}{
		{"health", http.MethodGet, "/api/health", http.StatusOK, "application/json"},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK, "application/json"},
		{"liveness", http.MethodGet, "/api/health/live", http.StatusOK, "application/json"},
		{"version", http.MethodGet, "/api/version", http.StatusOK, "application/json"},
		{"overview", http.MethodGet, "/api/dashboard", http.StatusOK, "application/json"},
		{"status", http.MethodGet, "/api/dashboard/status", http.StatusOK, "application/json"},
		{"reload", http.MethodPost, "/api/dashboard/reload", http.StatusOK, "application/json"},
		{"items", http.MethodGet, "/api/items?alert=red&sort=priceYoY&direction=desc", http.StatusOK, "application/json"},
		{"item", http.MethodGet, "/api/items/1", http.StatusOK, "application/json"},
		{"chart", http.MethodGet, "/api/items/1/chart?period=90", http.StatusOK, "application/json"},
		{"export", http.MethodGet, "/api/items/export?format=csv", http.StatusOK, "text/csv"},
		{"chains", http.MethodGet, "/api/chains", http.StatusOK, "application/json"},
		{"indicators", http.MethodGet, "/api/indicators", http.StatusOK, "application/json"},
		{"metrics", http.MethodGet, "/metrics", http.StatusOK, "text/plain"},
		{"invalid sort", http.MethodGet, "/api/items?sort=colour", http.StatusBadRequest, ""},
		{"unknown item", http.MethodGet, "/api/items/999", http.StatusNotFound, ""},
		{"item without price data", http.MethodGet, "/api/items/4/chart", http.StatusNotFound, ""},
		{"unknown route", http.MethodGet, "/nope", http.StatusNotFound, ""},
		{"wrong method", http.MethodDelete, "/api/dashboard", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantContent != "" {
				assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantContent)
			}
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_APIMiddleware(t *testing.T) {
	app := startedApp(t)

	t.Run("security headers", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	})

	t.Run("cors preflight for configured origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/items", nil)
		req.Header.Set("Origin", "http://localhost:8080")
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "http://localhost:8080", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("etag round trip", func(t *testing.T) {
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
		etag := rec.Header().Get("ETag")
		require.NotEmpty(t, etag)

		req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
		req.Header.Set("If-None-Match", etag)
		rec = httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotModified, rec.Code)
	})

	t.Run("malformed json body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/dashboard/reload", strings.NewReader("{"))
		rec := httptest.NewRecorder()
		app.Router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestApplication_NotLoaded(t *testing.T) {
	cfg := newTestConfig(t)
	cfg.Data.Source = filepath.Join(t.TempDir(), "missing.json")
	app := newTestApp(t, cfg)

	require.NoError(t, app.Start(context.Background()), "a failed first load is not fatal")
	assert.False(t, app.Dashboard.Status().Loaded)

	tests := []struct {
		target     string
		wantStatus int
	}{
		{"/api/dashboard", http.StatusServiceUnavailable},
		{"/api/items", http.StatusServiceUnavailable},
		{"/api/health/ready", http.StatusServiceUnavailable},
		{"/api/health/live", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := httptest.NewRecorder()
			app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/dashboard/reload", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestApplication_WebSocketQuery(t *testing.T) {
	app := startedApp(t)
	server := httptest.NewServer(app.Router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"query","alert":"red","sort":"id","direction":"asc"}`)))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, payload, err := conn.ReadMessage()
		require.NoError(t, err)

		var msg struct {
			Type string `json:"type"`
			Data struct {
				Count int `json:"count"`
				Total int `json:"total"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &msg))
		if msg.Type != "items" {
			continue
		}
		assert.Equal(t, 2, msg.Data.Count)
		assert.Equal(t, 8, msg.Data.Total)
		return
	}
}

func TestApplication_Run(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	assert.Eventually(t, func() bool { return app.Dashboard.Status().Loaded }, 5*time.Second, 10*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestApplication_StopIsIdempotent(t *testing.T) {
	app := newTestApp(t, newTestConfig(t))
	require.NoError(t, app.Start(context.Background()))

	require.NoError(t, app.Stop(context.Background()))
	require.NoError(t, app.Stop(context.Background()))
	assert.Equal(t, 0, app.WebSocketHub.ClientCount())
}
